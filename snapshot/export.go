package snapshot

import (
	"unicode/utf8"

	"github.com/hupe1980/trieidx/trie"
)

// Export builds the compact form of ix. Metadata.Version defaults to Version
// and Metadata.RecordCount to ix.Len().
func Export(ix *trie.Index, meta Metadata) *Snapshot {
	if meta.Version == 0 {
		meta.Version = Version
	}
	if meta.RecordCount == 0 {
		meta.RecordCount = ix.Len()
	}

	items := make(map[string]trie.Record, ix.Len())
	root := exportTree(ix, func(id string) {
		if _, ok := items[id]; ok {
			return
		}
		if rec, ok := ix.Item(id); ok {
			items[id] = rec
		}
	})

	return &Snapshot{
		Metadata: meta,
		Items:    items,
		Trie:     root,
	}
}

// ExportTree returns only the path-compressed tree of ix.
func ExportTree(ix *trie.Index) *Node {
	return exportTree(ix, func(string) {})
}

func exportTree(ix *trie.Index, visit func(id string)) *Node {
	root := &Node{}
	for _, e := range ix.Edges(ix.Root()) {
		root.C = append(root.C, Child{
			Key:  string(e.Rune),
			Node: exportNode(ix, e, visit),
		})
	}
	return root
}

// exportNode emits the node reached through e, merging every following
// single-child node that carries no items into its key.
func exportNode(ix *trie.Index, e trie.Edge, visit func(id string)) *Node {
	key := utf8.AppendRune(nil, e.Rune)
	n := e.Node
	for !ix.Terminal(n) && len(ix.Edges(n)) == 1 {
		next := ix.Edges(n)[0]
		key = utf8.AppendRune(key, next.Rune)
		n = next.Node
	}

	out := &Node{K: string(key), I: ix.IDs(n)}
	for _, id := range out.I {
		visit(id)
	}
	for _, ce := range ix.Edges(n) {
		out.C = append(out.C, Child{
			Key:  string(ce.Rune),
			Node: exportNode(ix, ce, visit),
		})
	}
	return out
}
