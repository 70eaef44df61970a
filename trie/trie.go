package trie

import (
	"errors"
	"log/slog"
	"reflect"
	"strconv"
	"sync"
	"unicode/utf8"
)

var (
	// ErrNoRecords is returned by LoadData when no records are given.
	ErrNoRecords = errors.New("trie: no records to load")
	// ErrNoFields is returned by LoadData when no fields are given.
	ErrNoFields = errors.New("trie: no fields to index")
)

// NodeID addresses a node in the index arena.
type NodeID uint32

// Edge is a labelled link from a node to one of its children.
type Edge struct {
	Rune rune
	Node NodeID
}

type node struct {
	edges []Edge
	items []uint32 // ordinals into Index.items
}

func (n *node) terminal() bool { return len(n.items) > 0 }

func (n *node) child(r rune) (NodeID, bool) {
	for _, e := range n.edges {
		if e.Rune == r {
			return e.Node, true
		}
	}
	return 0, false
}

type termRef struct {
	term string
	node NodeID
}

// Index is a character trie over normalized field values.
type Index struct {
	nodes []node

	items []Record
	ids   []string
	byID  map[string]uint32

	terminals int

	termsMu sync.Mutex
	terms   []termRef // depth-first term list, nil when stale

	logger *slog.Logger
}

type options struct {
	logger *slog.Logger
}

// Option configures an Index.
type Option func(*options)

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// New returns an empty index.
func New(optFns ...Option) *Index {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, fn := range optFns {
		fn(&o)
	}

	ix := &Index{logger: o.logger}
	ix.reset()
	return ix
}

func (ix *Index) reset() {
	ix.nodes = make([]node, 1, 64)
	ix.items = nil
	ix.ids = nil
	ix.byID = make(map[string]uint32)
	ix.terminals = 0
	ix.invalidateTerms()
}

func (ix *Index) invalidateTerms() {
	ix.termsMu.Lock()
	ix.terms = nil
	ix.termsMu.Unlock()
}

// Clear returns the index to its empty state. Records held by callers are not
// affected.
func (ix *Index) Clear() {
	ix.reset()
}

// Len returns the number of distinct items in the index.
func (ix *Index) Len() int { return len(ix.items) }

// Terms returns the number of distinct indexed terms.
func (ix *Index) Terms() int { return ix.terminals }

// Empty reports whether nothing has been indexed.
func (ix *Index) Empty() bool { return len(ix.items) == 0 }

// Insert indexes item under word. The item is identified by ItemID; a
// different record already registered under that id moves item to a
// disambiguated id (see LoadData).
func (ix *Index) Insert(word string, item Record) {
	ix.insert(Normalize(word), ix.resolveID(ItemID(item), item), item)
}

// InsertID indexes item under word using an explicit item id. If an item with
// the same id is already registered, the registered record is kept.
func (ix *Index) InsertID(word, id string, item Record) {
	ix.insert(Normalize(word), id, item)
}

func (ix *Index) insert(term, id string, item Record) {
	if term == "" {
		return
	}

	cur := NodeID(0)
	for _, r := range term {
		next, ok := ix.nodes[cur].child(r)
		if !ok {
			next = NodeID(len(ix.nodes))
			ix.nodes = append(ix.nodes, node{})
			ix.nodes[cur].edges = append(ix.nodes[cur].edges, Edge{Rune: r, Node: next})
		}
		cur = next
	}

	ord := ix.register(id, item)

	n := &ix.nodes[cur]
	for _, o := range n.items {
		if o == ord {
			return
		}
	}
	if !n.terminal() {
		ix.terminals++
		ix.invalidateTerms()
	}
	n.items = append(n.items, ord)
}

// resolveID returns the id item is registered under. It is id unless a
// different record already holds id, in which case the first free or matching
// id of the form id#1, id#2, ... is used.
func (ix *Index) resolveID(id string, item Record) string {
	ord, ok := ix.byID[id]
	if !ok || sameRecord(ix.items[ord], item) {
		return id
	}
	for n := 1; ; n++ {
		alt := id + "#" + strconv.Itoa(n)
		ord, ok := ix.byID[alt]
		if !ok || sameRecord(ix.items[ord], item) {
			ix.logger.Warn("item id collision", "id", id, "registered_as", alt)
			return alt
		}
	}
}

func sameRecord(a, b Record) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.ValueOf(a).UnsafePointer() == reflect.ValueOf(b).UnsafePointer() {
		return true
	}
	return reflect.DeepEqual(a, b)
}

func (ix *Index) register(id string, item Record) uint32 {
	if ord, ok := ix.byID[id]; ok {
		return ord
	}
	ord := uint32(len(ix.items))
	ix.items = append(ix.items, item)
	ix.ids = append(ix.ids, id)
	ix.byID[id] = ord
	return ord
}

// Root returns the root node.
func (ix *Index) Root() NodeID { return 0 }

// Edges returns the child edges of n in insertion order. The slice must not be
// modified.
func (ix *Index) Edges(n NodeID) []Edge { return ix.nodes[n].edges }

// Terminal reports whether at least one item ends at n.
func (ix *Index) Terminal(n NodeID) bool { return ix.nodes[n].terminal() }

// IDs returns the ids of the items ending at n, in insertion order.
func (ix *Index) IDs(n NodeID) []string {
	ords := ix.nodes[n].items
	if len(ords) == 0 {
		return nil
	}
	out := make([]string, len(ords))
	for i, o := range ords {
		out[i] = ix.ids[o]
	}
	return out
}

// Item returns the record registered for id.
func (ix *Index) Item(id string) (Record, bool) {
	ord, ok := ix.byID[id]
	if !ok {
		return nil, false
	}
	return ix.items[ord], true
}

// lookup returns the node reached by term, if any.
func (ix *Index) lookup(term string) (NodeID, bool) {
	return ix.descend(Normalize(term))
}

func (ix *Index) descend(term string) (NodeID, bool) {
	cur := NodeID(0)
	for _, r := range term {
		next, ok := ix.nodes[cur].child(r)
		if !ok {
			return 0, false
		}
		cur = next
	}
	return cur, true
}

// termList returns every indexed term in depth-first child order.
func (ix *Index) termList() []termRef {
	ix.termsMu.Lock()
	defer ix.termsMu.Unlock()

	if ix.terms != nil {
		return ix.terms
	}

	terms := make([]termRef, 0, ix.terminals)
	buf := make([]byte, 0, 64)

	var walk func(n NodeID)
	walk = func(n NodeID) {
		if ix.nodes[n].terminal() {
			terms = append(terms, termRef{term: string(buf), node: n})
		}
		for _, e := range ix.nodes[n].edges {
			mark := len(buf)
			buf = utf8.AppendRune(buf, e.Rune)
			walk(e.Node)
			buf = buf[:mark]
		}
	}
	walk(0)

	ix.terms = terms
	return terms
}
