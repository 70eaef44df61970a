package snapshot

import (
	"fmt"
	"log/slog"

	"github.com/hupe1980/trieidx/trie"
)

// ImportStats summarizes an import.
type ImportStats struct {
	Nodes   int // compressed nodes visited
	Terms   int // terminal nodes restored
	Items   int // distinct items attached
	Dropped int // item references missing from the item map
}

type importOptions struct {
	logger      *slog.Logger
	trieOptions []trie.Option
}

// ImportOption configures Import.
type ImportOption func(*importOptions)

// WithLogger sets the logger used to report dropped items. It is also passed
// on to the imported index.
func WithLogger(l *slog.Logger) ImportOption {
	return func(o *importOptions) {
		if l != nil {
			o.logger = l
			o.trieOptions = append(o.trieOptions, trie.WithLogger(l))
		}
	}
}

// Import rebuilds a searchable index from s.
//
// Item ids that are not in the item map are dropped and counted; the import
// still succeeds.
func Import(s *Snapshot, optFns ...ImportOption) (*trie.Index, ImportStats, error) {
	if s == nil || s.Trie == nil {
		return nil, ImportStats{}, ErrInvalidSnapshot
	}
	if v := s.Metadata.Version; v != 0 && v != Version {
		return nil, ImportStats{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	return ImportTree(s.Trie, s.Items, optFns...)
}

// ImportTree rebuilds an index from a tree and the item map it references.
func ImportTree(root *Node, items map[string]trie.Record, optFns ...ImportOption) (*trie.Index, ImportStats, error) {
	o := importOptions{logger: slog.New(slog.DiscardHandler)}
	for _, fn := range optFns {
		fn(&o)
	}

	var stats ImportStats
	if root == nil {
		return nil, stats, ErrInvalidSnapshot
	}

	ix := trie.New(o.trieOptions...)
	dropped := make(map[string]struct{})

	// Terminal paths are re-inserted in depth-first order, which recreates
	// every child edge in its original position.
	var walk func(n *Node, prefix string) error
	walk = func(n *Node, prefix string) error {
		stats.Nodes++
		term := prefix + n.K

		if len(n.I) > 0 {
			stats.Terms++
		}
		for _, id := range n.I {
			rec, ok := items[id]
			if !ok {
				stats.Dropped++
				dropped[id] = struct{}{}
				continue
			}
			ix.InsertID(term, id, rec)
		}

		for _, ch := range n.C {
			if ch.Node == nil || ch.Node.K == "" {
				return fmt.Errorf("%w: empty child %q under %q", ErrInvalidSnapshot, ch.Key, term)
			}
			if err := walk(ch.Node, term); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(root, ""); err != nil {
		return nil, stats, err
	}
	stats.Items = ix.Len()

	if stats.Dropped > 0 {
		o.logger.Warn("snapshot import dropped unknown items",
			"dropped", stats.Dropped,
			"distinct", len(dropped),
		)
	}

	return ix, stats, nil
}
