package snapshot

import (
	"errors"
	"fmt"

	"github.com/hupe1980/trieidx/codec"
	"github.com/hupe1980/trieidx/trie"
)

// Version is the current export format version.
const Version = 1

var (
	// ErrInvalidSnapshot is returned for a snapshot without a tree or with
	// malformed nodes.
	ErrInvalidSnapshot = errors.New("snapshot: invalid snapshot")
	// ErrUnsupportedVersion is returned for an unknown format version.
	ErrUnsupportedVersion = errors.New("snapshot: unsupported version")
)

// Metadata describes the dataset an export was built from.
type Metadata struct {
	Version      int      `json:"version"`
	DatasetID    string   `json:"datasetId"`
	SearchFields []string `json:"searchFields"`
	ReturnFields []string `json:"returnFields,omitempty"`
	RecordCount  int      `json:"recordCount"`
}

// Snapshot is the complete export of an index.
type Snapshot struct {
	Metadata Metadata               `json:"metadata"`
	Items    map[string]trie.Record `json:"items"`
	Trie     *Node                  `json:"trie"`
}

// Encode serializes s with c. A nil codec uses codec.Default.
func Encode(c codec.Codec, s *Snapshot) ([]byte, error) {
	if s == nil || s.Trie == nil {
		return nil, ErrInvalidSnapshot
	}
	if c == nil {
		c = codec.Default
	}
	b, err := c.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("snapshot: encode with %s: %w", c.Name(), err)
	}
	return b, nil
}

// Decode parses data produced by Encode. A nil codec uses codec.Default.
func Decode(c codec.Codec, data []byte) (*Snapshot, error) {
	if c == nil {
		c = codec.Default
	}
	var s Snapshot
	if err := c.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: decode with %s: %w", ErrInvalidSnapshot, c.Name(), err)
	}
	if s.Trie == nil {
		return nil, fmt.Errorf("%w: missing trie", ErrInvalidSnapshot)
	}
	return &s, nil
}
