package snapshot

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/hupe1980/trieidx/codec"
	"github.com/hupe1980/trieidx/trie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildIndex(t *testing.T, recs []trie.Record, fields ...string) *trie.Index {
	t.Helper()
	ix := trie.New()
	_, err := ix.LoadData(recs, fields, false)
	require.NoError(t, err)
	return ix
}

func fruits() []trie.Record {
	return []trie.Record{
		{"name": "Apple"},
		{"name": "Apricot"},
		{"name": "Banana"},
	}
}

func catalog() []trie.Record {
	var recs []trie.Record
	words := []string{"apple pie", "apricot jam", "banana bread", "pineapple", "grape", "grapefruit", "cab", "cat", "café au lait"}
	for i, w := range words {
		recs = append(recs, trie.Record{"id": i, "title": w, "kind": fmt.Sprint("k", i%3)})
	}
	return recs
}

var queries = []string{"a", "ap", "apple", "apr", "b", "bread", "grape", "gr", "ca", "caf", "café", "lait", "k1", "pie", "jam", "xyz", "e"}

func TestExport_Compression(t *testing.T) {
	ix := buildIndex(t, fruits(), "name")
	tree := ExportTree(ix)

	assert.Equal(t, "", tree.K)
	require.Len(t, tree.C, 2)

	a := tree.C[0]
	assert.Equal(t, "a", a.Key)
	assert.Equal(t, "ap", a.Node.K)
	assert.Empty(t, a.Node.I)
	require.Len(t, a.Node.C, 2)
	assert.Equal(t, "ple", a.Node.C[0].Node.K)
	assert.Equal(t, "ricot", a.Node.C[1].Node.K)

	b := tree.C[1]
	assert.Equal(t, "banana", b.Node.K)
	assert.Len(t, b.Node.I, 1)

	// root, ap, ple, ricot, banana
	assert.Equal(t, 5, tree.Count())
}

func TestExport_MaximalCollapse(t *testing.T) {
	ix := buildIndex(t, catalog(), "title", "kind")

	var check func(n *Node, root bool)
	check = func(n *Node, root bool) {
		if !root && len(n.I) == 0 {
			assert.NotEqual(t, 1, len(n.C), "uncollapsed chain at %q", n.K)
		}
		for _, ch := range n.C {
			first := []rune(ch.Node.K)[0]
			assert.Equal(t, string(first), ch.Key)
			check(ch.Node, false)
		}
	}
	check(ExportTree(ix), true)
}

func TestExport_ItemsAndMetadata(t *testing.T) {
	ix := buildIndex(t, fruits(), "name")
	s := Export(ix, Metadata{DatasetID: "fruit", SearchFields: []string{"name"}})

	assert.Equal(t, Version, s.Metadata.Version)
	assert.Equal(t, 3, s.Metadata.RecordCount)
	assert.Len(t, s.Items, 3)
	for id, rec := range s.Items {
		assert.Equal(t, trie.ItemID(rec), id)
	}
}

func TestRoundTrip_Scenario(t *testing.T) {
	ix := buildIndex(t, fruits(), "name")

	got, stats, err := Import(Export(ix, Metadata{}))
	require.NoError(t, err)
	assert.Zero(t, stats.Dropped)
	assert.Equal(t, 3, stats.Items)

	want := ix.Search("ap", 10)
	res := got.Search("ap", 10)
	require.Len(t, res, 2)
	assert.Equal(t, want, res)
	assert.InDelta(t, 0.94, res[0].Score, 1e-9)
}

func TestRoundTrip_AllQueries(t *testing.T) {
	ix := buildIndex(t, catalog(), "title", "kind")

	got, _, err := Import(Export(ix, Metadata{}))
	require.NoError(t, err)
	assert.Equal(t, ix.Len(), got.Len())
	assert.Equal(t, ix.Terms(), got.Terms())

	for _, q := range queries {
		for _, limit := range []int{1, 3, 100} {
			assert.Equal(t, ix.Search(q, limit), got.Search(q, limit), "query %q limit %d", q, limit)
		}
	}
}

func TestRoundTrip_Encoded(t *testing.T) {
	ix := buildIndex(t, catalog(), "title", "kind")

	for _, c := range []codec.Codec{codec.JSON{}, codec.GoJSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			b, err := Encode(c, Export(ix, Metadata{DatasetID: "d"}))
			require.NoError(t, err)

			s, err := Decode(c, b)
			require.NoError(t, err)
			assert.Equal(t, "d", s.Metadata.DatasetID)

			got, _, err := Import(s)
			require.NoError(t, err)

			for _, q := range queries {
				want := ix.Search(q, 100)
				res := got.Search(q, 100)
				require.Len(t, res, len(want), "query %q", q)
				for i := range want {
					assert.Equal(t, want[i].ID, res[i].ID, "query %q", q)
					assert.Equal(t, want[i].Score, res[i].Score, "query %q", q)
					assert.Equal(t, want[i].Item["title"], res[i].Item["title"], "query %q", q)
				}
			}
		})
	}
}

func TestChildren_KeepOrder(t *testing.T) {
	n := &Node{C: Children{
		{Key: "z", Node: &Node{K: "z", I: []string{"1"}}},
		{Key: "a", Node: &Node{K: "a", I: []string{"2"}}},
		{Key: "m", Node: &Node{K: "m", I: []string{"3"}}},
	}}

	b, err := json.Marshal(n)
	require.NoError(t, err)
	assert.JSONEq(t, `{"k":"","c":{"z":{"k":"z","i":["1"]},"a":{"k":"a","i":["2"]},"m":{"k":"m","i":["3"]}}}`, string(b))

	var back Node
	require.NoError(t, json.Unmarshal(b, &back))
	require.Len(t, back.C, 3)
	assert.Equal(t, "z", back.C[0].Key)
	assert.Equal(t, "a", back.C[1].Key)
	assert.Equal(t, "m", back.C[2].Key)
}

func TestNode_MarshalDeepChain(t *testing.T) {
	const depth = 500

	root := &Node{}
	cur := root
	for i := range depth {
		key := string(rune('a' + i%26))
		next := &Node{K: key}
		if i%7 == 0 {
			next.I = []string{fmt.Sprint(i), "q\"<&>"}
		}
		cur.C = Children{{Key: key, Node: next}}
		cur = next
	}

	b, err := json.Marshal(root)
	require.NoError(t, err)

	var back Node
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, depth+1, back.Count())
	assert.Equal(t, root, &back)

	direct, err := root.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, string(b), string(direct))
}

func TestRoundTrip_SharedIDs(t *testing.T) {
	ix := buildIndex(t, []trie.Record{
		{"id": 1, "name": "Apple"},
		{"id": 1, "name": "Banana"},
	}, "name")

	s := Export(ix, Metadata{})
	assert.Contains(t, s.Items, "1")
	assert.Contains(t, s.Items, "1#1")

	back, _, err := Import(s)
	require.NoError(t, err)
	res := back.Search("banana", 10)
	require.Len(t, res, 1)
	assert.Equal(t, "1#1", res[0].ID)
	assert.Equal(t, "Banana", res[0].Item["name"])
}

func TestImport_DropsUnknownItems(t *testing.T) {
	ix := buildIndex(t, fruits(), "name")
	s := Export(ix, Metadata{})

	apple := trie.ItemID(trie.Record{"name": "Apple"})
	delete(s.Items, apple)

	got, stats, err := Import(s)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Dropped)
	assert.Equal(t, 2, got.Len())

	res := got.Search("ap", 10)
	require.Len(t, res, 1)
	assert.Equal(t, "Apricot", res[0].Item["name"])
}

func TestImport_Invalid(t *testing.T) {
	_, _, err := Import(nil)
	assert.ErrorIs(t, err, ErrInvalidSnapshot)

	_, _, err = Import(&Snapshot{})
	assert.ErrorIs(t, err, ErrInvalidSnapshot)

	_, _, err = Import(&Snapshot{Metadata: Metadata{Version: 99}, Trie: &Node{}})
	assert.ErrorIs(t, err, ErrUnsupportedVersion)

	_, _, err = ImportTree(&Node{C: Children{{Key: "a", Node: nil}}}, nil)
	assert.ErrorIs(t, err, ErrInvalidSnapshot)

	_, err = Decode(nil, []byte(`{"metadata":{}}`))
	assert.ErrorIs(t, err, ErrInvalidSnapshot)

	_, err = Decode(nil, []byte(`not json`))
	assert.ErrorIs(t, err, ErrInvalidSnapshot)
}

func TestImport_EmptyIndex(t *testing.T) {
	s := Export(trie.New(), Metadata{})
	got, stats, err := Import(s)
	require.NoError(t, err)
	assert.True(t, got.Empty())
	assert.Equal(t, 1, stats.Nodes)
}
