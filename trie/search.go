package trie

import (
	"cmp"
	"slices"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
)

// Scores assigned by Search.
const (
	ScoreExact     = 1.0
	ScorePrefix    = 0.9
	ScoreSubstring = 0.7
)

// Result is a single search hit.
type Result struct {
	ID    string
	Item  Record
	Score float64
}

// collector accumulates hits, keeping one entry per item at the position it
// was first seen and the highest score it was given. The seen bitmap doubles
// as a dense index: an item's rank in it addresses its best score.
type collector struct {
	ix    *Index
	seen  *roaring.Bitmap
	order []uint32 // ordinals in first-seen order
	hits  []hit
}

type hit struct {
	ord   uint32
	score float64
}

func (c *collector) add(ord uint32, score float64) {
	if c.seen.CheckedAdd(ord) {
		c.order = append(c.order, ord)
	}
	c.hits = append(c.hits, hit{ord: ord, score: score})
}

func (c *collector) results() []Result {
	best := make([]float64, c.seen.GetCardinality())
	for _, h := range c.hits {
		i := c.seen.Rank(h.ord) - 1
		best[i] = max(best[i], h.score)
	}

	out := make([]Result, len(c.order))
	for i, ord := range c.order {
		out[i] = Result{ID: c.ix.ids[ord], Item: c.ix.items[ord], Score: best[c.seen.Rank(ord)-1]}
	}
	return out
}

// Search returns up to limit items matching query, highest score first.
//
// An empty query, a non-positive limit, or a query that is not a prefix of
// any indexed term yields no results.
func (ix *Index) Search(query string, limit int) []Result {
	q := Normalize(query)
	if q == "" || limit <= 0 {
		return nil
	}

	start, ok := ix.descend(q)
	if !ok {
		return nil
	}

	c := &collector{ix: ix, seen: roaring.New()}

	for _, ord := range ix.nodes[start].items {
		c.add(ord, ScoreExact)
	}

	qlen := runeLen(q)
	var walk func(n NodeID, depth int)
	walk = func(n NodeID, depth int) {
		for _, e := range ix.nodes[n].edges {
			child := &ix.nodes[e.Node]
			if child.terminal() {
				score := ScorePrefix + float64(qlen)/float64(qlen+depth+1)*0.1
				for _, ord := range child.items {
					c.add(ord, score)
				}
			}
			walk(e.Node, depth+1)
		}
	}
	walk(start, 0)

	for _, t := range ix.termList() {
		if strings.HasPrefix(t.term, q) || !strings.Contains(t.term, q) {
			continue
		}
		for _, ord := range ix.nodes[t.node].items {
			c.add(ord, ScoreSubstring)
		}
	}

	results := c.results()
	hits := len(results)
	slices.SortStableFunc(results, func(a, b Result) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(results) > limit {
		results = results[:limit]
	}

	ix.logger.Debug("search", "query", q, "limit", limit, "hits", hits, "returned", len(results))
	return results
}
