// Package trie implements the in-memory character trie behind trieidx.
//
// Records are indexed by the values of selected fields. Every value is
// normalized (lower-cased, whitespace collapsed) and inserted twice over: once
// as a whole and once per whitespace token, so both "apple pie" and "pie" are
// searchable as prefixes.
//
// # Storage
//
// Nodes live in a single arena slice and are addressed by NodeID; the root is
// always NodeID 0. Each node keeps its child edges in insertion order, which
// is the order searches visit descendants in.
//
// # Ranking
//
// A query is answered in three tiers:
//
//	1.0                      the query is an indexed term
//	0.9 + |q|/|term| * 0.1   an indexed term extends the query
//	0.7                      an indexed term contains the query elsewhere
//
// Items are deduplicated by item id (the highest score wins) and the list is
// stably sorted by score.
//
// An Index is not safe for concurrent mutation. Hand ownership to a single
// goroutine, or build a fresh index and publish it once complete; a published
// index that is no longer mutated may be searched concurrently.
package trie
