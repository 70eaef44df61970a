// Package snapshot converts a trie.Index to and from its compact export form.
//
// The export replaces records with item ids and path-compresses the tree:
// chains of single-child nodes that carry no items are merged into one node
// with a compound key. Records travel once, in the item map.
//
//	{
//	  "metadata": {"version": 1, "datasetId": "...", "searchFields": [...], "returnFields": [...], "recordCount": 3},
//	  "items":    {"<itemId>": {...record...}},
//	  "trie":     {"k": "", "c": {"a": {"k": "ap", "c": {...}}, "b": {"k": "banana", "i": ["<itemId>"]}}}
//	}
//
// Children are written in the order the source index visits them and read back
// in document order, so an imported index ranks ties exactly like the source.
package snapshot
