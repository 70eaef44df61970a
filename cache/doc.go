// Package cache persists compressed index exports in tiered storage.
//
// A Manager writes through up to three tiers:
//
//	hot       in-process LRU (optional)
//	primary   structured store, e.g. sqlstore.Store
//	fallback  simple key-value store, e.g. a QuotaStore over a LocalStore
//
// Store tries the primary tier and falls back on failure. When the fallback
// rejects a write for capacity, other entries of the namespace are evicted
// one at a time until the write fits; if nothing is left to evict, a small
// "too large to cache" marker is written instead and StatusDegraded is
// reported.
//
// Retrieve reads hot, primary, fallback in that order. Corrupted entries,
// markers and storage errors are misses: the cache is best-effort and the
// caller always rebuilds from the source of truth.
//
// # Entry format
//
//	[magic "TIC1"][flags uint8][stored at unix nanos int64][compress frame...]
//
// Fallback payloads are base64 encoded when the text fallback option is on.
package cache
