// Package worker moves index construction and search off the caller's
// goroutine.
//
// An Executor splits a load into fixed-size chunks. When a background slot is
// available, a worker on the pool owns a fresh index and receives the chunks
// as LoadData messages, strictly in order, replying with a Progress message
// per chunk and a Complete message carrying the finished index:
//
//	LoadData{batch 0..N-1} ──▶ worker ──▶ Progress * N ──▶ Complete | Error
//	Search{snapshot}        ──▶ worker ──▶ SearchResults | Error
//
// Without a background slot the same chunks are loaded on the caller's
// goroutine, yielding to the scheduler between chunks.
//
// A load either completes or fails as a whole. Errors, panics and context
// cancellation discard the partially built index; callers restart the load.
package worker
