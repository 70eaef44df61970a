// Package resource governs the shared limits of a trieidx process.
//
// A Controller manages three resources:
//
//	┌──────────────────────────────────────────────────────────────┐
//	│                          Controller                          │
//	├──────────────────┬──────────────────┬────────────────────────┤
//	│  Storage quota   │  Background      │  IO rate limiter       │
//	│  (semaphore)     │  slots (sem)     │  (token bucket)        │
//	├──────────────────┼──────────────────┼────────────────────────┤
//	│  TryAcquire-     │  TryAcquire-     │  AcquireIO             │
//	│  Storage         │  Background      │  Writer                │
//	│  ReleaseStorage  │  Release-        │  Reader                │
//	│  StorageUsage    │  Background      │                        │
//	└──────────────────┴──────────────────┴────────────────────────┘
//
// The storage quota bounds the bytes a cache tier may hold; a write that does
// not fit is rejected instead of blocking. Background slots decide whether the
// worker executor may move a load off the caller's goroutine. The IO limiter
// throttles file reads and writes of the local cache tier.
//
// All methods are safe on a nil *Controller, which imposes no limits.
package resource
