// Package hash provides the checksums and fingerprints used across trieidx.
//
// # CRC32-Castagnoli (CRC32C)
//
// Compressed cache frames carry a CRC32C of their uncompressed bytes so a
// corrupted entry is detected on read and treated as a cache miss. Go's crc32
// package uses hardware instructions (SSE4.2, ARM CRC) when available.
//
//	checksum := hash.CRC32C(data)
//
// # Fingerprints
//
// Fingerprint derives short, stable identifiers from content (item ids for
// records without an identifier field, cache keys for datasets). It is backed
// by xxhash64 and is not suitable for security purposes.
//
//	id := hash.Fingerprint(canonicalJSON)
package hash
