// Package testutil provides deterministic record generators for tests and
// benchmarks.
//
//	rng := testutil.NewRNG(4711)
//	records := rng.Records(1000, testutil.RecordOptions{})
//	word := rng.Word(3, 8)
package testutil
