package testutil

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"

	"github.com/hupe1980/trieidx/trie"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz"

// RNG wraps a seeded random source. It is safe for concurrent use.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG with the given seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset rewinds the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Word returns a lowercase ASCII word with a length in [minLen, maxLen].
func (r *RNG) Word(minLen, maxLen int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.wordLocked(minLen, maxLen)
}

func (r *RNG) wordLocked(minLen, maxLen int) string {
	if minLen < 1 {
		minLen = 1
	}
	if maxLen < minLen {
		maxLen = minLen
	}

	n := minLen + r.rand.Intn(maxLen-minLen+1)
	var sb strings.Builder
	sb.Grow(n)
	for range n {
		sb.WriteByte(alphabet[r.rand.Intn(len(alphabet))])
	}
	return sb.String()
}

// Vocabulary returns n distinct words. Words share prefixes often enough to
// produce branching tries.
func (r *RNG) Vocabulary(n int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, n)
	words := make([]string, 0, n)
	for len(words) < n {
		var w string
		if len(words) > 0 && r.rand.Float64() < 0.3 {
			// Extend an existing word.
			w = words[r.rand.Intn(len(words))] + r.wordLocked(1, 3)
		} else {
			w = r.wordLocked(3, 8)
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		words = append(words, w)
	}
	return words
}

// Zipf returns a Zipfian-distributed value in [0, n).
// s=1.0 gives standard Zipf, larger s skews harder.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zipfLocked(n, s)
}

func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}

	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1
		}
	}

	return n - 1
}

// RecordOptions controls Records.
type RecordOptions struct {
	// VocabularySize is the number of distinct words. If 0, defaults to 200.
	VocabularySize int

	// MaxWords bounds the words per name. If 0, defaults to 3.
	MaxWords int

	// MissingRate is the probability that the city field is absent.
	MissingRate float64

	// NumericIDs emits ids as float64, the way JSON decoding produces them.
	NumericIDs bool

	// NoIDs omits the id field so item ids fall back to content hashes.
	NoIDs bool
}

// Records generates n records with "id", "name", "city" and "rank" fields.
// Names are built from a Zipf-skewed vocabulary.
func (r *RNG) Records(n int, opts RecordOptions) []trie.Record {
	if opts.VocabularySize <= 0 {
		opts.VocabularySize = 200
	}
	if opts.MaxWords <= 0 {
		opts.MaxWords = 3
	}

	vocab := r.Vocabulary(opts.VocabularySize)

	r.mu.Lock()
	defer r.mu.Unlock()

	records := make([]trie.Record, n)
	for i := range n {
		words := make([]string, 1+r.rand.Intn(opts.MaxWords))
		for j := range words {
			words[j] = vocab[r.zipfLocked(len(vocab), 1.1)]
		}

		rec := trie.Record{
			"name": strings.Join(words, " "),
			"rank": r.rand.Intn(1000),
		}
		if r.rand.Float64() >= opts.MissingRate {
			rec["city"] = strings.ToUpper(vocab[r.rand.Intn(len(vocab))][:1]) + r.wordLocked(4, 9)
		}

		switch {
		case opts.NoIDs:
		case opts.NumericIDs:
			rec["id"] = float64(i + 1)
		default:
			rec["id"] = fmt.Sprintf("r%06d", i)
		}

		records[i] = rec
	}

	return records
}
