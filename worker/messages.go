package worker

import (
	"time"

	"github.com/hupe1980/trieidx/snapshot"
	"github.com/hupe1980/trieidx/trie"
)

// Message is exchanged between an Executor and its workers.
type Message interface {
	message()
}

// LoadData carries one chunk of a load.
type LoadData struct {
	Data         []trie.Record
	Fields       []string
	BatchIndex   int
	TotalBatches int
}

// Progress reports a finished chunk or the end of a load.
type Progress struct {
	JobID        string
	State        State
	Progress     float64 // fraction of chunks done, in [0, 1]
	Message      string
	BatchIndex   int
	TotalBatches int
}

// Complete carries the finished index.
type Complete struct {
	Index *trie.Index
	Stats trie.LoadStats
}

// Error reports a failed job. Batch is -1 for searches.
type Error struct {
	Err   error
	Batch int
}

// Search asks a worker to search an exported index.
type Search struct {
	Query    string
	Limit    int
	Snapshot *snapshot.Snapshot
}

// SearchResults carries the outcome of a Search.
type SearchResults struct {
	Results   []trie.Result
	TimeTaken time.Duration
}

func (LoadData) message()      {}
func (Progress) message()      {}
func (Complete) message()      {}
func (Error) message()         {}
func (Search) message()        {}
func (SearchResults) message() {}

// State is the state of a load job.
type State int

const (
	StateIdle State = iota
	StateProcessing
	StateComplete
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateProcessing:
		return "processing"
	case StateComplete:
		return "complete"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}
