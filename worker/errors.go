package worker

import (
	"errors"
	"fmt"
)

// ErrWorkerFailed is wrapped by errors raised inside a worker, including
// recovered panics.
var ErrWorkerFailed = errors.New("worker: job failed")

// LoadError describes a failed load job.
type LoadError struct {
	JobID string
	Batch int
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("worker: load %s failed at batch %d: %v", e.JobID, e.Batch, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
