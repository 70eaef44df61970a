package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/trieidx/resource"
)

var (
	// ErrPoolClosed is returned when submitting to a closed pool.
	ErrPoolClosed = errors.New("worker: pool closed")
	// ErrNoSlot is returned by SubmitBackground when every background slot
	// is taken.
	ErrNoSlot = errors.New("worker: no background slot")
)

// Pool manages a fixed set of goroutines that run submitted closures.
type Pool struct {
	numWorkers int
	workCh     chan func()
	stopCh     chan struct{}
	wg         sync.WaitGroup
	closed     atomic.Bool
	submitMu   sync.RWMutex
}

// NewPool starts a pool with numWorkers goroutines. If numWorkers <= 0,
// GOMAXPROCS is used.
func NewPool(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{
		numWorkers: numWorkers,
		workCh:     make(chan func(), numWorkers*2),
		stopCh:     make(chan struct{}),
	}

	p.wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go p.worker()
	}

	return p
}

// Size returns the number of worker goroutines.
func (p *Pool) Size() int { return p.numWorkers }

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopCh:
			// Drain queued work before exiting.
			for {
				select {
				case task, ok := <-p.workCh:
					if !ok {
						return
					}
					task()
				default:
					return
				}
			}
		case task, ok := <-p.workCh:
			if !ok {
				return
			}
			task()
		}
	}
}

// Submit enqueues task. It blocks while the queue is full and fails with
// ErrPoolClosed after Close or with the context error if ctx is done first.
func (p *Pool) Submit(ctx context.Context, task func()) error {
	p.submitMu.RLock()
	defer p.submitMu.RUnlock()

	if p.closed.Load() {
		return ErrPoolClosed
	}

	select {
	case p.workCh <- task:
		return nil
	case <-p.stopCh:
		return ErrPoolClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SubmitBackground enqueues task while holding one of rc's background slots.
// It does not wait for a slot and returns ErrNoSlot when none is free. The
// slot is released when task returns, or right away if Submit fails.
func (p *Pool) SubmitBackground(ctx context.Context, rc *resource.Controller, task func()) error {
	if !rc.TryAcquireBackground() {
		return ErrNoSlot
	}

	err := p.Submit(ctx, func() {
		defer rc.ReleaseBackground()
		task()
	})
	if err != nil {
		rc.ReleaseBackground()
	}
	return err
}

// inline reports whether err from SubmitBackground means the work should run
// on the caller's goroutine instead.
func inline(err error) bool {
	return errors.Is(err, ErrPoolClosed) || errors.Is(err, ErrNoSlot)
}

// Close stops accepting work, runs what is queued and waits for the workers.
func (p *Pool) Close() {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}

	p.submitMu.Lock()
	close(p.stopCh)
	close(p.workCh)
	p.submitMu.Unlock()

	p.wg.Wait()
}
