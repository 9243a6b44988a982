package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrClosed is returned for work submitted after Close.
var ErrClosed = errors.New("session: closed")

// Pending is the outcome of the asynchronous part of an operation. The
// in-memory effect has already happened when it is returned.
type Pending struct {
	done chan struct{}
	err  error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func resolved(err error) *Pending {
	p := newPending()
	p.resolve(err)
	return p
}

func (p *Pending) resolve(err error) {
	p.err = err
	close(p.done)
}

// Done is closed once every stage has run.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until every stage has run and returns their joined errors.
// A failed stage does not stop later ones.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// stage is one step of a job. Stages of a job run in order; each gets its
// own chance to fail.
type stage struct {
	name string
	run  func(ctx context.Context) error
}

type job struct {
	stages  []stage
	pending *Pending
}

// queue is an unbounded FIFO drained by a single worker, so enqueueing from
// an input handler or a transport callback never blocks.
type queue struct {
	mu     sync.Mutex
	jobs   []job
	closed bool
	wake   chan struct{}
	exited chan struct{}
}

func newQueue() *queue {
	return &queue{
		wake:   make(chan struct{}, 1),
		exited: make(chan struct{}),
	}
}

func (q *queue) push(stages ...stage) *Pending {
	p := newPending()
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		p.resolve(ErrClosed)
		return p
	}
	q.jobs = append(q.jobs, job{stages: stages, pending: p})
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return p
}

func (q *queue) pop() (job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.jobs) == 0 {
		return job{}, false
	}
	j := q.jobs[0]
	q.jobs[0] = job{}
	q.jobs = q.jobs[1:]
	return j, true
}

// close stops accepting jobs. The worker finishes what is queued, then exits.
func (q *queue) close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *queue) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// run is the worker loop. ctxFor supplies the context for each stage.
func (q *queue) run(ctxFor func() (context.Context, context.CancelFunc), onErr func(stage string, err error)) {
	defer close(q.exited)
	for {
		j, ok := q.pop()
		if !ok {
			if q.isClosed() {
				// Drain anything pushed between pop and the closed check.
				if j, ok = q.pop(); !ok {
					return
				}
			} else {
				<-q.wake
				continue
			}
		}

		var errs []error
		for _, st := range j.stages {
			ctx, cancel := ctxFor()
			err := st.run(ctx)
			cancel()
			if err != nil {
				onErr(st.name, err)
				errs = append(errs, fmt.Errorf("%s: %w", st.name, err))
			}
		}
		j.pending.resolve(errors.Join(errs...))
	}
}
