package queue

import (
	"context"
	"fmt"
	"sync"
)

// Unit is a deferred piece of work submitted to a Sequential queue.
type Unit[T any] func() (T, error)

// entry is owned by the queue from Enqueue until it is popped.
type entry[T any] struct {
	unit    Unit[T]
	pending *Pending[T]
}

// Sequential runs submitted units one at a time in submission order.
// A failing (or panicking) unit settles only its own Pending; draining
// continues with the next entry.
type Sequential[T any] struct {
	mu         sync.Mutex
	entries    []*entry[T]
	inProgress bool

	// onStart, if set, is called with the number of entries still queued
	// each time a unit is popped.
	onStart func(remaining int)
}

// New creates an empty sequential queue.
func New[T any]() *Sequential[T] {
	return &Sequential[T]{}
}

// OnStart installs a hook observed each time a unit begins executing.
func (q *Sequential[T]) OnStart(fn func(remaining int)) {
	q.mu.Lock()
	q.onStart = fn
	q.mu.Unlock()
}

// Enqueue appends unit and triggers advancement. The returned Pending
// settles with the unit's result once it has run.
func (q *Sequential[T]) Enqueue(unit Unit[T]) *Pending[T] {
	p := &Pending[T]{done: make(chan struct{})}

	q.mu.Lock()
	q.entries = append(q.entries, &entry[T]{unit: unit, pending: p})
	q.mu.Unlock()

	q.advance()
	return p
}

// advance starts a drain loop unless one is already running or there is
// nothing to do.
func (q *Sequential[T]) advance() {
	q.mu.Lock()
	if q.inProgress || len(q.entries) == 0 {
		q.mu.Unlock()
		return
	}
	q.inProgress = true
	q.mu.Unlock()

	go q.drain()
}

func (q *Sequential[T]) drain() {
	for {
		q.mu.Lock()
		if len(q.entries) == 0 {
			q.inProgress = false
			q.mu.Unlock()
			return
		}
		head := q.entries[0]
		q.entries[0] = nil
		q.entries = q.entries[1:]
		remaining := len(q.entries)
		onStart := q.onStart
		q.mu.Unlock()

		if onStart != nil {
			onStart(remaining)
		}

		val, err := run(head.unit)
		head.pending.settle(val, err)
	}
}

func run[T any](unit Unit[T]) (val T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("queue: unit panicked: %v", r)
		}
	}()
	return unit()
}

// Len returns the number of entries waiting to run, excluding the one
// currently executing.
func (q *Sequential[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Busy reports whether a unit is executing or about to be picked up.
func (q *Sequential[T]) Busy() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.inProgress
}

// Pending is the result handle of an enqueued unit.
type Pending[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func (p *Pending[T]) settle(val T, err error) {
	p.val = val
	p.err = err
	close(p.done)
}

// Done is closed once the unit has settled.
func (p *Pending[T]) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the unit has settled or ctx is done. Abandoning the
// wait does not remove the unit from the queue.
func (p *Pending[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.val, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
