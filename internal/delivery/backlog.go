package delivery

import (
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"
)

// Backlog is an unbounded multi-producer, single-consumer FIFO. Producers
// use the lock-free ring until it fills. Past that they append to an
// overflow queue under a short mutex, and keep doing so until the consumer
// has emptied it, so items leave in the order they were pushed.
type Backlog[T any] struct {
	ring *Ring[T]

	mu       sync.Mutex
	overflow *queue.Queue
	spilled  atomic.Bool // overflow is non-empty

	size   atomic.Int64
	spills atomic.Uint64
}

// NewBacklog creates a backlog whose ring holds capacity items before
// spilling.
func NewBacklog[T any](capacity int) *Backlog[T] {
	return &Backlog[T]{
		ring:     NewRing[T](capacity),
		overflow: queue.New(),
	}
}

// Push appends v. It never fails and never blocks on the consumer.
func (b *Backlog[T]) Push(v T) {
	b.size.Add(1)
	if !b.spilled.Load() && b.ring.Enqueue(v) {
		return
	}
	b.mu.Lock()
	b.overflow.Add(v)
	b.spilled.Store(true)
	b.mu.Unlock()
	b.spills.Add(1)
}

// Pop removes the oldest item. It must only be called by the consumer.
func (b *Backlog[T]) Pop() (T, bool) {
	if v, ok := b.ring.Dequeue(); ok {
		b.size.Add(-1)
		return v, true
	}
	var zero T
	if !b.spilled.Load() {
		return zero, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.overflow.Length() == 0 {
		return zero, false
	}
	v := b.overflow.Remove().(T)
	if b.overflow.Length() == 0 {
		b.spilled.Store(false)
	}
	b.size.Add(-1)
	return v, true
}

// Len returns the approximate number of queued items.
func (b *Backlog[T]) Len() int { return int(b.size.Load()) }

// Cap returns the ring capacity.
func (b *Backlog[T]) Cap() int { return b.ring.Cap() }

// Spills returns how many pushes went to the overflow queue.
func (b *Backlog[T]) Spills() uint64 { return b.spills.Load() }
