package bus

import (
	"errors"
	"fmt"
	"sync"
)

// DefaultCapacity is the ring size used when New is given a non-positive one.
const DefaultCapacity = 32

var (
	// ErrClosed is returned by Recv once the bus is closed and every
	// retained value has been read, or after the subscription was closed.
	ErrClosed = errors.New("bus closed")

	// ErrEmpty is returned by TryRecv when no value is pending.
	ErrEmpty = errors.New("no pending value")
)

// LaggedError reports that a subscriber fell behind and Skipped values were
// overwritten before it could read them. The cursor has already been moved
// to the oldest retained value.
type LaggedError struct {
	Skipped uint64
}

func (e *LaggedError) Error() string {
	return fmt.Sprintf("subscriber lagged, %d values skipped", e.Skipped)
}

// IsLagged reports whether err is a *LaggedError and returns the skip count.
func IsLagged(err error) (uint64, bool) {
	var le *LaggedError
	if errors.As(err, &le) {
		return le.Skipped, true
	}
	return 0, false
}

// Bus is a bounded multi-subscriber broadcast of T values.
// The zero value is not usable; call New.
type Bus[T any] struct {
	mu     sync.Mutex
	ring   []T
	head   uint64 // sequence number the next Publish will use
	subs   map[*Subscription[T]]struct{}
	closed bool

	// wake is closed and replaced on every Publish and on Close.
	wake chan struct{}
}

// New creates a bus retaining the last capacity values.
func New[T any](capacity int) *Bus[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Bus[T]{
		ring: make([]T, capacity),
		subs: make(map[*Subscription[T]]struct{}),
		wake: make(chan struct{}),
	}
}

// Capacity returns the ring size.
func (b *Bus[T]) Capacity() int {
	return len(b.ring)
}

// Publish appends v and wakes every waiting subscriber. It never blocks.
// Returns the number of live subscriptions at the time of publishing;
// publishing to a closed bus is a no-op that returns 0.
func (b *Bus[T]) Publish(v T) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0
	}

	b.ring[b.head%uint64(len(b.ring))] = v
	b.head++

	close(b.wake)
	b.wake = make(chan struct{})

	return len(b.subs)
}

// Subscribe registers a new cursor positioned at the next value to be
// published. Values published before Subscribe are not delivered.
func (b *Bus[T]) Subscribe() *Subscription[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := &Subscription[T]{bus: b, next: b.head}
	if b.closed {
		s.closed = true
		return s
	}
	b.subs[s] = struct{}{}
	return s
}

// Subscribers returns the number of live subscriptions.
func (b *Bus[T]) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Len returns the number of values currently retained in the ring.
func (b *Bus[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return int(b.head - b.oldest())
}

// Published returns the total number of values ever published.
func (b *Bus[T]) Published() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.head
}

// Close stops the bus. Subscribers drain what is retained, then get ErrClosed.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	close(b.wake)
}

// oldest returns the sequence number of the oldest retained value.
// Caller must hold b.mu.
func (b *Bus[T]) oldest() uint64 {
	n := uint64(len(b.ring))
	if b.head < n {
		return 0
	}
	return b.head - n
}
