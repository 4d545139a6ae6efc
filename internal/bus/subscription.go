package bus

import "context"

// Subscription is one subscriber's cursor into a Bus.
// A Subscription is meant to be read by a single goroutine.
type Subscription[T any] struct {
	bus    *Bus[T]
	next   uint64 // sequence number of the next value to read
	closed bool   // guarded by bus.mu
}

// Recv returns the next value, blocking until one is published, ctx is
// done, or the bus is closed.
//
// Errors:
//   - *LaggedError: values were overwritten; the cursor now points at the
//     oldest retained value, which the next Recv returns
//   - ErrClosed: the bus or subscription is closed and nothing is pending
//   - ctx.Err(): the context ended first
func (s *Subscription[T]) Recv(ctx context.Context) (T, error) {
	for {
		v, wake, err := s.poll()
		if err != ErrEmpty {
			return v, err
		}

		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-wake:
		}
	}
}

// TryRecv is Recv without waiting. Returns ErrEmpty when nothing is pending.
func (s *Subscription[T]) TryRecv() (T, error) {
	v, _, err := s.poll()
	return v, err
}

// poll reads under the bus lock. When nothing is pending it returns ErrEmpty
// and the channel that the next Publish will close.
func (s *Subscription[T]) poll() (T, <-chan struct{}, error) {
	b := s.bus
	b.mu.Lock()
	defer b.mu.Unlock()

	var zero T
	if s.closed {
		return zero, nil, ErrClosed
	}

	if oldest := b.oldest(); s.next < oldest {
		skipped := oldest - s.next
		s.next = oldest
		return zero, nil, &LaggedError{Skipped: skipped}
	}

	if s.next < b.head {
		v := b.ring[s.next%uint64(len(b.ring))]
		s.next++
		return v, nil, nil
	}

	if b.closed {
		return zero, nil, ErrClosed
	}
	return zero, b.wake, ErrEmpty
}

// Pending returns how many values are waiting for this subscriber,
// counting values already overwritten.
func (s *Subscription[T]) Pending() uint64 {
	b := s.bus
	b.mu.Lock()
	defer b.mu.Unlock()
	if s.closed || s.next >= b.head {
		return 0
	}
	return b.head - s.next
}

// Close releases the subscription. Safe to call more than once.
func (s *Subscription[T]) Close() {
	b := s.bus
	b.mu.Lock()
	defer b.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	delete(b.subs, s)
}
