// Package bus provides a bounded, in-process broadcast channel with
// independent subscriber cursors.
//
// A Bus holds the last N published values in a ring. Publishing never
// blocks: when the ring is full the oldest value is overwritten. Each
// Subscription reads every value in publication order from its own cursor.
//
// A subscriber that falls further behind than the ring's capacity is not
// silently resynchronized. Its next Recv moves the cursor to the oldest
// value still retained and returns a *LaggedError reporting how many values
// were skipped; the following Recv returns that oldest value.
//
// No lock is held while a subscriber waits. Waiters park on a channel that
// is closed by the next Publish (or Close), so slow or idle subscribers
// never delay the publisher or each other.
//
//	b := bus.New[model.Event](32)
//	sub := b.Subscribe()
//	defer sub.Close()
//
//	b.Publish(ev)
//	got, err := sub.Recv(ctx)
package bus
