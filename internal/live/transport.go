package live

import (
	"context"

	"github.com/roach88/listsync/internal/bus"
	"github.com/roach88/listsync/internal/model"
)

// Transport is the connection a Session talks to.
//
// Implementations must allow SendProbe, AwaitAck and SendEvent to be called
// from the session goroutine while the peer is read concurrently.
type Transport interface {
	// SendProbe sends one liveness probe.
	SendProbe(ctx context.Context) error

	// AwaitAck blocks until the peer acknowledges a probe, the peer
	// misbehaves or disconnects (error), or ctx is done (ctx.Err()).
	AwaitAck(ctx context.Context) error

	// SendEvent delivers one serialized event.
	SendEvent(ctx context.Context, ev model.Event) error

	// Close releases the connection.
	Close() error
}

// Source is a single subscriber's view of the mutation bus.
// *bus.Subscription[model.Event] satisfies it.
type Source interface {
	Recv(ctx context.Context) (model.Event, error)
	Close()
}

var _ Source = (*bus.Subscription[model.Event])(nil)
