package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roach88/listsync/internal/bus"
)

const (
	// DefaultPongWait bounds the wait for a probe acknowledgment.
	DefaultPongWait = 4 * time.Second

	// DefaultIdleWait is how long a forwarding session waits for an event
	// before probing the client again.
	DefaultIdleWait = 60 * time.Second
)

// ErrPongTimeout is the close reason when no ack arrives within the pong window.
var ErrPongTimeout = errors.New("pong not received in time")

// Stats are counters accumulated over a session's life.
type Stats struct {
	Probes    uint64 // probes sent
	Forwarded uint64 // events delivered to the transport
	Skipped   uint64 // events lost to lag
}

// Session is one connection's state machine. Create with NewSession and
// drive with Run; a Session cannot be restarted.
type Session struct {
	id        string
	transport Transport
	source    Source
	logger    *slog.Logger
	pongWait  time.Duration
	idleWait  time.Duration

	state     atomic.Int32
	probes    atomic.Uint64
	forwarded atomic.Uint64
	skipped   atomic.Uint64

	closeOnce sync.Once
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger. The session id is attached to it.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTimeouts overrides the pong and idle windows. Non-positive values keep
// the defaults.
func WithTimeouts(pongWait, idleWait time.Duration) Option {
	return func(s *Session) {
		if pongWait > 0 {
			s.pongWait = pongWait
		}
		if idleWait > 0 {
			s.idleWait = idleWait
		}
	}
}

// WithID sets the session id instead of generating one.
func WithID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// WithIDGenerator sets the generator used when no explicit id is given.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Session) {
		if g != nil && s.id == "" {
			s.id = g.Generate()
		}
	}
}

// NewSession creates a session in StateHandshaking. The session owns t and
// src from here on: both are released exactly once when it closes.
func NewSession(t Transport, src Source, opts ...Option) *Session {
	s := &Session{
		transport: t,
		source:    src,
		logger:    slog.Default(),
		pongWait:  DefaultPongWait,
		idleWait:  DefaultIdleWait,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		s.id = UUIDv7Generator{}.Generate()
	}
	s.logger = s.logger.With("session", s.id)
	s.state.Store(int32(StateHandshaking))
	return s
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// State returns the current state. Safe to call from any goroutine.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Stats returns a snapshot of the session counters.
func (s *Session) Stats() Stats {
	return Stats{
		Probes:    s.probes.Load(),
		Forwarded: s.forwarded.Load(),
		Skipped:   s.skipped.Load(),
	}
}

// transition runs the work of one state and returns the next one. A non-nil
// error is only meaningful together with StateClosed and is the close reason.
type transition func(ctx context.Context) (State, error)

// Run drives the session until it closes and returns the close reason.
// The reason is nil when ctx ended or the bus closed, since neither is a
// fault of this connection.
func (s *Session) Run(ctx context.Context) error {
	steps := map[State]transition{
		StateHandshaking:  s.handshake,
		StateAwaitingPong: s.awaitPong,
		StateForwarding:   s.forward,
	}

	s.logger.Debug("session started")

	var reason error
	state := s.State()
	for state != StateClosed {
		next, err := steps[state](ctx)
		if next != state {
			s.logger.Debug("session transition", "from", state, "to", next)
		}
		state = next
		reason = err
		if state != StateClosed {
			s.state.Store(int32(state))
		}
	}

	s.close(reason)
	return reason
}

// handshake sends one probe.
func (s *Session) handshake(ctx context.Context) (State, error) {
	if err := s.transport.SendProbe(ctx); err != nil {
		if ctx.Err() != nil {
			return StateClosed, nil
		}
		return StateClosed, fmt.Errorf("send probe: %w", err)
	}
	s.probes.Add(1)
	return StateAwaitingPong, nil
}

// awaitPong waits for the probe's ack within the pong window.
func (s *Session) awaitPong(ctx context.Context) (State, error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.pongWait)
	defer cancel()

	err := s.transport.AwaitAck(waitCtx)
	switch {
	case err == nil:
		return StateForwarding, nil
	case ctx.Err() != nil:
		return StateClosed, nil
	case errors.Is(err, context.DeadlineExceeded):
		return StateClosed, ErrPongTimeout
	default:
		return StateClosed, fmt.Errorf("await pong: %w", err)
	}
}

// forward waits up to the idle window for one bus event and delivers it.
// Every call starts a fresh window.
func (s *Session) forward(ctx context.Context) (State, error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.idleWait)
	defer cancel()

	ev, err := s.source.Recv(waitCtx)
	if err == nil {
		if err := s.transport.SendEvent(ctx, ev); err != nil {
			if ctx.Err() != nil {
				return StateClosed, nil
			}
			return StateClosed, fmt.Errorf("send %s: %w", ev.Tag, err)
		}
		s.forwarded.Add(1)
		return StateForwarding, nil
	}

	if skipped, ok := bus.IsLagged(err); ok {
		s.skipped.Add(skipped)
		s.logger.Warn("subscriber lagged", "skipped", skipped)
		return StateForwarding, nil
	}

	switch {
	case ctx.Err() != nil:
		return StateClosed, nil
	case errors.Is(err, context.DeadlineExceeded):
		return StateHandshaking, nil
	case errors.Is(err, bus.ErrClosed):
		return StateClosed, nil
	default:
		return StateClosed, fmt.Errorf("receive: %w", err)
	}
}

// close releases the subscription and the transport once.
func (s *Session) close(reason error) {
	s.closeOnce.Do(func() {
		s.state.Store(int32(StateClosed))
		s.source.Close()
		if err := s.transport.Close(); err != nil {
			s.logger.Debug("transport close failed", "error", err)
		}

		stats := s.Stats()
		attrs := []any{
			"probes", stats.Probes,
			"forwarded", stats.Forwarded,
			"skipped", stats.Skipped,
		}
		if reason != nil {
			s.logger.Info("session closed", append(attrs, "reason", reason)...)
			return
		}
		s.logger.Debug("session closed", attrs...)
	})
}
