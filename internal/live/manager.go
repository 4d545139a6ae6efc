package live

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/listsync/internal/bus"
	"github.com/roach88/listsync/internal/model"
)

// Manager starts one Session per connection against a shared bus and keeps
// track of the sessions that are still running.
type Manager struct {
	bus      *bus.Bus[model.Event]
	logger   *slog.Logger
	ids      IDGenerator
	pongWait time.Duration
	idleWait time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the logger handed to every session.
func WithManagerLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithSessionTimeouts sets the pong and idle windows for new sessions.
func WithSessionTimeouts(pongWait, idleWait time.Duration) ManagerOption {
	return func(m *Manager) {
		m.pongWait = pongWait
		m.idleWait = idleWait
	}
}

// WithSessionIDs sets the generator for session ids.
func WithSessionIDs(g IDGenerator) ManagerOption {
	return func(m *Manager) {
		if g != nil {
			m.ids = g
		}
	}
}

// NewManager creates a Manager for sessions subscribed to b.
func NewManager(b *bus.Bus[model.Event], opts ...ManagerOption) *Manager {
	m := &Manager{
		bus:      b,
		logger:   slog.Default(),
		ids:      UUIDv7Generator{},
		pongWait: DefaultPongWait,
		idleWait: DefaultIdleWait,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Serve subscribes to the bus, runs a session over t until it closes and
// returns the close reason. The subscription is taken before the first probe
// so nothing published after Serve is called can be missed.
func (m *Manager) Serve(ctx context.Context, t Transport) error {
	sess := NewSession(t, m.bus.Subscribe(),
		WithLogger(m.logger),
		WithTimeouts(m.pongWait, m.idleWait),
		WithIDGenerator(m.ids),
	)

	m.mu.Lock()
	m.sessions[sess.ID()] = sess
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.sessions, sess.ID())
		m.mu.Unlock()
	}()

	return sess.Run(ctx)
}

// Active returns the number of running sessions.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Snapshot returns the state and counters of every running session, keyed
// by session id.
func (m *Manager) Snapshot() map[string]SessionInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]SessionInfo, len(m.sessions))
	for id, s := range m.sessions {
		out[id] = SessionInfo{State: s.State(), Stats: s.Stats()}
	}
	return out
}

// SessionInfo describes one running session.
type SessionInfo struct {
	State State
	Stats Stats
}
