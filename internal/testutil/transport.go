package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/roach88/listsync/internal/model"
)

// ErrScriptedClosed is returned by ScriptedTransport calls after Close.
var ErrScriptedClosed = errors.New("scripted transport closed")

// ScriptedTransport is an in-memory transport whose peer is the test.
//
// Probes and events are recorded. Acks are delivered by the test through
// Ack, or automatically after every probe when AutoAck is set. Failures are
// injected with FailProbes, FailAcks and FailSends.
//
// It satisfies live.Transport without importing it.
type ScriptedTransport struct {
	mu       sync.Mutex
	autoAck  bool
	probeErr error
	ackErr   error
	sendErr  error
	probes   int
	events   []model.Event
	closes   int

	acks   chan struct{}
	sent   chan model.Event
	probed chan struct{}
	closed chan struct{}
}

// NewScriptedTransport creates a transport that answers nothing on its own.
func NewScriptedTransport() *ScriptedTransport {
	return &ScriptedTransport{
		acks:   make(chan struct{}, 16),
		sent:   make(chan model.Event, 256),
		probed: make(chan struct{}, 16),
		closed: make(chan struct{}),
	}
}

// AutoAck makes every probe acknowledged immediately.
func (t *ScriptedTransport) AutoAck() *ScriptedTransport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.autoAck = true
	return t
}

// FailProbes makes every following SendProbe return err.
func (t *ScriptedTransport) FailProbes(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.probeErr = err
}

// FailAcks makes every following AwaitAck return err.
func (t *ScriptedTransport) FailAcks(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ackErr = err
}

// FailSends makes every following SendEvent return err.
func (t *ScriptedTransport) FailSends(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sendErr = err
}

// Ack delivers one acknowledgment to a current or future AwaitAck.
func (t *ScriptedTransport) Ack() {
	select {
	case t.acks <- struct{}{}:
	default:
	}
}

func (t *ScriptedTransport) SendProbe(ctx context.Context) error {
	t.mu.Lock()
	if t.closes > 0 {
		t.mu.Unlock()
		return ErrScriptedClosed
	}
	if t.probeErr != nil {
		err := t.probeErr
		t.mu.Unlock()
		return err
	}
	t.probes++
	auto := t.autoAck
	t.mu.Unlock()

	if auto {
		t.Ack()
	}
	select {
	case t.probed <- struct{}{}:
	default:
	}
	return nil
}

func (t *ScriptedTransport) AwaitAck(ctx context.Context) error {
	t.mu.Lock()
	err := t.ackErr
	t.mu.Unlock()
	if err != nil {
		return err
	}

	select {
	case <-t.acks:
		return nil
	case <-t.closed:
		return ErrScriptedClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *ScriptedTransport) SendEvent(ctx context.Context, ev model.Event) error {
	t.mu.Lock()
	if t.closes > 0 {
		t.mu.Unlock()
		return ErrScriptedClosed
	}
	if t.sendErr != nil {
		err := t.sendErr
		t.mu.Unlock()
		return err
	}
	t.events = append(t.events, ev)
	t.mu.Unlock()

	select {
	case t.sent <- ev:
	default:
	}
	return nil
}

// Close records the call. Only the first call closes the Closed channel.
func (t *ScriptedTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closes++
	if t.closes == 1 {
		close(t.closed)
	}
	return nil
}

// Sent returns a channel receiving every delivered event.
func (t *ScriptedTransport) Sent() <-chan model.Event {
	return t.sent
}

// Probed returns a channel receiving a value per probe.
func (t *ScriptedTransport) Probed() <-chan struct{} {
	return t.probed
}

// Closed is closed once Close has been called.
func (t *ScriptedTransport) Closed() <-chan struct{} {
	return t.closed
}

// Events returns a copy of every delivered event in order.
func (t *ScriptedTransport) Events() []model.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]model.Event(nil), t.events...)
}

// Probes returns how many probes were sent.
func (t *ScriptedTransport) Probes() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.probes
}

// Closes returns how many times Close was called.
func (t *ScriptedTransport) Closes() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closes
}
