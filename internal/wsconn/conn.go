// Package wsconn carries live sessions over websockets.
//
// The server side, Conn, implements live.Transport: a probe is a ping control
// frame, the acknowledgment is the matching pong, and each event is one text
// frame holding its canonical JSON. Clients are expected to send nothing but
// control frames; a data frame is treated as a protocol violation.
//
// The client side, Client, is used by the watch command.
package wsconn

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/roach88/listsync/internal/live"
	"github.com/roach88/listsync/internal/model"
)

const (
	// DefaultWriteWait bounds every frame write.
	DefaultWriteWait = 10 * time.Second

	// maxMessageSize caps what a client may send. Clients only send
	// control frames, which are at most 125 bytes.
	maxMessageSize = 512
)

var (
	// ErrUnexpectedMessage is the read failure for a data frame from the client.
	ErrUnexpectedMessage = errors.New("unexpected data frame from client")

	// ErrConnClosed is returned by calls made after Close.
	ErrConnClosed = errors.New("websocket connection closed")
)

var _ live.Transport = (*Conn)(nil)

// Conn is the server end of one websocket connection.
type Conn struct {
	ws        *websocket.Conn
	writeWait time.Duration

	writeMu sync.Mutex

	// acks receives one value per pong, coalesced.
	acks chan struct{}

	// done is closed when the read pump stops; readErr says why.
	done    chan struct{}
	readErr error

	closeOnce sync.Once
	closeErr  error
	closed    chan struct{}
}

// Option configures a Conn.
type Option func(*Conn)

// WithWriteWait sets the per-frame write deadline.
func WithWriteWait(d time.Duration) Option {
	return func(c *Conn) {
		if d > 0 {
			c.writeWait = d
		}
	}
}

// NewConn wraps an upgraded websocket and starts its read pump.
func NewConn(ws *websocket.Conn, opts ...Option) *Conn {
	c := &Conn{
		ws:        ws,
		writeWait: DefaultWriteWait,
		acks:      make(chan struct{}, 1),
		done:      make(chan struct{}),
		closed:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	ws.SetReadLimit(maxMessageSize)
	ws.SetPongHandler(func(string) error {
		select {
		case c.acks <- struct{}{}:
		default:
		}
		return nil
	})

	go c.readPump()
	return c
}

// readPump processes control frames until the peer disconnects or sends data.
func (c *Conn) readPump() {
	defer close(c.done)
	for {
		mt, _, err := c.ws.NextReader()
		if err != nil {
			c.readErr = fmt.Errorf("read: %w", err)
			return
		}
		if mt == websocket.TextMessage || mt == websocket.BinaryMessage {
			c.readErr = ErrUnexpectedMessage
			return
		}
	}
}

// deadline returns the earlier of ctx's deadline and now+writeWait.
func (c *Conn) deadline(ctx context.Context) time.Time {
	d := time.Now().Add(c.writeWait)
	if cd, ok := ctx.Deadline(); ok && cd.Before(d) {
		return cd
	}
	return d
}

// SendProbe writes a ping. Acks left over from earlier probes are discarded
// so the next AwaitAck only sees a pong sent after this ping.
func (c *Conn) SendProbe(ctx context.Context) error {
	if err := c.usable(ctx); err != nil {
		return err
	}
	select {
	case <-c.acks:
	default:
	}
	if err := c.ws.WriteControl(websocket.PingMessage, nil, c.deadline(ctx)); err != nil {
		return fmt.Errorf("write ping: %w", err)
	}
	return nil
}

// AwaitAck waits for a pong.
func (c *Conn) AwaitAck(ctx context.Context) error {
	select {
	case <-c.acks:
		return nil
	case <-c.done:
		return c.readErr
	case <-c.closed:
		return ErrConnClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SendEvent writes ev as a canonical JSON text frame.
func (c *Conn) SendEvent(ctx context.Context, ev model.Event) error {
	if err := c.usable(ctx); err != nil {
		return err
	}
	data, err := ev.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.SetWriteDeadline(c.deadline(ctx)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

func (c *Conn) usable(ctx context.Context) error {
	select {
	case <-c.closed:
		return ErrConnClosed
	case <-c.done:
		return c.readErr
	default:
	}
	return ctx.Err()
}

// Close sends a close frame, best effort, and closes the connection.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.writeWait))
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}

// NewUpgrader returns an upgrader that accepts any origin. The live route is
// meant for browser clients served from other origins.
func NewUpgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(*http.Request) bool { return true },
	}
}
