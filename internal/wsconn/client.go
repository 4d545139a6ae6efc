package wsconn

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/roach88/listsync/internal/model"
)

// Client reads events from a live endpoint. Pings are answered by the
// default handler while Next is being called.
type Client struct {
	ws *websocket.Conn
}

// Dial connects to a live endpoint such as ws://localhost:9000/ws.
func Dial(ctx context.Context, url string, header http.Header) (*Client, error) {
	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	ws, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &Client{ws: ws}, nil
}

// Next blocks until the next event arrives. When the server closes the
// connection normally it returns an error for which IsNormalClose is true.
func (c *Client) Next() (model.Event, error) {
	for {
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			return model.Event{}, err
		}
		if mt != websocket.TextMessage {
			continue
		}
		var ev model.Event
		if err := ev.UnmarshalJSON(data); err != nil {
			return model.Event{}, err
		}
		return ev, nil
	}
}

// Close closes the connection.
func (c *Client) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.ws.Close()
}

// IsNormalClose reports whether err is a normal websocket closure.
func IsNormalClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
