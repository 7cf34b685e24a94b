package deriv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
)

const (
	// DefaultURL is the public Deriv endpoint; the app id identifies this
	// backend to the brokerage.
	DefaultURL = "wss://ws.binaryws.com/websockets/v3"

	dialTimeout  = 10 * time.Second
	maxDialTries = 3
)

// URL builds the full endpoint for an app id.
func URL(base string, appID int) string {
	return fmt.Sprintf("%s?app_id=%d", base, appID)
}

// Client is one WebSocket connection to the brokerage. Reads happen from the
// session loop only; writes are serialized with a mutex because the control
// plane may close the connection concurrently.
type Client struct {
	conn *websocket.Conn

	writeMu sync.Mutex
	closed  bool
}

// Dial connects to the brokerage, retrying transient dial failures a bounded
// number of times. Reconnecting an established session is deliberately not
// done here; a dropped connection stops the session.
func Dial(ctx context.Context, url string) (*Client, error) {
	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}

	var conn *websocket.Conn
	operation := func() error {
		var err error
		conn, _, err = dialer.DialContext(ctx, url, nil)
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxDialTries-1), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	return &Client{conn: conn}, nil
}

// Send marshals v and writes it as one text frame.
func (c *Client) Send(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed {
		return errors.New("connection closed")
	}
	return c.conn.WriteJSON(v)
}

// ReadFrame blocks for at most timeout waiting for the next inbound frame.
// A timeout is reported as an error satisfying IsTimeout; the session uses it
// as its periodic decision trigger for quiet markets.
func (c *Client) ReadFrame(timeout time.Duration) (*Frame, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}

	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}

	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return &frame, nil
}

// Close shuts the connection down. Safe to call more than once and from a
// goroutine other than the reader; it unblocks a pending ReadFrame.
func (c *Client) Close() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	deadline := time.Now().Add(time.Second)
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return c.conn.Close()
}

// IsTimeout reports whether err is a read-deadline expiry rather than a
// closed or broken connection.
func IsTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
