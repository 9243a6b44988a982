package net

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"LocalSketch/internal/state"
)

// Client is a websocket connection to a Hub. It satisfies the same remote
// store contract as Local: Write replaces a path's value, Subscribe delivers
// the current value and every later write.
type Client struct {
	conn *websocket.Conn
	url  string

	writeMu sync.Mutex

	mu     sync.Mutex
	subs   map[string]map[*subscriber]struct{}
	latest map[string][]byte
	closed bool
	done   chan struct{}
	err    error
}

// Dial connects to the hub at url (ws://host:port/).
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial hub %s: %w", url, err)
	}
	c := &Client{
		conn: conn,
		url:  url,
		subs:   map[string]map[*subscriber]struct{}{},
		latest: map[string][]byte{},
		done:   make(chan struct{}),
	}
	go c.readLoop()
	state.Logger().Info("connected to hub", "component", "client", "url", url, "local", conn.LocalAddr().String())
	return c, nil
}

// LocalAddr returns the address of this end of the connection.
func (c *Client) LocalAddr() string { return c.conn.LocalAddr().String() }

// Done is closed when the connection ends.
func (c *Client) Done() <-chan struct{} { return c.done }

// Err returns the reason the connection ended, if it has.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Client) send(ctx context.Context, msg NetworkMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("send %s %s: %w", msg.Type, msg.Path, err)
	}
	return nil
}

// Write replaces the value at path on the hub. value must be valid JSON.
func (c *Client) Write(ctx context.Context, path string, value []byte) error {
	if c.isClosed() {
		return ErrHubClosed
	}
	return c.send(ctx, NetworkMessage{Type: MsgWrite, Path: path, Value: value})
}

// Subscribe calls fn with the current value at path and every later write.
// The hub is asked for the path only on the first local subscription; later
// subscribers start from the last value the hub sent.
func (c *Client) Subscribe(ctx context.Context, path string, fn func([]byte)) (func(), error) {
	sub := newSubscriber(fn)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrHubClosed
	}
	first := len(c.subs[path]) == 0
	if first {
		c.subs[path] = map[*subscriber]struct{}{}
	} else if v, ok := c.latest[path]; ok {
		sub.push(v)
	}
	c.subs[path][sub] = struct{}{}
	c.mu.Unlock()

	go sub.run()

	if first {
		if err := c.send(ctx, NetworkMessage{Type: MsgSubscribe, Path: path}); err != nil {
			c.drop(path, sub)
			return nil, err
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if c.drop(path, sub) && !c.isClosed() {
				if err := c.send(context.Background(), NetworkMessage{Type: MsgUnsubscribe, Path: path}); err != nil {
					state.Logger().Debug("unsubscribe failed", "component", "client", "path", path, "err", err)
				}
			}
		})
	}, nil
}

// drop removes sub and reports whether it was the last one for path.
func (c *Client) drop(path string, sub *subscriber) bool {
	c.mu.Lock()
	delete(c.subs[path], sub)
	last := len(c.subs[path]) == 0
	if last {
		delete(c.subs, path)
		delete(c.latest, path)
	}
	c.mu.Unlock()
	sub.stop()
	return last
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Client) readLoop() {
	var err error
	defer func() { c.shutdown(err) }()

	for {
		var msg NetworkMessage
		if err = c.conn.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Type {
		case MsgValue:
			c.mu.Lock()
			if set, ok := c.subs[msg.Path]; ok {
				c.latest[msg.Path] = msg.Value
				for sub := range set {
					sub.push(msg.Value)
				}
			}
			c.mu.Unlock()
		case MsgError:
			state.Logger().Warn("hub rejected request", "component", "client", "path", msg.Path, "err", msg.Error)
		default:
			state.Logger().Debug("ignoring frame", "component", "client", "type", msg.Type)
		}
	}
}

func (c *Client) shutdown(cause error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if cause != nil && !websocket.IsCloseError(cause, websocket.CloseNormalClosure) {
		c.err = cause
	}
	for path, set := range c.subs {
		for sub := range set {
			sub.stop()
		}
		delete(c.subs, path)
	}
	clear(c.latest)
	c.mu.Unlock()

	c.conn.Close()
	close(c.done)
	state.Logger().Info("disconnected from hub", "component", "client", "url", c.url, "err", cause)
}

// Close sends a close frame and tears the connection down.
func (c *Client) Close() error {
	if c.isClosed() {
		return nil
	}
	c.writeMu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	err := c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	c.writeMu.Unlock()

	c.shutdown(nil)
	if err != nil && err != websocket.ErrCloseSent {
		return fmt.Errorf("close hub connection: %w", err)
	}
	return nil
}
