package realtime

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Envelope is the wire frame of a server→client event.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Client wraps one websocket connection. Writes go through a buffered channel
// so senders never wait on the peer.
type Client struct {
	conn *websocket.Conn
	send chan Envelope
	once sync.Once
}

func newClient(conn *websocket.Conn) *Client {
	return &Client{
		conn: conn,
		send: make(chan Envelope, 16),
	}
}

// Send queues an event without blocking. Returns false when the event was
// dropped: buffer full, or the client already closed.
func (c *Client) Send(event string, data any) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	select {
	case c.send <- Envelope{Event: event, Data: data}:
		return true
	default:
		return false
	}
}

// close stops the write pump after the queued events drain. Safe to call
// more than once.
func (c *Client) close() {
	c.once.Do(func() { close(c.send) })
}

// writePump serializes all writes to the connection.
func (c *Client) writePump() {
	for env := range c.send {
		if err := c.conn.WriteJSON(env); err != nil {
			break
		}
	}
	c.conn.Close()
}
