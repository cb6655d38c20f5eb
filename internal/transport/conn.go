// Package transport carries protocol messages between host and guest over a
// WebSocket. The host listens for exactly one guest; the guest dials the host.
package transport

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lox/blastpong/internal/protocol"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 5 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 15 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 16 * 1024

	// Outbound frames buffered before the connection is considered stuck
	sendBuffer = 128
)

var ErrConnectionClosed = errors.New("transport: connection closed")

// Handler receives inbound traffic. netsync.Session implements it.
type Handler interface {
	Deliver(*protocol.Message)
	ChannelClosed()
}

// Conn is one established peer connection.
type Conn struct {
	id      string
	conn    *websocket.Conn
	handler Handler
	logger  *log.Logger
	send    chan *protocol.Message

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	done      chan struct{}
}

func newConn(ws *websocket.Conn, handler Handler, logger *log.Logger) *Conn {
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()
	return &Conn{
		id:      id,
		conn:    ws,
		handler: handler,
		logger:  logger.WithPrefix("conn").With("conn", id[:8]),
		send:    make(chan *protocol.Message, sendBuffer),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// ID identifies the connection in logs.
func (c *Conn) ID() string { return c.id }

// Done is closed after the read pump exits and the handler has been told.
func (c *Conn) Done() <-chan struct{} { return c.done }

func (c *Conn) start() {
	go c.writePump()
	go c.readPump()
}

// Send queues m without blocking. A full buffer closes the connection.
func (c *Conn) Send(m *protocol.Message) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- m:
		return nil
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
		c.logger.Warn("Send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// Close stops both pumps. Queued messages are flushed by the write pump
// before the close frame when possible.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.cancel()
	})
	return nil
}

func (c *Conn) readPump() {
	defer func() {
		_ = c.Close()
		c.handler.ChannelClosed()
		close(c.done)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("Read failed", "error", err)
			}
			return
		}

		m, err := protocol.Unmarshal(data)
		if err != nil {
			c.logger.Warn("Ignoring undecodable frame", "error", err)
			continue
		}
		c.handler.Deliver(m)
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case m := <-c.send:
			if err := c.write(m); err != nil {
				c.logger.Debug("Write failed", "error", err)
				_ = c.Close()
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.Close()
				return
			}

		case <-c.ctx.Done():
			c.flush()
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *Conn) write(m *protocol.Message) error {
	data, err := protocol.Marshal(m)
	if err != nil {
		return err
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// flush writes whatever is already queued, so a disconnect notice sent just
// before Close still reaches the peer.
func (c *Conn) flush() {
	for {
		select {
		case m := <-c.send:
			if err := c.write(m); err != nil {
				return
			}
		default:
			return
		}
	}
}
