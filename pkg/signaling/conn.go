package signaling

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/carverauto/visionconnect/pkg/logger"
)

// maxCloseReason keeps close frames within the 125 byte control frame limit.
const maxCloseReason = 120

// Conn is the Channel for one websocket. Writes happen only on the write pump;
// Deliver enqueues without blocking and reports false when the queue is full or
// the connection is gone.
type Conn struct {
	ws     *websocket.Conn
	send   chan []byte
	done   chan struct{}
	logger logger.Logger

	closing      chan struct{}
	closeMsg     []byte
	closeReqOnce sync.Once
	closeOnce    sync.Once
	pumpDone     chan struct{}

	writeTimeout time.Duration
	pingInterval time.Duration
}

var _ Channel = (*Conn)(nil)

func newConn(ws *websocket.Conn, opts Options, log logger.Logger) *Conn {
	return &Conn{
		ws:           ws,
		send:         make(chan []byte, opts.SendBuffer),
		done:         make(chan struct{}),
		closing:      make(chan struct{}),
		pumpDone:     make(chan struct{}),
		logger:       log,
		writeTimeout: opts.WriteTimeout,
		pingInterval: opts.PingInterval,
	}
}

func (c *Conn) Deliver(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(c.pingInterval)

	defer func() {
		ticker.Stop()
		close(c.pumpDone)
	}()

	for {
		select {
		case <-c.done:
			return
		case <-c.closing:
			c.drain()

			_ = c.ws.WriteControl(websocket.CloseMessage, c.closeMsg, time.Now().Add(c.writeTimeout))

			return
		case msg := <-c.send:
			if err := c.write(msg); err != nil {
				c.logger.Debug().Err(err).Msg("websocket write failed")
				c.Close()

				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout)); err != nil {
				c.logger.Debug().Err(err).Msg("websocket ping failed")
				c.Close()

				return
			}
		}
	}
}

func (c *Conn) write(msg []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}

	return c.ws.WriteMessage(websocket.TextMessage, msg)
}

// drain flushes whatever is already queued ahead of a close frame.
func (c *Conn) drain() {
	for {
		select {
		case msg := <-c.send:
			if err := c.write(msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

// CloseWith flushes queued messages, sends a close frame and tears the socket down.
func (c *Conn) CloseWith(code int, reason string) {
	if len(reason) > maxCloseReason {
		reason = reason[:maxCloseReason]
	}

	c.closeReqOnce.Do(func() {
		c.closeMsg = websocket.FormatCloseMessage(code, reason)
		close(c.closing)
	})

	timer := time.NewTimer(c.writeTimeout)
	defer timer.Stop()

	select {
	case <-c.pumpDone:
	case <-timer.C:
	}

	c.Close()
}

// Close stops the pump and closes the socket without a close handshake.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}
