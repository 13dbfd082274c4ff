package ws

import (
	"encoding/json"
	"sync"
	"time"

	"streamifygo/internal/services/signaling"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// clientConn owns one websocket. Everything written to the socket goes
// through queue and is written by writePump, the only writer.
type clientConn struct {
	rawConn *websocket.Conn

	mu          sync.Mutex
	queue       chan []byte
	closed      bool
	closeCode   int
	closeReason string

	readerDone chan struct{}
	done       chan struct{}
}

var _ signaling.Peer = (*clientConn)(nil)

func newClientConn(rawConn *websocket.Conn, queueSize int) *clientConn {
	if queueSize <= 0 {
		queueSize = defaultSendQueue
	}
	return &clientConn{
		rawConn:    rawConn,
		queue:      make(chan []byte, queueSize),
		readerDone: make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Deliver enqueues frame without blocking.
func (c *clientConn) Deliver(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.queue <- frame:
		return true
	default:
		return false
	}
}

func (c *clientConn) Disconnect(cause signaling.DisconnectCause) {
	switch cause {
	case signaling.CauseSlowConsumer:
		c.closeWith(websocket.CloseTryAgainLater, cause.String())
	default:
		c.closeWith(websocket.CloseGoingAway, cause.String())
	}
}

func (c *clientConn) writeJSON(v any) bool {
	b, err := json.Marshal(v)
	if err != nil {
		zap.L().Error("ws.marshal", zap.Error(err))
		return false
	}
	return c.Deliver(b)
}

// closeWith queues a close frame behind whatever is already queued. Only the
// first call has an effect.
func (c *clientConn) closeWith(code int, reason string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.closed = true
	c.closeCode = code
	c.closeReason = reason
	close(c.queue)
	return true
}

func (c *clientConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.rawConn.Close()
		close(c.done)
	}()

	for {
		select {
		case frame, ok := <-c.queue:
			_ = c.rawConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.mu.Lock()
				code, reason := c.closeCode, c.closeReason
				c.mu.Unlock()
				msg := websocket.FormatCloseMessage(code, reason)
				if err := c.rawConn.WriteMessage(websocket.CloseMessage, msg); err == nil {
					// Give the peer a chance to answer the close handshake.
					select {
					case <-c.readerDone:
					case <-time.After(closeGrace):
					}
				}
				return
			}
			if err := c.rawConn.WriteMessage(websocket.TextMessage, frame); err != nil {
				zap.L().Debug("ws.write", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.rawConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.rawConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// drain reads and discards frames until the peer finishes the close
// handshake or the grace period runs out.
func (c *clientConn) drain() {
	_ = c.rawConn.SetReadDeadline(time.Now().Add(closeGrace))
	for {
		if _, _, err := c.rawConn.NextReader(); err != nil {
			return
		}
	}
}
