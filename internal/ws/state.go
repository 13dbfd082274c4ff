package ws

import "streamifygo/internal/services/signaling"

// connState is where a connection is in the join/leave lifecycle.
type connState int

const (
	stateConnecting connState = iota
	stateAwaitingJoin
	stateJoined
	stateRejected
	stateLeft
)

func (s connState) String() string {
	switch s {
	case stateConnecting:
		return "connecting"
	case stateAwaitingJoin:
		return "awaiting_join"
	case stateJoined:
		return "joined"
	case stateRejected:
		return "rejected"
	case stateLeft:
		return "left"
	default:
		return "unknown"
	}
}

func (s connState) terminal() bool { return s == stateRejected || s == stateLeft }

// ConnContext is the per-connection state the reader loop and handlers share.
// It is only touched from the connection's reader goroutine.
type ConnContext struct {
	Code      string
	QueryName string
	Remote    string

	conn       *clientConn
	session    *signaling.Session
	state      connState
	readFailed bool
}

func (c *ConnContext) Session() *signaling.Session { return c.session }
