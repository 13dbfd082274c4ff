package signaling

import (
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// DisconnectCause tells a Peer why the coordinator is dropping it.
type DisconnectCause int

const (
	CauseSlowConsumer DisconnectCause = iota + 1
	CauseShutdown
)

func (c DisconnectCause) String() string {
	switch c {
	case CauseSlowConsumer:
		return "slow consumer"
	case CauseShutdown:
		return "server shutting down"
	default:
		return "unknown"
	}
}

// Peer is the transport side of a session. Deliver must not block: it
// enqueues the frame and reports false when the peer cannot accept it.
type Peer interface {
	Deliver(frame []byte) bool
	Disconnect(cause DisconnectCause)
}

// Session binds one connection to a participant name and a room.
type Session struct {
	id       string
	name     string
	room     *Room
	peer     Peer
	joinedAt time.Time
	left     atomic.Bool
}

func newSession(room *Room, name string, peer Peer, now time.Time) *Session {
	return &Session{
		id:       uuid.NewString(),
		name:     name,
		room:     room,
		peer:     peer,
		joinedAt: now,
	}
}

func (s *Session) ID() string          { return s.id }
func (s *Session) Name() string        { return s.name }
func (s *Session) Code() string        { return s.room.code }
func (s *Session) Room() *Room         { return s.room }
func (s *Session) JoinedAt() time.Time { return s.joinedAt }
func (s *Session) Left() bool          { return s.left.Load() }

// notice is the server-built frame for roster changes.
type notice struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

const (
	TypeJoin  = "join"
	TypeLeave = "leave"
)

func noticeFrame(typ, name string) []byte {
	b, _ := json.Marshal(notice{Type: typ, Name: name})
	return b
}
