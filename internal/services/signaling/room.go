package signaling

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Room is the ordered set of sessions sharing a code. All roster changes and
// fan-outs happen under mu; frames are only enqueued there, never written.
type Room struct {
	code      string
	createdAt time.Time

	mu      sync.Mutex
	members []*Session // join order
	closed  bool
}

func newRoom(code string, now time.Time) *Room {
	return &Room{code: code, createdAt: now}
}

func (r *Room) Code() string         { return r.code }
func (r *Room) CreatedAt() time.Time { return r.createdAt }

func (r *Room) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// Participants returns member names in join order.
func (r *Room) Participants() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.members))
	for _, s := range r.members {
		names = append(names, s.name)
	}
	return names
}

// add appends s and announces it to the existing members. It fails once the
// room has been emptied and marked for destruction.
func (r *Room) add(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	r.fanoutLocked(s, noticeFrame(TypeJoin, s.name))
	r.members = append(r.members, s)
	return true
}

// remove drops s, announces the departure and reports whether the room is
// now empty. An empty room is closed for good.
func (r *Room) remove(s *Session) (removed, empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.indexLocked(s)
	if idx < 0 {
		return false, len(r.members) == 0
	}
	r.members = append(r.members[:idx], r.members[idx+1:]...)
	r.fanoutLocked(s, noticeFrame(TypeLeave, s.name))
	if len(r.members) == 0 {
		r.closed = true
		return true, true
	}
	return true, false
}

// Relay forwards frame verbatim to every member except from and returns the
// number of peers that accepted it.
func (r *Room) Relay(from *Session, frame []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexLocked(from) < 0 {
		return 0, ErrNotMember
	}
	return r.fanoutLocked(from, frame), nil
}

func (r *Room) disconnectAll(cause DisconnectCause) {
	r.mu.Lock()
	peers := make([]Peer, 0, len(r.members))
	for _, s := range r.members {
		peers = append(peers, s.peer)
	}
	r.mu.Unlock()

	for _, p := range peers {
		p.Disconnect(cause)
	}
}

func (r *Room) indexLocked(s *Session) int {
	for i, m := range r.members {
		if m == s {
			return i
		}
	}
	return -1
}

func (r *Room) fanoutLocked(except *Session, frame []byte) int {
	delivered := 0
	for _, m := range r.members {
		if m == except {
			continue
		}
		if m.peer.Deliver(frame) {
			delivered++
			continue
		}
		zap.L().Warn("room.deliver_failed",
			zap.String("code", r.code),
			zap.String("session", m.id),
			zap.String("name", m.name),
		)
		m.peer.Disconnect(CauseSlowConsumer)
	}
	return delivered
}
