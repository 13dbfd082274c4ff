package signaling

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"streamifygo/internal/roomcode"

	"go.uber.org/zap"
)

const (
	DefaultReservationGrace = 60 * time.Second
	DefaultMaxNameLength    = 64
)

// RoomInfo is a read-only view of an open room.
type RoomInfo struct {
	Code         string    `json:"code"          example:"AB3K9"`
	CreatedAt    time.Time `json:"created_at"    example:"2025-07-27T16:05:05Z"`
	Participants []string  `json:"participants"`
}

type Stats struct {
	OpenRooms           int   `json:"open_rooms"`
	Participants        int   `json:"participants"`
	ReservationsIssued  int64 `json:"reservations_issued"`
	ReservationsExpired int64 `json:"reservations_expired"`
	RoomsCreated        int64 `json:"rooms_created"`
	RoomsDestroyed      int64 `json:"rooms_destroyed"`
}

type IRoomRegistry interface {
	ReserveCode(ctx context.Context) (string, error)
	JoinOrCreateRoom(ctx context.Context, code, name string, peer Peer) (*Session, error)
	Leave(s *Session)
	Relay(from *Session, frame []byte) (int, error)
	Lookup(code string) (RoomInfo, bool)
	Stats() Stats
}

// Registry owns every open room and the reservations for codes not joined yet.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room

	store      ReservationStore
	gen        *roomcode.Generator
	grace      time.Duration
	maxNameLen int
	now        func() time.Time

	reservationsIssued  atomic.Int64
	reservationsExpired atomic.Int64
	roomsCreated        atomic.Int64
	roomsDestroyed      atomic.Int64
}

var _ IRoomRegistry = (*Registry)(nil)

type Option func(*Registry)

// WithReservationStore replaces the in-memory store.
func WithReservationStore(s ReservationStore) Option {
	return func(r *Registry) { r.store = s }
}

func WithReservationGrace(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.grace = d
		}
	}
}

func WithGenerator(g *roomcode.Generator) Option {
	return func(r *Registry) { r.gen = g }
}

func WithMaxNameLength(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.maxNameLen = n
		}
	}
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		rooms:      make(map[string]*Room),
		gen:        roomcode.NewGenerator(roomcode.DefaultMaxAttempts),
		grace:      DefaultReservationGrace,
		maxNameLen: DefaultMaxNameLength,
		now:        time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	if r.store == nil {
		r.store = NewMemoryReservations(r.ReservationExpired)
	}
	return r
}

// Store exposes the reservation backend so callers can run its janitor.
func (r *Registry) Store() ReservationStore { return r.store }

// ReserveCode hands out a code that is neither open nor reserved and holds it
// for the grace period.
func (r *Registry) ReserveCode(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code, err := r.gen.Generate(func(code string) (bool, error) {
		if _, open := r.rooms[code]; open {
			return false, nil
		}
		return r.store.Reserve(ctx, code, r.grace)
	})
	if err != nil {
		zap.L().Warn("registry.reserve_failed", zap.Error(err))
		return "", fmt.Errorf("reserve room code: %w", err)
	}

	r.reservationsIssued.Add(1)
	zap.L().Info("registry.code_reserved",
		zap.String("code", code),
		zap.Duration("grace", r.grace),
	)
	return code, nil
}

// JoinOrCreateRoom adds a session for name to the room behind code, turning
// a live reservation into a room on first join. Existing members are told
// about the newcomer; the newcomer is not.
func (r *Registry) JoinOrCreateRoom(ctx context.Context, code, name string, peer Peer) (*Session, error) {
	code = roomcode.Normalize(code)
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > r.maxNameLen {
		return nil, ErrInvalidName
	}
	if !roomcode.Valid(code) {
		return nil, ErrRoomNotFound
	}

	r.mu.Lock()
	room, ok := r.rooms[code]
	if !ok {
		claimed, err := r.store.Claim(ctx, code)
		if err != nil {
			r.mu.Unlock()
			return nil, fmt.Errorf("claim reservation %s: %w", code, err)
		}
		if !claimed {
			r.mu.Unlock()
			return nil, ErrRoomNotFound
		}
		room = newRoom(code, r.now())
		r.rooms[code] = room
		r.roomsCreated.Add(1)
		zap.L().Info("registry.room_created", zap.String("code", code))
	}
	r.mu.Unlock()

	s := newSession(room, name, peer, r.now())
	if !room.add(s) {
		// Last member left between lookup and add; the room is gone.
		return nil, ErrRoomNotFound
	}

	zap.L().Info("registry.joined",
		zap.String("code", code),
		zap.String("session", s.id),
		zap.String("name", name),
	)
	return s, nil
}

// Leave removes s from its room and destroys the room once empty. Calling it
// more than once for the same session is a no-op.
func (r *Registry) Leave(s *Session) {
	if s == nil || !s.left.CompareAndSwap(false, true) {
		return
	}
	room := s.room
	removed, empty := room.remove(s)
	if !removed {
		return
	}
	zap.L().Info("registry.left",
		zap.String("code", room.code),
		zap.String("session", s.id),
		zap.String("name", s.name),
	)
	if !empty {
		return
	}

	r.mu.Lock()
	if r.rooms[room.code] == room {
		delete(r.rooms, room.code)
		r.roomsDestroyed.Add(1)
	}
	r.mu.Unlock()
	zap.L().Info("registry.room_destroyed", zap.String("code", room.code))
}

// Relay fans frame out to the other members of the sender's room.
func (r *Registry) Relay(from *Session, frame []byte) (int, error) {
	if from.Left() {
		return 0, ErrSessionClosed
	}
	return from.room.Relay(from, frame)
}

func (r *Registry) Lookup(code string) (RoomInfo, bool) {
	code = roomcode.Normalize(code)
	r.mu.Lock()
	room, ok := r.rooms[code]
	r.mu.Unlock()
	if !ok {
		return RoomInfo{}, false
	}
	return RoomInfo{
		Code:         room.code,
		CreatedAt:    room.createdAt,
		Participants: room.Participants(),
	}, true
}

func (r *Registry) Stats() Stats {
	r.mu.Lock()
	rooms := make([]*Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	r.mu.Unlock()

	st := Stats{
		OpenRooms:           len(rooms),
		ReservationsIssued:  r.reservationsIssued.Load(),
		ReservationsExpired: r.reservationsExpired.Load(),
		RoomsCreated:        r.roomsCreated.Load(),
		RoomsDestroyed:      r.roomsDestroyed.Load(),
	}
	for _, room := range rooms {
		st.Participants += room.Len()
	}
	return st
}

// ReservationExpired records a reservation that lapsed without a join.
func (r *Registry) ReservationExpired(code string) {
	r.reservationsExpired.Add(1)
	zap.L().Debug("registry.reservation_expired", zap.String("code", code))
}

// Close disconnects every member of every room. Rooms are torn down as the
// transport reports each session gone.
func (r *Registry) Close() {
	r.mu.Lock()
	rooms := make([]*Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	r.mu.Unlock()

	for _, room := range rooms {
		room.disconnectAll(CauseShutdown)
	}
}
