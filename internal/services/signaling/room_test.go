package signaling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoom_RelayFromStrangerIsRejected(t *testing.T) {
	room := newRoom("AB3K9", time.Now())
	member := &fakePeer{}
	require.True(t, room.add(newSession(room, "A", member, time.Now())))

	other := newRoom("ZZZZZ", time.Now())
	stranger := newSession(other, "Mallory", &fakePeer{}, time.Now())

	n, err := room.Relay(stranger, []byte(`{"type":"offer"}`))
	require.ErrorIs(t, err, ErrNotMember)
	assert.Zero(t, n)
	assert.Empty(t, member.received())
}

func TestRoom_ClosedRoomRefusesJoins(t *testing.T) {
	room := newRoom("AB3K9", time.Now())
	s := newSession(room, "A", &fakePeer{}, time.Now())
	require.True(t, room.add(s))

	removed, empty := room.remove(s)
	assert.True(t, removed)
	assert.True(t, empty)

	assert.False(t, room.add(newSession(room, "B", &fakePeer{}, time.Now())))
	assert.Zero(t, room.Len())
}

func TestRoom_RemoveUnknownSession(t *testing.T) {
	room := newRoom("AB3K9", time.Now())
	require.True(t, room.add(newSession(room, "A", &fakePeer{}, time.Now())))

	removed, empty := room.remove(newSession(room, "ghost", &fakePeer{}, time.Now()))
	assert.False(t, removed)
	assert.False(t, empty)
	assert.Equal(t, []string{"A"}, room.Participants())
}
