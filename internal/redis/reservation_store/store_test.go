package reservation_store

import (
	"context"
	"errors"
	"testing"
	"time"

	"streamifygo/internal/services/signaling"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Reserve(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := New(db)

	mock.ExpectSetNX("room_r:AB3K9", 1, time.Minute).SetVal(true)
	mock.ExpectSetNX("room_r:AB3K9", 1, time.Minute).SetVal(false)

	ok, err := s.Reserve(context.Background(), "AB3K9", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Reserve(context.Background(), "AB3K9", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Claim(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := New(db)

	mock.ExpectDel("room_r:AB3K9").SetVal(1)
	mock.ExpectDel("room_r:AB3K9").SetVal(0)

	ok, err := s.Claim(context.Background(), "AB3K9")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Claim(context.Background(), "AB3K9")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ClaimError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := New(db)

	mock.ExpectDel("room_r:AB3K9").SetErr(errors.New("connection refused"))

	ok, err := s.Claim(context.Background(), "AB3K9")
	require.Error(t, err)
	assert.False(t, ok)
}

func TestStore_IsReserved(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := New(db)

	mock.ExpectExists("room_r:AB3K9").SetVal(1)
	mock.ExpectExists("room_r:ZZZZZ").SetVal(0)

	held, err := s.IsReserved(context.Background(), "AB3K9")
	require.NoError(t, err)
	assert.True(t, held)

	held, err = s.IsReserved(context.Background(), "ZZZZZ")
	require.NoError(t, err)
	assert.False(t, held)
}

func TestStore_BacksRegistryJoin(t *testing.T) {
	db, mock := redismock.NewClientMock()
	reg := signaling.NewRegistry(signaling.WithReservationStore(New(db)))

	mock.ExpectDel("room_r:AB3K9").SetVal(1)
	mock.ExpectDel("room_r:ZZZZZ").SetVal(0)

	s, err := reg.JoinOrCreateRoom(context.Background(), "ab3k9", "Alice", nopPeer{})
	require.NoError(t, err)
	assert.Equal(t, "AB3K9", s.Code())

	_, err = reg.JoinOrCreateRoom(context.Background(), "ZZZZZ", "Bob", nopPeer{})
	require.ErrorIs(t, err, signaling.ErrRoomNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCodeFromKey(t *testing.T) {
	code, ok := CodeFromKey("room_r:AB3K9")
	assert.True(t, ok)
	assert.Equal(t, "AB3K9", code)

	_, ok = CodeFromKey("auc_t:123")
	assert.False(t, ok)
	_, ok = CodeFromKey("room_r:")
	assert.False(t, ok)
}

type nopPeer struct{}

func (nopPeer) Deliver([]byte) bool                  { return true }
func (nopPeer) Disconnect(signaling.DisconnectCause) {}
