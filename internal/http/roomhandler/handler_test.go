package roomhandler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"streamifygo/internal/roomcode"
	"streamifygo/internal/services/signaling"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopPeer struct{}

func (nopPeer) Deliver([]byte) bool                  { return true }
func (nopPeer) Disconnect(signaling.DisconnectCause) {}

// fullStore refuses every reservation so the generator runs dry.
type fullStore struct{ err error }

func (s fullStore) Reserve(context.Context, string, time.Duration) (bool, error) { return false, s.err }
func (s fullStore) Claim(context.Context, string) (bool, error)                  { return false, nil }
func (s fullStore) IsReserved(context.Context, string) (bool, error)             { return false, nil }

func newEngine(reg signaling.IRoomRegistry) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	New(reg).Register(r)
	return r
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestGenerate(t *testing.T) {
	reg := signaling.NewRegistry()
	w := get(t, newEngine(reg), "/room/generate")
	require.Equal(t, http.StatusOK, w.Code)

	var body GenerateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, roomcode.Valid(body.Code))

	reserved, err := reg.Store().IsReserved(context.Background(), body.Code)
	require.NoError(t, err)
	assert.True(t, reserved)
	assert.EqualValues(t, 1, reg.Stats().ReservationsIssued)
}

func TestGenerate_Exhausted(t *testing.T) {
	reg := signaling.NewRegistry(
		signaling.WithReservationStore(fullStore{}),
		signaling.WithGenerator(roomcode.NewGenerator(3)),
	)
	w := get(t, newEngine(reg), "/room/generate")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGenerate_StoreError(t *testing.T) {
	reg := signaling.NewRegistry(signaling.WithReservationStore(fullStore{err: errors.New("redis down")}))
	w := get(t, newEngine(reg), "/room/generate")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "redis down")
}

func TestInfo(t *testing.T) {
	reg := signaling.NewRegistry()
	_, err := reg.Store().Reserve(context.Background(), "AB3K9", time.Minute)
	require.NoError(t, err)
	engine := newEngine(reg)

	// reserved but nobody joined yet
	assert.Equal(t, http.StatusNotFound, get(t, engine, "/room/AB3K9").Code)

	_, err = reg.JoinOrCreateRoom(context.Background(), "AB3K9", "Alice", nopPeer{})
	require.NoError(t, err)

	w := get(t, engine, "/room/ab3k9")
	require.Equal(t, http.StatusOK, w.Code)
	var info signaling.RoomInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "AB3K9", info.Code)
	assert.Equal(t, []string{"Alice"}, info.Participants)
}

func TestStats(t *testing.T) {
	reg := signaling.NewRegistry()
	_, err := reg.Store().Reserve(context.Background(), "AB3K9", time.Minute)
	require.NoError(t, err)
	_, err = reg.JoinOrCreateRoom(context.Background(), "AB3K9", "Alice", nopPeer{})
	require.NoError(t, err)

	w := get(t, newEngine(reg), "/stats")
	require.Equal(t, http.StatusOK, w.Code)
	var st signaling.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, 1, st.OpenRooms)
	assert.Equal(t, 1, st.Participants)
	assert.EqualValues(t, 1, st.RoomsCreated)
}
