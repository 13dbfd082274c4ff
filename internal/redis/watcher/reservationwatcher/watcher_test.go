package reservationwatcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingSink struct{ codes []string }

func (r *recordingSink) ReservationExpired(code string) { r.codes = append(r.codes, code) }

func TestHandle_OnlyReservationKeys(t *testing.T) {
	sink := &recordingSink{}

	assert.True(t, handle("room_r:AB3K9", sink))
	assert.False(t, handle("session:abc", sink))
	assert.False(t, handle("room_r:", sink))

	assert.Equal(t, []string{"AB3K9"}, sink.codes)
}
