package reservation_store

import (
	"context"
	"strings"
	"time"

	"streamifygo/internal/services/signaling"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces reservation keys: "room_r:<code>".
const KeyPrefix = "room_r:"

// Store keeps reservations as Redis keys whose TTL is the grace period, so
// Redis expires unjoined codes on its own.
type Store struct {
	rdc *redis.Client
}

var _ signaling.ReservationStore = (*Store)(nil)

func New(rdc *redis.Client) *Store { return &Store{rdc: rdc} }

func Key(code string) string { return KeyPrefix + code }

// CodeFromKey is the inverse of Key.
func CodeFromKey(key string) (string, bool) {
	if !strings.HasPrefix(key, KeyPrefix) {
		return "", false
	}
	code := strings.TrimPrefix(key, KeyPrefix)
	return code, code != ""
}

func (s *Store) Reserve(ctx context.Context, code string, ttl time.Duration) (bool, error) {
	return s.rdc.SetNX(ctx, Key(code), 1, ttl).Result()
}

// Claim deletes the key; only the caller that actually removed it wins.
func (s *Store) Claim(ctx context.Context, code string) (bool, error) {
	n, err := s.rdc.Del(ctx, Key(code)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *Store) IsReserved(ctx context.Context, code string) (bool, error) {
	n, err := s.rdc.Exists(ctx, Key(code)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
