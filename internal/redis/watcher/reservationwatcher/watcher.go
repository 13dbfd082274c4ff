package reservationwatcher

import (
	"context"

	"streamifygo/internal/redis/reservation_store"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ExpirySink is told about every reservation Redis expired.
type ExpirySink interface {
	ReservationExpired(code string)
}

// Run listens to key-expiry events for reservation keys until ctx is done.
// Run must be started once at service boot.
func Run(ctx context.Context, rdb *redis.Client, sink ExpirySink) {
	if err := rdb.ConfigSet(ctx, "notify-keyspace-events", "Ex").Err(); err != nil {
		zap.L().Warn("reservationwatcher.config_set", zap.Error(err))
	}
	ps := rdb.PSubscribe(ctx, "__keyevent@*__:expired")
	defer ps.Close()

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			handle(m.Payload, sink)
		}
	}
}

func handle(key string, sink ExpirySink) bool {
	code, ok := reservation_store.CodeFromKey(key)
	if !ok {
		return false
	}
	sink.ReservationExpired(code)
	return true
}
