package redis_client

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const pingTimeout = 5 * time.Second

// NewRedisClient dials the reservation store and verifies it answers PING.
func NewRedisClient(ctx context.Context, host string, port uint16, db int) (*redis.Client, error) {
	maxPool := runtime.NumCPU() * 4
	if maxPool > 128 {
		maxPool = 128
	}

	rc := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		DB:       db,
		PoolSize: maxPool,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rc.Ping(pingCtx).Err(); err != nil {
		_ = rc.Close()
		zap.L().Error("redis_connect", zap.String("addr", rc.Options().Addr), zap.Error(err))
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return rc, nil
}
