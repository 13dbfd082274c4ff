package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"streamifygo/internal/config"
	"streamifygo/internal/http/http_server"
	"streamifygo/internal/redis/redis_client"
	"streamifygo/internal/redis/reservation_store"
	"streamifygo/internal/redis/watcher/reservationwatcher"
	"streamifygo/internal/roomcode"
	"streamifygo/internal/services/signaling"
	"streamifygo/internal/ws"

	"go.uber.org/zap"
)

var (
	Log, _ = zap.NewDevelopment()
)

func main() {
	defer Log.Sync()
	zap.ReplaceGlobals(Log)

	// 1. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if cfg.AppEnv == "prod" {
		if prodLog, err := zap.NewProduction(); err == nil {
			Log = prodLog
			zap.ReplaceGlobals(Log)
		}
	}
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 3. Registry, backed by Redis reservations when enabled
	opts := []signaling.Option{
		signaling.WithReservationGrace(cfg.ReservationGrace),
		signaling.WithGenerator(roomcode.NewGenerator(cfg.CodeMaxAttempts)),
		signaling.WithMaxNameLength(cfg.MaxNameLength),
	}
	var registry *signaling.Registry
	if cfg.RedisEnabled {
		redisClient, err := redis_client.NewRedisClient(ctx, cfg.RedisHost, cfg.RedisPort, cfg.RedisDb)
		if err != nil {
			Log.Fatal("Failed to create Redis client", zap.Error(err))
		}
		defer redisClient.Close()
		Log.Debug("Redis client created successfully")

		registry = signaling.NewRegistry(append(opts,
			signaling.WithReservationStore(reservation_store.New(redisClient)))...)

		// 4. Background: key-expiry watcher for lapsed reservations
		go reservationwatcher.Run(ctx, redisClient, registry)
	} else {
		registry = signaling.NewRegistry(opts...)

		// 4. Background: janitor for lapsed in-memory reservations
		if mem, ok := registry.Store().(*signaling.MemoryReservations); ok {
			mem.Run(ctx, cfg.ReservationSweep)
		}
	}

	// 5. WS server
	origins := ws.NewOriginPolicy(cfg.AllowedOrigins)
	wsSrv := ws.NewWsServer(registry, ws.Settings{
		Origins:        origins,
		JoinTimeout:    cfg.JoinTimeout,
		MaxMessageSize: cfg.MaxMessageSize,
		SendQueueSize:  cfg.SendQueueSize,
	})

	// 6. HTTP + WS server
	httpServer := http_server.NewHttpServer(ctx, cfg.HttpServerPort, wsSrv, registry, origins)
	serveErr := make(chan error, 1)
	go func() { serveErr <- httpServer.Start() }()

	select {
	case err := <-serveErr:
		if err != nil {
			Log.Fatal("Failed to start HTTP server", zap.Error(err))
		}
		return
	case <-ctx.Done():
	}

	// 7. Graceful shutdown: stop accepting, then close live sockets
	Log.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
	_ = httpServer.Dispose(cfg.ShutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := wsSrv.Shutdown(shutdownCtx); err != nil {
		Log.Warn("ws shutdown incomplete", zap.Error(err))
		registry.Close()
	}
	Log.Info("bye", zap.Any("stats", registry.Stats()))
}
