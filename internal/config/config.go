package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"dev" validate:"oneof=dev prod test"`

	HttpServerPort uint16   `env:"HTTP_SERVER_PORT" envDefault:"8080" validate:"min=1000,max=65535"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS"  envDefault:"*" envSeparator:","`

	ReservationGrace time.Duration `env:"RESERVATION_GRACE" envDefault:"60s" validate:"min=1s"`
	ReservationSweep time.Duration `env:"RESERVATION_SWEEP" envDefault:"5s"  validate:"min=100ms"`
	JoinTimeout      time.Duration `env:"JOIN_TIMEOUT"      envDefault:"30s" validate:"min=1s"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT"  envDefault:"10s" validate:"min=1s"`

	MaxMessageSize  int64 `env:"MAX_MESSAGE_SIZE"  envDefault:"65536" validate:"min=1024"`
	MaxNameLength   int   `env:"MAX_NAME_LENGTH"   envDefault:"64"    validate:"min=1,max=256"`
	SendQueueSize   int   `env:"SEND_QUEUE_SIZE"   envDefault:"256"   validate:"min=1"`
	CodeMaxAttempts int   `env:"CODE_MAX_ATTEMPTS" envDefault:"64"    validate:"min=1"`

	RedisEnabled bool   `env:"REDIS_ENABLED" envDefault:"false"`
	RedisHost    string `env:"REDIS_HOST"    envDefault:"localhost"`
	RedisPort    uint16 `env:"REDIS_PORT"    envDefault:"6379" validate:"min=1000,max=65535"`
	RedisDb      int    `env:"REDIS_DB"      envDefault:"0"    validate:"min=0,max=15"`
}

func LoadConfig() (*Config, error) {
	// Load environment variables from .env file
	err := godotenv.Load(".env")
	if err != nil {
		zap.L().Debug(".env file not found", zap.Error(err))
	}

	cfg := &Config{}
	if err = env.Parse(cfg); err != nil {
		zap.L().Error("config_load_failed", zap.Error(err))
		return nil, err
	}

	validate := validator.New()
	if err = validate.Struct(cfg); err != nil {
		zap.L().Error("config_validation_failed", zap.Error(err))
		return nil, err
	}
	return cfg, nil
}
