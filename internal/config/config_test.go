package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.AppEnv)
	assert.EqualValues(t, 8080, cfg.HttpServerPort)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, 60*time.Second, cfg.ReservationGrace)
	assert.Equal(t, 30*time.Second, cfg.JoinTimeout)
	assert.EqualValues(t, 65536, cfg.MaxMessageSize)
	assert.False(t, cfg.RedisEnabled)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("HTTP_SERVER_PORT", "9090")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000,https://share.example.com")
	t.Setenv("RESERVATION_GRACE", "2m")
	t.Setenv("JOIN_TIMEOUT", "5s")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_PORT", "6380")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.EqualValues(t, 9090, cfg.HttpServerPort)
	assert.Equal(t, []string{"http://localhost:3000", "https://share.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, 2*time.Minute, cfg.ReservationGrace)
	assert.Equal(t, 5*time.Second, cfg.JoinTimeout)
	assert.True(t, cfg.RedisEnabled)
	assert.EqualValues(t, 6380, cfg.RedisPort)
}

func TestLoadConfig_Invalid(t *testing.T) {
	cases := map[string]string{
		"HTTP_SERVER_PORT":  "80",
		"JOIN_TIMEOUT":      "10ms",
		"APP_ENV":           "staging",
		"MAX_NAME_LENGTH":   "0",
		"RESERVATION_GRACE": "not-a-duration",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			_, err := LoadConfig()
			require.Error(t, err)
		})
	}
}
