package app

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/gpuconsole/pkg/httpx"
	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/require"
)

func load(vars map[string]string) (Config, error) {
	return loadConfig(env.Options{Environment: vars})
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := load(map[string]string{})
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "json", cfg.LogFormat)
	require.Equal(t, DriverMemory, cfg.StoreDriver)
	require.Equal(t, "console.db", cfg.DatabaseFile)
	require.Equal(t, 10*time.Second, cfg.ShutdownGracePeriod)
	require.Equal(t, time.Minute, cfg.HousekeepingInterval)
	require.False(t, cfg.InviteSupersede)

	limits := cfg.RateLimits()
	require.Equal(t, httpx.StrictLimit, limits.Strict)
	require.Equal(t, httpx.ModerateLimit, limits.Moderate)
	require.Equal(t, httpx.LenientLimit, limits.Lenient)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Parallel()

	cfg, err := load(map[string]string{
		"PORT":                       "9090",
		"CONSOLE_STORE_DRIVER":       "sqlite",
		"CONSOLE_DATABASE_FILE":      "/data/console.db",
		"HOUSEKEEPING_INTERVAL":      "30s",
		"CONSOLE_INVITE_SUPERSEDE":   "true",
		"RATELIMIT_STRICT_REQUESTS":  "1000",
		"RATELIMIT_STRICT_BURST":     "500",
		"RATELIMIT_MODERATE_WINDOW":  "2m",
		"RATELIMIT_LENIENT_REQUESTS": "5",
		"RATELIMIT_LENIENT_WINDOW":   "1s",
		"RATELIMIT_LENIENT_BURST":    "5",
		"SHUTDOWN_GRACE_PERIOD":      "1s",
		"LOG_FORMAT":                 "text",
		"ENV":                        "prod",
		"LOG_LEVEL":                  "debug",
	})
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, DriverSQLite, cfg.StoreDriver)
	require.Equal(t, "/data/console.db", cfg.DatabaseFile)
	require.Equal(t, 30*time.Second, cfg.HousekeepingInterval)
	require.True(t, cfg.InviteSupersede)

	limits := cfg.RateLimits()
	require.Equal(t, httpx.RateLimitConfig{RequestsPerWindow: 1000, Window: time.Minute, Burst: 500}, limits.Strict)
	require.Equal(t, 2*time.Minute, limits.Moderate.Window)
	require.Equal(t, httpx.ModerateLimit.RequestsPerWindow, limits.Moderate.RequestsPerWindow)
	require.Equal(t, httpx.RateLimitConfig{RequestsPerWindow: 5, Window: time.Second, Burst: 5}, limits.Lenient)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		vars map[string]string
	}{
		{"unknown driver", map[string]string{"CONSOLE_STORE_DRIVER": "postgres"}},
		{"zero port", map[string]string{"PORT": "0"}},
		{"negative port", map[string]string{"PORT": "-1"}},
		{"port not a number", map[string]string{"PORT": "http"}},
		{"negative burst", map[string]string{"RATELIMIT_STRICT_BURST": "-1"}},
		{"bad duration", map[string]string{"HOUSEKEEPING_INTERVAL": "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := load(tt.vars)
			require.Error(t, err)
		})
	}
}
