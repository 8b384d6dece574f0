package app

import (
	"fmt"
	"time"

	httpapi "github.com/aussiebroadwan/gpuconsole/internal/teams/http"
	"github.com/aussiebroadwan/gpuconsole/pkg/httpx"
	"github.com/caarlos0/env/v11"
)

// Store drivers selectable with CONSOLE_STORE_DRIVER.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

type Config struct {
	Port      int    `env:"PORT"       envDefault:"8080"`
	Env       string `env:"ENV"        envDefault:"dev"`  // dev, staging, prod
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"` // debug, info, warn, error
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"` // json, text

	StoreDriver  string `env:"CONSOLE_STORE_DRIVER"  envDefault:"memory"`
	DatabaseFile string `env:"CONSOLE_DATABASE_FILE" envDefault:"console.db"` // sqlite only

	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1m"`

	// InviteSupersede replaces a pending invitation for the same address
	// instead of adding another one.
	InviteSupersede bool `env:"CONSOLE_INVITE_SUPERSEDE" envDefault:"false"`

	RateLimitStrict   rateLimit `envPrefix:"RATELIMIT_STRICT_"`
	RateLimitModerate rateLimit `envPrefix:"RATELIMIT_MODERATE_"`
	RateLimitLenient  rateLimit `envPrefix:"RATELIMIT_LENIENT_"`
}

// rateLimit overrides the fields of a default profile that are set.
type rateLimit struct {
	Requests int           `env:"REQUESTS"`
	Window   time.Duration `env:"WINDOW"`
	Burst    int           `env:"BURST"`
}

func (l rateLimit) over(def httpx.RateLimitConfig) httpx.RateLimitConfig {
	if l.Requests != 0 {
		def.RequestsPerWindow = l.Requests
	}
	if l.Window != 0 {
		def.Window = l.Window
	}
	if l.Burst != 0 {
		def.Burst = l.Burst
	}
	return def
}

// RateLimits resolves the configured profiles against the defaults.
func (c Config) RateLimits() httpapi.RateLimits {
	def := httpapi.DefaultRateLimits()
	return httpapi.RateLimits{
		Strict:   c.RateLimitStrict.over(def.Strict),
		Moderate: c.RateLimitModerate.over(def.Moderate),
		Lenient:  c.RateLimitLenient.over(def.Lenient),
	}
}

// LoadConfig reads the configuration from the process environment.
func LoadConfig() (Config, error) {
	return loadConfig(env.Options{})
}

func loadConfig(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	switch c.StoreDriver {
	case DriverMemory:
	case DriverSQLite:
		if c.DatabaseFile == "" {
			return fmt.Errorf("CONSOLE_DATABASE_FILE is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown CONSOLE_STORE_DRIVER %q", c.StoreDriver)
	}
	if c.ShutdownGracePeriod <= 0 {
		return fmt.Errorf("SHUTDOWN_GRACE_PERIOD must be positive")
	}
	if c.HousekeepingInterval <= 0 {
		return fmt.Errorf("HOUSEKEEPING_INTERVAL must be positive")
	}

	limits := c.RateLimits()
	for name, l := range map[string]httpx.RateLimitConfig{
		"strict":   limits.Strict,
		"moderate": limits.Moderate,
		"lenient":  limits.Lenient,
	} {
		if !l.Valid() {
			return fmt.Errorf("invalid %s rate limit %+v", name, l)
		}
	}
	return nil
}
