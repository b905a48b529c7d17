// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/goliatone/go-formstate/internal/logging"
)

var (
	// ErrParsingConfig is returned when environment variables cannot be
	// parsed into Config.
	ErrParsingConfig = errors.New("config: failed to parse environment variables")
	// ErrInvalidConfig is returned when a parsed value is out of range.
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

// Config holds the process settings.
type Config struct {
	BaseURI        string        `env:"FORMSTATE_BASE_URI" envDefault:"http://localhost:8080"`
	RequestTimeout time.Duration `env:"FORMSTATE_REQUEST_TIMEOUT" envDefault:"10s"`
	LogLevel       string        `env:"FORMSTATE_LOG_LEVEL" envDefault:"info"`
	LogFormat      string        `env:"FORMSTATE_LOG_FORMAT" envDefault:"text"`
	RedisAddr      string        `env:"FORMSTATE_REDIS_ADDR"`
	RedisPassword  string        `env:"FORMSTATE_REDIS_PASSWORD"`
	RedisDB        int           `env:"FORMSTATE_REDIS_DB" envDefault:"0"`
	CacheTTL       time.Duration `env:"FORMSTATE_CACHE_TTL" envDefault:"5m"`
	MetricsAddr    string        `env:"FORMSTATE_METRICS_ADDR"`
}

// Load reads the given .env files, or ./.env when none are named, and then
// parses the environment. A missing default .env is not an error; a missing
// named file is. Variables already set in the environment win over file
// values.
func Load(paths ...string) (Config, error) {
	if len(paths) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load .env: %w", err)
		}
	} else if err := godotenv.Load(paths...); err != nil {
		return Config{}, fmt.Errorf("config: load env files: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Join(ErrParsingConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and formats.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURI)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: FORMSTATE_BASE_URI %q is not an absolute URL", ErrInvalidConfig, c.BaseURI)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: FORMSTATE_REQUEST_TIMEOUT must be positive", ErrInvalidConfig)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("%w: FORMSTATE_CACHE_TTL must not be negative", ErrInvalidConfig)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Logger builds the logger described by the configuration. Call Validate
// first; invalid values fall back to the defaults.
func (c Config) Logger(opts ...logging.Option) *slog.Logger {
	level, _ := logging.ParseLevel(c.LogLevel)
	format, _ := logging.ParseFormat(c.LogFormat)
	base := []logging.Option{logging.WithLevel(level), logging.WithFormat(format)}
	return logging.New(append(base, opts...)...)
}
