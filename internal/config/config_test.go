package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/internal/config"
)

var keys = []string{
	"FORMSTATE_BASE_URI",
	"FORMSTATE_REQUEST_TIMEOUT",
	"FORMSTATE_LOG_LEVEL",
	"FORMSTATE_LOG_FORMAT",
	"FORMSTATE_REDIS_ADDR",
	"FORMSTATE_REDIS_PASSWORD",
	"FORMSTATE_REDIS_DB",
	"FORMSTATE_CACHE_TTL",
	"FORMSTATE_METRICS_ADDR",
}

// clearEnv unsets every variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func writeEnvFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := config.Config{
		BaseURI:        "http://localhost:8080",
		RequestTimeout: 10 * time.Second,
		LogLevel:       "info",
		LogFormat:      "text",
		CacheTTL:       5 * time.Minute,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_EnvFileAndOverrides(t *testing.T) {
	clearEnv(t)
	path := writeEnvFile(t, "FORMSTATE_BASE_URI=https://api.example.com\nFORMSTATE_CACHE_TTL=1m\nFORMSTATE_REDIS_ADDR=localhost:6379\n")
	t.Setenv("FORMSTATE_CACHE_TTL", "30s")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BaseURI != "https://api.example.com" || cfg.RedisAddr != "localhost:6379" {
		t.Fatalf("file values not applied: %#v", cfg)
	}
	if cfg.CacheTTL != 30*time.Second {
		t.Fatalf("environment should win over the file, got %v", cfg.CacheTTL)
	}
}

func TestLoad_MissingNamedFile(t *testing.T) {
	clearEnv(t)
	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatalf("expected error for a missing named file")
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string][2]string{
		"unparseable timeout": {"FORMSTATE_REQUEST_TIMEOUT", "soon"},
		"zero timeout":        {"FORMSTATE_REQUEST_TIMEOUT", "0s"},
		"relative base uri":   {"FORMSTATE_BASE_URI", "/api"},
		"bad level":           {"FORMSTATE_LOG_LEVEL", "loud"},
		"bad format":          {"FORMSTATE_LOG_FORMAT", "xml"},
		"negative ttl":        {"FORMSTATE_CACHE_TTL", "-1m"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Chdir(t.TempDir())
			t.Setenv(kv[0], kv[1])

			_, err := config.Load()
			if !errors.Is(err, config.ErrParsingConfig) && !errors.Is(err, config.ErrInvalidConfig) {
				t.Fatalf("expected a config error, got %v", err)
			}
		})
	}
}

func TestConfig_Logger(t *testing.T) {
	cfg := config.Config{LogLevel: "debug", LogFormat: "json"}
	if !cfg.Logger().Enabled(t.Context(), -4) {
		t.Fatalf("expected debug logging to be enabled")
	}
}
