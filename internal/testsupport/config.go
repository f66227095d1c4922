package testsupport

import (
	"path/filepath"
	"testing"

	"resonate/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.SocketPath = filepath.Join(base, "resonated.sock")
	cfg.Logging.Format = "console"
	cfg.Logging.Level = "debug"

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithAPIToken sets the shared API token on the test config.
func WithAPIToken(token string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Market.APIToken = token
	}
}

// WithDefaultActor sets the default caller identity on the test config.
func WithDefaultActor(actor string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Market.DefaultActor = actor
	}
}
