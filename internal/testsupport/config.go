// Package testsupport provides shared fixtures for package tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"mixloom/internal/config"
)

// ConfigOption customizes the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per
// test, stamped with run identity, and patched by any options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.InputDir = filepath.Join(base, "input")
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.StampRun()

	for _, dir := range []string{cfg.Paths.InputDir, cfg.Paths.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithSkipEffects disables the lofi stage on the test config.
func WithSkipEffects() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Effects.Skip = true
	}
}

// WithCrossfadeMS overrides the default crossfade duration.
func WithCrossfadeMS(ms int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Merge.CrossfadeMS = ms
	}
}
