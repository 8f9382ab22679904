// Package testsupport builds validated daybook configurations against
// per-test temp directories.
package testsupport

import (
	"path/filepath"
	"testing"

	"daybook/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config rooted in a unique temp directory per test,
// with directories created and defaults applied.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.Root = filepath.Join(base, "workspace")
	cfg.Paths.StateDir = filepath.Join(cfg.Paths.Root, "state")
	cfg.Paths.LogDir = filepath.Join(cfg.Paths.StateDir, "logs")
	cfg.Paths.InboxDir = filepath.Join(cfg.Paths.Root, "inbox")
	cfg.Operator.Name = "Test Operator"
	cfg.Operator.Email = "operator@internal.test"
	cfg.Operator.InternalDomains = []string{"internal.test"}

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("create test directories: %v", err)
	}
	return &cfg
}

// WithLookAheadDays overrides the agenda-gap scan window.
func WithLookAheadDays(days int) ConfigOption {
	return func(c *config.Config) {
		c.LookAhead.BusinessDays = days
	}
}

// WithInternalDomains replaces the internal domain list.
func WithInternalDomains(domains ...string) ConfigOption {
	return func(c *config.Config) {
		c.Operator.InternalDomains = domains
	}
}
