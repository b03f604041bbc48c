package testsupport

import (
	"path/filepath"
	"testing"

	"plexbridge/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The HTTP API is disabled unless WithAPIBind is applied.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Server.Host = "127.0.0.1"
	cfgVal.Server.Token = "test-token"
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithServer points the config at host:port.
func WithServer(host string, port int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.Host = host
		b.cfg.Server.Port = port
	}
}

// WithPlayers seeds the configured player ids.
func WithPlayers(ids ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Players.IDs = append([]string(nil), ids...)
	}
}

// WithAPIBind enables the HTTP API on addr with an optional bearer token.
func WithAPIBind(addr, token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.APIBind = addr
		b.cfg.Paths.APIToken = token
	}
}

// WithNtfyTopic sets the ntfy topic URL.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
