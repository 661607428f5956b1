package testsupport

import (
	"path/filepath"
	"testing"

	"veracity/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Verifier.BaseURL = "http://127.0.0.1:0"
	cfgVal.Verifier.APIKey = "test"

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

// WithVerifier points the test config at a live verifier endpoint, usually an
// httptest server.
func WithVerifier(baseURL, apiKey string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Verifier.BaseURL = baseURL
		b.cfg.Verifier.APIKey = apiKey
	}
}

// WithPollSchedule overrides the backoff schedule, keeping tests fast.
func WithPollSchedule(baseSeconds, capSeconds, maxWaitSeconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Poll.BaseDelaySeconds = baseSeconds
		b.cfg.Poll.DelayCapSeconds = capSeconds
		b.cfg.Poll.MaxWaitSeconds = maxWaitSeconds
	}
}

// WithAPIToken enables bearer authentication on the daemon API.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.APIToken = token
	}
}

// WithMaxConcurrent caps the orchestrator worker pool for the test.
func WithMaxConcurrent(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Poll.MaxConcurrent = n
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
