package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"veracity/internal/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("VERACITY_VERIFIER_BASE_URL", "https://checker.example.com")

	path := filepath.Join(t.TempDir(), "nope.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if exists {
		t.Fatal("missing file must not report exists")
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if cfg.Paths.APIBind != "127.0.0.1:7519" {
		t.Fatalf("unexpected api bind %q", cfg.Paths.APIBind)
	}
	if cfg.Poll.BaseDelaySeconds != 5 || cfg.Poll.DelayCapSeconds != 20 || cfg.Poll.MaxWaitSeconds != 120 {
		t.Fatalf("unexpected poll defaults: %+v", cfg.Poll)
	}
	if cfg.Transform.PrimaryClaim != "first" {
		t.Fatalf("unexpected primary claim %q", cfg.Transform.PrimaryClaim)
	}
	if cfg.Verifier.Mode != "summary" {
		t.Fatalf("unexpected mode %q", cfg.Verifier.Mode)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	path := writeConfig(t, `
[paths]
data_dir = "/tmp/veracity-test/data"
log_dir = "/tmp/veracity-test/logs"
api_bind = "127.0.0.1:9000"

[verifier]
base_url = "https://checker.example.com/"
api_key = "  key-123  "
mode = "Thorough"

[poll]
base_delay = 2
delay_cap = 8
max_wait = 60
max_concurrent = 4

[transform]
primary_claim = "Confidence"
`)

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("unexpected resolution exists=%v path=%q", exists, resolved)
	}
	if cfg.Verifier.BaseURL != "https://checker.example.com" {
		t.Fatalf("trailing slash not trimmed: %q", cfg.Verifier.BaseURL)
	}
	if cfg.Verifier.APIKey != "key-123" {
		t.Fatalf("api key not trimmed: %q", cfg.Verifier.APIKey)
	}
	if cfg.Verifier.Mode != "thorough" {
		t.Fatalf("mode not lowercased: %q", cfg.Verifier.Mode)
	}
	if cfg.Poll.BaseDelaySeconds != 2 || cfg.Poll.MaxConcurrent != 4 {
		t.Fatalf("poll overrides not applied: %+v", cfg.Poll)
	}
	if cfg.Transform.PrimaryClaim != "confidence" {
		t.Fatalf("primary claim not normalized: %q", cfg.Transform.PrimaryClaim)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("VERACITY_VERIFIER_API_KEY", "env-key")
	t.Setenv("VERACITY_VERIFIER_BASE_URL", "https://env.example.com/")

	path := writeConfig(t, `
[verifier]
base_url = "https://file.example.com"
api_key = "file-key"
`)

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Verifier.APIKey != "env-key" {
		t.Fatalf("env key not applied: %q", cfg.Verifier.APIKey)
	}
	if cfg.Verifier.BaseURL != "https://env.example.com" {
		t.Fatalf("env base url not applied: %q", cfg.Verifier.BaseURL)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("VERACITY_VERIFIER_BASE_URL", "https://checker.example.com")

	cases := []struct {
		name     string
		contents string
		fragment string
	}{
		{
			name:     "bad mode",
			contents: "[verifier]\nmode = \"exhaustive\"\n",
			fragment: "verifier.mode",
		},
		{
			name:     "delay cap below base",
			contents: "[poll]\nbase_delay = 30\ndelay_cap = 10\n",
			fragment: "poll.delay_cap",
		},
		{
			name:     "budget below base delay",
			contents: "[poll]\nbase_delay = 30\ndelay_cap = 30\nmax_wait = 10\n",
			fragment: "poll.max_wait",
		},
		{
			name:     "bad primary claim",
			contents: "[transform]\nprimary_claim = \"loudest\"\n",
			fragment: "transform.primary_claim",
		},
		{
			name:     "bad log level",
			contents: "[logging]\nlevel = \"verbose\"\n",
			fragment: "logging.level",
		},
		{
			name:     "bad log format",
			contents: "[logging]\nformat = \"xml\"\n",
			fragment: "logging.format",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.contents)
			_, _, _, err := config.Load(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.fragment) {
				t.Fatalf("error %q missing %q", err, tc.fragment)
			}
		})
	}
}

func TestLoadRequiresVerifierBaseURL(t *testing.T) {
	t.Setenv("VERACITY_VERIFIER_BASE_URL", "")
	t.Setenv("VERACITY_VERIFIER_API_KEY", "")

	path := writeConfig(t, "[paths]\ndata_dir = \"/tmp/veracity-test\"\n")
	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "verifier.base_url") {
		t.Fatalf("expected base url requirement, got %v", err)
	}
}

func TestDatabasePath(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = "/var/lib/veracity"
	if got := cfg.DatabasePath(); got != "/var/lib/veracity/veracity.db" {
		t.Fatalf("unexpected database path %q", got)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("home dir: %v", err)
	}
	got, err := config.ExpandPath("~/data")
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if got != filepath.Join(home, "data") {
		t.Fatalf("unexpected expansion %q", got)
	}

	if got, err := config.ExpandPath(""); err != nil || got != "" {
		t.Fatalf("empty path should stay empty, got %q err %v", got, err)
	}
}

func TestSampleConfigRoundTrips(t *testing.T) {
	t.Setenv("VERACITY_VERIFIER_BASE_URL", "https://checker.example.com")

	path := writeConfig(t, config.SampleConfig())
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config should load cleanly: %v", err)
	}
}
