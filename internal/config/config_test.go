package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mimic.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %v, want :8080", cfg.ListenAddr)
	}
	if cfg.AdminPrefix != "/__vs" {
		t.Errorf("AdminPrefix = %v, want /__vs", cfg.AdminPrefix)
	}
	if cfg.Redis.Enabled() {
		t.Error("Redis events should be disabled without an address")
	}
	if !cfg.MetricsEnabled {
		t.Error("metrics should be enabled by default")
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeConfigFile(t, `
listen_addr: ":9000"
admin_prefix: "stubs/"
request_timeout: 10s
seed_dir: /seeds
redis:
  addr: "redis:6379"
  stream: "file:events"
  stream_max_len: 500
`)
	t.Setenv("MIMIC_CONFIG_FILE", path)
	t.Setenv("MIMIC_LISTEN_ADDR", ":9100")
	t.Setenv("MIMIC_REDIS_STREAM", "env:events")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"env overrides file", cfg.ListenAddr, ":9100"},
		{"prefix normalized", cfg.AdminPrefix, "/stubs"},
		{"duration from file", cfg.RequestTimeout, 10 * time.Second},
		{"seed dir from file", cfg.SeedDir, "/seeds"},
		{"redis addr from file", cfg.Redis.Addr, "redis:6379"},
		{"redis stream from env", cfg.Redis.Stream, "env:events"},
		{"redis max len from file", cfg.Redis.StreamMaxLen, int64(500)},
		{"untouched default kept", cfg.Redis.PoolSize, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
	}{
		{
			name: "missing file",
			env:  map[string]string{"MIMIC_CONFIG_FILE": "/does/not/exist.yaml"},
		},
		{
			name: "malformed file",
			file: "listen_addr: [unterminated",
		},
		{
			name: "root prefix",
			env:  map[string]string{"MIMIC_ADMIN_PREFIX": "/"},
		},
		{
			name: "unknown log level",
			env:  map[string]string{"MIMIC_LOG_LEVEL": "verbose"},
		},
		{
			name: "non positive body limit",
			env:  map[string]string{"MIMIC_MAX_BODY_BYTES": "0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.file != "" {
				t.Setenv("MIMIC_CONFIG_FILE", writeConfigFile(t, tt.file))
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			if _, err := Load(); err == nil {
				t.Error("Load() should have failed")
			}
		})
	}
}

func TestNormalizePrefix(t *testing.T) {
	tests := map[string]string{
		"/__vs":     "/__vs",
		"__vs":      "/__vs",
		"/__vs/":    "/__vs",
		" /a/b/ ":   "/a/b",
		"/":         "",
		"":          "",
		"//twice//": "/twice",
	}
	for in, want := range tests {
		if got := normalizePrefix(in); got != want {
			t.Errorf("normalizePrefix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRedacted(t *testing.T) {
	cfg := Default()
	cfg.Redis.User = "admin"
	cfg.Redis.Password = "secret"

	red := cfg.Redacted()
	if red.Redis.Password == "secret" || red.Redis.User == "admin" {
		t.Error("Redacted() leaked credentials")
	}
	if cfg.Redis.Password != "secret" {
		t.Error("Redacted() modified the original")
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{
			name:     "valid duration",
			key:      "TEST_DURATION",
			value:    "5s",
			def:      1 * time.Second,
			expected: 5 * time.Second,
		},
		{
			name:     "invalid duration uses default",
			key:      "TEST_DURATION_INVALID",
			value:    "invalid",
			def:      10 * time.Second,
			expected: 10 * time.Second,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_DURATION_MISSING",
			value:    "",
			def:      15 * time.Second,
			expected: 15 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv(tt.key, tt.value)
			}

			result := mustDuration(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      bool
		expected bool
	}{
		{
			name:     "true value",
			key:      "TEST_BOOL",
			value:    "true",
			def:      false,
			expected: true,
		},
		{
			name:     "invalid value uses default",
			key:      "TEST_BOOL_INVALID",
			value:    "invalid",
			def:      true,
			expected: true,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_BOOL_MISSING",
			value:    "",
			def:      false,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv(tt.key, tt.value)
			}

			result := mustBool(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustBool() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestGetenvInt64(t *testing.T) {
	t.Setenv("TEST_INT64", "1048576")
	if got := getenvInt64("TEST_INT64", 1); got != 1<<20 {
		t.Errorf("getenvInt64() = %v, want %v", got, 1<<20)
	}

	t.Setenv("TEST_INT64_BAD", "lots")
	if got := getenvInt64("TEST_INT64_BAD", 7); got != 7 {
		t.Errorf("getenvInt64() = %v, want default 7", got)
	}
}
