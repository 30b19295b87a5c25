package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "MIMIC_"

type Config struct {
	ListenAddr      string        `yaml:"listen_addr"`      // ex: ":8080"
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // ex: 5s
	RequestTimeout  time.Duration `yaml:"request_timeout"`  // per-request deadline
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`   // request bodies larger than this are rejected
	AdminPrefix     string        `yaml:"admin_prefix"`     // ex: "/__vs"

	LogLevel  string `yaml:"log_level"`  // "debug" | "info" | "warn" | "error"
	PrettyLog bool   `yaml:"pretty_log"` // true => zap dev (color), false => zap prod (JSON)

	SeedDir            string        `yaml:"seed_dir"`             // directory of *.svc files (optional)
	SeedReloadInterval time.Duration `yaml:"seed_reload_interval"` // 0 = load once at start

	MetricsEnabled bool `yaml:"metrics_enabled"`
	TrustProxy     bool `yaml:"trust_proxy"` // true => trust X-Forwarded-For headers in access logs

	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig configures the optional event stream. An empty Addr disables it.
type RedisConfig struct {
	Addr           string        `yaml:"addr"` // ex: "localhost:6379"
	User           string        `yaml:"user"`
	Password       string        `yaml:"password"`
	DB             int           `yaml:"db"`
	DialTimeout    time.Duration `yaml:"dial_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	PoolSize       int           `yaml:"pool_size"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"` // total time to retry connecting
	RetryInterval  time.Duration `yaml:"retry_interval"`  // initial wait between retries, grows exponentially
	MaxWait        time.Duration `yaml:"max_wait"`        // max wait between retries
	PingTimeout    time.Duration `yaml:"ping_timeout"`
	WarnThreshold  int           `yaml:"warn_threshold"` // warn after this many attempts

	Stream       string `yaml:"stream"`         // stream key
	StreamMaxLen int64  `yaml:"stream_max_len"` // approximate cap, 0 = unbounded
}

// Enabled reports whether an event stream is configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		ListenAddr:      ":8080",
		ShutdownTimeout: 5 * time.Second,
		RequestTimeout:  30 * time.Second,
		MaxBodyBytes:    10 << 20,
		AdminPrefix:     "/__vs",

		LogLevel:  "info",
		PrettyLog: true,

		MetricsEnabled: true,

		Redis: RedisConfig{
			DialTimeout:    5 * time.Second,
			ReadTimeout:    3 * time.Second,
			WriteTimeout:   3 * time.Second,
			PoolSize:       10,
			ConnectTimeout: 30 * time.Second,
			RetryInterval:  2 * time.Second,
			MaxWait:        10 * time.Second,
			PingTimeout:    5 * time.Second,
			WarnThreshold:  3,
			Stream:         "mimic:events",
			StreamMaxLen:   10000,
		},
	}
}

// Load builds the configuration from the defaults, then the YAML file named
// by MIMIC_CONFIG_FILE (if any), then the environment.
func Load() (*Config, error) {
	cfg := Default()

	if path := getenv(EnvPrefix+"CONFIG_FILE", ""); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	p := EnvPrefix

	// Server settings
	cfg.ListenAddr = getenv(p+"LISTEN_ADDR", cfg.ListenAddr)
	cfg.ShutdownTimeout = mustDuration(p+"SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	cfg.RequestTimeout = mustDuration(p+"REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.MaxBodyBytes = getenvInt64(p+"MAX_BODY_BYTES", cfg.MaxBodyBytes)
	cfg.AdminPrefix = getenv(p+"ADMIN_PREFIX", cfg.AdminPrefix)

	// Logging
	cfg.LogLevel = getenv(p+"LOG_LEVEL", cfg.LogLevel)
	cfg.PrettyLog = mustBool(p+"PRETTY_LOG", cfg.PrettyLog)

	// Seeds
	cfg.SeedDir = getenv(p+"SEED_DIR", cfg.SeedDir)
	cfg.SeedReloadInterval = mustDuration(p+"SEED_RELOAD_INTERVAL", cfg.SeedReloadInterval)

	cfg.MetricsEnabled = mustBool(p+"METRICS_ENABLED", cfg.MetricsEnabled)
	cfg.TrustProxy = mustBool(p+"TRUST_PROXY", cfg.TrustProxy)

	// Redis event stream
	r := &cfg.Redis
	r.Addr = getenv(p+"REDIS_ADDR", r.Addr)
	r.User = getenv(p+"REDIS_USERNAME", r.User)
	r.Password = getenv(p+"REDIS_PASSWORD", r.Password)
	r.DB = getenvInt(p+"REDIS_DB", r.DB)
	r.DialTimeout = mustDuration(p+"REDIS_DIAL_TIMEOUT", r.DialTimeout)
	r.ReadTimeout = mustDuration(p+"REDIS_READ_TIMEOUT", r.ReadTimeout)
	r.WriteTimeout = mustDuration(p+"REDIS_WRITE_TIMEOUT", r.WriteTimeout)
	r.PoolSize = getenvInt(p+"REDIS_POOL_SIZE", r.PoolSize)
	r.ConnectTimeout = mustDuration(p+"REDIS_CONNECT_TIMEOUT", r.ConnectTimeout)
	r.RetryInterval = mustDuration(p+"REDIS_RETRY_INTERVAL", r.RetryInterval)
	r.MaxWait = mustDuration(p+"REDIS_MAX_WAIT", r.MaxWait)
	r.PingTimeout = mustDuration(p+"REDIS_PING_TIMEOUT", r.PingTimeout)
	r.WarnThreshold = getenvInt(p+"REDIS_WARN_THRESHOLD", r.WarnThreshold)
	r.Stream = getenv(p+"REDIS_STREAM", r.Stream)
	r.StreamMaxLen = getenvInt64(p+"REDIS_STREAM_MAX_LEN", r.StreamMaxLen)
}

// Validate normalizes the admin prefix and rejects unusable values.
func (c *Config) Validate() error {
	c.AdminPrefix = normalizePrefix(c.AdminPrefix)

	var errs []error
	if c.AdminPrefix == "" {
		errs = append(errs, errors.New("admin prefix must not be empty or /"))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("max body bytes must be > 0, got %d", c.MaxBodyBytes))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("request timeout must be > 0, got %v", c.RequestTimeout))
	}
	if c.SeedReloadInterval < 0 {
		errs = append(errs, fmt.Errorf("seed reload interval must be >= 0, got %v", c.SeedReloadInterval))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.LogLevel))
	}
	return errors.Join(errs...)
}

// Redacted returns a copy safe to log.
func (c *Config) Redacted() Config {
	cp := *c
	if cp.Redis.Password != "" {
		cp.Redis.Password = "***REDACTED***"
	}
	if cp.Redis.User != "" {
		cp.Redis.User = "***REDACTED***"
	}
	return cp
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// normalizePrefix returns prefix with one leading slash and no trailing one.
// "/" and "" both normalize to "".
func normalizePrefix(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return ""
	}
	return "/" + prefix
}
