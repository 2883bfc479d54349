package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Locking    LockingConfig    `yaml:"locking"`
	Directory  DirectoryConfig  `yaml:"directory"`
	Reminders  RemindersConfig  `yaml:"reminders"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Log        LogConfig        `yaml:"log"`
	// Timezone applies to client timestamps that carry no offset.
	Timezone string `yaml:"timezone"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// Enabled reports whether both VAPID keys are present.
func (p PushConfig) Enabled() bool {
	return p.PublicKey != "" && p.PrivateKey != ""
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ClientIDHeader  string   `yaml:"client_id_header"`
	RateLimitPerSec float64  `yaml:"rate_limit_per_sec"`
	RateBurst       int      `yaml:"rate_burst"`
	CacheTTLSeconds int      `yaml:"cache_ttl_seconds"`
	AllowOrigins    []string `yaml:"allow_origins"`
	ShutdownSeconds int      `yaml:"shutdown_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver                 string `yaml:"driver"`
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	LockTimeoutMillis      int    `yaml:"lock_timeout_ms"`
	// LogLevel is one of silent, error, warn, info.
	LogLevel string `yaml:"log_level"`
}

// LockTimeout is how long a transaction waits for a database row or advisory lock.
func (d DatabaseConfig) LockTimeout() time.Duration {
	return time.Duration(d.LockTimeoutMillis) * time.Millisecond
}

// LockingConfig selects where per-resource locks live.
type LockingConfig struct {
	// Backend is "local" for a single process or "redis" for several replicas.
	Backend       string `yaml:"backend"`
	WaitMillis    int    `yaml:"wait_ms"`
	TTLSeconds    int    `yaml:"ttl_seconds"`
	Prefix        string `yaml:"prefix"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

func (l LockingConfig) Wait() time.Duration { return time.Duration(l.WaitMillis) * time.Millisecond }
func (l LockingConfig) TTL() time.Duration  { return time.Duration(l.TTLSeconds) * time.Second }

// DirectoryConfig says how item, user, vehicle and storage ids are resolved.
type DirectoryConfig struct {
	// Mode is "local" (own tables) or "remote" (HTTP lookups).
	Mode            string            `yaml:"mode"`
	BaseURLs        map[string]string `yaml:"base_urls"`
	Headers         map[string]string `yaml:"headers"`
	HTTPProxy       string            `yaml:"http_proxy"`
	TimeoutSeconds  int               `yaml:"timeout_seconds"`
	CacheTTLSeconds int               `yaml:"cache_ttl_seconds"`
}

// RemindersConfig controls the overdue sweeper.
type RemindersConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"` // Ignored by YAML parser
	RepeatMinutes   int           `yaml:"repeat_minutes"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SlogLevel maps the configured level name, defaulting to info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	applyEnv(&cfg)
	if err := applyDefaults(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration suitable for a single local process on sqlite.
func Default() *Config {
	cfg := &Config{}
	applyEnv(cfg)
	_ = applyDefaults(cfg)
	return cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Locking.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Locking.RedisPassword = v
	}
	if v := os.Getenv("VAPID_PUBLIC_KEY"); v != "" {
		cfg.Push.PublicKey = v
	}
	if v := os.Getenv("VAPID_PRIVATE_KEY"); v != "" {
		cfg.Push.PrivateKey = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
}

func applyDefaults(cfg *Config) error {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateBurst <= 0 {
		cfg.Server.RateBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 5
	}
	if cfg.Server.ShutdownSeconds <= 0 {
		cfg.Server.ShutdownSeconds = 5
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	switch cfg.Database.Driver {
	case "postgres":
	case "sqlite":
		if cfg.Database.DSN == "" {
			cfg.Database.DSN = "file:reservations.db?_foreign_keys=on"
		}
	default:
		return fmt.Errorf("unsupported database.driver %q", cfg.Database.Driver)
	}
	if cfg.Database.LockTimeoutMillis <= 0 {
		cfg.Database.LockTimeoutMillis = 2000
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}

	if cfg.Locking.Backend == "" {
		cfg.Locking.Backend = "local"
	}
	if cfg.Locking.Backend != "local" && cfg.Locking.Backend != "redis" {
		return fmt.Errorf("unsupported locking.backend %q", cfg.Locking.Backend)
	}
	if cfg.Locking.WaitMillis <= 0 {
		cfg.Locking.WaitMillis = 2000
	}
	if cfg.Locking.TTLSeconds <= 0 {
		cfg.Locking.TTLSeconds = 10
	}
	if cfg.Locking.Backend == "redis" {
		if floor := cfg.Locking.Wait() + cfg.Database.LockTimeout(); cfg.Locking.TTL() <= floor {
			return fmt.Errorf("locking.ttl_seconds (%s) must exceed locking.wait_ms + database.lock_timeout_ms (%s)",
				cfg.Locking.TTL(), floor)
		}
	}

	if cfg.Directory.Mode == "" {
		cfg.Directory.Mode = "local"
	}
	if cfg.Directory.Mode != "local" && cfg.Directory.Mode != "remote" {
		return fmt.Errorf("unsupported directory.mode %q", cfg.Directory.Mode)
	}
	if cfg.Directory.TimeoutSeconds <= 0 {
		cfg.Directory.TimeoutSeconds = 3
	}
	if cfg.Directory.CacheTTLSeconds <= 0 {
		cfg.Directory.CacheTTLSeconds = 30
	}

	if cfg.Reminders.IntervalSeconds <= 0 {
		cfg.Reminders.IntervalSeconds = 300
	}
	cfg.Reminders.Interval = time.Duration(cfg.Reminders.IntervalSeconds) * time.Second
	if cfg.Reminders.RepeatMinutes <= 0 {
		cfg.Reminders.RepeatMinutes = 60
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		cfg.WorkerPool.Size = 1
	}

	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}
	return nil
}
