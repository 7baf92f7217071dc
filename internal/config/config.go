package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	StorageBackendRedis    = "redis"
	StorageBackendMemory   = "memory"
	StorageBackendPostgres = "postgres"
)

type Config struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	MetricsHost string `toml:"metrics_host"`
	MetricsPort int    `toml:"metrics_port"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`
	// storage
	StorageBackend  string `toml:"storage_backend"`
	StorageKey      string `toml:"storage_key"`
	MemoryCacheSize int    `toml:"memory_cache_size"` // bytes
	RedisHost       string `toml:"redis_host"`
	RedisPort       string `toml:"redis_port"`
	PostgresHost    string `toml:"postgres_host"`
	PostgresPort    string `toml:"postgres_port"`
	PostgresDBName  string `toml:"postgres_db_name"`
	PostgresUser    string `toml:"postgres_user"`
	// http
	AllowedOrigins     []string `toml:"allowed_origins"`
	RateLimitPerMinute int      `toml:"rate_limit_per_minute"` // 0 disables rate limiting
	// motion detection defaults
	Motion MotionConfig `toml:"motion"`
}

type MotionConfig struct {
	Threshold            float64  `toml:"threshold"`
	MinRepInterval       Duration `toml:"min_rep_interval"`
	CalibrationCountdown Duration `toml:"calibration_countdown"`
	DetectionDelay       Duration `toml:"detection_delay"`
}

// Duration is a time.Duration read from strings like "500ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

// Load decodes the config file at path and returns the section for env.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config for env %s missing in %s", env, path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s config: %w", env, err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageBackendRedis, StorageBackendMemory, StorageBackendPostgres:
	case "":
		c.StorageBackend = StorageBackendMemory
	default:
		return fmt.Errorf("unknown storage backend: %s", c.StorageBackend)
	}

	if c.Port <= 0 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("invalid rate limit: %d", c.RateLimitPerMinute)
	}
	if c.RateLimitPerMinute > 0 && c.StorageBackend != StorageBackendRedis {
		return fmt.Errorf("rate limiting needs the redis storage backend")
	}

	return nil
}
