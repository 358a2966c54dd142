// Package config loads selector engine configuration from a YAML file and
// environment variables, adapted from the teacher's viper-based
// internal/config package onto the selector engine's own configuration
// surface (server, selector grammar, range/k8s/redis providers, metrics).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the full selector engine configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Selector SelectorConfig `mapstructure:"selector"`
	Range    RangeConfig    `mapstructure:"range"`
	K8s      K8sConfig      `mapstructure:"k8s"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port                    int           `mapstructure:"port"`
	Host                    string        `mapstructure:"host"`
	ReadTimeout             time.Duration `mapstructure:"read_timeout"`
	WriteTimeout            time.Duration `mapstructure:"write_timeout"`
	IdleTimeout             time.Duration `mapstructure:"idle_timeout"`
	GracefulShutdownTimeout time.Duration `mapstructure:"graceful_shutdown_timeout"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// SelectorConfig holds grammar defaults for the targeting DSL.
type SelectorConfig struct {
	// DefaultKind is the rule kind a bare expression parses to when no
	// "X@" prefix is present (e.g. "glob", "grain", "pillar").
	DefaultKind string `mapstructure:"default_kind"`

	// Delimiter separates nested attribute path segments ("roles:db").
	Delimiter string `mapstructure:"delimiter"`

	// CacheSize bounds each compiled-pattern cache bucket (glob, pcre).
	CacheSize int `mapstructure:"cache_size"`
}

// RangeConfig holds range-server provider configuration.
type RangeConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Timeout      time.Duration `mapstructure:"timeout"`
	RateLimit    float64       `mapstructure:"rate_limit"`
	RateBurst    int           `mapstructure:"rate_burst"`
}

// K8sConfig holds the Kubernetes inventory provider configuration.
type K8sConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	LabelSelector   string        `mapstructure:"label_selector"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"`
	MaxRetryBackoff time.Duration `mapstructure:"max_retry_backoff"`
}

// RedisConfig holds the attribute-population cache configuration.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Key          string        `mapstructure:"key"`
	TTL          time.Duration `mapstructure:"ttl"`
}

// MetricsConfig holds Prometheus exposition configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	Port    int    `mapstructure:"port"`
}

// Load reads configuration from configPath (if non-empty and present) and
// environment variables, applying defaults for anything unset.
func Load(configPath string) (*Config, error) {
	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.SetEnvPrefix("selector_engine")

	if configPath != "" {
		viper.SetConfigFile(configPath)
		viper.SetConfigType("yaml")

		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.graceful_shutdown_timeout", "30s")

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.filename", "")
	viper.SetDefault("log.max_size", 100)
	viper.SetDefault("log.max_backups", 3)
	viper.SetDefault("log.max_age", 28)
	viper.SetDefault("log.compress", true)

	viper.SetDefault("selector.default_kind", "glob")
	viper.SetDefault("selector.delimiter", ":")
	viper.SetDefault("selector.cache_size", 512)

	viper.SetDefault("range.enabled", false)
	viper.SetDefault("range.host", "")
	viper.SetDefault("range.timeout", "10s")
	viper.SetDefault("range.rate_limit", 10.0)
	viper.SetDefault("range.rate_burst", 5)

	viper.SetDefault("k8s.enabled", true)
	viper.SetDefault("k8s.label_selector", "")
	viper.SetDefault("k8s.timeout", "30s")
	viper.SetDefault("k8s.max_retries", 3)
	viper.SetDefault("k8s.retry_backoff", "100ms")
	viper.SetDefault("k8s.max_retry_backoff", "5s")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.pool_size", 10)
	viper.SetDefault("redis.dial_timeout", "5s")
	viper.SetDefault("redis.read_timeout", "3s")
	viper.SetDefault("redis.write_timeout", "3s")
	viper.SetDefault("redis.key", "selector:subjects")
	viper.SetDefault("redis.ttl", "30s")

	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")
	viper.SetDefault("metrics.port", 9090)
}

// Validate checks invariants Load's defaults alone don't guarantee, such as
// after an env var or config file overrides a field.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Selector.DefaultKind == "" {
		return fmt.Errorf("selector default_kind cannot be empty")
	}
	if len(c.Selector.Delimiter) != 1 {
		return fmt.Errorf("selector delimiter must be exactly one character, got %q", c.Selector.Delimiter)
	}
	if c.Selector.CacheSize <= 0 {
		return fmt.Errorf("selector cache_size must be positive")
	}
	if c.Range.Enabled && c.Range.Host == "" {
		return fmt.Errorf("range.host is required when range.enabled is true")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis.enabled is true")
	}
	if c.Log.Level == "" {
		return fmt.Errorf("log level cannot be empty")
	}
	return nil
}

// IsDebug reports whether the configured log level implies verbose output.
func (c *Config) IsDebug() bool {
	return strings.EqualFold(c.Log.Level, "debug")
}
