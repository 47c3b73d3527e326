// Package config loads and validates service configuration via Viper,
// layering environment variables and an optional config file over
// built-in defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Fetcher FetcherConfig `mapstructure:"fetcher"`
	Logging LoggingConfig `mapstructure:"logging"`
	Audit   AuditConfig   `mapstructure:"audit"`
	Archive ArchiveConfig `mapstructure:"archive"`
	Notify  NotifyConfig  `mapstructure:"notify"`
}

// ServerConfig controls the gRPC listener.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// FetcherConfig governs the worker pool and per-request HTTP budget.
type FetcherConfig struct {
	Threads       int    `mapstructure:"threads"`
	TimeoutMillis int    `mapstructure:"timeout_millis"`
	UserAgent     string `mapstructure:"user_agent"`
}

// LoggingConfig holds logging settings. The server builds its logger
// from Verbosity alone; Development is loaded but nothing reads it.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
	Verbosity   int  `mapstructure:"verbosity"`
}

// AuditConfig configures the optional Postgres audit sink. An empty
// DSN disables audit recording in favor of a no-op sink.
type AuditConfig struct {
	DSN string `mapstructure:"dsn"`
}

// ArchiveConfig configures the optional GCS archive sink. An empty
// bucket disables body archiving.
type ArchiveConfig struct {
	Bucket string `mapstructure:"bucket"`
}

// NotifyConfig configures the optional Pub/Sub completion notifier.
// An empty TopicID disables completion notifications.
type NotifyConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicID   string `mapstructure:"topic_id"`
}

// Load builds a Config from an optional file on disk, environment
// variables prefixed URLFETCHER_, and built-in defaults.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("URLFETCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "localhost:8000")
	v.SetDefault("fetcher.threads", 16)
	v.SetDefault("fetcher.timeout_millis", 60000)
	v.SetDefault("fetcher.user_agent", "urlfetcher/1.0")
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.verbosity", 0)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.Address) == "" {
		return fmt.Errorf("server.address must be set")
	}
	if c.Fetcher.Threads <= 0 {
		return fmt.Errorf("fetcher.threads must be > 0")
	}
	if c.Fetcher.TimeoutMillis <= 0 {
		return fmt.Errorf("fetcher.timeout_millis must be > 0")
	}
	if c.Notify.TopicID != "" && c.Notify.ProjectID == "" {
		return fmt.Errorf("notify.project_id must be set when notify.topic_id is set")
	}
	return nil
}

// FetchTimeout converts the millisecond timeout into a time.Duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetcher.TimeoutMillis) * time.Millisecond
}
