// Package config loads the matcher daemon's startup configuration:
// worker pool sizing, where the tree configuration comes from, how
// often to poll it for changes, and the logging/metrics/ops-server
// knobs, grounded on the teacher's viper-based Config/LoadConfig
// pattern (internal/config/config.go).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/vitaliisemenov/alert-history/pkg/logger"
)

// Config is the matcher daemon's complete startup configuration.
type Config struct {
	Worker  WorkerConfig  `mapstructure:"worker"`
	Tree    TreeConfig    `mapstructure:"tree"`
	Log     logger.Config `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Ops     OpsConfig     `mapstructure:"ops"`
}

// WorkerConfig sizes the event-processing pool.
type WorkerConfig struct {
	PoolSize  int `mapstructure:"pool_size"`
	QueueSize int `mapstructure:"queue_size"`
}

// TreeFormat is the wire format the tree configuration source is
// decoded from.
type TreeFormat string

const (
	TreeFormatJSON TreeFormat = "json"
	TreeFormatYAML TreeFormat = "yaml"
)

// TreeConfig locates the matcher tree's configuration source and how
// often to poll it for hot reload.
type TreeConfig struct {
	Path         string        `mapstructure:"path"`
	Format       TreeFormat    `mapstructure:"format"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// MetricsConfig controls whether metrics are collected; serve starts the
// ops server (/healthz, /metrics, /debug/stream) only when Enabled is true.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// OpsConfig addresses the operational HTTP surface (healthz, metrics,
// debug stream).
type OpsConfig struct {
	Addr string `mapstructure:"addr"`
}

// Load reads configuration from configPath (if non-empty) layered
// under defaults and environment variable overrides (MATCHER_ prefix,
// "." replaced with "_"), then validates the result.
func Load(configPath string) (*Config, error) {
	setDefaults()

	viper.SetEnvPrefix("matcher")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if configPath != "" {
		viper.SetConfigFile(configPath)

		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("config: read file: %w", err)
			}
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("worker.pool_size", 4)
	viper.SetDefault("worker.queue_size", 256)

	viper.SetDefault("tree.path", "")
	viper.SetDefault("tree.format", string(TreeFormatYAML))
	viper.SetDefault("tree.poll_interval", "10s")

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
	viper.SetDefault("log.output", "stdout")

	viper.SetDefault("metrics.enabled", true)

	viper.SetDefault("ops.addr", ":9090")
}

// Validate checks the loaded configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Worker.PoolSize <= 0 {
		return fmt.Errorf("worker.pool_size must be positive, got %d", c.Worker.PoolSize)
	}

	if c.Worker.QueueSize <= 0 {
		return fmt.Errorf("worker.queue_size must be positive, got %d", c.Worker.QueueSize)
	}

	if c.Tree.Path == "" {
		return fmt.Errorf("tree.path is required")
	}

	switch c.Tree.Format {
	case TreeFormatJSON, TreeFormatYAML:
	default:
		return fmt.Errorf("tree.format must be %q or %q, got %q", TreeFormatJSON, TreeFormatYAML, c.Tree.Format)
	}

	if c.Tree.PollInterval < 0 {
		return fmt.Errorf("tree.poll_interval must not be negative, got %s", c.Tree.PollInterval)
	}

	if c.Log.Level == "" {
		return fmt.Errorf("log.level cannot be empty")
	}

	return nil
}
