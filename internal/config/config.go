// Package config loads and validates pipeline configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures every pipeline knob loaded via Viper.
type Config struct {
	Output    OutputConfig    `mapstructure:"output"`
	Source    SourceConfig    `mapstructure:"source"`
	Collector CollectorConfig `mapstructure:"collector"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// OutputConfig sets where parquet partitions are written.
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// SourceConfig governs the upstream site client.
type SourceConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// CollectorConfig governs run orchestration.
type CollectorConfig struct {
	Workers      int `mapstructure:"workers"`
	MaxRetries   int `mapstructure:"max_retries"`
	BackfillDays int `mapstructure:"backfill_days"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("COTACOES")
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
	v.SetDefault("output.dir", "output/parquet")
	v.SetDefault("source.base_url", "https://www.noticiasagricolas.com.br")
	v.SetDefault("source.user_agent", "cotacoes-etl/0.1")
	v.SetDefault("source.timeout_seconds", 15)
	v.SetDefault("collector.workers", 3)
	v.SetDefault("collector.max_retries", 3)
	v.SetDefault("collector.backfill_days", 30)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir must be set")
	}
	if c.Source.BaseURL == "" {
		return fmt.Errorf("source.base_url must be set")
	}
	if c.Source.TimeoutSeconds <= 0 {
		return fmt.Errorf("source.timeout_seconds must be > 0")
	}
	if c.Collector.Workers <= 0 {
		return fmt.Errorf("collector.workers must be > 0")
	}
	if c.Collector.MaxRetries <= 0 {
		return fmt.Errorf("collector.max_retries must be > 0")
	}
	if c.Collector.BackfillDays <= 0 {
		return fmt.Errorf("collector.backfill_days must be > 0")
	}
	return nil
}

// FetchTimeout converts the source timeout config into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Source.TimeoutSeconds) * time.Second
}
