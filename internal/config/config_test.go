package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "output/parquet", cfg.Output.Dir)
	require.Equal(t, "https://www.noticiasagricolas.com.br", cfg.Source.BaseURL)
	require.Equal(t, 3, cfg.Collector.Workers)
	require.Equal(t, 3, cfg.Collector.MaxRetries)
	require.Equal(t, 30, cfg.Collector.BackfillDays)
	require.True(t, cfg.Logging.Development)
	require.Equal(t, 15*time.Second, cfg.FetchTimeout())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte(`
output:
  dir: /data/parquet
collector:
  workers: 8
source:
  timeout_seconds: 30
logging:
  development: false
`)
	require.NoError(t, os.WriteFile(path, body, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/data/parquet", cfg.Output.Dir)
	require.Equal(t, 8, cfg.Collector.Workers)
	require.Equal(t, 30*time.Second, cfg.FetchTimeout())
	require.False(t, cfg.Logging.Development)
	// Untouched keys keep their defaults.
	require.Equal(t, 30, cfg.Collector.BackfillDays)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := Config{
		Output:    OutputConfig{Dir: "out"},
		Source:    SourceConfig{BaseURL: "https://example.com", TimeoutSeconds: 15},
		Collector: CollectorConfig{Workers: 3, MaxRetries: 3, BackfillDays: 30},
	}
	require.NoError(t, base.Validate())

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty output dir", func(c *Config) { c.Output.Dir = "" }},
		{"empty base url", func(c *Config) { c.Source.BaseURL = "" }},
		{"zero timeout", func(c *Config) { c.Source.TimeoutSeconds = 0 }},
		{"zero workers", func(c *Config) { c.Collector.Workers = 0 }},
		{"zero retries", func(c *Config) { c.Collector.MaxRetries = 0 }},
		{"zero backfill", func(c *Config) { c.Collector.BackfillDays = 0 }},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
