package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Canvas.PerPage)
	assert.Equal(t, 5, cfg.Train.Folds)
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canvaslytics.yaml")
	data := `
canvas:
  base_url: https://canvas.example.edu
  per_page: 50
train:
  folds: 10
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://canvas.example.edu", cfg.Canvas.BaseURL)
	assert.Equal(t, 50, cfg.Canvas.PerPage)
	assert.Equal(t, 10, cfg.Train.Folds)
	// Untouched sections keep defaults.
	assert.Equal(t, 60.0, cfg.Train.PassThreshold)
	assert.Equal(t, "reports", cfg.Report.OutputDir)
}

func TestEnvOverridesWin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canvaslytics.yaml")
	data := `
canvas:
  token: file-token
  base_url: https://file.example.edu
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	t.Setenv("CANVAS_TOKEN", "env-token")
	t.Setenv("CANVAS_BASE_URL", "https://env.example.edu")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Canvas.Token)
	assert.Equal(t, "https://env.example.edu", cfg.Canvas.BaseURL)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"per_page too big", func(c *Config) { c.Canvas.PerPage = 500 }},
		{"zero concurrency", func(c *Config) { c.Canvas.MaxConcurrency = 0 }},
		{"bad timeout", func(c *Config) { c.Canvas.RequestTimeout = "soon" }},
		{"tiers not increasing", func(c *Config) { c.Scoring.TierMedium = c.Scoring.TierLarge }},
		{"test_size out of range", func(c *Config) { c.Train.TestSize = 1.5 }},
		{"one fold", func(c *Config) { c.Train.Folds = 1 }},
		{"unknown log level", func(c *Config) { c.Logging.Level = "loud" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
