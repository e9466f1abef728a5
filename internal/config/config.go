// Package config loads and validates canvaslytics configuration.
// Configuration comes from a YAML file with environment variable overrides
// for credentials, so tokens never need to live on disk.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all canvaslytics configuration.
type Config struct {
	// Canvas API access
	Canvas CanvasConfig `yaml:"canvas"`

	// Local snapshot database
	Store StoreConfig `yaml:"store"`

	// Heuristic scoring weights
	Scoring ScoringConfig `yaml:"scoring"`

	// Baseline model training
	Train TrainConfig `yaml:"train"`

	// Report generation
	Report ReportConfig `yaml:"report"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// CanvasConfig configures the Canvas LMS REST client.
type CanvasConfig struct {
	BaseURL string `yaml:"base_url"` // e.g. https://canvas.example.edu
	Token   string `yaml:"token"`    // bearer token; prefer CANVAS_TOKEN env var

	PerPage        int     `yaml:"per_page"`        // page size for list endpoints
	MaxConcurrency int     `yaml:"max_concurrency"` // concurrent in-flight API calls
	QuotaFloor     float64 `yaml:"quota_floor"`     // throttle below this X-Rate-Limit-Remaining
	MaxRetries     int     `yaml:"max_retries"`
	RequestTimeout string  `yaml:"request_timeout"`
}

// StoreConfig configures the SQLite snapshot store.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// ScoringConfig holds the hand-tuned CPS and career score weights.
// The defaults are the weights that ranked programs sensibly on past
// terms; change them only with a validation run in hand.
type ScoringConfig struct {
	// Enrollment tier cutoffs (student counts)
	TierSmall  int `yaml:"tier_small"`
	TierMedium int `yaml:"tier_medium"`
	TierLarge  int `yaml:"tier_large"`

	// Course Prediction Score weights
	WeightEnrollment   float64 `yaml:"weight_enrollment"`
	WeightBalance      float64 `yaml:"weight_balance"`
	WeightCoverage     float64 `yaml:"weight_coverage"`
	WeightVariance     float64 `yaml:"weight_variance"`
	WeightCompleteness float64 `yaml:"weight_completeness"`

	// Career Potential Score weights
	CareerWeightTiers    float64 `yaml:"career_weight_tiers"`
	CareerWeightMeanCPS  float64 `yaml:"career_weight_mean_cps"`
	CareerWeightCoverage float64 `yaml:"career_weight_coverage"`
	CareerWeightVariance float64 `yaml:"career_weight_variance"`
}

// TrainConfig configures the pass/fail baselines.
type TrainConfig struct {
	PassThreshold float64 `yaml:"pass_threshold"` // score cutoff when no letter grade
	TestSize      float64 `yaml:"test_size"`
	Folds         int     `yaml:"folds"`
	Seed          int64   `yaml:"seed"`

	// Logistic regression
	LearningRate float64 `yaml:"learning_rate"`
	Epochs       int     `yaml:"epochs"`
	L2           float64 `yaml:"l2"`

	// Random forest
	Trees           int `yaml:"trees"`
	MaxDepth        int `yaml:"max_depth"`
	MinSamplesSplit int `yaml:"min_samples_split"`
}

// ReportConfig configures markdown/PNG report output.
type ReportConfig struct {
	OutputDir string `yaml:"output_dir"`
	TopN      int    `yaml:"top_n"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
	File   string `yaml:"file"`   // optional log file sink
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Canvas: CanvasConfig{
			PerPage:        100,
			MaxConcurrency: 4,
			QuotaFloor:     100,
			MaxRetries:     5,
			RequestTimeout: "30s",
		},
		Store: StoreConfig{
			Path: "canvaslytics.db",
		},
		Scoring: ScoringConfig{
			TierSmall:  5,
			TierMedium: 15,
			TierLarge:  30,

			WeightEnrollment:   30,
			WeightBalance:      25,
			WeightCoverage:     20,
			WeightVariance:     15,
			WeightCompleteness: 10,

			CareerWeightTiers:    35,
			CareerWeightMeanCPS:  35,
			CareerWeightCoverage: 20,
			CareerWeightVariance: 10,
		},
		Train: TrainConfig{
			PassThreshold: 60.0,
			TestSize:      0.2,
			Folds:         5,
			Seed:          42,

			LearningRate: 0.1,
			Epochs:       500,
			L2:           0.01,

			Trees:           100,
			MaxDepth:        8,
			MinSamplesSplit: 2,
		},
		Report: ReportConfig{
			OutputDir: "reports",
			TopN:      20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads configuration from path, merging over defaults and applying
// environment overrides. A missing file is not an error: defaults plus
// environment are enough for a token-only setup.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides lets the environment win over the file for credentials
// and endpoint selection.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CANVAS_TOKEN"); v != "" {
		c.Canvas.Token = v
	}
	if v := os.Getenv("CANVAS_BASE_URL"); v != "" {
		c.Canvas.BaseURL = v
	}
	if v := os.Getenv("CANVASLYTICS_DB"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("CANVASLYTICS_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks invariants that would otherwise surface as confusing
// runtime failures deep in a run.
func (c *Config) Validate() error {
	if c.Canvas.PerPage < 1 || c.Canvas.PerPage > 100 {
		return fmt.Errorf("canvas.per_page must be in [1,100], got %d", c.Canvas.PerPage)
	}
	if c.Canvas.MaxConcurrency < 1 {
		return fmt.Errorf("canvas.max_concurrency must be >= 1, got %d", c.Canvas.MaxConcurrency)
	}
	if _, err := time.ParseDuration(c.Canvas.RequestTimeout); err != nil {
		return fmt.Errorf("canvas.request_timeout invalid: %w", err)
	}
	if !(c.Scoring.TierSmall < c.Scoring.TierMedium && c.Scoring.TierMedium < c.Scoring.TierLarge) {
		return fmt.Errorf("scoring tier cutoffs must be strictly increasing (%d, %d, %d)",
			c.Scoring.TierSmall, c.Scoring.TierMedium, c.Scoring.TierLarge)
	}
	if c.Train.TestSize <= 0 || c.Train.TestSize >= 1 {
		return fmt.Errorf("train.test_size must be in (0,1), got %v", c.Train.TestSize)
	}
	if c.Train.Folds < 2 {
		return fmt.Errorf("train.folds must be >= 2, got %d", c.Train.Folds)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q not recognized", c.Logging.Level)
	}
	return nil
}

// Timeout returns the parsed per-request timeout. Validate guarantees the
// string parses; the fallback is only reachable on an unvalidated struct.
func (c *CanvasConfig) Timeout() time.Duration {
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}
