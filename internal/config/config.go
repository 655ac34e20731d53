// Package config defines the pipeline configuration and its loading hooks.
//
// Conventions:
//   - Defaults live in New; Load layers a YAML file and XPTS_ env vars on top.
//   - Nested sections (s3, fetch, profiles) map to env keys joined by "_",
//     e.g. XPTS_S3_BUCKET or XPTS_PROFILES_MID_TREES.
//   - Errors wrap this package's sentinels.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/okian/xpts/internal/domain/forest"
	"github.com/okian/xpts/internal/domain/model"
	"github.com/okian/xpts/internal/domain/training"
)

// Model store backends.
const (
	StoreFile = "file"
	StoreS3   = "s3"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// DataDir holds the cached API snapshots.
	DataDir string `koanf:"data_dir"`

	// Artifact paths. MetricsFile is optional; empty disables the textfile.
	FeaturesFile    string `koanf:"features_file"`
	ModelDir        string `koanf:"model_dir"`
	PredictionsFile string `koanf:"predictions_file"`
	ExportFile      string `koanf:"export_file"`
	MetricsFile     string `koanf:"metrics_file"`

	// ModelStore selects the model backend: file or s3.
	ModelStore string   `koanf:"model_store"`
	S3         S3Config `koanf:"s3"`

	// Seed drives the train/validation split and every tree's bootstrap.
	Seed int64 `koanf:"seed"`

	// FitWorkers bounds concurrent tree fitting; 0 means NumCPU.
	FitWorkers int `koanf:"fit_workers"`

	Fetch FetchConfig `koanf:"fetch"`

	// Profiles overrides forest hyperparameters per category (GKP, DEF, MID,
	// FWD). Zero fields keep the category default.
	Profiles map[string]forest.Params `koanf:"profiles"`
}

// S3Config locates the model bucket.
type S3Config struct {
	Bucket    string `koanf:"bucket"`
	Region    string `koanf:"region"`
	Endpoint  string `koanf:"endpoint"`
	Prefix    string `koanf:"prefix"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
}

// FetchConfig tunes the snapshot fetcher.
type FetchConfig struct {
	BaseURL        string  `koanf:"base_url"`
	RPS            float64 `koanf:"rps"`
	TimeoutSeconds int     `koanf:"timeout_seconds"`
	Force          bool    `koanf:"force"`
}

// Timeout returns the per-request timeout.
func (f FetchConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSeconds) * time.Second
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		DataDir:         "data/raw",
		FeaturesFile:    "data/processed/features.csv",
		ModelDir:        "models",
		PredictionsFile: "data/processed/predictions.csv",
		ExportFile:      "data/processed/predictions.json",
		ModelStore:      StoreFile,
		S3: S3Config{
			Region: "us-east-1",
		},
		Seed:       42,
		FitWorkers: runtime.NumCPU(),
		Fetch: FetchConfig{
			BaseURL:        "https://fantasy.premierleague.com/api",
			RPS:            5,
			TimeoutSeconds: 20,
		},
	}
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	switch {
	case c.DataDir == "":
		return fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
	case c.FeaturesFile == "":
		return fmt.Errorf("%w: features_file must not be empty", ErrInvalidConfig)
	case c.PredictionsFile == "":
		return fmt.Errorf("%w: predictions_file must not be empty", ErrInvalidConfig)
	case c.ExportFile == "":
		return fmt.Errorf("%w: export_file must not be empty", ErrInvalidConfig)
	case c.FitWorkers < 0:
		return fmt.Errorf("%w: fit_workers must not be negative, got %d", ErrInvalidConfig, c.FitWorkers)
	case c.Fetch.RPS < 0:
		return fmt.Errorf("%w: fetch.rps must not be negative, got %g", ErrInvalidConfig, c.Fetch.RPS)
	case c.Fetch.TimeoutSeconds <= 0:
		return fmt.Errorf("%w: fetch.timeout_seconds must be positive, got %d", ErrInvalidConfig, c.Fetch.TimeoutSeconds)
	}
	switch c.ModelStore {
	case StoreFile:
		if c.ModelDir == "" {
			return fmt.Errorf("%w: model_dir must not be empty", ErrInvalidConfig)
		}
	case StoreS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("%w: s3.bucket is required for the s3 model store", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown model_store %q", ErrInvalidConfig, c.ModelStore)
	}
	if _, err := c.ModelProfiles(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// ModelProfiles overlays the configured overrides on the default profiles.
func (c *Config) ModelProfiles() (map[model.Position]forest.Params, error) {
	base := training.DefaultProfiles()
	overrides := make(map[model.Position]forest.Params, len(c.Profiles))
	for key, p := range c.Profiles {
		cat := model.Position(strings.ToUpper(key))
		if !cat.Valid() {
			return nil, fmt.Errorf("unknown profile category %q", key)
		}
		merged := base[cat]
		if p.Trees != 0 {
			merged.Trees = p.Trees
		}
		if p.MaxDepth != 0 {
			merged.MaxDepth = p.MaxDepth
		}
		if p.MinSamplesSplit != 0 {
			merged.MinSamplesSplit = p.MinSamplesSplit
		}
		if p.MinSamplesLeaf != 0 {
			merged.MinSamplesLeaf = p.MinSamplesLeaf
		}
		overrides[cat] = merged
	}
	return training.MergeProfiles(overrides)
}
