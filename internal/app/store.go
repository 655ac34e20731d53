package service

import (
	"fmt"
	"net/http"

	"github.com/okian/xpts/internal/adapters/repository"
	"github.com/okian/xpts/internal/adapters/source"
	"github.com/okian/xpts/internal/config"
	"github.com/okian/xpts/pkg/logger"
)

// NewStore builds the model store selected by cfg.ModelStore.
func NewStore(cfg *config.Config, log logger.Logger) (repository.Store, error) {
	switch cfg.ModelStore {
	case config.StoreFile:
		return repository.NewFileStore(cfg.ModelDir, repository.WithLogger(log)), nil
	case config.StoreS3:
		return repository.NewS3Store(repository.S3Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
		}, repository.WithPrefix(cfg.S3.Prefix), repository.WithLogger(log))
	}
	return nil, fmt.Errorf("%w: unknown model_store %q", config.ErrInvalidConfig, cfg.ModelStore)
}

// FromConfig maps cfg onto service options, building the model store.
func FromConfig(cfg *config.Config, log logger.Logger) ([]Option, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	profiles, err := cfg.ModelProfiles()
	if err != nil {
		return nil, err
	}
	store, err := NewStore(cfg, log.Named("store"))
	if err != nil {
		return nil, err
	}
	return []Option{
		WithLogger(log),
		WithStore(store),
		WithDataDir(cfg.DataDir),
		WithArtifacts(cfg.FeaturesFile, cfg.PredictionsFile, cfg.ExportFile),
		WithMetricsFile(cfg.MetricsFile),
		WithProfiles(profiles),
		WithSeed(cfg.Seed),
		WithFitWorkers(cfg.FitWorkers),
		WithFetchOptions(
			source.WithBaseURL(cfg.Fetch.BaseURL),
			source.WithRate(cfg.Fetch.RPS),
			source.WithForce(cfg.Fetch.Force),
			source.WithHTTPClient(&http.Client{Timeout: cfg.Fetch.Timeout()}),
		),
	}, nil
}
