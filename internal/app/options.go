package service

import (
	"github.com/okian/xpts/internal/adapters/repository"
	"github.com/okian/xpts/internal/adapters/source"
	"github.com/okian/xpts/internal/domain/forest"
	"github.com/okian/xpts/internal/domain/model"
	"github.com/okian/xpts/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore sets the model store. The default is a FileStore under the
// default model directory.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithDataDir sets the snapshot cache directory.
func WithDataDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.cache = source.NewCache(dir)
		}
	}
}

// WithArtifacts sets the feature table, predictions table and export paths.
// Empty values keep the current path.
func WithArtifacts(features, predictions, export string) Option {
	return func(s *Service) {
		if features != "" {
			s.featuresFile = features
		}
		if predictions != "" {
			s.predictionsFile = predictions
		}
		if export != "" {
			s.exportFile = export
		}
	}
}

// WithMetricsFile writes the metrics registry to path after every stage.
func WithMetricsFile(path string) Option {
	return func(s *Service) {
		s.metricsFile = path
	}
}

// WithProfiles sets per-category forest hyperparameters.
func WithProfiles(profiles map[model.Position]forest.Params) Option {
	return func(s *Service) {
		if len(profiles) > 0 {
			s.profiles = profiles
		}
	}
}

// WithSeed sets the master seed for splitting and fitting.
func WithSeed(seed int64) Option {
	return func(s *Service) {
		s.seed = seed
	}
}

// WithFitWorkers bounds concurrent tree fitting.
func WithFitWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.fitWorkers = n
		}
	}
}

// WithRunID stamps models and logs with id instead of a random one.
func WithRunID(id string) Option {
	return func(s *Service) {
		if id != "" {
			s.runID = id
		}
	}
}

// WithFetchOptions configures the snapshot fetcher.
func WithFetchOptions(opts ...source.FetchOption) Option {
	return func(s *Service) {
		s.fetchOpts = append(s.fetchOpts, opts...)
	}
}
