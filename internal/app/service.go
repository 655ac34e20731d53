// Package service wires the snapshot source, feature builder, trainer,
// predictor and artifact codecs into the batch pipeline stages.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/okian/xpts/internal/adapters/repository"
	"github.com/okian/xpts/internal/adapters/source"
	"github.com/okian/xpts/internal/config"
	"github.com/okian/xpts/internal/domain/forest"
	"github.com/okian/xpts/internal/domain/model"
	"github.com/okian/xpts/internal/domain/training"
	"github.com/okian/xpts/pkg/logger"
	"github.com/okian/xpts/pkg/metrics"
)

// Stage names used in logs and metrics.
const (
	StageSynth    = "synth"
	StageFetch    = "fetch"
	StageFeatures = "features"
	StageTrain    = "train"
	StagePredict  = "predict"
	StageExport   = "export"
)

// Service runs the pipeline stages against one cache, one model store and one
// set of artifact paths.
type Service struct {
	cache *source.Cache
	store repository.Store

	featuresFile    string
	predictionsFile string
	exportFile      string
	metricsFile     string

	profiles   map[model.Position]forest.Params
	seed       int64
	fitWorkers int
	runID      string
	fetchOpts  []source.FetchOption

	logger logger.Logger
}

// New constructs a Service with the default paths of config.New.
func New(opts ...Option) *Service {
	d := config.New()
	s := &Service{
		cache:           source.NewCache(d.DataDir),
		featuresFile:    d.FeaturesFile,
		predictionsFile: d.PredictionsFile,
		exportFile:      d.ExportFile,
		profiles:        training.DefaultProfiles(),
		seed:            d.Seed,
		fitWorkers:      d.FitWorkers,
		logger:          logger.OrDefault().Named("pipeline"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewFileStore(d.ModelDir, repository.WithLogger(s.logger))
	}
	if s.runID == "" {
		s.runID = uuid.NewString()
	}
	s.logger = s.logger.With(logger.String("run_id", s.runID))
	return s
}

// RunID returns the id stamped on this service's models and logs.
func (s *Service) RunID() string { return s.runID }

// Cache returns the snapshot cache the service reads.
func (s *Service) Cache() *source.Cache { return s.cache }

// Store returns the model store.
func (s *Service) Store() repository.Store { return s.store }

// stage times fn, records it in metrics and refreshes the metrics textfile.
func (s *Service) stage(ctx context.Context, name string, fn func() error) error {
	start := time.Now()
	s.logger.Debug(ctx, "stage started", logger.String("stage", name))
	err := fn()
	took := time.Since(start)
	metrics.ObserveStage(name, took, err)

	if err != nil {
		s.logger.Error(ctx, "stage failed",
			logger.String("stage", name),
			logger.Duration("took", took),
			logger.Error(err),
		)
	} else {
		s.logger.Info(ctx, "stage finished",
			logger.String("stage", name),
			logger.Duration("took", took),
		)
	}
	if werr := metrics.WriteTextfile(s.metricsFile); werr != nil {
		s.logger.Warn(ctx, "metrics textfile not written", logger.Error(werr))
	}
	return err
}
