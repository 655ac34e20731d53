package service

import (
	"context"
	"fmt"
	"io"

	"github.com/okian/xpts/internal/adapters/source"
	"github.com/okian/xpts/internal/adapters/table"
	"github.com/okian/xpts/internal/domain/features"
	"github.com/okian/xpts/internal/domain/fixtures"
	"github.com/okian/xpts/internal/domain/model"
	"github.com/okian/xpts/internal/domain/position"
	"github.com/okian/xpts/internal/domain/prediction"
	"github.com/okian/xpts/internal/domain/training"
	"github.com/okian/xpts/internal/synthetic"
	"github.com/okian/xpts/pkg/logger"
)

// Round selectors for Predict.
const (
	// FromTable predicts every row of the feature table.
	FromTable = 0
	// NextRound predicts the round after the last finished one.
	NextRound = -1
)

// Synth writes a generated season into the cache.
func (s *Service) Synth(ctx context.Context, cfg synthetic.Config) (*synthetic.Season, error) {
	var season *synthetic.Season
	err := s.stage(ctx, StageSynth, func() error {
		var err error
		if season, err = synthetic.Generate(cfg); err != nil {
			return err
		}
		if err := season.WriteTo(s.cache); err != nil {
			return err
		}
		s.logger.Info(ctx, "synthetic season written",
			logger.String("data_dir", s.cache.Root()),
			logger.Int("players", season.Players()),
			logger.Int("fixtures", season.Fixtures()),
		)
		return nil
	})
	return season, err
}

// Fetch fills the cache from the FPL API.
func (s *Service) Fetch(ctx context.Context) (*source.FetchReport, error) {
	var report *source.FetchReport
	err := s.stage(ctx, StageFetch, func() error {
		opts := append([]source.FetchOption{source.WithFetchLogger(s.logger.Named("fetcher"))}, s.fetchOpts...)
		var err error
		report, err = source.NewFetcher(s.cache, opts...).FetchAll(ctx)
		return err
	})
	return report, err
}

// Features builds the labelled feature table from the cache and writes it.
func (s *Service) Features(ctx context.Context) ([]model.FeatureVector, error) {
	var vectors []model.FeatureVector
	err := s.stage(ctx, StageFeatures, func() error {
		snap, err := s.snapshot(ctx)
		if err != nil {
			return err
		}
		vectors, err = s.builder(snap).Build(ctx, snap.Records)
		if err != nil {
			return err
		}
		return table.WriteFile(s.featuresFile, func(w io.Writer) error {
			return table.WriteFeatures(w, vectors)
		})
	})
	return vectors, err
}

// Train fits one model per category from the feature table.
func (s *Service) Train(ctx context.Context) (*training.Report, error) {
	var report *training.Report
	err := s.stage(ctx, StageTrain, func() error {
		vectors, err := table.LoadFeatures(s.featuresFile)
		if err != nil {
			return err
		}
		players, err := s.players(ctx)
		if err != nil {
			return err
		}
		trainer := training.New(s.store, position.NewResolver(players),
			training.WithLogger(s.logger.Named("trainer")),
			training.WithProfiles(s.profiles),
			training.WithSeed(s.seed),
			training.WithFitWorkers(s.fitWorkers),
			training.WithRunID(s.runID),
		)
		report, err = trainer.Train(ctx, vectors)
		return err
	})
	return report, err
}

// Predict scores rows with the persisted models and writes the predictions
// table. round selects the rows: FromTable uses the feature table, NextRound
// and positive rounds assemble vectors from the cache as of that round.
func (s *Service) Predict(ctx context.Context, round int) (*prediction.Result, error) {
	var res *prediction.Result
	err := s.stage(ctx, StagePredict, func() error {
		vectors, players, err := s.predictionRows(ctx, round)
		if err != nil {
			return err
		}
		predictor := prediction.New(s.store, position.NewResolver(players),
			prediction.WithLogger(s.logger.Named("predictor")),
		)
		if res, err = predictor.Predict(ctx, vectors); err != nil {
			return err
		}
		if len(res.Predictions) == 0 {
			s.logger.Warn(ctx, "no predictions generated: no models or no matching rows")
		}
		return table.WriteFile(s.predictionsFile, func(w io.Writer) error {
			return table.WritePredictions(w, res.Predictions)
		})
	})
	return res, err
}

// Export converts the predictions table into the keyed JSON document.
func (s *Service) Export(ctx context.Context) (int, error) {
	n := 0
	err := s.stage(ctx, StageExport, func() error {
		preds, err := table.LoadPredictions(s.predictionsFile)
		if err != nil {
			return err
		}
		if len(preds) == 0 {
			return fmt.Errorf("%w: %s", ErrNoPredictions, s.predictionsFile)
		}
		n = len(preds)
		return table.WriteFile(s.exportFile, func(w io.Writer) error {
			return table.ExportJSON(w, preds)
		})
	})
	return n, err
}

func (s *Service) predictionRows(ctx context.Context, round int) ([]model.FeatureVector, []model.Player, error) {
	if round < NextRound {
		return nil, nil, fmt.Errorf("%w: %d", ErrInvalidRound, round)
	}
	if round == FromTable {
		vectors, err := table.LoadFeatures(s.featuresFile)
		if err != nil {
			return nil, nil, err
		}
		players, err := s.players(ctx)
		if err != nil {
			return nil, nil, err
		}
		return vectors, players, nil
	}

	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	if round == NextRound {
		round = snap.CurrentRound + 1
	}
	vectors, err := s.builder(snap).BuildAsOf(ctx, round, snap.Records, snap.Players)
	if err != nil {
		return nil, nil, err
	}
	return vectors, snap.Players, nil
}

func (s *Service) snapshot(ctx context.Context) (*source.Snapshot, error) {
	return source.New(s.cache, source.WithLogger(s.logger.Named("source"))).Load(ctx)
}

func (s *Service) builder(snap *source.Snapshot) *features.Builder {
	return features.NewBuilder(fixtures.NewIndex(snap.Fixtures),
		features.WithLogger(s.logger.Named("features")),
	)
}

func (s *Service) players(ctx context.Context) ([]model.Player, error) {
	return source.New(s.cache, source.WithLogger(s.logger.Named("source"))).LoadPlayers(ctx)
}
