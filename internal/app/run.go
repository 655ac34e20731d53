package service

import (
	"context"
	"errors"

	"github.com/okian/xpts/internal/adapters/source"
	"github.com/okian/xpts/internal/domain/training"
	"github.com/okian/xpts/pkg/logger"
)

// RunOptions selects the optional parts of a full run.
type RunOptions struct {
	// Fetch refreshes the cache before building features.
	Fetch bool
	// Round is passed to Predict.
	Round int
}

// Summary reports what a full run produced.
type Summary struct {
	RunID       string
	Fetch       *source.FetchReport
	Features    int
	Training    *training.Report
	Predictions int
	Exported    int
}

// Run executes fetch (optional), features, train, predict and export in
// order. Category training failures are carried to the end so the surviving
// categories still predict; any other failure stops the run.
func (s *Service) Run(ctx context.Context, opts RunOptions) (*Summary, error) {
	sum := &Summary{RunID: s.runID}

	if opts.Fetch {
		report, err := s.Fetch(ctx)
		if err != nil {
			return sum, err
		}
		sum.Fetch = report
	}

	vectors, err := s.Features(ctx)
	if err != nil {
		return sum, err
	}
	sum.Features = len(vectors)

	report, trainErr := s.Train(ctx)
	if report == nil {
		return sum, trainErr
	}
	sum.Training = report

	res, err := s.Predict(ctx, opts.Round)
	if err != nil {
		return sum, errors.Join(trainErr, err)
	}
	sum.Predictions = len(res.Predictions)

	if sum.Predictions == 0 {
		s.logger.Warn(ctx, "export skipped: nothing predicted")
		return sum, trainErr
	}
	if sum.Exported, err = s.Export(ctx); err != nil {
		return sum, errors.Join(trainErr, err)
	}

	s.logger.Info(ctx, "run complete",
		logger.Int("feature_rows", sum.Features),
		logger.Any("trained", report.Trained()),
		logger.Float64("aggregate_mae", report.AggregateMAE),
		logger.Int("predictions", sum.Predictions),
	)
	return sum, trainErr
}
