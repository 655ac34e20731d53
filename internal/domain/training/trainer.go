// Package training fits one forest per position category, validates it on a
// seeded hold-out split and persists it.
package training

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/okian/xpts/internal/domain/forest"
	"github.com/okian/xpts/internal/domain/model"
	"github.com/okian/xpts/internal/domain/position"
	"github.com/okian/xpts/pkg/logger"
	"github.com/okian/xpts/pkg/metrics"
)

// MinCategoryRows is the row floor below which a category is not trained.
const MinCategoryRows = 50

// Skip reasons reported for categories that were not trained.
const (
	ReasonTooFewRows = "too_few_rows"
	ReasonFitFailed  = "fit_failed"
	ReasonSaveFailed = "save_failed"
)

// ModelWriter persists a fitted model under its category, replacing any
// previous one.
type ModelWriter interface {
	Save(ctx context.Context, category model.Position, m *model.Model) error
}

// CategoryReport describes the outcome for one category.
type CategoryReport struct {
	Category      model.Position
	Rows          int
	TrainRows     int
	Skipped       bool
	Reason        string
	ValidationMAE float64
	BaselineMAE   float64
	Took          time.Duration
	// Validation holds the held-out rows and Predicted the model output for
	// each of them, index aligned.
	Validation []model.FeatureVector
	Predicted  []float64
	Err        error
}

// Report is the result of one training run.
type Report struct {
	RunID        string
	Unresolved   int
	Categories   []*CategoryReport
	AggregateMAE float64
}

// Category returns the report for cat, or nil.
func (r *Report) Category(cat model.Position) *CategoryReport {
	for _, c := range r.Categories {
		if c.Category == cat {
			return c
		}
	}
	return nil
}

// Trained lists the categories whose model was persisted.
func (r *Report) Trained() []model.Position {
	var out []model.Position
	for _, c := range r.Categories {
		if !c.Skipped {
			out = append(out, c.Category)
		}
	}
	return out
}

// Trainer runs the per-category training loop.
type Trainer struct {
	writer   ModelWriter
	resolver *position.Resolver
	profiles map[model.Position]forest.Params
	seed     int64
	workers  int
	minRows  int
	runID    string
	now      func() time.Time
	logger   logger.Logger
}

// New constructs a Trainer with the default profiles and seed.
func New(writer ModelWriter, resolver *position.Resolver, opts ...Option) *Trainer {
	t := &Trainer{
		writer:   writer,
		resolver: resolver,
		profiles: DefaultProfiles(),
		seed:     forest.DefaultSeed,
		workers:  runtime.NumCPU(),
		minRows:  MinCategoryRows,
		runID:    uuid.NewString(),
		now:      time.Now,
		logger:   logger.OrDefault().Named("trainer"),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With(logger.String("run_id", t.runID))
	return t
}

// Train fits every category independently. A failing category is recorded in
// its report and in the joined error but never stops the others. The report
// is returned even when the error is non-nil.
func (t *Trainer) Train(ctx context.Context, vectors []model.FeatureVector) (*Report, error) {
	if t.writer == nil {
		return nil, ErrNoStore
	}
	for i, v := range vectors {
		if !v.HasLabel {
			return nil, fmt.Errorf("%w: row %d (player %d, round %d)", ErrUnlabeledRow, i, v.PlayerID, v.Round)
		}
	}

	parts, unresolved := t.resolver.Partition(vectors)
	report := &Report{RunID: t.runID, Unresolved: unresolved, AggregateMAE: math.NaN()}
	if unresolved > 0 {
		metrics.RecordUnresolvedPlayers("train", unresolved)
		t.logger.Warn(ctx, "rows excluded: player missing from reference table", logger.Int("rows", unresolved))
	}

	var errs []error
	var predicted, actual []float64
	for _, cat := range model.Positions {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		cr := t.trainCategory(ctx, cat, parts[cat])
		report.Categories = append(report.Categories, cr)
		if cr.Err != nil {
			errs = append(errs, fmt.Errorf("category %s: %w", cat, cr.Err))
			continue
		}
		if cr.Skipped {
			continue
		}
		predicted = append(predicted, cr.Predicted...)
		for _, v := range cr.Validation {
			actual = append(actual, v.Label)
		}
	}

	if len(predicted) > 0 {
		report.AggregateMAE = MeanAbsoluteError(predicted, actual)
		metrics.UpdateAggregateMAE(report.AggregateMAE)
		t.logger.Info(ctx, "training complete",
			logger.Any("categories", report.Trained()),
			logger.Int("validation_rows", len(predicted)),
			logger.Float64("aggregate_mae", report.AggregateMAE),
		)
	} else {
		t.logger.Warn(ctx, "no category was trained; aggregate MAE undefined")
	}
	return report, errors.Join(errs...)
}

func (t *Trainer) trainCategory(ctx context.Context, cat model.Position, rows []model.FeatureVector) *CategoryReport {
	log := t.logger.With(logger.String("category", string(cat)))
	cr := &CategoryReport{Category: cat, Rows: len(rows), ValidationMAE: math.NaN(), BaselineMAE: math.NaN()}

	if len(rows) < t.minRows {
		cr.Skipped, cr.Reason = true, ReasonTooFewRows
		metrics.RecordCategorySkipped(string(cat), cr.Reason, len(rows))
		log.Warn(ctx, "skipping category: not enough rows",
			logger.Int("rows", len(rows)),
			logger.Int("min_rows", t.minRows),
		)
		return cr
	}

	trainIdx, valIdx := Split(len(rows), ValidationFraction, t.seed)
	train := pick(rows, trainIdx)
	cr.Validation = pick(rows, valIdx)
	cr.TrainRows = len(train)

	x, y := matrix(train)
	params := t.profiles[cat]
	start := time.Now()
	f, err := forest.Fit(ctx, x, y, params, forest.WithSeed(t.seed), forest.WithWorkers(t.workers))
	cr.Took = time.Since(start)
	if err != nil {
		cr.Skipped, cr.Reason, cr.Err = true, ReasonFitFailed, err
		metrics.RecordCategorySkipped(string(cat), cr.Reason, len(rows))
		log.Error(ctx, "fit failed", logger.Error(err))
		return cr
	}

	vx, _ := matrix(cr.Validation)
	cr.Predicted, err = f.PredictBatch(vx)
	if err != nil {
		cr.Skipped, cr.Reason, cr.Err = true, ReasonFitFailed, err
		metrics.RecordCategorySkipped(string(cat), cr.Reason, len(rows))
		log.Error(ctx, "validation predict failed", logger.Error(err))
		return cr
	}
	actual := make([]float64, len(cr.Validation))
	for i, v := range cr.Validation {
		actual[i] = v.Label
	}
	cr.ValidationMAE = MeanAbsoluteError(cr.Predicted, actual)

	if b, berr := BaselineMAE(train, cr.Validation); berr != nil {
		log.Debug(ctx, "linear baseline unavailable", logger.Error(berr))
	} else {
		cr.BaselineMAE = b
		metrics.UpdateBaselineMAE(string(cat), b)
	}

	m := &model.Model{
		Category:      cat,
		Columns:       append([]string(nil), model.FeatureNames...),
		Params:        params,
		RunID:         t.runID,
		TrainRows:     len(train),
		ValidationMAE: cr.ValidationMAE,
		TrainedAt:     t.now().UTC(),
		Forest:        f,
	}
	if err := t.writer.Save(ctx, cat, m); err != nil {
		cr.Skipped, cr.Reason, cr.Err = true, ReasonSaveFailed, err
		metrics.RecordCategorySkipped(string(cat), cr.Reason, len(rows))
		log.Error(ctx, "persist model failed", logger.Error(err))
		return cr
	}

	metrics.RecordCategoryTrained(string(cat), len(rows), cr.ValidationMAE, cr.Took)
	log.Info(ctx, "category trained",
		logger.Int("rows", len(rows)),
		logger.Int("train_rows", len(train)),
		logger.Int("validation_rows", len(cr.Validation)),
		logger.Float64("validation_mae", cr.ValidationMAE),
		logger.Float64("baseline_mae", cr.BaselineMAE),
		logger.Duration("took", cr.Took),
	)
	return cr
}

func pick(rows []model.FeatureVector, idx []int) []model.FeatureVector {
	out := make([]model.FeatureVector, len(idx))
	for i, j := range idx {
		out[i] = rows[j]
	}
	return out
}

// matrix returns the feature rows and labels of vs in order.
func matrix(vs []model.FeatureVector) ([][]float64, []float64) {
	x := make([][]float64, len(vs))
	y := make([]float64, len(vs))
	for i, v := range vs {
		x[i] = v.Features
		y[i] = v.Label
	}
	return x, y
}
