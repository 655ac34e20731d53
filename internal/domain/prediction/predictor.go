// Package prediction applies persisted per-category models to feature rows.
package prediction

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/okian/xpts/internal/domain/model"
	"github.com/okian/xpts/internal/domain/position"
	"github.com/okian/xpts/pkg/logger"
	"github.com/okian/xpts/pkg/metrics"
)

// Skip reasons reported for categories that produced no predictions.
const (
	ReasonNoModel        = "no_model"
	ReasonColumnMismatch = "column_mismatch"
	ReasonNoRows         = "no_rows"
)

// ModelReader gives read-only access to persisted models.
type ModelReader interface {
	Exists(ctx context.Context, category model.Position) (bool, error)
	Load(ctx context.Context, category model.Position) (*model.Model, error)
}

// Result is the output of one inference run.
type Result struct {
	// Predictions are ordered by player id, then round.
	Predictions []model.Prediction
	// Skipped maps each category without output to its reason.
	Skipped    map[model.Position]string
	Unresolved int
}

// Option applies a configuration option to the Predictor.
type Option func(*Predictor)

// WithLogger sets a custom logger for the predictor.
func WithLogger(l logger.Logger) Option {
	return func(p *Predictor) {
		if l != nil {
			p.logger = l
		}
	}
}

// Predictor applies one model per category.
type Predictor struct {
	reader   ModelReader
	resolver *position.Resolver
	logger   logger.Logger
}

// New constructs a Predictor.
func New(reader ModelReader, resolver *position.Resolver, opts ...Option) *Predictor {
	p := &Predictor{
		reader:   reader,
		resolver: resolver,
		logger:   logger.OrDefault().Named("predictor"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Predict scores every row whose category has a usable model. Missing or
// incompatible models skip their category; an empty result is not an error.
// Storage failures other than absence are returned.
func (p *Predictor) Predict(ctx context.Context, vectors []model.FeatureVector) (*Result, error) {
	parts, unresolved := p.resolver.Partition(vectors)
	res := &Result{Skipped: make(map[model.Position]string), Unresolved: unresolved}
	if unresolved > 0 {
		metrics.RecordUnresolvedPlayers("predict", unresolved)
		p.logger.Warn(ctx, "rows excluded: player missing from reference table", logger.Int("rows", unresolved))
	}

	for _, cat := range model.Positions {
		rows := parts[cat]
		log := p.logger.With(logger.String("category", string(cat)))
		if len(rows) == 0 {
			res.Skipped[cat] = ReasonNoRows
			continue
		}

		m, reason, err := p.load(ctx, cat)
		if err != nil {
			return nil, err
		}
		if reason != "" {
			res.Skipped[cat] = reason
			metrics.RecordModelMissing(string(cat), reason)
			log.Warn(ctx, "skipping category", logger.String("reason", reason), logger.Int("rows", len(rows)))
			continue
		}

		for _, v := range rows {
			points, err := m.Forest.Predict(v.Features)
			if err != nil {
				return nil, fmt.Errorf("predict %s player %d round %d: %w", cat, v.PlayerID, v.Round, err)
			}
			res.Predictions = append(res.Predictions, model.Prediction{
				PlayerID:   v.PlayerID,
				PlayerName: v.PlayerName,
				Round:      v.Round,
				Points:     points,
			})
		}
		metrics.RecordPredictions(string(cat), len(rows))
		log.Info(ctx, "category predicted",
			logger.Int("rows", len(rows)),
			logger.String("model_run_id", m.RunID),
		)
	}

	sort.SliceStable(res.Predictions, func(i, j int) bool {
		a, b := res.Predictions[i], res.Predictions[j]
		if a.PlayerID != b.PlayerID {
			return a.PlayerID < b.PlayerID
		}
		return a.Round < b.Round
	})
	p.logger.Info(ctx, "prediction complete",
		logger.Int("rows", len(vectors)),
		logger.Int("predictions", len(res.Predictions)),
	)
	return res, nil
}

// load returns the category's model, or a skip reason when it is absent or
// was trained on different columns.
func (p *Predictor) load(ctx context.Context, cat model.Position) (*model.Model, string, error) {
	ok, err := p.reader.Exists(ctx, cat)
	if err != nil {
		return nil, "", fmt.Errorf("check model %s: %w", cat, err)
	}
	if !ok {
		return nil, ReasonNoModel, nil
	}
	m, err := p.reader.Load(ctx, cat)
	if errors.Is(err, model.ErrModelNotFound) {
		// removed between Exists and Load
		return nil, ReasonNoModel, nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("load model %s: %w", cat, err)
	}
	if m.Forest == nil || !model.SameColumns(m.Columns) || m.Forest.NumFeatures != model.NumFeatures {
		return nil, ReasonColumnMismatch, nil
	}
	return m, "", nil
}
