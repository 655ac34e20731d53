package training

import (
	"time"

	"github.com/okian/xpts/internal/domain/forest"
	"github.com/okian/xpts/internal/domain/model"
	"github.com/okian/xpts/pkg/logger"
)

// Option applies a configuration option to the Trainer.
type Option func(*Trainer)

// WithLogger sets a custom logger for the trainer.
func WithLogger(l logger.Logger) Option {
	return func(t *Trainer) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithProfiles replaces the per-category hyperparameters. Categories missing
// from profiles keep their defaults.
func WithProfiles(profiles map[model.Position]forest.Params) Option {
	return func(t *Trainer) {
		for cat, p := range profiles {
			t.profiles[cat] = p
		}
	}
}

// WithSeed sets the seed shared by the split and the forest.
func WithSeed(seed int64) Option {
	return func(t *Trainer) {
		t.seed = seed
	}
}

// WithFitWorkers bounds concurrent tree fitting.
func WithFitWorkers(n int) Option {
	return func(t *Trainer) {
		if n > 0 {
			t.workers = n
		}
	}
}

// WithRunID stamps persisted models and log lines with id.
func WithRunID(id string) Option {
	return func(t *Trainer) {
		if id != "" {
			t.runID = id
		}
	}
}

// WithMinRows overrides the per-category row floor below which a category is
// skipped.
func WithMinRows(n int) Option {
	return func(t *Trainer) {
		if n > 0 {
			t.minRows = n
		}
	}
}

// WithClock sets the time source used for TrainedAt.
func WithClock(now func() time.Time) Option {
	return func(t *Trainer) {
		if now != nil {
			t.now = now
		}
	}
}
