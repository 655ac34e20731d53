// Package forest implements a deterministic random-forest regressor: bagged
// CART trees with mean-squared-error splits, averaged at prediction time.
package forest

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultSeed is the master seed used when none is given.
const DefaultSeed = 42

// Params is a per-category hyperparameter profile. MaxDepth <= 0 grows trees
// until the leaf constraints stop them.
type Params struct {
	Trees           int `json:"trees" koanf:"trees"`
	MaxDepth        int `json:"max_depth" koanf:"max_depth"`
	MinSamplesSplit int `json:"min_samples_split" koanf:"min_samples_split"`
	MinSamplesLeaf  int `json:"min_samples_leaf" koanf:"min_samples_leaf"`
}

// Validate reports whether the profile can be fitted.
func (p Params) Validate() error {
	switch {
	case p.Trees < 1:
		return fmt.Errorf("%w: trees must be positive, got %d", ErrInvalidParams, p.Trees)
	case p.MinSamplesSplit < 2:
		return fmt.Errorf("%w: min_samples_split must be at least 2, got %d", ErrInvalidParams, p.MinSamplesSplit)
	case p.MinSamplesLeaf < 1:
		return fmt.Errorf("%w: min_samples_leaf must be at least 1, got %d", ErrInvalidParams, p.MinSamplesLeaf)
	}
	return nil
}

// Forest is a fitted ensemble.
type Forest struct {
	NumFeatures int    `json:"num_features"`
	Seed        int64  `json:"seed"`
	Trees       []Tree `json:"trees"`
}

type fitter struct {
	seed    int64
	workers int
}

// Fit grows params.Trees trees on bootstrap samples of (x, y). Tree seeds are
// drawn from the master seed before any tree is grown and every tree writes
// only its own slot, so the result does not depend on the worker count.
func Fit(ctx context.Context, x [][]float64, y []float64, params Params, opts ...Option) (*Forest, error) {
	f := &fitter{seed: DefaultSeed, workers: runtime.NumCPU()}
	for _, opt := range opts {
		opt(f)
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}
	width, err := checkMatrix(x, y)
	if err != nil {
		return nil, err
	}

	master := rand.New(rand.NewSource(f.seed)) //nolint:gosec // deterministic seed for reproducible fits
	seeds := make([]int64, params.Trees)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	trees := make([]Tree, params.Trees)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)
	for i := range trees {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			trees[i] = growBagged(x, y, params, seeds[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fit forest: %w", err)
	}

	return &Forest{NumFeatures: width, Seed: f.seed, Trees: trees}, nil
}

func growBagged(x [][]float64, y []float64, params Params, seed int64) Tree {
	n := len(x)
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic seed for reproducible fits
	sample := make([]int, n)
	for i := range sample {
		sample[i] = rng.Intn(n)
	}
	g := newGrower(x, y, params, n)
	g.grow(sample, 0)
	return Tree{Nodes: g.nodes}
}

func checkMatrix(x [][]float64, y []float64) (int, error) {
	if len(x) == 0 {
		return 0, ErrEmptyInput
	}
	if len(x) != len(y) {
		return 0, fmt.Errorf("%w: %d rows but %d targets", ErrShapeMismatch, len(x), len(y))
	}
	width := len(x[0])
	if width == 0 {
		return 0, fmt.Errorf("%w: rows have no features", ErrShapeMismatch)
	}
	for i, row := range x {
		if len(row) != width {
			return 0, fmt.Errorf("%w: row %d has %d features, want %d", ErrShapeMismatch, i, len(row), width)
		}
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return 0, fmt.Errorf("%w: row %d", ErrNonFinite, i)
			}
		}
		if math.IsNaN(y[i]) || math.IsInf(y[i], 0) {
			return 0, fmt.Errorf("%w: target %d", ErrNonFinite, i)
		}
	}
	return width, nil
}

// Predict returns the mean of every tree's prediction for one row.
func (f *Forest) Predict(x []float64) (float64, error) {
	if len(f.Trees) == 0 {
		return 0, ErrNotFitted
	}
	if len(x) != f.NumFeatures {
		return 0, fmt.Errorf("%w: got %d features, want %d", ErrShapeMismatch, len(x), f.NumFeatures)
	}
	sum := 0.0
	for i := range f.Trees {
		sum += f.Trees[i].Predict(x)
	}
	return sum / float64(len(f.Trees)), nil
}

// PredictBatch predicts every row of x in order.
func (f *Forest) PredictBatch(x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i, row := range x {
		p, err := f.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}
