package training

import (
	"fmt"

	"github.com/okian/xpts/internal/domain/forest"
	"github.com/okian/xpts/internal/domain/model"
)

// DefaultProfiles returns the per-category forest hyperparameters. Each call
// returns a fresh map.
func DefaultProfiles() map[model.Position]forest.Params {
	return map[model.Position]forest.Params{
		model.Goalkeeper: {Trees: 500, MaxDepth: 10, MinSamplesSplit: 4, MinSamplesLeaf: 2},
		model.Defender:   {Trees: 600, MaxDepth: 12, MinSamplesSplit: 4, MinSamplesLeaf: 2},
		model.Midfielder: {Trees: 700, MaxDepth: 14, MinSamplesSplit: 4, MinSamplesLeaf: 1},
		model.Forward:    {Trees: 600, MaxDepth: 12, MinSamplesSplit: 4, MinSamplesLeaf: 1},
	}
}

// MergeProfiles overlays overrides on the defaults. Unknown categories are an
// error; every resulting profile is validated.
func MergeProfiles(overrides map[model.Position]forest.Params) (map[model.Position]forest.Params, error) {
	out := DefaultProfiles()
	for cat, p := range overrides {
		if !cat.Valid() {
			return nil, fmt.Errorf("%w: unknown category %q", forest.ErrInvalidParams, cat)
		}
		out[cat] = p
	}
	for _, cat := range model.Positions {
		if err := out[cat].Validate(); err != nil {
			return nil, fmt.Errorf("profile %s: %w", cat, err)
		}
	}
	return out, nil
}
