// Package repository persists fitted models keyed by position category.
package repository

import (
	"bytes"
	"context"
	"fmt"

	"github.com/okian/xpts/internal/domain/model"
	"github.com/segmentio/encoding/json"
)

// Store provides read/write access to the per-category models.
type Store interface {
	// Exists reports whether a model is persisted for category.
	Exists(ctx context.Context, category model.Position) (bool, error)

	// Load returns the persisted model for category.
	// Returns ErrModelNotFound if none exists.
	Load(ctx context.Context, category model.Position) (*model.Model, error)

	// Save replaces the model for category. Readers never observe a partial write.
	Save(ctx context.Context, category model.Position, m *model.Model) error
}

// ObjectName returns the file or object name used for a category's model.
func ObjectName(category model.Position) string {
	return "ep_model_rf_" + string(category) + ".json"
}

func encode(category model.Position, m *model.Model) ([]byte, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	if m == nil || m.Forest == nil {
		return nil, fmt.Errorf("%w: empty model for %s", ErrCorruptModel, category)
	}
	if m.Category != category {
		return nil, fmt.Errorf("%w: model for %s saved under %s", ErrCategoryMismatch, m.Category, category)
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode model %s: %w", category, err)
	}
	return b, nil
}

func decode(category model.Position, b []byte) (*model.Model, error) {
	var m model.Model
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptModel, category, err)
	}
	if m.Forest == nil {
		return nil, fmt.Errorf("%w: %s has no forest", ErrCorruptModel, category)
	}
	if m.Category != category {
		return nil, fmt.Errorf("%w: object for %s holds %s", ErrCategoryMismatch, category, m.Category)
	}
	return &m, nil
}
