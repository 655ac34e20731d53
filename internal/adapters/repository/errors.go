package repository

import (
	"errors"

	"github.com/okian/xpts/internal/domain/model"
)

// Sentinel kinds for model store errors.
var (
	ErrModelNotFound    = model.ErrModelNotFound
	ErrInvalidCategory  = errors.New("invalid category")
	ErrCategoryMismatch = errors.New("model category mismatch")
	ErrCorruptModel     = errors.New("corrupt model")
	ErrMissingBucket    = errors.New("s3 bucket not configured")
)
