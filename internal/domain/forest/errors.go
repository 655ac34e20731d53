package forest

import "errors"

// Sentinel kinds for forest errors.
var (
	ErrInvalidParams = errors.New("invalid forest params")
	ErrEmptyInput    = errors.New("empty training set")
	ErrShapeMismatch = errors.New("feature matrix shape mismatch")
	ErrNonFinite     = errors.New("non-finite value in training data")
	ErrNotFitted     = errors.New("forest has no trees")
)
