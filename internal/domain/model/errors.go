package model

import "errors"

// ErrModelNotFound reports that no model is stored for a category.
var ErrModelNotFound = errors.New("model not found")
