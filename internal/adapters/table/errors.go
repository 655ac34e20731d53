package table

import "errors"

// Sentinel kinds for table codec errors.
var (
	ErrColumnMismatch = errors.New("column mismatch")
	ErrMalformedCell  = errors.New("malformed cell")
)
