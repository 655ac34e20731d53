package features

import "errors"

// Sentinel kinds for feature building errors. Both signal an upstream
// contract violation and abort the run.
var (
	ErrMalformedRecord = errors.New("malformed match record")
	ErrDuplicateRound  = errors.New("duplicate appearance for player")
)
