package service

import "errors"

// Sentinel error kinds for this package.
var (
	ErrNoPredictions = errors.New("no predictions to export")
	ErrInvalidRound  = errors.New("invalid round")
)
