package training

import "errors"

// Sentinel kinds for training errors.
var (
	ErrUnlabeledRow = errors.New("training row has no label")
	ErrNoStore      = errors.New("no model writer configured")
	ErrBaseline     = errors.New("baseline fit failed")
)
