package source

import "errors"

// Sentinel kinds for snapshot errors.
var (
	ErrMalformedRecord = errors.New("malformed snapshot record")
	ErrMissingSnapshot = errors.New("snapshot not cached")
	ErrHTTPStatus      = errors.New("unexpected http status")
)
