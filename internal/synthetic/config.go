// Package synthetic generates a deterministic, FPL-shaped season: the
// bootstrap-static, fixtures and element-summary documents that the snapshot
// source reads. It backs tests, demos and the `synth` command.
package synthetic

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned for configurations that cannot produce a season.
var ErrInvalidConfig = errors.New("invalid synthetic config")

// Config holds configuration for a generated season.
type Config struct {
	Teams          int   // Number of teams; must be even
	PlayersPerTeam int   // Squad size per team
	Rounds         int   // Played rounds with history
	Upcoming       int   // Scheduled rounds after Rounds without history
	Seed           int64 // Seed for every random draw
}

// DefaultConfig returns a season large enough to train every category.
func DefaultConfig() Config {
	return Config{
		Teams:          10,
		PlayersPerTeam: 15,
		Rounds:         12,
		Upcoming:       1,
		Seed:           42,
	}
}

// Validate reports whether c can produce a season.
func (c Config) Validate() error {
	switch {
	case c.Teams < 2 || c.Teams%2 != 0:
		return fmt.Errorf("%w: teams must be even and at least 2, got %d", ErrInvalidConfig, c.Teams)
	case c.PlayersPerTeam < len(squadShape):
		return fmt.Errorf("%w: players per team must be at least %d, got %d", ErrInvalidConfig, len(squadShape), c.PlayersPerTeam)
	case c.Rounds < 1:
		return fmt.Errorf("%w: rounds must be positive, got %d", ErrInvalidConfig, c.Rounds)
	case c.Upcoming < 0:
		return fmt.Errorf("%w: upcoming rounds must not be negative, got %d", ErrInvalidConfig, c.Upcoming)
	}
	return nil
}

// squadShape is the element type of the first squad slots; later slots
// cycle through outfield types.
var squadShape = []int{1, 1, 2, 2, 2, 3, 3, 3, 4, 4} //nolint:gochecknoglobals // fixed squad template
