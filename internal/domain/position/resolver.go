// Package position resolves players to role categories and partitions
// feature rows by category.
package position

import "github.com/okian/xpts/internal/domain/model"

// FromCode maps an FPL element type code to a category. Unknown codes fall
// back to Midfielder.
func FromCode(code int) model.Position {
	switch code {
	case 1:
		return model.Goalkeeper
	case 2:
		return model.Defender
	case 3:
		return model.Midfielder
	case 4:
		return model.Forward
	default:
		return model.Midfielder
	}
}

// Resolver answers player id -> category from a reference table.
type Resolver struct {
	codes map[int]int
}

// NewResolver builds a resolver from the player reference table.
func NewResolver(players []model.Player) *Resolver {
	codes := make(map[int]int, len(players))
	for _, p := range players {
		codes[p.ID] = p.ElementType
	}
	return &Resolver{codes: codes}
}

// NewResolverFromCodes builds a resolver from a player id -> role code map.
func NewResolverFromCodes(codes map[int]int) *Resolver {
	cp := make(map[int]int, len(codes))
	for k, v := range codes {
		cp[k] = v
	}
	return &Resolver{codes: cp}
}

// Resolve returns the player's category. ok is false only when the player is
// absent from the reference table.
func (r *Resolver) Resolve(playerID int) (model.Position, bool) {
	code, ok := r.codes[playerID]
	if !ok {
		return "", false
	}
	return FromCode(code), true
}

// Partition groups vectors by category, preserving input order within each
// group, and counts rows whose player could not be resolved.
func (r *Resolver) Partition(vectors []model.FeatureVector) (map[model.Position][]model.FeatureVector, int) {
	parts := make(map[model.Position][]model.FeatureVector, len(model.Positions))
	unresolved := 0
	for _, v := range vectors {
		pos, ok := r.Resolve(v.PlayerID)
		if !ok {
			unresolved++
			continue
		}
		parts[pos] = append(parts[pos], v)
	}
	return parts, unresolved
}
