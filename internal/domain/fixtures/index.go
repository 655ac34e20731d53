// Package fixtures builds the fixture lookup used to resolve opponent
// difficulty for match records and upcoming rounds.
package fixtures

import (
	"sort"

	"github.com/okian/xpts/internal/domain/model"
)

// NeutralDifficulty is used when a record's fixture is not in the index.
const NeutralDifficulty = 3

// Entry is the per-fixture difficulty record.
type Entry struct {
	HomeTeam       int
	AwayTeam       int
	HomeDifficulty int
	AwayDifficulty int
}

type roundTeam struct {
	round int
	team  int
}

// Index maps fixture ids to difficulty entries. It is immutable once built.
type Index struct {
	byID     map[int]Entry
	byRound  map[roundTeam][]model.FixtureInfo
	fixtures int
}

// NewIndex builds an index over fixtures. A repeated id keeps the last entry;
// the input is passed through otherwise unchanged.
func NewIndex(fixtures []model.FixtureInfo) *Index {
	x := &Index{
		byID:     make(map[int]Entry, len(fixtures)),
		byRound:  make(map[roundTeam][]model.FixtureInfo),
		fixtures: len(fixtures),
	}
	for _, fx := range fixtures {
		x.byID[fx.ID] = Entry{
			HomeTeam:       fx.HomeTeam,
			AwayTeam:       fx.AwayTeam,
			HomeDifficulty: fx.HomeDifficulty,
			AwayDifficulty: fx.AwayDifficulty,
		}
		if fx.Round > 0 {
			for _, team := range []int{fx.HomeTeam, fx.AwayTeam} {
				k := roundTeam{round: fx.Round, team: team}
				x.byRound[k] = append(x.byRound[k], fx)
			}
		}
	}
	for k := range x.byRound {
		list := x.byRound[k]
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	}
	return x
}

// Lookup returns the entry for a fixture id.
func (x *Index) Lookup(id int) (Entry, bool) {
	e, ok := x.byID[id]
	return e, ok
}

// Difficulty returns the home difficulty for home records and the away
// difficulty otherwise, or NeutralDifficulty when the fixture is unknown.
func (x *Index) Difficulty(id int, wasHome bool) (int, bool) {
	e, ok := x.byID[id]
	if !ok {
		return NeutralDifficulty, false
	}
	if wasHome {
		return e.HomeDifficulty, true
	}
	return e.AwayDifficulty, true
}

// ForTeam returns the fixtures team plays in round, ordered by fixture id.
// More than one result means a double round; none means a blank round.
func (x *Index) ForTeam(round, team int) []model.FixtureInfo {
	return x.byRound[roundTeam{round: round, team: team}]
}

// Len returns the number of distinct fixture ids indexed.
func (x *Index) Len() int { return len(x.byID) }
