package features

import (
	"math"
	"sort"

	"github.com/okian/xpts/internal/domain/model"
)

// Windowing constants. MinPriorRounds is a hard floor, not a tunable.
const (
	Window         = 5
	MinPriorRounds = 3
	StartedMinutes = 60
)

// PriorTo returns the records of a round-ordered history whose round is
// strictly less than asOfRound. Every rolling statistic is computed from this
// slice, never from the full history.
func PriorTo(history []model.MatchRecord, asOfRound int) []model.MatchRecord {
	k := sort.Search(len(history), func(i int) bool {
		return history[i].Round >= asOfRound
	})
	return history[:k]
}

// Trailing returns the last n records of prior, or all of them when fewer
// exist. The window shrinks; it is never padded.
func Trailing(prior []model.MatchRecord, n int) []model.MatchRecord {
	if len(prior) <= n {
		return prior
	}
	return prior[len(prior)-n:]
}

// Compute assembles the ordered feature set for a match whose strictly-prior
// history is prior. Means over an empty window are NaN.
func Compute(prior []model.MatchRecord, wasHome bool, difficulty int) []float64 {
	w := Trailing(prior, Window)
	f := make([]float64, model.NumFeatures)

	if wasHome {
		f[model.FeatureIsHome] = 1
	}
	f[model.FeatureOpponentDifficulty] = float64(difficulty)
	f[model.FeaturePrevMinutesAvg] = mean(w, func(r model.MatchRecord) float64 { return float64(r.Minutes) })
	f[model.FeaturePrevPointsAvg] = mean(w, func(r model.MatchRecord) float64 { return float64(r.TotalPoints) })
	f[model.FeaturePrevXGAvg] = mean(w, func(r model.MatchRecord) float64 { return r.ExpectedGoals })
	f[model.FeaturePrevXAAvg] = mean(w, func(r model.MatchRecord) float64 { return r.ExpectedAssists })
	f[model.FeaturePrevICTAvg] = mean(w, func(r model.MatchRecord) float64 { return r.ICTIndex })
	f[model.FeaturePrevGoalsSum] = sum(w, func(r model.MatchRecord) float64 { return float64(r.GoalsScored) })
	f[model.FeaturePrevAssistsSum] = sum(w, func(r model.MatchRecord) float64 { return float64(r.Assists) })
	f[model.FeaturePrevStartsRate] = mean(w, started)
	f[model.FeatureSeasonPointsBefore] = sum(prior, func(r model.MatchRecord) float64 { return float64(r.TotalPoints) })
	return f
}

func started(r model.MatchRecord) float64 {
	if r.Minutes >= StartedMinutes {
		return 1
	}
	return 0
}

func sum(rs []model.MatchRecord, get func(model.MatchRecord) float64) float64 {
	s := 0.0
	for _, r := range rs {
		s += get(r)
	}
	return s
}

func mean(rs []model.MatchRecord, get func(model.MatchRecord) float64) float64 {
	if len(rs) == 0 {
		return math.NaN()
	}
	return sum(rs, get) / float64(len(rs))
}
