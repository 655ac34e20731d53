package model

// Feature column positions inside FeatureVector.Features.
const (
	FeatureIsHome = iota
	FeatureOpponentDifficulty
	FeaturePrevMinutesAvg
	FeaturePrevPointsAvg
	FeaturePrevXGAvg
	FeaturePrevXAAvg
	FeaturePrevICTAvg
	FeaturePrevGoalsSum
	FeaturePrevAssistsSum
	FeaturePrevStartsRate
	FeatureSeasonPointsBefore

	NumFeatures
)

// FeatureNames is the fixed, ordered model input. Training and inference
// both read columns in exactly this order.
var FeatureNames = []string{ //nolint:gochecknoglobals // fixed column schema
	"is_home",
	"opponent_difficulty",
	"prev_minutes_avg",
	"prev_points_avg",
	"prev_xg_avg",
	"prev_xa_avg",
	"prev_ict_avg",
	"prev_goals_sum",
	"prev_assists_sum",
	"prev_starts_rate",
	"season_points_before",
}

// FeatureVector is the model input for one (player, round). Label holds the
// actual points when HasLabel is set; upcoming rounds carry no label.
type FeatureVector struct {
	PlayerID   int
	PlayerName string
	Round      int
	Features   []float64
	Label      float64
	HasLabel   bool
}

// SameColumns reports whether cols equals FeatureNames element by element.
func SameColumns(cols []string) bool {
	if len(cols) != len(FeatureNames) {
		return false
	}
	for i, c := range cols {
		if c != FeatureNames[i] {
			return false
		}
	}
	return true
}
