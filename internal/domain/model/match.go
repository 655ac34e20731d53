// Package model contains domain models passed between layers.
package model

// MatchRecord is one player's participation in one past round.
type MatchRecord struct {
	PlayerID   int
	PlayerName string
	Round      int
	FixtureID  int
	WasHome    bool
	Minutes    int

	GoalsScored   int
	Assists       int
	CleanSheets   int
	GoalsConceded int
	YellowCards   int
	RedCards      int
	Bonus         int
	BPS           int

	Influence             float64
	Creativity            float64
	Threat                float64
	ICTIndex              float64
	ExpectedGoals         float64
	ExpectedAssists       float64
	ExpectedGoalsConceded float64

	TotalPoints int
}

// FixtureInfo describes a scheduled match and each side's difficulty rating.
// Round is zero for fixtures not yet assigned to a round.
type FixtureInfo struct {
	ID             int
	Round          int
	HomeTeam       int
	AwayTeam       int
	HomeDifficulty int
	AwayDifficulty int
	Finished       bool
}

// Player is a row of the player reference table.
type Player struct {
	ID          int
	Name        string
	Team        int
	ElementType int
}
