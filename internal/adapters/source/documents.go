package source

import (
	"bytes"
	"fmt"
	"strconv"
)

// decimal reads FPL numeric fields that arrive either as JSON numbers or as
// quoted strings ("1.2"). null and "" read as zero.
type decimal float64

func (d *decimal) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*d = 0
		return nil
	}
	if b[0] == '"' {
		s, err := strconv.Unquote(string(b))
		if err != nil {
			return fmt.Errorf("decimal %s: %w", b, err)
		}
		if s == "" {
			*d = 0
			return nil
		}
		b = []byte(s)
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("decimal %s: %w", b, err)
	}
	*d = decimal(f)
	return nil
}

type bootstrapDoc struct {
	Elements []elementDoc `json:"elements"`
	Teams    []teamDoc    `json:"teams"`
	Events   []eventDoc   `json:"events"`
}

type elementDoc struct {
	ID          int    `json:"id"`
	WebName     string `json:"web_name"`
	Team        int    `json:"team"`
	ElementType int    `json:"element_type"`
}

type teamDoc struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
}

type eventDoc struct {
	ID         int  `json:"id"`
	Finished   bool `json:"finished"`
	IsCurrent  bool `json:"is_current"`
	IsNext     bool `json:"is_next"`
	IsPrevious bool `json:"is_previous"`
}

type fixtureDoc struct {
	ID              int  `json:"id"`
	Event           *int `json:"event"`
	TeamH           int  `json:"team_h"`
	TeamA           int  `json:"team_a"`
	TeamHDifficulty int  `json:"team_h_difficulty"`
	TeamADifficulty int  `json:"team_a_difficulty"`
	Finished        bool `json:"finished"`
}

type summaryDoc struct {
	History []historyDoc `json:"history"`
}

// historyDoc is one played match. Pointer fields are required.
type historyDoc struct {
	Round       *int  `json:"round"`
	Fixture     *int  `json:"fixture"`
	WasHome     *bool `json:"was_home"`
	Minutes     *int  `json:"minutes"`
	TotalPoints *int  `json:"total_points"`

	GoalsScored           int     `json:"goals_scored"`
	Assists               int     `json:"assists"`
	CleanSheets           int     `json:"clean_sheets"`
	GoalsConceded         int     `json:"goals_conceded"`
	YellowCards           int     `json:"yellow_cards"`
	RedCards              int     `json:"red_cards"`
	Bonus                 int     `json:"bonus"`
	BPS                   int     `json:"bps"`
	Influence             decimal `json:"influence"`
	Creativity            decimal `json:"creativity"`
	Threat                decimal `json:"threat"`
	ICTIndex              decimal `json:"ict_index"`
	ExpectedGoals         decimal `json:"expected_goals"`
	ExpectedAssists       decimal `json:"expected_assists"`
	ExpectedGoalsConceded decimal `json:"expected_goals_conceded"`
}

func (h historyDoc) missing() string {
	switch {
	case h.Round == nil:
		return "round"
	case h.Fixture == nil:
		return "fixture"
	case h.WasHome == nil:
		return "was_home"
	case h.Minutes == nil:
		return "minutes"
	case h.TotalPoints == nil:
		return "total_points"
	}
	return ""
}
