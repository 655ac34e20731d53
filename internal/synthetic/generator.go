package synthetic

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"

	"github.com/okian/xpts/internal/adapters/source"
	"github.com/segmentio/encoding/json"
)

// Archetypes shape how often a player starts and how much they produce.
const (
	archetypeRotation = iota
	archetypeRegular
	archetypeStar
)

const (
	startedMinutes  = 60
	fullMatch       = 90
	maxTeamStrength = 5
	minTeamStrength = 2
)

type team struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Short    string `json:"short_name"`
	Strength int    `json:"strength"`
}

type element struct {
	ID          int    `json:"id"`
	WebName     string `json:"web_name"`
	Team        int    `json:"team"`
	ElementType int    `json:"element_type"`

	archetype int
	quality   float64
}

type event struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Finished   bool   `json:"finished"`
	IsPrevious bool   `json:"is_previous"`
	IsCurrent  bool   `json:"is_current"`
	IsNext     bool   `json:"is_next"`
}

type fixture struct {
	ID              int  `json:"id"`
	Event           int  `json:"event"`
	TeamH           int  `json:"team_h"`
	TeamA           int  `json:"team_a"`
	TeamHDifficulty int  `json:"team_h_difficulty"`
	TeamADifficulty int  `json:"team_a_difficulty"`
	TeamHScore      *int `json:"team_h_score"`
	TeamAScore      *int `json:"team_a_score"`
	Finished        bool `json:"finished"`
}

type history struct {
	Element               int    `json:"element"`
	Fixture               int    `json:"fixture"`
	OpponentTeam          int    `json:"opponent_team"`
	TotalPoints           int    `json:"total_points"`
	WasHome               bool   `json:"was_home"`
	Round                 int    `json:"round"`
	Minutes               int    `json:"minutes"`
	GoalsScored           int    `json:"goals_scored"`
	Assists               int    `json:"assists"`
	CleanSheets           int    `json:"clean_sheets"`
	GoalsConceded         int    `json:"goals_conceded"`
	YellowCards           int    `json:"yellow_cards"`
	RedCards              int    `json:"red_cards"`
	Bonus                 int    `json:"bonus"`
	BPS                   int    `json:"bps"`
	Influence             string `json:"influence"`
	Creativity            string `json:"creativity"`
	Threat                string `json:"threat"`
	ICTIndex              string `json:"ict_index"`
	ExpectedGoals         string `json:"expected_goals"`
	ExpectedAssists       string `json:"expected_assists"`
	ExpectedGoalsConceded string `json:"expected_goals_conceded"`
}

// Season is a generated season as raw API documents.
type Season struct {
	cfg      Config
	teams    []team
	elements []element
	events   []event
	fixtures []fixture
	history  map[int][]history
}

// Generate builds a season from cfg. The same config always yields the same
// documents.
func Generate(cfg Config) (*Season, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible fixtures, not security sensitive
	s := &Season{cfg: cfg, history: make(map[int][]history)}
	s.buildTeams(rng)
	s.buildSquads(rng)
	s.buildSchedule()
	s.playRounds(rng)
	return s, nil
}

func (s *Season) buildTeams(rng *rand.Rand) {
	s.teams = make([]team, s.cfg.Teams)
	for i := range s.teams {
		id := i + 1
		s.teams[i] = team{
			ID:       id,
			Name:     "Team " + strconv.Itoa(id),
			Short:    fmt.Sprintf("T%02d", id),
			Strength: minTeamStrength + rng.Intn(maxTeamStrength-minTeamStrength+1),
		}
	}
}

func (s *Season) buildSquads(rng *rand.Rand) {
	id := 1
	for _, t := range s.teams {
		for slot := 0; slot < s.cfg.PlayersPerTeam; slot++ {
			et := 2 + slot%3
			if slot < len(squadShape) {
				et = squadShape[slot]
			}
			e := element{
				ID:          id,
				WebName:     fmt.Sprintf("Player %d", id),
				Team:        t.ID,
				ElementType: et,
				quality:     rng.Float64(),
			}
			switch {
			case et == 1 && slot == 0:
				e.archetype = archetypeStar // first-choice keeper always starts
			case et == 1:
				e.archetype = archetypeRotation
			case e.quality > 0.8:
				e.archetype = archetypeStar
			case e.quality > 0.35:
				e.archetype = archetypeRegular
			default:
				e.archetype = archetypeRotation
			}
			s.elements = append(s.elements, e)
			id++
		}
	}
}

// buildSchedule lays out a double round robin with the circle method, cut to
// Rounds+Upcoming rounds.
func (s *Season) buildSchedule() {
	n := s.cfg.Teams
	total := s.cfg.Rounds + s.cfg.Upcoming
	order := make([]int, n)
	for i := range order {
		order[i] = i + 1
	}

	fid := 1
	for round := 1; round <= total; round++ {
		leg := (round - 1) / (n - 1)
		for i := 0; i < n/2; i++ {
			home, away := order[i], order[n-1-i]
			if (round+leg)%2 == 0 {
				home, away = away, home
			}
			s.fixtures = append(s.fixtures, fixture{
				ID:              fid,
				Event:           round,
				TeamH:           home,
				TeamA:           away,
				TeamHDifficulty: s.teams[away-1].Strength,
				TeamADifficulty: s.teams[home-1].Strength,
				Finished:        round <= s.cfg.Rounds,
			})
			fid++
		}
		// rotate every position but the first
		last := order[n-1]
		copy(order[2:], order[1:n-1])
		order[1] = last
	}

	for round := 1; round <= total; round++ {
		s.events = append(s.events, event{
			ID:         round,
			Name:       "Gameweek " + strconv.Itoa(round),
			Finished:   round <= s.cfg.Rounds,
			IsPrevious: round == s.cfg.Rounds-1,
			IsCurrent:  round == s.cfg.Rounds,
			IsNext:     round == s.cfg.Rounds+1,
		})
	}
}

func (s *Season) playRounds(rng *rand.Rand) {
	byTeam := make(map[int][]element, len(s.teams))
	for _, e := range s.elements {
		byTeam[e.Team] = append(byTeam[e.Team], e)
	}

	for i := range s.fixtures {
		fx := &s.fixtures[i]
		if !fx.Finished {
			continue
		}
		homeGoals := goalsFor(rng, fx.TeamHDifficulty, true)
		awayGoals := goalsFor(rng, fx.TeamADifficulty, false)
		fx.TeamHScore, fx.TeamAScore = &homeGoals, &awayGoals

		for _, side := range []struct {
			team, opponent, difficulty, conceded int
			home                                 bool
		}{
			{fx.TeamH, fx.TeamA, fx.TeamHDifficulty, awayGoals, true},
			{fx.TeamA, fx.TeamH, fx.TeamADifficulty, homeGoals, false},
		} {
			for _, e := range byTeam[side.team] {
				h := playMatch(rng, e, side.difficulty, side.conceded)
				h.Element = e.ID
				h.Fixture = fx.ID
				h.OpponentTeam = side.opponent
				h.WasHome = side.home
				h.Round = fx.Event
				s.history[e.ID] = append(s.history[e.ID], h)
			}
		}
	}
}

// goalsFor draws a team's goals against an opponent of the given difficulty.
func goalsFor(rng *rand.Rand, difficulty int, home bool) int {
	p := 0.45 - 0.06*float64(difficulty)
	if home {
		p += 0.05
	}
	goals := 0
	for k := 0; k < 5; k++ {
		if rng.Float64() < p {
			goals++
		}
	}
	return goals
}

func playMatch(rng *rand.Rand, e element, difficulty, conceded int) history {
	minutes := drawMinutes(rng, e)
	h := history{Minutes: minutes}
	if minutes == 0 {
		h.Influence, h.Creativity, h.Threat, h.ICTIndex = "0.0", "0.0", "0.0", "0.0"
		h.ExpectedGoals, h.ExpectedAssists, h.ExpectedGoalsConceded = "0.00", "0.00", "0.00"
		return h
	}

	share := float64(minutes) / fullMatch
	ease := float64(6-difficulty) / 3
	xg := attackRate(e.ElementType, 0.1+0.3*e.quality) * share * ease
	xa := attackRate(e.ElementType, 0.06+0.2*e.quality) * share * ease
	h.GoalsScored = trials(rng, 3, xg/3)
	h.Assists = trials(rng, 3, xa/3)
	if minutes >= startedMinutes {
		h.GoalsConceded = conceded
		if conceded == 0 {
			h.CleanSheets = 1
		}
	}
	if rng.Float64() < 0.08 {
		h.YellowCards = 1
	}
	if rng.Float64() < 0.005 {
		h.RedCards = 1
	}

	influence := 10*float64(h.GoalsScored) + 20*share*rng.Float64()
	creativity := 15*float64(h.Assists) + 30*share*xa + 5*rng.Float64()
	threat := 60*xg + 5*rng.Float64()
	h.Influence = strconv.FormatFloat(roundTo(influence, 1), 'f', 1, 64)
	h.Creativity = strconv.FormatFloat(roundTo(creativity, 1), 'f', 1, 64)
	h.Threat = strconv.FormatFloat(roundTo(threat, 1), 'f', 1, 64)
	h.ICTIndex = strconv.FormatFloat(roundTo((influence+creativity+threat)/10, 1), 'f', 1, 64)
	h.ExpectedGoals = strconv.FormatFloat(roundTo(xg, 2), 'f', 2, 64)
	h.ExpectedAssists = strconv.FormatFloat(roundTo(xa, 2), 'f', 2, 64)
	h.ExpectedGoalsConceded = strconv.FormatFloat(roundTo(share*float64(difficulty)*0.35, 2), 'f', 2, 64)

	h.BPS = 3*minutes/30 + 12*h.GoalsScored + 9*h.Assists + 6*h.CleanSheets - 3*h.YellowCards
	switch {
	case h.GoalsScored >= 2:
		h.Bonus = 3
	case h.GoalsScored == 1:
		h.Bonus = 1 + rng.Intn(2)
	case h.Assists > 0 && rng.Float64() < 0.3:
		h.Bonus = 1
	}
	h.TotalPoints = points(e.ElementType, h)
	return h
}

func drawMinutes(rng *rand.Rand, e element) int {
	var start float64
	switch e.archetype {
	case archetypeStar:
		start = 0.95
	case archetypeRegular:
		start = 0.7
	default:
		start = 0.2
	}
	if e.ElementType == 1 && e.archetype == archetypeRotation {
		return 0
	}
	r := rng.Float64()
	switch {
	case r < start:
		return startedMinutes + rng.Intn(fullMatch-startedMinutes+1)
	case r < start+(1-start)/2:
		return 1 + rng.Intn(30)
	default:
		return 0
	}
}

func attackRate(elementType int, base float64) float64 {
	switch elementType {
	case 1:
		return 0.01
	case 2:
		return base * 0.4
	case 3:
		return base
	default:
		return base * 1.6
	}
}

func trials(rng *rand.Rand, n int, p float64) int {
	k := 0
	for i := 0; i < n; i++ {
		if rng.Float64() < p {
			k++
		}
	}
	return k
}

// points applies the FPL scoring table.
func points(elementType int, h history) int {
	pts := 1
	if h.Minutes >= startedMinutes {
		pts = 2
	}
	switch elementType {
	case 1, 2:
		pts += 6*h.GoalsScored + 4*h.CleanSheets - h.GoalsConceded/2
	case 3:
		pts += 5*h.GoalsScored + h.CleanSheets
	default:
		pts += 4 * h.GoalsScored
	}
	return pts + 3*h.Assists + h.Bonus - h.YellowCards - 3*h.RedCards
}

func roundTo(f float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(f*p) / p
}

// Documents returns every document keyed by its cache-relative path.
func (s *Season) Documents() (map[string][]byte, error) {
	docs := make(map[string][]byte, len(s.elements)+2)

	boot, err := json.Marshal(struct {
		Events   []event   `json:"events"`
		Teams    []team    `json:"teams"`
		Elements []element `json:"elements"`
	}{s.events, s.teams, s.elements})
	if err != nil {
		return nil, fmt.Errorf("encode bootstrap: %w", err)
	}
	docs[source.BootstrapFile] = boot

	fx, err := json.Marshal(s.fixtures)
	if err != nil {
		return nil, fmt.Errorf("encode fixtures: %w", err)
	}
	docs[source.FixturesFile] = fx

	for _, e := range s.elements {
		h := s.history[e.ID]
		if h == nil {
			h = []history{}
		}
		b, err := json.Marshal(struct {
			History []history `json:"history"`
		}{h})
		if err != nil {
			return nil, fmt.Errorf("encode element %d: %w", e.ID, err)
		}
		docs[source.SummaryFile(e.ID)] = b
	}
	return docs, nil
}

// WriteTo stores every document in cache.
func (s *Season) WriteTo(cache *source.Cache) error {
	docs, err := s.Documents()
	if err != nil {
		return err
	}
	for rel, b := range docs {
		if err := cache.Write(rel, b); err != nil {
			return fmt.Errorf("write %s: %w", rel, err)
		}
	}
	return nil
}

// Players returns the number of generated players.
func (s *Season) Players() int { return len(s.elements) }

// Fixtures returns the number of generated fixtures, played or scheduled.
func (s *Season) Fixtures() int { return len(s.fixtures) }
