// Package source loads cached FPL API snapshots into domain records and
// fetches missing snapshots over HTTP.
package source

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/okian/xpts/internal/domain/model"
	"github.com/okian/xpts/pkg/logger"
	"github.com/segmentio/encoding/json"
)

// Snapshot is everything a pipeline run reads from the cache.
type Snapshot struct {
	Players  []model.Player
	Fixtures []model.FixtureInfo
	Records  []model.MatchRecord
	// CurrentRound is the highest finished event in bootstrap-static, or 0.
	CurrentRound int
}

// Option applies a configuration option to the Source.
type Option func(*Source)

// WithLogger sets a custom logger for the source.
func WithLogger(l logger.Logger) Option {
	return func(s *Source) {
		if l != nil {
			s.logger = l
		}
	}
}

// Source decodes snapshots from a Cache.
type Source struct {
	cache  *Cache
	logger logger.Logger
}

// New constructs a Source.
func New(cache *Cache, opts ...Option) *Source {
	s := &Source{cache: cache, logger: logger.OrDefault().Named("source")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads players, fixtures and every cached player history.
func (s *Source) Load(ctx context.Context) (*Snapshot, error) {
	boot, err := s.bootstrap()
	if err != nil {
		return nil, err
	}
	players := playersFrom(boot)
	fixtures, err := s.LoadFixtures(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.LoadHistories(ctx, players)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Players:      players,
		Fixtures:     fixtures,
		Records:      records,
		CurrentRound: currentRound(boot),
	}, nil
}

// LoadPlayers decodes the player reference table, ordered by id.
func (s *Source) LoadPlayers(_ context.Context) ([]model.Player, error) {
	boot, err := s.bootstrap()
	if err != nil {
		return nil, err
	}
	return playersFrom(boot), nil
}

// LoadFixtures decodes every fixture, ordered by id. Unscheduled fixtures
// carry round 0.
func (s *Source) LoadFixtures(_ context.Context) ([]model.FixtureInfo, error) {
	b, err := s.cache.Read(FixturesFile)
	if err != nil {
		return nil, err
	}
	var docs []fixtureDoc
	if err := json.Unmarshal(b, &docs); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedRecord, FixturesFile, err)
	}
	out := make([]model.FixtureInfo, 0, len(docs))
	for _, d := range docs {
		fx := model.FixtureInfo{
			ID:             d.ID,
			HomeTeam:       d.TeamH,
			AwayTeam:       d.TeamA,
			HomeDifficulty: d.TeamHDifficulty,
			AwayDifficulty: d.TeamADifficulty,
			Finished:       d.Finished,
		}
		if d.Event != nil {
			fx.Round = *d.Event
		}
		out = append(out, fx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// LoadHistories decodes the cached element summary of every player. Players
// without a cached summary are skipped with a diagnostic; a history entry
// missing a required field fails the load.
func (s *Source) LoadHistories(ctx context.Context, players []model.Player) ([]model.MatchRecord, error) {
	var out []model.MatchRecord
	missing := 0
	for _, p := range players {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := s.cache.Read(SummaryFile(p.ID))
		if errors.Is(err, ErrMissingSnapshot) {
			missing++
			continue
		}
		if err != nil {
			return nil, err
		}
		recs, err := decodeHistory(p, b)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	if missing > 0 {
		s.logger.Warn(ctx, "players without cached history", logger.Int("players", missing))
	}
	s.logger.Info(ctx, "loaded match history",
		logger.Int("players", len(players)-missing),
		logger.Int("records", len(out)),
	)
	return out, nil
}

func (s *Source) bootstrap() (*bootstrapDoc, error) {
	b, err := s.cache.Read(BootstrapFile)
	if err != nil {
		return nil, err
	}
	var doc bootstrapDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedRecord, BootstrapFile, err)
	}
	return &doc, nil
}

func playersFrom(doc *bootstrapDoc) []model.Player {
	out := make([]model.Player, 0, len(doc.Elements))
	for _, e := range doc.Elements {
		out = append(out, model.Player{ID: e.ID, Name: e.WebName, Team: e.Team, ElementType: e.ElementType})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func currentRound(doc *bootstrapDoc) int {
	round := 0
	for _, e := range doc.Events {
		if e.Finished && e.ID > round {
			round = e.ID
		}
	}
	return round
}

func decodeHistory(p model.Player, b []byte) ([]model.MatchRecord, error) {
	var doc summaryDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("%w: player %d: %w", ErrMalformedRecord, p.ID, err)
	}
	out := make([]model.MatchRecord, 0, len(doc.History))
	for i, h := range doc.History {
		if field := h.missing(); field != "" {
			return nil, fmt.Errorf("%w: player %d entry %d: missing %s", ErrMalformedRecord, p.ID, i, field)
		}
		out = append(out, model.MatchRecord{
			PlayerID:              p.ID,
			PlayerName:            p.Name,
			Round:                 *h.Round,
			FixtureID:             *h.Fixture,
			WasHome:               *h.WasHome,
			Minutes:               *h.Minutes,
			GoalsScored:           h.GoalsScored,
			Assists:               h.Assists,
			CleanSheets:           h.CleanSheets,
			GoalsConceded:         h.GoalsConceded,
			YellowCards:           h.YellowCards,
			RedCards:              h.RedCards,
			Bonus:                 h.Bonus,
			BPS:                   h.BPS,
			Influence:             float64(h.Influence),
			Creativity:            float64(h.Creativity),
			Threat:                float64(h.Threat),
			ICTIndex:              float64(h.ICTIndex),
			ExpectedGoals:         float64(h.ExpectedGoals),
			ExpectedAssists:       float64(h.ExpectedAssists),
			ExpectedGoalsConceded: float64(h.ExpectedGoalsConceded),
			TotalPoints:           *h.TotalPoints,
		})
	}
	return out, nil
}
