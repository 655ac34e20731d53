// Package features turns raw match history into leakage-safe feature vectors.
package features

import (
	"context"
	"fmt"
	"sort"

	"github.com/okian/xpts/internal/domain/fixtures"
	"github.com/okian/xpts/internal/domain/model"
	"github.com/okian/xpts/pkg/logger"
	"github.com/okian/xpts/pkg/metrics"
)

// Builder computes feature vectors against a fixture index.
type Builder struct {
	index  *fixtures.Index
	logger logger.Logger
}

// NewBuilder constructs a Builder.
func NewBuilder(index *fixtures.Index, opts ...Option) *Builder {
	b := &Builder{
		index:  index,
		logger: logger.OrDefault().Named("features"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build emits one labelled vector per appearance with at least
// MinPriorRounds appearances in earlier rounds. Both games of a double round
// are emitted and share the same prior window. Output is ordered by player
// id, round, then fixture id.
func (b *Builder) Build(ctx context.Context, records []model.MatchRecord) ([]model.FeatureVector, error) {
	histories, ids, err := groupByPlayer(records)
	if err != nil {
		return nil, err
	}

	out := make([]model.FeatureVector, 0, len(records))
	discarded, unknown := 0, 0
	for _, id := range ids {
		history := histories[id]
		for _, rec := range history {
			prior := PriorTo(history, rec.Round)
			if len(prior) < MinPriorRounds {
				discarded++
				continue
			}

			difficulty, ok := b.index.Difficulty(rec.FixtureID, rec.WasHome)
			if !ok {
				unknown++
				metrics.RecordUnknownFixture()
			}

			out = append(out, model.FeatureVector{
				PlayerID:   rec.PlayerID,
				PlayerName: rec.PlayerName,
				Round:      rec.Round,
				Features:   Compute(prior, rec.WasHome, difficulty),
				Label:      float64(rec.TotalPoints),
				HasLabel:   true,
			})
		}
	}

	metrics.RecordFeatureRows(len(out), discarded)
	if unknown > 0 {
		b.logger.Warn(ctx, "fixtures missing from index; used neutral difficulty",
			logger.Int("records", unknown),
			logger.Int("neutral_difficulty", fixtures.NeutralDifficulty),
		)
	}
	b.logger.Info(ctx, "built feature vectors",
		logger.Int("players", len(ids)),
		logger.Int("records", len(records)),
		logger.Int("emitted", len(out)),
		logger.Int("discarded", discarded),
	)
	return out, nil
}

// BuildAsOf emits one unlabelled vector per player for the upcoming round,
// using only rounds strictly before it. Players with fewer than
// MinPriorRounds earlier rounds, or whose team has no fixture that round, are
// skipped. In a double round the lowest fixture id is used.
func (b *Builder) BuildAsOf(ctx context.Context, round int, records []model.MatchRecord, players []model.Player) ([]model.FeatureVector, error) {
	if round < 1 {
		return nil, fmt.Errorf("%w: as-of round must be positive, got %d", ErrMalformedRecord, round)
	}
	histories, _, err := groupByPlayer(records)
	if err != nil {
		return nil, err
	}

	roster := append([]model.Player(nil), players...)
	sort.Slice(roster, func(i, j int) bool { return roster[i].ID < roster[j].ID })

	out := make([]model.FeatureVector, 0, len(roster))
	thin, blank := 0, 0
	for _, p := range roster {
		prior := PriorTo(histories[p.ID], round)
		if len(prior) < MinPriorRounds {
			thin++
			continue
		}
		fxs := b.index.ForTeam(round, p.Team)
		if len(fxs) == 0 {
			blank++
			continue
		}
		fx := fxs[0]
		wasHome := fx.HomeTeam == p.Team
		difficulty, _ := b.index.Difficulty(fx.ID, wasHome)

		out = append(out, model.FeatureVector{
			PlayerID:   p.ID,
			PlayerName: p.Name,
			Round:      round,
			Features:   Compute(prior, wasHome, difficulty),
		})
	}

	metrics.RecordFeatureRows(len(out), thin)
	b.logger.Info(ctx, "built upcoming feature vectors",
		logger.Int("round", round),
		logger.Int("players", len(roster)),
		logger.Int("emitted", len(out)),
		logger.Int("too_few_rounds", thin),
		logger.Int("blank_round", blank),
	)
	return out, nil
}

// groupByPlayer validates records and returns histories ordered by round and
// fixture, keyed by player, together with the sorted player ids. A second
// record for the same round and fixture is a duplicate.
func groupByPlayer(records []model.MatchRecord) (map[int][]model.MatchRecord, []int, error) {
	histories := make(map[int][]model.MatchRecord)
	for i, r := range records {
		if r.PlayerID <= 0 || r.Round <= 0 || r.Minutes < 0 {
			return nil, nil, fmt.Errorf("%w: record %d (player %d, round %d, minutes %d)",
				ErrMalformedRecord, i, r.PlayerID, r.Round, r.Minutes)
		}
		histories[r.PlayerID] = append(histories[r.PlayerID], r)
	}

	ids := make([]int, 0, len(histories))
	for id, h := range histories {
		sort.SliceStable(h, func(i, j int) bool {
			if h[i].Round != h[j].Round {
				return h[i].Round < h[j].Round
			}
			return h[i].FixtureID < h[j].FixtureID
		})
		for i := 1; i < len(h); i++ {
			if h[i].Round == h[i-1].Round && h[i].FixtureID == h[i-1].FixtureID {
				return nil, nil, fmt.Errorf("%w: player %d round %d fixture %d",
					ErrDuplicateRound, id, h[i].Round, h[i].FixtureID)
			}
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return histories, ids, nil
}
