package source_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/xpts/internal/adapters/source"
	"github.com/okian/xpts/internal/domain/features"
	"github.com/okian/xpts/internal/domain/fixtures"
	"github.com/okian/xpts/internal/domain/model"
	"github.com/okian/xpts/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

const bootstrapJSON = `{
  "events": [{"id": 1, "finished": true}, {"id": 2, "finished": true}, {"id": 3, "finished": false}],
  "teams": [{"id": 1, "name": "Arsenal", "short_name": "ARS"}],
  "elements": [
    {"id": 7, "web_name": "Saka", "team": 1, "element_type": 3},
    {"id": 3, "web_name": "Raya", "team": 1, "element_type": 1},
    {"id": 9, "web_name": "NoHistory", "team": 1, "element_type": 4}
  ]
}`

const fixturesJSON = `[
  {"id": 12, "event": 2, "team_h": 2, "team_a": 1, "team_h_difficulty": 4, "team_a_difficulty": 3, "finished": true},
  {"id": 4, "event": 1, "team_h": 1, "team_a": 3, "team_h_difficulty": 2, "team_a_difficulty": 5, "finished": true},
  {"id": 99, "event": null, "team_h": 1, "team_a": 4, "team_h_difficulty": 2, "team_a_difficulty": 4, "finished": false}
]`

const sakaJSON = `{"history": [
  {"round": 1, "fixture": 4, "was_home": true, "minutes": 90, "total_points": 12, "goals_scored": 1,
   "influence": "40.2", "ict_index": "13.5", "expected_goals": "0.76", "expected_assists": 0.3,
   "expected_goals_conceded": ""},
  {"round": 2, "fixture": 12, "was_home": false, "minutes": 72, "total_points": 2,
   "influence": "5.0", "ict_index": "3.1", "expected_goals": null}
]}`

const rayaJSON = `{"history": [
  {"round": 1, "fixture": 4, "was_home": true, "minutes": 90, "total_points": 6, "clean_sheets": 1}
]}`

// Round 5 is a double round: fixtures 50 and 51.
const doubleRoundJSON = `{"history": [
  {"round": 1, "fixture": 4, "was_home": true, "minutes": 90, "total_points": 2},
  {"round": 2, "fixture": 12, "was_home": false, "minutes": 90, "total_points": 4},
  {"round": 3, "fixture": 30, "was_home": true, "minutes": 90, "total_points": 6},
  {"round": 4, "fixture": 40, "was_home": false, "minutes": 90, "total_points": 3},
  {"round": 5, "fixture": 51, "was_home": false, "minutes": 90, "total_points": 9},
  {"round": 5, "fixture": 50, "was_home": true, "minutes": 90, "total_points": 5},
  {"round": 6, "fixture": 60, "was_home": true, "minutes": 90, "total_points": 7}
]}`

func seed(t *testing.T, docs map[string]string) *source.Cache {
	t.Helper()
	cache := source.NewCache(t.TempDir())
	for rel, body := range docs {
		if err := cache.Write(rel, []byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	return cache
}

func TestSource_Load(t *testing.T) {
	Convey("Given a cache with bootstrap, fixtures and two summaries", t, func() {
		ctx := context.Background()
		cache := seed(t, map[string]string{
			source.BootstrapFile:  bootstrapJSON,
			source.FixturesFile:   fixturesJSON,
			source.SummaryFile(7): sakaJSON,
			source.SummaryFile(3): rayaJSON,
		})
		s := source.New(cache, source.WithLogger(logger.Discard()))
		snap, err := s.Load(ctx)
		So(err, ShouldBeNil)

		Convey("Then players are ordered by id", func() {
			So(snap.Players, ShouldResemble, []model.Player{
				{ID: 3, Name: "Raya", Team: 1, ElementType: 1},
				{ID: 7, Name: "Saka", Team: 1, ElementType: 3},
				{ID: 9, Name: "NoHistory", Team: 1, ElementType: 4},
			})
			So(snap.CurrentRound, ShouldEqual, 2)
		})

		Convey("Then unscheduled fixtures carry round zero", func() {
			So(len(snap.Fixtures), ShouldEqual, 3)
			So(snap.Fixtures[0].ID, ShouldEqual, 4)
			So(snap.Fixtures[2].Round, ShouldEqual, 0)
			So(snap.Fixtures[1].HomeDifficulty, ShouldEqual, 4)
		})

		Convey("Then numeric strings are parsed and blanks read as zero", func() {
			So(len(snap.Records), ShouldEqual, 3)
			var saka []model.MatchRecord
			for _, r := range snap.Records {
				if r.PlayerID == 7 {
					saka = append(saka, r)
				}
			}
			So(saka[0].PlayerName, ShouldEqual, "Saka")
			So(saka[0].Influence, ShouldEqual, 40.2)
			So(saka[0].ICTIndex, ShouldEqual, 13.5)
			So(saka[0].ExpectedGoals, ShouldEqual, 0.76)
			So(saka[0].ExpectedAssists, ShouldEqual, 0.3)
			So(saka[0].ExpectedGoalsConceded, ShouldEqual, 0)
			So(saka[1].ExpectedGoals, ShouldEqual, 0)
			So(saka[1].WasHome, ShouldBeFalse)
			So(saka[1].FixtureID, ShouldEqual, 12)
		})
	})
}

func TestSource_Malformed(t *testing.T) {
	Convey("Given a history entry without minutes", t, func() {
		cache := seed(t, map[string]string{
			source.BootstrapFile:  bootstrapJSON,
			source.FixturesFile:   fixturesJSON,
			source.SummaryFile(7): `{"history": [{"round": 1, "fixture": 4, "was_home": true, "total_points": 2}]}`,
		})
		_, err := source.New(cache, source.WithLogger(logger.Discard())).Load(context.Background())

		Convey("Then the load fails naming the field", func() {
			So(errors.Is(err, source.ErrMalformedRecord), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "player 7 entry 0: missing minutes")
		})
	})

	Convey("Given a numeric field that is not a number", t, func() {
		cache := seed(t, map[string]string{
			source.BootstrapFile:  bootstrapJSON,
			source.FixturesFile:   fixturesJSON,
			source.SummaryFile(3): `{"history": [{"round": 1, "fixture": 4, "was_home": true, "minutes": 90, "total_points": 2, "threat": "lots"}]}`,
		})
		_, err := source.New(cache, source.WithLogger(logger.Discard())).Load(context.Background())

		Convey("Then the load fails", func() {
			So(errors.Is(err, source.ErrMalformedRecord), ShouldBeTrue)
		})
	})

	Convey("Given an empty cache", t, func() {
		_, err := source.New(source.NewCache(t.TempDir()), source.WithLogger(logger.Discard())).Load(context.Background())

		Convey("Then the missing snapshot is reported", func() {
			So(errors.Is(err, source.ErrMissingSnapshot), ShouldBeTrue)
		})
	})
}

func TestSource_DoubleRoundFeeds(t *testing.T) {
	Convey("Given a cached history that repeats round 5", t, func() {
		ctx := context.Background()
		cache := seed(t, map[string]string{
			source.BootstrapFile:  bootstrapJSON,
			source.FixturesFile:   fixturesJSON,
			source.SummaryFile(7): doubleRoundJSON,
		})
		snap, err := source.New(cache, source.WithLogger(logger.Discard())).Load(ctx)
		So(err, ShouldBeNil)
		So(len(snap.Records), ShouldEqual, 7)

		Convey("When features are built from the snapshot", func() {
			b := features.NewBuilder(fixtures.NewIndex(snap.Fixtures), features.WithLogger(logger.Discard()))
			vs, err := b.Build(ctx, snap.Records)

			Convey("Then every appearance from round 4 on yields a row", func() {
				So(err, ShouldBeNil)
				So(len(vs), ShouldEqual, 4)
				So([]int{vs[0].Round, vs[1].Round, vs[2].Round, vs[3].Round}, ShouldResemble, []int{4, 5, 5, 6})
				So([]float64{vs[1].Label, vs[2].Label}, ShouldResemble, []float64{5, 9})
				So(vs[3].Features[model.FeatureSeasonPointsBefore], ShouldEqual, 29.0)
			})
		})
	})
}
