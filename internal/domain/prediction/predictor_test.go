package prediction_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/okian/xpts/internal/adapters/repository"
	"github.com/okian/xpts/internal/domain/forest"
	"github.com/okian/xpts/internal/domain/model"
	"github.com/okian/xpts/internal/domain/position"
	"github.com/okian/xpts/internal/domain/prediction"
	"github.com/okian/xpts/internal/domain/training"
	"github.com/okian/xpts/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func vectors(firstID, n int) []model.FeatureVector {
	out := make([]model.FeatureVector, n)
	for i := 0; i < n; i++ {
		f := make([]float64, model.NumFeatures)
		for j := range f {
			f[j] = float64((i*(j+3))%(j+7)) + 0.1*float64(j)
		}
		out[i] = model.FeatureVector{
			PlayerID:   firstID + i,
			PlayerName: "P",
			Round:      5 + i%20,
			Features:   f,
			Label:      f[model.FeaturePrevPointsAvg] + 2,
			HasLabel:   true,
		}
	}
	return out
}

func resolver(byCode map[int][2]int) *position.Resolver {
	c := map[int]int{}
	for code, span := range byCode {
		for i := 0; i < span[1]; i++ {
			c[span[0]+i] = code
		}
	}
	return position.NewResolverFromCodes(c)
}

var tiny = forest.Params{Trees: 8, MaxDepth: 5, MinSamplesSplit: 4, MinSamplesLeaf: 1}

func TestPredict_RoundTrip(t *testing.T) {
	Convey("Given models trained and saved to a file store", t, func() {
		ctx := context.Background()
		store := repository.NewFileStore(t.TempDir(), repository.WithLogger(logger.Discard()))
		res := resolver(map[int][2]int{2: {1, 60}, 3: {1000, 70}})
		rows := append(vectors(1, 60), vectors(1000, 70)...)

		report, err := training.New(store, res,
			training.WithProfiles(map[model.Position]forest.Params{model.Defender: tiny, model.Midfielder: tiny}),
			training.WithLogger(logger.Discard()),
		).Train(ctx, rows)
		So(err, ShouldBeNil)

		Convey("When predicting the held-out rows through the store", func() {
			p := prediction.New(store, res, prediction.WithLogger(logger.Discard()))
			var held []model.FeatureVector
			want := map[string]float64{}
			for _, cat := range []model.Position{model.Defender, model.Midfielder} {
				cr := report.Category(cat)
				held = append(held, cr.Validation...)
				for i, v := range cr.Validation {
					want[model.Prediction{PlayerID: v.PlayerID, Round: v.Round}.Key()] = cr.Predicted[i]
				}
			}
			out, err := p.Predict(ctx, held)
			So(err, ShouldBeNil)

			Convey("Then every prediction matches the trainer's bit for bit", func() {
				So(len(out.Predictions), ShouldEqual, len(held))
				for _, pr := range out.Predictions {
					So(pr.Points, ShouldEqual, want[pr.Key()])
				}
			})

			Convey("Then output is ordered by player then round", func() {
				for i := 1; i < len(out.Predictions); i++ {
					So(out.Predictions[i-1].PlayerID, ShouldBeLessThanOrEqualTo, out.Predictions[i].PlayerID)
				}
			})

			Convey("Then categories without rows are reported", func() {
				So(out.Skipped[model.Goalkeeper], ShouldEqual, prediction.ReasonNoRows)
			})
		})
	})
}

func TestPredict_MissingModels(t *testing.T) {
	Convey("Given an empty store", t, func() {
		ctx := context.Background()
		res := resolver(map[int][2]int{1: {1, 5}, 4: {100, 5}})
		p := prediction.New(repository.NewMemoryStore(), res, prediction.WithLogger(logger.Discard()))

		Convey("When predicting rows of several categories", func() {
			out, err := p.Predict(ctx, append(vectors(1, 5), vectors(100, 5)...))

			Convey("Then the result is empty and not an error", func() {
				So(err, ShouldBeNil)
				So(out.Predictions, ShouldBeEmpty)
				So(out.Skipped[model.Goalkeeper], ShouldEqual, prediction.ReasonNoModel)
				So(out.Skipped[model.Forward], ShouldEqual, prediction.ReasonNoModel)
			})
		})
	})

	Convey("Given a store with only a forward model", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		res := resolver(map[int][2]int{1: {1, 5}, 4: {100, 50}})
		_, err := training.New(store, res,
			training.WithProfiles(map[model.Position]forest.Params{model.Forward: tiny}),
			training.WithLogger(logger.Discard()),
		).Train(ctx, vectors(100, 50))
		So(err, ShouldBeNil)

		out, err := prediction.New(store, res, prediction.WithLogger(logger.Discard())).
			Predict(ctx, append(vectors(1, 5), vectors(100, 3)...))

		Convey("Then only forwards are predicted", func() {
			So(err, ShouldBeNil)
			So(len(out.Predictions), ShouldEqual, 3)
			So(out.Predictions[0].PlayerID, ShouldEqual, 100)
			So(out.Skipped[model.Goalkeeper], ShouldEqual, prediction.ReasonNoModel)
		})
	})
}

func TestPredict_ColumnMismatch(t *testing.T) {
	Convey("Given a persisted model trained on different columns", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		res := resolver(map[int][2]int{3: {1, 10}})
		m := &model.Model{
			Category: model.Midfielder,
			Columns:  append([]string{"something_else"}, model.FeatureNames[1:]...),
			Forest: &forest.Forest{
				NumFeatures: model.NumFeatures,
				Trees:       []forest.Tree{{Nodes: []forest.Node{{Feature: -1, Value: 1}}}},
			},
		}
		So(store.Save(ctx, model.Midfielder, m), ShouldBeNil)

		out, err := prediction.New(store, res, prediction.WithLogger(logger.Discard())).Predict(ctx, vectors(1, 10))

		Convey("Then the category is skipped", func() {
			So(err, ShouldBeNil)
			So(out.Predictions, ShouldBeEmpty)
			So(out.Skipped[model.Midfielder], ShouldEqual, prediction.ReasonColumnMismatch)
		})
	})

	Convey("Given rows for players missing from the reference table", t, func() {
		out, err := prediction.New(repository.NewMemoryStore(), position.NewResolverFromCodes(nil),
			prediction.WithLogger(logger.Discard())).Predict(context.Background(), vectors(1, 4))

		Convey("Then they are counted as unresolved", func() {
			So(err, ShouldBeNil)
			So(out.Unresolved, ShouldEqual, 4)
		})
	})
}

// vanishingStore reports every model as present but fails to load it.
type vanishingStore struct{ loadErr error }

func (vanishingStore) Exists(context.Context, model.Position) (bool, error) { return true, nil }

func (v vanishingStore) Load(_ context.Context, category model.Position) (*model.Model, error) {
	return nil, fmt.Errorf("%w: %s", v.loadErr, category)
}

func TestPredict_ModelRemovedBeforeLoad(t *testing.T) {
	Convey("Given a store whose model disappears after the existence check", t, func() {
		ctx := context.Background()
		res := resolver(map[int][2]int{2: {1, 4}})
		p := prediction.New(vanishingStore{loadErr: repository.ErrModelNotFound}, res,
			prediction.WithLogger(logger.Discard()))

		out, err := p.Predict(ctx, vectors(1, 4))

		Convey("Then the category is skipped as having no model", func() {
			So(err, ShouldBeNil)
			So(out.Predictions, ShouldBeEmpty)
			So(out.Skipped[model.Defender], ShouldEqual, prediction.ReasonNoModel)
		})
	})

	Convey("Given a store whose model is corrupt", t, func() {
		res := resolver(map[int][2]int{2: {1, 4}})
		p := prediction.New(vanishingStore{loadErr: repository.ErrCorruptModel}, res,
			prediction.WithLogger(logger.Discard()))

		_, err := p.Predict(context.Background(), vectors(1, 4))

		Convey("Then the storage failure is returned", func() {
			So(errors.Is(err, repository.ErrCorruptModel), ShouldBeTrue)
		})
	})
}
