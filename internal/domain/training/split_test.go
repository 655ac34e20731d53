package training_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/xpts/internal/domain/forest"
	"github.com/okian/xpts/internal/domain/model"
	"github.com/okian/xpts/internal/domain/training"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSplit(t *testing.T) {
	Convey("Given a row count", t, func() {
		Convey("Then the validation share is rounded up", func() {
			for n, want := range map[int]int{50: 10, 51: 11, 7: 2, 1: 1} {
				_, val := training.Split(n, training.ValidationFraction, 42)
				So(len(val), ShouldEqual, want)
			}
		})

		Convey("Then train and validation partition the rows", func() {
			train, val := training.Split(53, training.ValidationFraction, 42)
			seen := map[int]bool{}
			for _, i := range append(append([]int(nil), train...), val...) {
				So(seen[i], ShouldBeFalse)
				seen[i] = true
			}
			So(len(seen), ShouldEqual, 53)
		})

		Convey("Then the same seed gives the same split", func() {
			_, a := training.Split(100, training.ValidationFraction, 42)
			_, b := training.Split(100, training.ValidationFraction, 42)
			_, c := training.Split(100, training.ValidationFraction, 7)
			So(b, ShouldResemble, a)
			So(c, ShouldNotResemble, a)
		})

		Convey("Then zero rows give empty sets", func() {
			train, val := training.Split(0, training.ValidationFraction, 42)
			So(train, ShouldBeEmpty)
			So(val, ShouldBeEmpty)
		})
	})
}

func TestMeanAbsoluteError(t *testing.T) {
	Convey("Given predictions and actuals", t, func() {
		So(training.MeanAbsoluteError([]float64{1, 2, 3}, []float64{2, 2, 5}), ShouldEqual, 1.0)
		So(math.IsNaN(training.MeanAbsoluteError(nil, nil)), ShouldBeTrue)
	})
}

func TestProfiles(t *testing.T) {
	Convey("Given the default profiles", t, func() {
		p := training.DefaultProfiles()

		Convey("Then each category has its own settings", func() {
			So(p[model.Goalkeeper], ShouldResemble, forest.Params{Trees: 500, MaxDepth: 10, MinSamplesSplit: 4, MinSamplesLeaf: 2})
			So(p[model.Midfielder].Trees, ShouldEqual, 700)
			So(p[model.Forward].MinSamplesLeaf, ShouldEqual, 1)
		})

		Convey("When merging an override", func() {
			merged, err := training.MergeProfiles(map[model.Position]forest.Params{
				model.Defender: {Trees: 5, MaxDepth: 3, MinSamplesSplit: 2, MinSamplesLeaf: 1},
			})

			Convey("Then only that category changes", func() {
				So(err, ShouldBeNil)
				So(merged[model.Defender].Trees, ShouldEqual, 5)
				So(merged[model.Midfielder], ShouldResemble, p[model.Midfielder])
			})
		})

		Convey("When an override is invalid", func() {
			_, err := training.MergeProfiles(map[model.Position]forest.Params{model.Forward: {}})
			So(errors.Is(err, forest.ErrInvalidParams), ShouldBeTrue)
			_, err = training.MergeProfiles(map[model.Position]forest.Params{"GK": fastProfiles[model.Goalkeeper]})
			So(errors.Is(err, forest.ErrInvalidParams), ShouldBeTrue)
		})
	})
}

func TestBaselineMAE(t *testing.T) {
	Convey("Given too few training rows for a linear fit", t, func() {
		_, err := training.BaselineMAE(rows(1, 5), rows(10, 2))

		Convey("Then the baseline reports an error", func() {
			So(errors.Is(err, training.ErrBaseline), ShouldBeTrue)
		})
	})
}
