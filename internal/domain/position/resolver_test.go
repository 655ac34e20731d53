package position_test

import (
	"testing"

	"github.com/okian/xpts/internal/domain/model"
	"github.com/okian/xpts/internal/domain/position"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFromCode(t *testing.T) {
	Convey("Given FPL element type codes", t, func() {
		Convey("Then the four known codes map to their categories", func() {
			So(position.FromCode(1), ShouldEqual, model.Goalkeeper)
			So(position.FromCode(2), ShouldEqual, model.Defender)
			So(position.FromCode(3), ShouldEqual, model.Midfielder)
			So(position.FromCode(4), ShouldEqual, model.Forward)
		})

		Convey("Then an unrecognised code defaults to midfielder", func() {
			So(position.FromCode(5), ShouldEqual, model.Midfielder)
			So(position.FromCode(0), ShouldEqual, model.Midfielder)
		})
	})
}

func TestResolver(t *testing.T) {
	Convey("Given a reference table", t, func() {
		r := position.NewResolver([]model.Player{
			{ID: 1, ElementType: 1},
			{ID: 2, ElementType: 4},
			{ID: 3, ElementType: 9},
		})

		Convey("Then known players resolve", func() {
			p, ok := r.Resolve(2)
			So(ok, ShouldBeTrue)
			So(p, ShouldEqual, model.Forward)
		})

		Convey("Then a new role code resolves to midfielder", func() {
			p, ok := r.Resolve(3)
			So(ok, ShouldBeTrue)
			So(p, ShouldEqual, model.Midfielder)
		})

		Convey("Then an absent player is unresolved", func() {
			_, ok := r.Resolve(42)
			So(ok, ShouldBeFalse)
		})

		Convey("When partitioning vectors", func() {
			parts, unresolved := r.Partition([]model.FeatureVector{
				{PlayerID: 1, Round: 4},
				{PlayerID: 2, Round: 4},
				{PlayerID: 1, Round: 5},
				{PlayerID: 42, Round: 4},
			})

			Convey("Then rows are grouped in input order and unknown players counted", func() {
				So(len(parts[model.Goalkeeper]), ShouldEqual, 2)
				So(parts[model.Goalkeeper][1].Round, ShouldEqual, 5)
				So(len(parts[model.Forward]), ShouldEqual, 1)
				So(unresolved, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a resolver built from a code map", t, func() {
		codes := map[int]int{7: 2}
		r := position.NewResolverFromCodes(codes)
		codes[7] = 1

		Convey("Then later edits to the map do not leak in", func() {
			p, _ := r.Resolve(7)
			So(p, ShouldEqual, model.Defender)
		})
	})
}
