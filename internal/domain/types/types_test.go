package types_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	types "github.com/steadilab/steadi/internal/domain/types"
)

func TestPointDist(t *testing.T) {
	Convey("Given two points", t, func() {
		Convey("When they are identical", func() {
			p := types.Point{X: 0.5, Y: 0.5}
			So(p.Dist(p), ShouldEqual, 0)
		})

		Convey("When they differ along one axis", func() {
			a := types.Point{X: 0.2, Y: 0.5}
			b := types.Point{X: 0.5, Y: 0.5}
			So(a.Dist(b), ShouldAlmostEqual, 0.3, 1e-12)
		})

		Convey("When they form a 3-4-5 triangle", func() {
			a := types.Point{X: 0, Y: 0}
			b := types.Point{X: 0.3, Y: 0.4}
			So(a.Dist(b), ShouldAlmostEqual, 0.5, 1e-12)
		})

		Convey("Then distance is symmetric", func() {
			a := types.Point{X: 0.11, Y: 0.72}
			b := types.Point{X: 0.64, Y: 0.09}
			So(a.Dist(b), ShouldAlmostEqual, b.Dist(a), 1e-12)
		})
	})
}

func TestTaskKind(t *testing.T) {
	Convey("Given task kinds", t, func() {
		Convey("Then the known kinds are valid", func() {
			So(types.TaskMotor.Valid(), ShouldBeTrue)
			So(types.TaskOcular.Valid(), ShouldBeTrue)
		})

		Convey("Then unknown kinds are invalid", func() {
			So(types.TaskKind("speech").Valid(), ShouldBeFalse)
			So(types.TaskKind("").Valid(), ShouldBeFalse)
		})
	})
}

func TestSessionState(t *testing.T) {
	Convey("Given session states", t, func() {
		Convey("Then only done is terminal", func() {
			So(types.StateDone.Terminal(), ShouldBeTrue)
			So(types.StateLoading.Terminal(), ShouldBeFalse)
			So(types.StateReady.Terminal(), ShouldBeFalse)
			So(types.StateCountdown.Terminal(), ShouldBeFalse)
			So(types.StateTracking.Terminal(), ShouldBeFalse)
		})
	})
}
