package calcs

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/roverlabs/gorover/onboard"
	"github.com/roverlabs/gorover/onboard/hardware"
)

func createTestSweep() []onboard.ScanPoint {
	return []onboard.ScanPoint{
		onboard.NewScanPoint(0, hardware.Measured(100)), // ~680mm
		onboard.NewScanPoint(45, hardware.Unknown()),
		onboard.NewScanPoint(90, hardware.Measured(20)), // ~136mm, dead ahead
		onboard.NewScanPoint(135, hardware.Infinity()),
		onboard.NewScanPoint(180, hardware.Measured(60)), // ~408mm
	}
}

func TestNearestObstacle(t *testing.T) {
	Convey("the nearest obstacle is the smallest measured stop", t, func() {
		nearest, ok := NearestObstacle(createTestSweep())
		So(ok, ShouldBeTrue)
		So(nearest.Angle, ShouldEqual, 90)

		Convey("unknown and infinite stops never win", func() {
			d, measured := nearest.Result.Distance()
			So(measured, ShouldBeTrue)
			So(d.Ticks(), ShouldEqual, 20)
		})
	})

	Convey("a sweep with nothing solid has no nearest obstacle", t, func() {
		_, ok := NearestObstacle([]onboard.ScanPoint{
			onboard.NewScanPoint(30, hardware.Unknown()),
			onboard.NewScanPoint(90, hardware.Infinity()),
		})
		So(ok, ShouldBeFalse)
	})
}

func TestClearestHeading(t *testing.T) {
	Convey("the clearest heading has the most open space", t, func() {
		angle, mm := ClearestHeading(createTestSweep())

		Convey("and open air outranks any measured distance", func() {
			So(angle, ShouldEqual, 135)
			So(mm, ShouldEqual, onboard.PILOT_FAR_MM)
		})
	})

	Convey("without infinities the longest measurement wins", t, func() {
		angle, mm := ClearestHeading([]onboard.ScanPoint{
			onboard.NewScanPoint(30, hardware.Measured(50)),
			onboard.NewScanPoint(150, hardware.Measured(200)),
		})
		So(angle, ShouldEqual, 150)
		So(mm, ShouldEqual, 1361)
	})

	Convey("an empty sweep keeps the head centered", t, func() {
		angle, mm := ClearestHeading(nil)
		So(angle, ShouldEqual, 90)
		So(mm, ShouldEqual, 0)
	})
}

func TestObstacleCentroid(t *testing.T) {
	Convey("the centroid averages only measured points", t, func() {
		points := []onboard.ScanPoint{
			onboard.NewScanPoint(0, hardware.Measured(147)),   // (1000, 0)
			onboard.NewScanPoint(180, hardware.Measured(147)), // (-1000, 0)
			onboard.NewScanPoint(90, hardware.Infinity()),     // ignored
		}

		c, ok := ObstacleCentroid(points)
		So(ok, ShouldBeTrue)
		So(c.X(), ShouldAlmostEqual, 0, 0.001)
		So(c.Y(), ShouldAlmostEqual, 0, 0.001)
	})

	Convey("a lopsided field pulls the centroid toward it", t, func() {
		points := []onboard.ScanPoint{
			onboard.NewScanPoint(90, hardware.Measured(147)), // (0, 1000)
			onboard.NewScanPoint(90, hardware.Measured(147)),
			onboard.NewScanPoint(0, hardware.Measured(147)), // (1000, 0)
		}

		c, ok := ObstacleCentroid(points)
		So(ok, ShouldBeTrue)
		So(c.X(), ShouldAlmostEqual, 333.333, 0.01)
		So(c.Y(), ShouldAlmostEqual, 666.667, 0.01)
	})

	Convey("no measured points means no centroid", t, func() {
		_, ok := ObstacleCentroid([]onboard.ScanPoint{
			onboard.NewScanPoint(90, hardware.Unknown()),
		})
		So(ok, ShouldBeFalse)
	})
}
