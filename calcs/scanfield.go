package calcs

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/roverlabs/gorover/onboard"
	"github.com/roverlabs/gorover/onboard/hardware"
)

// headroom flattens a measurement to millimeters of open space. Lost
// echoes count as no space at all.
func headroom(m hardware.Measurement) uint64 {
	if m.IsInfinity() {
		return onboard.PILOT_FAR_MM
	}
	if d, ok := m.Distance(); ok {
		return d.Millimeters()
	}
	return 0
}

// NearestObstacle picks the measured stop closest to the chassis. ok is
// false when the sweep saw nothing solid.
func NearestObstacle(points []onboard.ScanPoint) (nearest onboard.ScanPoint, ok bool) {
	var best uint64
	for _, p := range points {
		d, measured := p.Result.Distance()
		if !measured {
			continue
		}
		if !ok || d.Millimeters() < best {
			nearest, best, ok = p, d.Millimeters(), true
		}
	}
	return
}

// ClearestHeading picks the sweep angle with the most open space. An
// empty or all-unknown sweep keeps the head centered.
func ClearestHeading(points []onboard.ScanPoint) (angle uint8, mm uint64) {
	angle = hardware.SERVO_MAX_ANGLE / 2
	for _, p := range points {
		if room := headroom(p.Result); room > mm {
			angle, mm = p.Angle, room
		}
	}
	return
}

// ObstacleCentroid is the mean position of everything the sweep
// measured, in the chassis frame.
func ObstacleCentroid(points []onboard.ScanPoint) (c mgl64.Vec2, ok bool) {
	var n float64
	for _, p := range points {
		if _, measured := p.Result.Distance(); !measured {
			continue
		}
		c = c.Add(p.Point)
		n++
	}
	if n == 0 {
		return
	}

	c = c.Mul(1 / n)
	ok = true
	return
}
