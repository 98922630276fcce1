package onboard

import (
	"github.com/go-gl/mathgl/mgl64"
	deverrors "github.com/roverlabs/gorover/onboard/errors"
	"github.com/roverlabs/gorover/onboard/hardware"
)

// ScanPoint is one stop of a pan sweep: the head angle, what the ranger
// saw there, and the projection into the chassis frame. +y is dead
// ahead, +x is the 0° end of the sweep, units are millimeters.
type ScanPoint struct {
	Angle  uint8
	Result hardware.Measurement
	Point  mgl64.Vec2 // zero unless Result carries a distance
}

func NewScanPoint(angle uint8, m hardware.Measurement) (p ScanPoint) {
	p.Angle = angle
	p.Result = m

	if d, ok := m.Distance(); ok {
		heading := mgl64.Rotate2D(mgl64.DegToRad(float64(angle)))
		p.Point = heading.Mul2x1(mgl64.Vec2{float64(d.Millimeters()), 0})
	}

	return
}

// scanSweep walks the head across the configured arc, measuring at each
// stop, and recenters afterwards. Angles run as ints so a step cannot
// wrap the uint8 sweep position.
func scanSweep(r Rover, cfg ScanConfig) (points []ScanPoint, err error) {
	start, end, step := int(cfg.StartAngle), int(cfg.EndAngle), int(cfg.Step)
	if step <= 0 || start > end || end > hardware.SERVO_MAX_ANGLE {
		err = deverrors.ScanRangeError{Start: start, End: end, Step: step}
		return
	}

	for angle := start; angle <= end; angle += step {
		if err = r.Pan(uint8(angle)); err != nil {
			return
		}
		points = append(points, NewScanPoint(uint8(angle), r.Range()))
	}

	err = r.Pan(hardware.SERVO_MAX_ANGLE / 2)
	return
}
