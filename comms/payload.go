package comms

import (
	"github.com/roverlabs/gorover/calcs"
	"github.com/roverlabs/gorover/onboard"
)

type Centroid struct {
	X, Y float64
}

// ScanStop is one sweep stop as clients see it: the rendered reading
// plus, when something was measured, its distance and position.
type ScanStop struct {
	Angle uint8
	Range string
	MM    uint64  `json:",omitempty"`
	X     float64 `json:",omitempty"`
	Y     float64 `json:",omitempty"`
}

func NewScanStop(p onboard.ScanPoint) (s ScanStop) {
	s.Angle = p.Angle
	s.Range = p.Result.String()

	if d, ok := p.Result.Distance(); ok {
		s.MM = d.Millimeters()
		s.X, s.Y = p.Point.X(), p.Point.Y()
	}
	return
}

// FieldSummary condenses a sweep for clients that only want the verdict.
type FieldSummary struct {
	NearestAngle  uint8
	NearestMM     uint64
	ClearestAngle uint8
	ClearestMM    uint64
	Centroid      Centroid
}

func SummarizeField(points []onboard.ScanPoint) *FieldSummary {
	if len(points) == 0 {
		return nil
	}

	summary := new(FieldSummary)
	summary.ClearestAngle, summary.ClearestMM = calcs.ClearestHeading(points)

	if nearest, ok := calcs.NearestObstacle(points); ok {
		d, _ := nearest.Result.Distance()
		summary.NearestAngle = nearest.Angle
		summary.NearestMM = d.Millimeters()
	}

	if c, ok := calcs.ObstacleCentroid(points); ok {
		summary.Centroid = Centroid{X: c.X(), Y: c.Y()}
	}

	return summary
}

type StatePayload struct {
	onboard.RoverState
	Pilot bool
	Scan  []ScanStop    `json:",omitempty"`
	Field *FieldSummary `json:",omitempty"`
}
