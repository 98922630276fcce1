package hardware

import "github.com/roverlabs/gorover/onboard/hwio"

// LineState is what a single tracker eye sees. Dark means on the line.
type LineState uint8

const (
	Light LineState = iota
	Dark
)

func (s LineState) String() string {
	if s == Dark {
		return "dark"
	}
	return "light"
}

// the tracker board drives its pin low on the line and ties it high off it
func lineState(pin hwio.DigitalInput) LineState {
	if !pin.Read() {
		return Dark
	}
	return Light
}

// TrackerDirection picks one of the three eyes.
type TrackerDirection uint8

const (
	TrackerLeft TrackerDirection = iota
	TrackerCenter
	TrackerRight
)

func (d TrackerDirection) String() string {
	switch d {
	case TrackerLeft:
		return "left"
	case TrackerRight:
		return "right"
	}
	return "center"
}

// LineBias is how far the chassis sits off the line, judged from the
// three eyes together.
type LineBias uint8

const (
	BiasVeryLeft LineBias = iota
	BiasSlightlyLeft
	BiasCenter
	BiasSlightlyRight
	BiasVeryRight
	BiasNotOnLine
	BiasPerpendicular
)

func (b LineBias) String() string {
	switch b {
	case BiasVeryLeft:
		return "very_left"
	case BiasSlightlyLeft:
		return "slightly_left"
	case BiasCenter:
		return "center"
	case BiasSlightlyRight:
		return "slightly_right"
	case BiasVeryRight:
		return "very_right"
	case BiasPerpendicular:
		return "perpendicular"
	}
	return "not_on_line"
}

// TrackerDirection squashes a bias down to a steering choice: which way
// to turn to get back over the line. Lossy on purpose.
func (b LineBias) TrackerDirection() TrackerDirection {
	switch b {
	case BiasVeryLeft, BiasSlightlyLeft:
		return TrackerLeft
	case BiasVeryRight, BiasSlightlyRight:
		return TrackerRight
	}
	return TrackerCenter
}

// LinePosition is one simultaneous reading of all three eyes.
type LinePosition struct {
	Left, Mid, Right LineState
}

// BiasOnDark classifies the reading while following a dark line on a
// light floor. Seeing the line on an outer eye means the chassis has
// drifted the other way.
func (p LinePosition) BiasOnDark() LineBias {
	switch p {
	case LinePosition{Light, Light, Dark}:
		return BiasVeryRight
	case LinePosition{Light, Dark, Dark}:
		return BiasSlightlyRight
	case LinePosition{Light, Dark, Light}:
		return BiasCenter
	case LinePosition{Dark, Dark, Light}:
		return BiasSlightlyLeft
	case LinePosition{Dark, Light, Light}:
		return BiasVeryLeft
	case LinePosition{Dark, Dark, Dark}:
		return BiasPerpendicular
	}
	// nothing in sight, or split across both outer eyes
	return BiasNotOnLine
}

// BiasOnLight is the same classification for a light line on a dark
// floor, with every reading inverted.
func (p LinePosition) BiasOnLight() LineBias {
	switch p {
	case LinePosition{Dark, Dark, Light}:
		return BiasVeryRight
	case LinePosition{Dark, Light, Light}:
		return BiasSlightlyRight
	case LinePosition{Dark, Light, Dark}:
		return BiasCenter
	case LinePosition{Light, Light, Dark}:
		return BiasSlightlyLeft
	case LinePosition{Light, Dark, Dark}:
		return BiasVeryLeft
	case LinePosition{Light, Light, Light}:
		return BiasPerpendicular
	}
	return BiasNotOnLine
}

type TrackerInterface interface {
	MeasureDirection(direction TrackerDirection) LineState
	MeasureFull() LinePosition
}

// LineTracker reads the three-eye tracker board.
type LineTracker struct {
	left, center, right hwio.DigitalInput
}

func NewLineTracker(left, center, right hwio.DigitalInput) *LineTracker {
	return &LineTracker{
		left:   left,
		center: center,
		right:  right,
	}
}

func (t *LineTracker) MeasureDirection(direction TrackerDirection) LineState {
	switch direction {
	case TrackerLeft:
		return lineState(t.left)
	case TrackerRight:
		return lineState(t.right)
	}
	return lineState(t.center)
}

func (t *LineTracker) MeasureFull() LinePosition {
	return LinePosition{
		Left:  lineState(t.left),
		Mid:   lineState(t.center),
		Right: lineState(t.right),
	}
}
