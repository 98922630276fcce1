package hardware

import "fmt"

// One counter tick is 4µs of flight time, halved for the return leg:
// 6805µm of distance per tick. Conversions stay in integer math so the
// results are bit-exact with the board's own arithmetic.
const UM_PER_TICK = 6805

// Distance is an echo pulse width in counter ticks.
type Distance struct {
	ticks uint16
}

func (d Distance) Ticks() uint16 {
	return d.ticks
}

// Micrometers widens to uint64 so the multiply is safe at the 16-bit
// tick ceiling.
func (d Distance) Micrometers() uint64 {
	return uint64(d.ticks) * UM_PER_TICK
}

// Millimeters truncates, it does not round.
func (d Distance) Millimeters() uint64 {
	return d.Micrometers() / 1000
}

func (d Distance) String() string {
	return fmt.Sprintf("%dmm", d.Millimeters())
}

type measurementKind uint8

const (
	measurementUnknown measurementKind = iota
	measurementInfinity
	measurementMeasured
)

// Measurement is the outcome of one ranging cycle. The degenerate
// outcomes are ordinary values rather than errors: Unknown means the
// sensor never acknowledged the trigger, Infinity means the echo
// outlasted the range window. The zero value is Unknown.
type Measurement struct {
	kind measurementKind
	dist Distance
}

func Unknown() Measurement {
	return Measurement{kind: measurementUnknown}
}

func Infinity() Measurement {
	return Measurement{kind: measurementInfinity}
}

func Measured(ticks uint16) Measurement {
	return Measurement{kind: measurementMeasured, dist: Distance{ticks: ticks}}
}

func (m Measurement) IsUnknown() bool {
	return m.kind == measurementUnknown
}

func (m Measurement) IsInfinity() bool {
	return m.kind == measurementInfinity
}

// Distance returns the measured pulse width when the cycle produced one.
func (m Measurement) Distance() (d Distance, ok bool) {
	return m.dist, m.kind == measurementMeasured
}

func (m Measurement) String() string {
	switch m.kind {
	case measurementInfinity:
		return "∞"
	case measurementMeasured:
		return m.dist.String()
	default:
		return "Ø"
	}
}
