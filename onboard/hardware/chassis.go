package hardware

import (
	"errors"

	"github.com/roverlabs/gorover/onboard/hwio"
)

var ERR_BAD_DIRECTION = errors.New("unknown chassis direction")

// ChassisDirection selects where the whole chassis goes. Turns are
// tank-style: the two pairs run in opposite directions.
type ChassisDirection uint8

const (
	DirectionForward ChassisDirection = iota
	DirectionBackward
	DirectionLeft
	DirectionRight
)

func (d ChassisDirection) String() string {
	switch d {
	case DirectionForward:
		return "forward"
	case DirectionBackward:
		return "backward"
	case DirectionLeft:
		return "left"
	case DirectionRight:
		return "right"
	}
	return "unknown"
}

func ParseChassisDirection(s string) (d ChassisDirection, err error) {
	switch s {
	case "forward":
		d = DirectionForward
	case "backward":
		d = DirectionBackward
	case "left":
		d = DirectionLeft
	case "right":
		d = DirectionRight
	default:
		err = ERR_BAD_DIRECTION
	}
	return
}

// PairDirection is the direction of a single motor pair.
type PairDirection uint8

const (
	PairForward PairDirection = iota
	PairBackward
)

type ChassisInterface interface {
	SetDirection(direction ChassisDirection)
	SetEnabled(pairA, pairB bool)
}

// MotorChassis drives the dual H-bridge motor board: two direction pins
// per pair plus an enable pin per pair.
type MotorChassis struct {
	enableA, enableB hwio.DigitalOutput
	a1, a2, b1, b2   hwio.DigitalOutput
}

func NewMotorChassis(enableA, enableB, a1, a2, b1, b2 hwio.DigitalOutput) *MotorChassis {
	return &MotorChassis{
		enableA: enableA,
		enableB: enableB,
		a1:      a1,
		a2:      a2,
		b1:      b1,
		b2:      b2,
	}
}

// setPairA points the left pair. Direction pins only: a running motor
// keeps running in the new direction, a stopped one stays stopped.
func (c *MotorChassis) setPairA(direction PairDirection) {
	switch direction {
	case PairForward:
		c.a1.High()
		c.a2.Low()
	case PairBackward:
		c.a1.Low()
		c.a2.High()
	}
}

// setPairB points the right pair. The B side of the board is wired
// mirrored, so b2 leads here where a1 leads on the A side.
func (c *MotorChassis) setPairB(direction PairDirection) {
	switch direction {
	case PairForward:
		c.b2.High()
		c.b1.Low()
	case PairBackward:
		c.b2.Low()
		c.b1.High()
	}
}

func (c *MotorChassis) SetDirection(direction ChassisDirection) {
	switch direction {
	case DirectionForward:
		c.setPairA(PairForward)
		c.setPairB(PairForward)
	case DirectionBackward:
		c.setPairA(PairBackward)
		c.setPairB(PairBackward)
	case DirectionLeft:
		c.setPairA(PairBackward)
		c.setPairB(PairForward)
	case DirectionRight:
		c.setPairA(PairForward)
		c.setPairB(PairBackward)
	}
}

// SetEnabled gates power to each pair. Separate from direction: point
// the chassis first, then enable the pairs.
func (c *MotorChassis) SetEnabled(pairA, pairB bool) {
	c.enableA.Set(pairA)
	c.enableB.Set(pairB)
}
