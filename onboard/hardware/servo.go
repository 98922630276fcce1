package hardware

import "github.com/roverlabs/gorover/onboard/hwio"

const (
	// hobby servo frame: a rising edge every 20ms, angle encoded in how
	// far past 1ms the falling edge lands
	SERVO_BASE_MICROS  = 1000
	SERVO_RANGE_MICROS = 1000
	SERVO_REST_MILLIS  = 18

	SERVO_MAX_ANGLE = 180

	// one frame is not reliably registered, so every move is repeated
	SERVO_PULSE_REPEATS = 5
)

// ServoPhase is the pulse width above the 1ms floor, in microseconds.
type ServoPhase struct {
	value uint32
}

// PhaseFromAngle maps degrees onto the servo's 1000µs range, truncating.
// Angles past the mechanical stop pin to it.
func PhaseFromAngle(angle uint8) ServoPhase {
	if angle > SERVO_MAX_ANGLE {
		angle = SERVO_MAX_ANGLE
	}
	return ServoPhase{value: uint32(angle) * SERVO_RANGE_MICROS / SERVO_MAX_ANGLE}
}

func (p ServoPhase) Micros() uint32 {
	return p.value
}

type ServoInterface interface {
	SetAngle(angle uint8)
}

// PanServo bit-bangs the PWM frames for the sensor-head servo on a plain
// digital output.
type PanServo struct {
	pin   hwio.DigitalOutput
	phase ServoPhase
	delay func(us uint32)
}

// NewPanServo centers the head; construction moves the hardware.
func NewPanServo(pin hwio.DigitalOutput) (s *PanServo) {
	s = &PanServo{
		pin:   pin,
		phase: PhaseFromAngle(SERVO_MAX_ANGLE / 2),
		delay: hwio.DelayMicros,
	}
	s.SetAngle(SERVO_MAX_ANGLE / 2)
	return
}

func (s *PanServo) SetAngle(angle uint8) {
	s.SetPhase(PhaseFromAngle(angle))
}

func (s *PanServo) SetPhase(phase ServoPhase) {
	s.phase = phase
	for i := 0; i < SERVO_PULSE_REPEATS; i++ {
		s.writePhase(phase)
	}
}

// writePhase emits one 20ms frame: high for 1ms plus the phase, low for
// the remainder.
func (s *PanServo) writePhase(phase ServoPhase) {
	s.pin.High()
	s.delay(SERVO_BASE_MICROS)
	s.delay(phase.value)
	s.pin.Low()
	s.delay(SERVO_REST_MILLIS * 1000)
	s.delay(SERVO_RANGE_MICROS - phase.value)
}
