package onboard

import (
	"sync"

	deverrors "github.com/roverlabs/gorover/onboard/errors"
	"github.com/roverlabs/gorover/onboard/hardware"
	"github.com/roverlabs/gorover/onboard/hwio"
)

const FIRMWARE_VERSION = "1.2.0"

type Rover interface {
	Drive(direction hardware.ChassisDirection) error
	Halt()
	Pan(angle uint8) error
	Range() hardware.Measurement
	Scan() ([]ScanPoint, error)
	Track() (pos hardware.LinePosition, bias hardware.LineBias)
	Uptime() uint64
	ResetUptime()
	Blink()
	State() RoverState
	Close() error
}

// RoverState is a snapshot for telemetry and the dev shell.
type RoverState struct {
	Direction string
	Moving    bool
	PanAngle  uint8
	Range     string
	RangeMM   uint64
	Ranged    bool
	Line      string
	UptimeMS  uint64
	Firmware  string
}

// GPIORover is the real chassis: every driver wired to host GPIO lines
// named in the config.
type GPIORover struct {
	Clock   *hardware.Clock
	Chassis hardware.ChassisInterface
	Servo   hardware.ServoInterface
	Ranger  hardware.RangerInterface
	Tracker hardware.TrackerInterface
	Led     hwio.DigitalOutput

	config *RoverConfig
	bias   func(hardware.LinePosition) hardware.LineBias

	lock        *sync.Mutex
	direction   hardware.ChassisDirection
	moving      bool
	panAngle    uint8
	lastMeasure hardware.Measurement
	lastBias    hardware.LineBias
	ledOn       bool
}

func NewGPIORover(config *RoverConfig) (r *GPIORover, err error) {
	if err = config.CheckFirmware(FIRMWARE_VERSION); err != nil {
		return
	}

	switch config.Version {
	case 1:
	default:
		return nil, deverrors.ConfigVersionError{Version: config.Version}
	}

	if err = hwio.HostInit(); err != nil {
		return
	}

	r = &GPIORover{
		config:   config,
		bias:     biasForFloor(config.PilotPolicy().Floor),
		lock:     new(sync.Mutex),
		panAngle: hardware.SERVO_MAX_ANGLE / 2,
		lastBias: hardware.BiasNotOnLine,
	}

	pins := config.Pins

	enableA, err := outputPin(pins.EnableA, "chassis enable_a")
	if err != nil {
		return
	}
	enableB, err := outputPin(pins.EnableB, "chassis enable_b")
	if err != nil {
		return
	}
	a1, err := outputPin(pins.A1, "chassis a1")
	if err != nil {
		return
	}
	a2, err := outputPin(pins.A2, "chassis a2")
	if err != nil {
		return
	}
	b1, err := outputPin(pins.B1, "chassis b1")
	if err != nil {
		return
	}
	b2, err := outputPin(pins.B2, "chassis b2")
	if err != nil {
		return
	}
	r.Chassis = hardware.NewMotorChassis(enableA, enableB, a1, a2, b1, b2)

	trigger, err := outputPin(pins.Trigger, "ranger trigger")
	if err != nil {
		return
	}
	echo, err := inputPin(pins.Echo, "ranger echo", hwio.PullUp)
	if err != nil {
		return
	}
	r.Ranger, err = hardware.NewRanger(new(hwio.MonotonicCounter), trigger, echo, config.RangerProfile())
	if err != nil {
		return
	}

	servoPin, err := outputPin(pins.Servo, "pan servo")
	if err != nil {
		return
	}
	r.Servo = hardware.NewPanServo(servoPin) // centers the head, ~100ms

	left, err := inputPin(pins.TrackerLeft, "tracker left", hwio.PullNone)
	if err != nil {
		return
	}
	center, err := inputPin(pins.TrackerCenter, "tracker center", hwio.PullNone)
	if err != nil {
		return
	}
	right, err := inputPin(pins.TrackerRight, "tracker right", hwio.PullNone)
	if err != nil {
		return
	}
	r.Tracker = hardware.NewLineTracker(left, center, right)

	if pins.Led != "" {
		if r.Led, err = outputPin(pins.Led, "status led"); err != nil {
			return
		}
	}

	prescaler, counts := config.ClockDivisor()
	r.Clock, err = hardware.NewClock(new(hwio.TickerTimer), prescaler, counts)
	if err != nil {
		return
	}
	err = r.Clock.Init()

	return
}

func outputPin(name, role string) (hwio.DigitalOutput, error) {
	if name == "" {
		return nil, deverrors.PinRoleError{Role: role}
	}
	return hwio.NewHostOutput(name)
}

func inputPin(name, role string, pull hwio.Pull) (hwio.DigitalInput, error) {
	if name == "" {
		return nil, deverrors.PinRoleError{Role: role}
	}
	return hwio.NewHostInput(name, pull)
}

func biasForFloor(floor string) func(hardware.LinePosition) hardware.LineBias {
	if floor == "light" {
		return hardware.LinePosition.BiasOnLight
	}
	return hardware.LinePosition.BiasOnDark
}

// Drive points the chassis and powers both pairs.
func (r *GPIORover) Drive(direction hardware.ChassisDirection) error {
	if direction > hardware.DirectionRight {
		return hardware.ERR_BAD_DIRECTION
	}

	r.Chassis.SetDirection(direction)
	r.Chassis.SetEnabled(true, true)

	r.lock.Lock()
	r.direction = direction
	r.moving = true
	r.lock.Unlock()
	return nil
}

// Halt cuts power to the pairs; the direction pins keep their state.
func (r *GPIORover) Halt() {
	r.Chassis.SetEnabled(false, false)

	r.lock.Lock()
	r.moving = false
	r.lock.Unlock()
}

func (r *GPIORover) Pan(angle uint8) error {
	if angle > hardware.SERVO_MAX_ANGLE {
		return deverrors.AngleRangeError{Angle: int(angle)}
	}

	r.Servo.SetAngle(angle)

	r.lock.Lock()
	r.panAngle = angle
	r.lock.Unlock()
	return nil
}

func (r *GPIORover) Range() hardware.Measurement {
	m := r.Ranger.Measure()

	r.lock.Lock()
	r.lastMeasure = m
	r.lock.Unlock()
	return m
}

func (r *GPIORover) Scan() ([]ScanPoint, error) {
	return scanSweep(r, r.config.ScanSweep())
}

func (r *GPIORover) Track() (pos hardware.LinePosition, bias hardware.LineBias) {
	pos = r.Tracker.MeasureFull()
	bias = r.bias(pos)

	r.lock.Lock()
	r.lastBias = bias
	r.lock.Unlock()
	return
}

func (r *GPIORover) Uptime() uint64 {
	return r.Clock.Now()
}

func (r *GPIORover) ResetUptime() {
	r.Clock.Reset()
}

// Blink toggles the status led, when one is wired.
func (r *GPIORover) Blink() {
	if r.Led == nil {
		return
	}

	r.lock.Lock()
	r.ledOn = !r.ledOn
	r.Led.Set(r.ledOn)
	r.lock.Unlock()
}

func (r *GPIORover) State() (state RoverState) {
	r.lock.Lock()
	defer r.lock.Unlock()

	state = RoverState{
		Direction: r.direction.String(),
		Moving:    r.moving,
		PanAngle:  r.panAngle,
		Range:     r.lastMeasure.String(),
		Line:      r.lastBias.String(),
		UptimeMS:  r.Clock.Now(),
		Firmware:  FIRMWARE_VERSION,
	}

	if d, ok := r.lastMeasure.Distance(); ok {
		state.RangeMM = d.Millimeters()
		state.Ranged = true
	}

	return
}

func (r *GPIORover) Close() error {
	r.Halt()
	r.Clock.Stop()
	if r.Led != nil {
		r.Led.Low()
	}
	return nil
}
