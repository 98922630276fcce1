package onboard

import (
	"fmt"

	"github.com/Masterminds/semver"
	deverrors "github.com/roverlabs/gorover/onboard/errors"
	"github.com/roverlabs/gorover/onboard/hardware"
)

type RoverConfig struct {
	Version  int           `yaml:"version"`
	Firmware string        `yaml:"firmware,omitempty"`
	Pins     PinMap        `yaml:"pins"`
	Clock    ClockConfig   `yaml:"clock"`
	Ranger   RangerTimings `yaml:"ranger"`
	Scan     ScanConfig    `yaml:"scan"`
	Pilot    PilotConfig   `yaml:"pilot"`
}

// PinMap names the host GPIO lines by their role on the chassis.
type PinMap struct {
	EnableA string `yaml:"enable_a"`
	EnableB string `yaml:"enable_b"`
	A1      string `yaml:"a1"`
	A2      string `yaml:"a2"`
	B1      string `yaml:"b1"`
	B2      string `yaml:"b2"`

	Servo   string `yaml:"servo"`
	Trigger string `yaml:"trigger"`
	Echo    string `yaml:"echo"`
	Led     string `yaml:"led,omitempty"`

	TrackerLeft   string `yaml:"tracker_left"`
	TrackerCenter string `yaml:"tracker_center"`
	TrackerRight  string `yaml:"tracker_right"`
}

type ClockConfig struct {
	Prescaler   uint32 `yaml:"prescaler"`
	TimerCounts uint32 `yaml:"timer_counts"`
}

type ScanConfig struct {
	StartAngle uint8 `yaml:"start_angle"`
	EndAngle   uint8 `yaml:"end_angle"`
	Step       uint8 `yaml:"step"`
}

type PilotConfig struct {
	Floor      string `yaml:"floor"` // dark or light line
	CruiseMM   uint64 `yaml:"cruise_mm"`
	StopMM     uint64 `yaml:"stop_mm"`
	IntervalMS uint64 `yaml:"interval_ms"`
}

// RangerTimings is the measurement profile as config sees it: windows in
// microseconds, converted to counter ticks on load.
type RangerTimings struct {
	Profile hardware.RangerProfile
}

type YAMLRanger struct {
	TickMicros        uint32 `yaml:"tick"`
	PulseMicros       uint32 `yaml:"pulse"`
	RiseTimeoutMicros uint32 `yaml:"rise_timeout"`
	FallTimeoutMicros uint32 `yaml:"fall_timeout"`
}

func (rt RangerTimings) MarshalYAML() (interface{}, error) {
	p := rt.Profile
	return &YAMLRanger{
		TickMicros:        p.TickMicros,
		PulseMicros:       p.PulseMicros,
		RiseTimeoutMicros: uint32(p.RiseTimeoutTicks) * p.TickMicros,
		FallTimeoutMicros: uint32(p.FallTimeoutTicks) * p.TickMicros,
	}, nil
}

func (rt *RangerTimings) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var yr YAMLRanger
	if err := unmarshal(&yr); err != nil {
		return err
	}

	if yr.TickMicros == 0 {
		yr.TickMicros = hardware.RANGER_TICK_MICROS
	}
	if yr.PulseMicros == 0 {
		yr.PulseMicros = hardware.RANGER_PULSE_MICROS
	}

	rise, err := ticksFromMicros(yr.RiseTimeoutMicros, yr.TickMicros)
	if err != nil {
		return err
	}
	if rise == 0 {
		rise = hardware.RANGER_RISE_TIMEOUT
	}

	fall, err := ticksFromMicros(yr.FallTimeoutMicros, yr.TickMicros)
	if err != nil {
		return err
	}
	if fall == 0 {
		fall = hardware.RANGER_FALL_TIMEOUT
	}

	rt.Profile = hardware.RangerProfile{
		TickMicros:       yr.TickMicros,
		PulseMicros:      yr.PulseMicros,
		RiseTimeoutTicks: rise,
		FallTimeoutTicks: fall,
	}
	return nil
}

// ticksFromMicros rounds up: a 750µs window at 4µs per tick must not
// shrink to 187 whole ticks.
func ticksFromMicros(us, tick uint32) (uint16, error) {
	ticks := (uint64(us) + uint64(tick) - 1) / uint64(tick)
	if ticks > 0xFFFF {
		return 0, fmt.Errorf("timeout %dµs is %d ticks, over the 16-bit counter", us, ticks)
	}
	return uint16(ticks), nil
}

// RangerProfile falls back to the reference profile when the config
// carries no ranger section.
func (c *RoverConfig) RangerProfile() hardware.RangerProfile {
	if c.Ranger.Profile == (hardware.RangerProfile{}) {
		return hardware.DefaultRangerProfile()
	}
	return c.Ranger.Profile
}

func (c *RoverConfig) ClockDivisor() (prescaler, counts uint32) {
	prescaler, counts = c.Clock.Prescaler, c.Clock.TimerCounts
	if prescaler == 0 {
		prescaler = hardware.CLOCK_PRESCALER
	}
	if counts == 0 {
		counts = hardware.CLOCK_TIMER_COUNTS
	}
	return
}

func (c *RoverConfig) ScanSweep() ScanConfig {
	scan := c.Scan
	if scan.EndAngle == 0 {
		scan.EndAngle = hardware.SERVO_MAX_ANGLE
	}
	if scan.Step == 0 {
		scan.Step = 30
	}
	return scan
}

func (c *RoverConfig) PilotPolicy() PilotConfig {
	pilot := c.Pilot
	if pilot.Floor == "" {
		pilot.Floor = "dark"
	}
	if pilot.CruiseMM == 0 {
		pilot.CruiseMM = 400
	}
	if pilot.StopMM == 0 {
		pilot.StopMM = 150
	}
	if pilot.IntervalMS == 0 {
		pilot.IntervalMS = 50
	}
	return pilot
}

// CheckFirmware refuses a config written for a different firmware
// generation.
func (c *RoverConfig) CheckFirmware(version string) (err error) {
	if c.Firmware == "" {
		return
	}

	if version == "DEV" {
		// direct dev build, consider it safe for now
		// todo: require an explicit flag for dev builds instead
		return
	}

	constraint, err := semver.NewConstraint(c.Firmware)
	if err != nil {
		return
	}

	semVer, err := semver.NewVersion(version)
	if err != nil {
		return
	}

	if !constraint.Check(semVer) {
		err = deverrors.FirmwareGateError{Running: version, Constraint: c.Firmware}
	}

	return
}
