package hardware

import (
	"errors"
	"time"

	"github.com/roverlabs/gorover/onboard/hwio"
)

const (
	RANGER_TICK_MICROS  = 4     // counter resolution, prescale 64 on the reference board
	RANGER_PULSE_MICROS = 10    // datasheet minimum trigger width
	RANGER_RISE_TIMEOUT = 188   // ticks; 750µs with no echo rise means no sensor response
	RANGER_FALL_TIMEOUT = 25000 // ticks; an echo high past 100ms is beyond usable range
)

var ERR_BAD_PROFILE = errors.New("ranger profile values must all be positive")

// RangerProfile carries the timing policy for a measurement cycle. The
// two timeouts are tuned per sensor batch, so they are values here
// rather than buried in the wait loops.
type RangerProfile struct {
	TickMicros       uint32
	PulseMicros      uint32
	RiseTimeoutTicks uint16
	FallTimeoutTicks uint16
}

func DefaultRangerProfile() RangerProfile {
	return RangerProfile{
		TickMicros:       RANGER_TICK_MICROS,
		PulseMicros:      RANGER_PULSE_MICROS,
		RiseTimeoutTicks: RANGER_RISE_TIMEOUT,
		FallTimeoutTicks: RANGER_FALL_TIMEOUT,
	}
}

type RangerInterface interface {
	Measure() Measurement
}

// Ranger drives an HC-SR04 style ultrasonic sensor: a trigger output, an
// echo input and a dedicated counter it owns exclusively. Measurements
// are strictly sequential; nothing here is safe for concurrent use.
type Ranger struct {
	counter hwio.Counter
	trigger hwio.DigitalOutput
	echo    hwio.DigitalInput
	profile RangerProfile
	delay   func(us uint32)
}

func NewRanger(counter hwio.Counter, trigger hwio.DigitalOutput, echo hwio.DigitalInput, profile RangerProfile) (r *Ranger, err error) {
	if profile.TickMicros == 0 || profile.PulseMicros == 0 ||
		profile.RiseTimeoutTicks == 0 || profile.FallTimeoutTicks == 0 {
		return nil, ERR_BAD_PROFILE
	}

	if err = counter.Configure(time.Duration(profile.TickMicros) * time.Microsecond); err != nil {
		return
	}

	r = &Ranger{
		counter: counter,
		trigger: trigger,
		echo:    echo,
		profile: profile,
		delay:   hwio.DelayMicros,
	}
	return
}

// Measure runs one ranging cycle and blocks until it resolves: at most
// the trigger width plus the two timeout windows. There is no way to
// cancel a cycle in flight.
func (r *Ranger) Measure() Measurement {
	// trigger pulse at the datasheet width
	r.trigger.High()
	r.delay(r.profile.PulseMicros)
	r.trigger.Low()

	// wait for the sensor to acknowledge with an echo rise
	r.counter.Reset()
	for !r.echo.Read() {
		if r.counter.Ticks() > r.profile.RiseTimeoutTicks {
			return Unknown()
		}
	}

	// time the high period from the edge, not from the trigger
	r.counter.Reset()
	for r.echo.Read() {
		if r.counter.Ticks() > r.profile.FallTimeoutTicks {
			return Infinity()
		}
	}

	return Measured(r.counter.Ticks())
}
