package onboard

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"gopkg.in/yaml.v2"

	deverrors "github.com/roverlabs/gorover/onboard/errors"
	"github.com/roverlabs/gorover/onboard/hardware"
)

const testYaml = `
version: 1
firmware: ">= 1.0.0, < 2.0.0"
pins:
  enable_a: GPIO5
  enable_b: GPIO6
  a1: GPIO7
  a2: GPIO8
  b1: GPIO9
  b2: GPIO11
  servo: GPIO3
  trigger: GPIO25
  echo: GPIO24
  led: GPIO13
  tracker_left: GPIO17
  tracker_center: GPIO27
  tracker_right: GPIO22
clock:
  prescaler: 64
  timer_counts: 250
ranger:
  tick: 4
  rise_timeout: 750
  fall_timeout: 100000
scan:
  start_angle: 0
  end_angle: 180
  step: 30
pilot:
  floor: light
  cruise_mm: 500
  stop_mm: 200
  interval_ms: 25
`

func TestRoverConfigParsing(t *testing.T) {
	var err error
	var config RoverConfig

	Convey("parsing is successful", t, func() {
		err = yaml.Unmarshal([]byte(testYaml), &config)
		So(err, ShouldBeNil)
		So(config.Version, ShouldEqual, 1)

		Convey("pins keep their roles", func() {
			So(config.Pins.EnableA, ShouldEqual, "GPIO5")
			So(config.Pins.B2, ShouldEqual, "GPIO11")
			So(config.Pins.Echo, ShouldEqual, "GPIO24")
			So(config.Pins.TrackerCenter, ShouldEqual, "GPIO27")
		})

		Convey("clock divisor is read", func() {
			prescaler, counts := config.ClockDivisor()
			So(prescaler, ShouldEqual, 64)
			So(counts, ShouldEqual, 250)
		})

		Convey("ranger windows become ticks", func() {
			profile := config.RangerProfile()
			So(profile.TickMicros, ShouldEqual, 4)

			Convey("the pulse width defaults when omitted", func() {
				So(profile.PulseMicros, ShouldEqual, hardware.RANGER_PULSE_MICROS)
			})

			Convey("750µs rounds up to 188 whole ticks", func() {
				So(profile.RiseTimeoutTicks, ShouldEqual, 188)
			})

			Convey("100ms is 25000 ticks", func() {
				So(profile.FallTimeoutTicks, ShouldEqual, 25000)
			})
		})

		Convey("scan and pilot sections are read", func() {
			So(config.ScanSweep().Step, ShouldEqual, 30)
			So(config.PilotPolicy().Floor, ShouldEqual, "light")
			So(config.PilotPolicy().CruiseMM, ShouldEqual, 500)
			So(config.PilotPolicy().IntervalMS, ShouldEqual, 25)
		})
	})
}

func TestRoverConfigDefaults(t *testing.T) {
	var err error
	var config RoverConfig

	Convey("a minimal config picks up reference values", t, func() {
		err = yaml.Unmarshal([]byte("version: 1\npins:\n  servo: GPIO3\n"), &config)
		So(err, ShouldBeNil)

		Convey("ranger falls back to the reference profile", func() {
			So(config.RangerProfile(), ShouldResemble, hardware.DefaultRangerProfile())
		})

		Convey("clock falls back to the reference divisor", func() {
			prescaler, counts := config.ClockDivisor()
			So(prescaler, ShouldEqual, hardware.CLOCK_PRESCALER)
			So(counts, ShouldEqual, hardware.CLOCK_TIMER_COUNTS)
		})

		Convey("scan covers the full arc", func() {
			sweep := config.ScanSweep()
			So(sweep.StartAngle, ShouldEqual, 0)
			So(sweep.EndAngle, ShouldEqual, hardware.SERVO_MAX_ANGLE)
			So(sweep.Step, ShouldEqual, 30)
		})

		Convey("pilot assumes a dark line and sane distances", func() {
			pilot := config.PilotPolicy()
			So(pilot.Floor, ShouldEqual, "dark")
			So(pilot.CruiseMM, ShouldEqual, 400)
			So(pilot.StopMM, ShouldEqual, 150)
			So(pilot.IntervalMS, ShouldEqual, 50)
		})
	})
}

func TestRangerTimingLimits(t *testing.T) {
	var err error
	var config RoverConfig

	Convey("a window past the 16-bit counter is refused", t, func() {
		err = yaml.Unmarshal([]byte("version: 1\nranger:\n  tick: 1\n  fall_timeout: 70000\n"), &config)
		So(err, ShouldNotBeNil)
	})

	Convey("marshalling writes the window back in microseconds", t, func() {
		out, err := yaml.Marshal(RangerTimings{Profile: hardware.DefaultRangerProfile()})
		So(err, ShouldBeNil)

		var yr YAMLRanger
		So(yaml.Unmarshal(out, &yr), ShouldBeNil)
		So(yr.TickMicros, ShouldEqual, 4)

		Convey("as whole ticks, so 188 ticks come back as 752µs", func() {
			So(yr.RiseTimeoutMicros, ShouldEqual, 752)
			So(yr.FallTimeoutMicros, ShouldEqual, 100000)
		})

		Convey("and those survive a round trip", func() {
			var rt RangerTimings
			So(yaml.Unmarshal(out, &rt), ShouldBeNil)
			So(rt.Profile, ShouldResemble, hardware.DefaultRangerProfile())
		})
	})
}

func TestFirmwareGate(t *testing.T) {
	var err error
	var config RoverConfig

	Convey("the firmware gate", t, func() {
		err = yaml.Unmarshal([]byte(testYaml), &config)
		So(err, ShouldBeNil)

		Convey("accepts a version inside the constraint", func() {
			So(config.CheckFirmware("1.2.0"), ShouldBeNil)
		})

		Convey("refuses a version outside it", func() {
			err = config.CheckFirmware("2.1.0")
			So(err, ShouldNotBeNil)
			So(err, ShouldHaveSameTypeAs, deverrors.FirmwareGateError{})
		})

		Convey("lets a dev build through", func() {
			So(config.CheckFirmware("DEV"), ShouldBeNil)
		})

		Convey("is open when the config names no constraint", func() {
			config.Firmware = ""
			So(config.CheckFirmware("0.0.1"), ShouldBeNil)
		})
	})
}
