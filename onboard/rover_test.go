package onboard

import (
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"gopkg.in/yaml.v2"

	deverrors "github.com/roverlabs/gorover/onboard/errors"
	"github.com/roverlabs/gorover/onboard/hardware"
	"github.com/roverlabs/gorover/onboard/hwio"
)

type MockChassis struct {
	direction hardware.ChassisDirection
	enabledA  bool
	enabledB  bool
}

func (c *MockChassis) SetDirection(direction hardware.ChassisDirection) {
	c.direction = direction
}

func (c *MockChassis) SetEnabled(pairA, pairB bool) {
	c.enabledA, c.enabledB = pairA, pairB
}

type MockServo struct {
	angle uint8
	moves []uint8
}

func (s *MockServo) SetAngle(angle uint8) {
	s.angle = angle
	s.moves = append(s.moves, angle)
}

// MockRanger cycles through its scripted results.
type MockRanger struct {
	results []hardware.Measurement
	calls   int
}

func (r *MockRanger) Measure() hardware.Measurement {
	m := r.results[r.calls%len(r.results)]
	r.calls++
	return m
}

type MockTracker struct {
	pos hardware.LinePosition
}

func (t *MockTracker) MeasureFull() hardware.LinePosition {
	return t.pos
}

func (t *MockTracker) MeasureDirection(direction hardware.TrackerDirection) hardware.LineState {
	switch direction {
	case hardware.TrackerLeft:
		return t.pos.Left
	case hardware.TrackerRight:
		return t.pos.Right
	}
	return t.pos.Mid
}

type MockLed struct {
	on   bool
	sets []bool
}

func (l *MockLed) High()         { l.on = true }
func (l *MockLed) Low()          { l.on = false }
func (l *MockLed) Set(high bool) { l.on = high; l.sets = append(l.sets, high) }

type testTimer struct {
	period time.Duration
	fn     func()
	armed  bool
}

func (t *testTimer) Start(period time.Duration, fn func()) error {
	t.period, t.fn, t.armed = period, fn, true
	return nil
}

func (t *testTimer) Stop() {
	t.armed = false
}

func (t *testTimer) fire(n int) {
	for i := 0; i < n; i++ {
		t.fn()
	}
}

type testRig struct {
	rover   *GPIORover
	chassis *MockChassis
	servo   *MockServo
	ranger  *MockRanger
	tracker *MockTracker
	led     *MockLed
	timer   *testTimer
}

func createTestRover() *testRig {
	var config RoverConfig
	yaml.Unmarshal([]byte(testYaml), &config)

	rig := &testRig{
		chassis: new(MockChassis),
		servo:   new(MockServo),
		ranger:  &MockRanger{results: []hardware.Measurement{hardware.Measured(147)}},
		tracker: &MockTracker{pos: hardware.LinePosition{Left: hardware.Light, Mid: hardware.Dark, Right: hardware.Light}},
		led:     new(MockLed),
		timer:   new(testTimer),
	}

	clock, _ := hardware.NewClock(rig.timer, hardware.CLOCK_PRESCALER, hardware.CLOCK_TIMER_COUNTS)
	clock.Init()

	rig.rover = &GPIORover{
		Clock:    clock,
		Chassis:  rig.chassis,
		Servo:    rig.servo,
		Ranger:   rig.ranger,
		Tracker:  rig.tracker,
		Led:      rig.led,
		config:   &config,
		bias:     hardware.LinePosition.BiasOnDark,
		lock:     new(sync.Mutex),
		panAngle: hardware.SERVO_MAX_ANGLE / 2,
		lastBias: hardware.BiasNotOnLine,
	}
	return rig
}

func TestRoverDrive(t *testing.T) {
	Convey("driving the chassis", t, func() {
		rig := createTestRover()

		Convey("points the pins and powers both pairs", func() {
			So(rig.rover.Drive(hardware.DirectionLeft), ShouldBeNil)
			So(rig.chassis.direction, ShouldEqual, hardware.DirectionLeft)
			So(rig.chassis.enabledA, ShouldBeTrue)
			So(rig.chassis.enabledB, ShouldBeTrue)

			state := rig.rover.State()
			So(state.Moving, ShouldBeTrue)
			So(state.Direction, ShouldEqual, "left")
		})

		Convey("rejects a direction off the lookup table", func() {
			So(rig.rover.Drive(hardware.ChassisDirection(99)), ShouldEqual, hardware.ERR_BAD_DIRECTION)
			So(rig.chassis.enabledA, ShouldBeFalse)
		})

		Convey("halting cuts power but keeps the heading", func() {
			rig.rover.Drive(hardware.DirectionForward)
			rig.rover.Halt()

			So(rig.chassis.enabledA, ShouldBeFalse)
			So(rig.chassis.enabledB, ShouldBeFalse)
			So(rig.chassis.direction, ShouldEqual, hardware.DirectionForward)

			state := rig.rover.State()
			So(state.Moving, ShouldBeFalse)
			So(state.Direction, ShouldEqual, "forward")
		})
	})
}

func TestRoverPan(t *testing.T) {
	Convey("panning the head", t, func() {
		rig := createTestRover()

		Convey("moves the servo and remembers the angle", func() {
			So(rig.rover.Pan(45), ShouldBeNil)
			So(rig.servo.angle, ShouldEqual, 45)
			So(rig.rover.State().PanAngle, ShouldEqual, 45)
		})

		Convey("rejects an angle past the stop", func() {
			err := rig.rover.Pan(181)
			So(err, ShouldNotBeNil)
			So(err, ShouldHaveSameTypeAs, deverrors.AngleRangeError{})
			So(rig.servo.moves, ShouldBeEmpty)
		})
	})
}

func TestRoverRange(t *testing.T) {
	Convey("ranging", t, func() {
		rig := createTestRover()

		Convey("surfaces the measurement and keeps it for telemetry", func() {
			m := rig.rover.Range()
			So(m.IsUnknown(), ShouldBeFalse)

			state := rig.rover.State()
			So(state.Range, ShouldEqual, "1000mm")
			So(state.RangeMM, ShouldEqual, 1000)
			So(state.Ranged, ShouldBeTrue)
		})

		Convey("a lost echo leaves no distance in the state", func() {
			rig.ranger.results = []hardware.Measurement{hardware.Unknown()}
			rig.rover.Range()

			state := rig.rover.State()
			So(state.Range, ShouldEqual, "Ø")
			So(state.Ranged, ShouldBeFalse)
		})
	})
}

func TestRoverTrack(t *testing.T) {
	Convey("tracking the line", t, func() {
		rig := createTestRover()

		Convey("classifies the eyes against the floor", func() {
			pos, bias := rig.rover.Track()
			So(pos, ShouldResemble, hardware.LinePosition{Left: hardware.Light, Mid: hardware.Dark, Right: hardware.Light})
			So(bias, ShouldEqual, hardware.BiasCenter)
			So(rig.rover.State().Line, ShouldEqual, "center")
		})

		Convey("the line under an outer eye biases toward it", func() {
			rig.tracker.pos = hardware.LinePosition{Left: hardware.Dark, Mid: hardware.Light, Right: hardware.Light}
			_, bias := rig.rover.Track()
			So(bias, ShouldEqual, hardware.BiasVeryLeft)
			So(bias.TrackerDirection(), ShouldEqual, hardware.TrackerLeft)
		})

		Convey("a light floor flips the tables", func() {
			rig.rover.bias = hardware.LinePosition.BiasOnLight
			rig.tracker.pos = hardware.LinePosition{Left: hardware.Dark, Mid: hardware.Light, Right: hardware.Dark}
			_, bias := rig.rover.Track()
			So(bias, ShouldEqual, hardware.BiasCenter)
		})
	})
}

func TestRoverScan(t *testing.T) {
	Convey("a scan sweeps the configured arc", t, func() {
		rig := createTestRover()

		points, err := rig.rover.Scan()
		So(err, ShouldBeNil)
		So(points, ShouldHaveLength, 7)

		Convey("stopping every step from start to end", func() {
			So(points[0].Angle, ShouldEqual, 0)
			So(points[3].Angle, ShouldEqual, 90)
			So(points[6].Angle, ShouldEqual, 180)
		})

		Convey("recentering the head afterwards", func() {
			So(rig.servo.moves, ShouldHaveLength, 8)
			So(rig.servo.moves[7], ShouldEqual, 90)
		})

		Convey("projecting measured stops into the chassis frame", func() {
			ahead := points[3]
			So(ahead.Point.Y(), ShouldAlmostEqual, 1000, 0.001)
			So(ahead.Point.X(), ShouldAlmostEqual, 0, 0.001)
		})

		Convey("a stop with no distance projects to the origin", func() {
			rig.ranger.results = []hardware.Measurement{hardware.Infinity()}
			points, err = rig.rover.Scan()
			So(err, ShouldBeNil)
			So(points[3].Result.IsInfinity(), ShouldBeTrue)
			So(points[3].Point.Len(), ShouldEqual, 0)
		})
	})

	Convey("an impossible arc is refused", t, func() {
		rig := createTestRover()

		_, err := scanSweep(rig.rover, ScanConfig{StartAngle: 120, EndAngle: 60, Step: 30})
		So(err, ShouldNotBeNil)
		So(err, ShouldHaveSameTypeAs, deverrors.ScanRangeError{})
		So(rig.servo.moves, ShouldBeEmpty)
	})
}

func TestRoverUptime(t *testing.T) {
	Convey("uptime follows the millisecond clock", t, func() {
		rig := createTestRover()
		So(rig.rover.Uptime(), ShouldEqual, 0)

		rig.timer.fire(25)
		So(rig.rover.Uptime(), ShouldEqual, 25)

		Convey("and can be rewound for cycle pacing", func() {
			rig.rover.ResetUptime()
			So(rig.rover.Uptime(), ShouldEqual, 0)

			rig.timer.fire(3)
			So(rig.rover.Uptime(), ShouldEqual, 3)
		})
	})
}

func TestRoverBlink(t *testing.T) {
	Convey("blinking toggles the status led", t, func() {
		rig := createTestRover()

		rig.rover.Blink()
		rig.rover.Blink()
		So(rig.led.sets, ShouldResemble, []bool{true, false})
	})

	Convey("a chassis without an led just skips it", t, func() {
		rig := createTestRover()
		rig.rover.Led = nil

		So(rig.rover.Blink, ShouldNotPanic)
	})
}

func TestRoverClose(t *testing.T) {
	Convey("closing parks the chassis", t, func() {
		rig := createTestRover()
		rig.rover.Drive(hardware.DirectionForward)
		rig.rover.Blink()

		So(rig.rover.Close(), ShouldBeNil)
		So(rig.chassis.enabledA, ShouldBeFalse)
		So(rig.chassis.enabledB, ShouldBeFalse)
		So(rig.timer.armed, ShouldBeFalse)
		So(rig.led.on, ShouldBeFalse)
	})
}

func TestNewGPIORoverGates(t *testing.T) {
	Convey("construction stops before touching pins", t, func() {
		Convey("when the config demands different firmware", func() {
			config := &RoverConfig{Version: 1, Firmware: "< 1.0.0"}
			_, err := NewGPIORover(config)
			So(err, ShouldNotBeNil)
			So(err, ShouldHaveSameTypeAs, deverrors.FirmwareGateError{})
		})

		Convey("when the config generation is unknown", func() {
			_, err := NewGPIORover(&RoverConfig{Version: 3})
			So(err, ShouldHaveSameTypeAs, deverrors.ConfigVersionError{})
		})
	})

	Convey("every pin must be named for its role", t, func() {
		_, err := outputPin("", "chassis enable_a")
		So(err, ShouldHaveSameTypeAs, deverrors.PinRoleError{})
		So(err.Error(), ShouldContainSubstring, "enable_a")

		_, err = inputPin("", "ranger echo", hwio.PullUp)
		So(err, ShouldHaveSameTypeAs, deverrors.PinRoleError{})
	})
}
