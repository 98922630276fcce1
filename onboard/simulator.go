package onboard

import (
	"math/rand"
	"sync"
	"time"

	deverrors "github.com/roverlabs/gorover/onboard/errors"
	"github.com/roverlabs/gorover/onboard/hardware"
	"github.com/roverlabs/gorover/onboard/hwio"
)

const (
	SIM_DELTA    = 40 // mm of random walk per update
	SIM_INTERVAL = time.Second / 10

	SIM_MIN_MM = 30   // closest the walk can get
	SIM_MAX_MM = 3000 // beyond this the sensor would see nothing come back

	SIM_DROPOUT = 50 // one update in this many loses the sensor entirely
)

// SimulatedRover stands in for the chassis when there is no hardware:
// the obstacle ahead random-walks, the line under the chassis drifts
// across the eyes, and uptime runs on a real Clock. The simulated mat is
// a dark line on a light floor.
type SimulatedRover struct {
	clock *hardware.Clock
	scan  ScanConfig

	lock        *sync.Mutex
	rangeMM     int
	offset      int // where the line sits relative to the eyes
	dropout     bool
	direction   hardware.ChassisDirection
	moving      bool
	panAngle    uint8
	lastMeasure hardware.Measurement
	lastBias    hardware.LineBias
	done        chan struct{}
	closed      bool
}

func NewSimulatedRover(config *RoverConfig) (s *SimulatedRover, err error) {
	switch config.Version {
	case 1:
	default:
		return nil, deverrors.ConfigVersionError{Version: config.Version}
	}

	prescaler, counts := config.ClockDivisor()
	clock, err := hardware.NewClock(new(hwio.TickerTimer), prescaler, counts)
	if err != nil {
		return
	}
	if err = clock.Init(); err != nil {
		return
	}

	s = &SimulatedRover{
		clock:    clock,
		scan:     config.ScanSweep(),
		lock:     new(sync.Mutex),
		rangeMM:  1000,
		panAngle: hardware.SERVO_MAX_ANGLE / 2,
		lastBias: hardware.BiasNotOnLine,
		done:     make(chan struct{}),
	}

	go s.update()
	return
}

func (s *SimulatedRover) update() {
	for {
		select {
		case <-s.done:
			return
		case <-time.After(SIM_INTERVAL):
		}
		s.step()
	}
}

// step advances the walks once. Separate from update so tests can drive
// time themselves.
func (s *SimulatedRover) step() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.rangeMM += rand.Intn(SIM_DELTA*2) - SIM_DELTA
	if s.moving {
		// driving forward closes on the obstacle, backing off opens it
		switch s.direction {
		case hardware.DirectionForward:
			s.rangeMM -= SIM_DELTA
		case hardware.DirectionBackward:
			s.rangeMM += SIM_DELTA
		}
	}
	if s.rangeMM < SIM_MIN_MM {
		s.rangeMM = SIM_MIN_MM
	}

	s.offset += rand.Intn(3) - 1
	if s.offset < -3 {
		s.offset = -3
	}
	if s.offset > 3 {
		s.offset = 3
	}

	s.dropout = rand.Intn(SIM_DROPOUT) == 0
}

func (s *SimulatedRover) Drive(direction hardware.ChassisDirection) error {
	if direction > hardware.DirectionRight {
		return hardware.ERR_BAD_DIRECTION
	}

	s.lock.Lock()
	s.direction = direction
	s.moving = true
	s.lock.Unlock()
	return nil
}

func (s *SimulatedRover) Halt() {
	s.lock.Lock()
	s.moving = false
	s.lock.Unlock()
}

func (s *SimulatedRover) Pan(angle uint8) error {
	if angle > hardware.SERVO_MAX_ANGLE {
		return deverrors.AngleRangeError{Angle: int(angle)}
	}

	s.lock.Lock()
	s.panAngle = angle
	s.lock.Unlock()
	return nil
}

func (s *SimulatedRover) Range() hardware.Measurement {
	s.lock.Lock()
	defer s.lock.Unlock()

	var m hardware.Measurement
	switch {
	case s.dropout:
		m = hardware.Unknown()
	case s.rangeMM > SIM_MAX_MM:
		m = hardware.Infinity()
	default:
		// back through the tick conversion so consumers see the same
		// truncation a real measurement has
		m = hardware.Measured(uint16(uint64(s.rangeMM) * 1000 / hardware.UM_PER_TICK))
	}

	s.lastMeasure = m
	return m
}

func (s *SimulatedRover) Scan() ([]ScanPoint, error) {
	return scanSweep(s, s.scan)
}

func (s *SimulatedRover) Track() (pos hardware.LinePosition, bias hardware.LineBias) {
	s.lock.Lock()
	defer s.lock.Unlock()

	switch s.offset {
	case -2:
		pos = hardware.LinePosition{Left: hardware.Dark, Mid: hardware.Light, Right: hardware.Light}
	case -1:
		pos = hardware.LinePosition{Left: hardware.Dark, Mid: hardware.Dark, Right: hardware.Light}
	case 0:
		pos = hardware.LinePosition{Left: hardware.Light, Mid: hardware.Dark, Right: hardware.Light}
	case 1:
		pos = hardware.LinePosition{Left: hardware.Light, Mid: hardware.Dark, Right: hardware.Dark}
	case 2:
		pos = hardware.LinePosition{Left: hardware.Light, Mid: hardware.Light, Right: hardware.Dark}
	default:
		pos = hardware.LinePosition{Left: hardware.Light, Mid: hardware.Light, Right: hardware.Light}
	}

	bias = pos.BiasOnDark()
	s.lastBias = bias
	return
}

func (s *SimulatedRover) Uptime() uint64 {
	return s.clock.Now()
}

func (s *SimulatedRover) ResetUptime() {
	s.clock.Reset()
}

func (s *SimulatedRover) Blink() {}

func (s *SimulatedRover) State() (state RoverState) {
	s.lock.Lock()
	defer s.lock.Unlock()

	state = RoverState{
		Direction: s.direction.String(),
		Moving:    s.moving,
		PanAngle:  s.panAngle,
		Range:     s.lastMeasure.String(),
		Line:      s.lastBias.String(),
		UptimeMS:  s.clock.Now(),
		Firmware:  FIRMWARE_VERSION,
	}

	if d, ok := s.lastMeasure.Distance(); ok {
		state.RangeMM = d.Millimeters()
		state.Ranged = true
	}

	return
}

func (s *SimulatedRover) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	s.clock.Stop()
	return nil
}
