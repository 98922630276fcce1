package onboard

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/roverlabs/gorover/onboard/hardware"
)

const (
	PILOT_TURN_MS uint64 = 400   // how long a corrective turn runs
	PILOT_FAR_MM  uint64 = 10000 // stands in for a reading with nothing in range
)

var ERR_PILOT_RUNNING = errors.New("pilot is already engaged")

// Pilot drives the rover on its own. It runs one mode at a time and
// paces itself on the rover's millisecond clock rather than wall time,
// resetting uptime at the top of each cycle the way the firmware demo
// loops did.
type Pilot struct {
	rover Rover
	cfg   PilotConfig

	lock    *sync.Mutex
	running bool
	stop    chan struct{}

	cruising bool // touched only by the run goroutine
}

func NewPilot(rover Rover, cfg PilotConfig) *Pilot {
	return &Pilot{
		rover: rover,
		cfg:   cfg,
		lock:  new(sync.Mutex),
	}
}

// Roam wanders forward until something gets close, then scans for the
// clearest side and turns toward it.
func (p *Pilot) Roam() error {
	return p.engage("roam", p.roamCycle)
}

// FollowLine steers to keep the middle eye over the line and halts when
// the line disappears.
func (p *Pilot) FollowLine() error {
	return p.engage("follow_line", p.followCycle)
}

func (p *Pilot) engage(mode string, cycle func()) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.running {
		return ERR_PILOT_RUNNING
	}
	p.running = true
	p.stop = make(chan struct{})
	p.cruising = false

	log.Info().Str("mode", mode).Msg("pilot engaged")
	go p.run(mode, cycle)
	return nil
}

func (p *Pilot) Stop() {
	p.lock.Lock()
	defer p.lock.Unlock()

	if !p.running {
		return
	}
	p.running = false
	close(p.stop)
}

func (p *Pilot) Running() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.running
}

func (p *Pilot) run(mode string, cycle func()) {
	defer func() {
		p.rover.Halt()
		p.lock.Lock()
		p.running = false
		p.lock.Unlock()
		log.Info().Str("mode", mode).Msg("pilot disengaged")
	}()

	for {
		select {
		case <-p.stop:
			return
		default:
		}

		cycle()
		p.rover.Blink()

		if !p.wait(p.cfg.IntervalMS) {
			return
		}
	}
}

// wait holds until the rover's clock has counted ms milliseconds, or
// the pilot is stopped.
func (p *Pilot) wait(ms uint64) bool {
	p.rover.ResetUptime()
	for p.rover.Uptime() < ms {
		select {
		case <-p.stop:
			return false
		default:
			time.Sleep(time.Millisecond)
		}
	}
	return true
}

func (p *Pilot) roamCycle() {
	m := p.rover.Range()
	if m.IsUnknown() {
		if p.cruising {
			log.Warn().Msg("no echo came back, holding position")
		}
		p.rover.Halt()
		p.cruising = false
		return
	}

	mm := headroom(m)
	switch {
	case mm <= p.cfg.StopMM:
		p.rover.Halt()
		p.cruising = false

		log.Info().Uint64("mm", mm).Msg("obstacle ahead, scanning")
		points, err := p.rover.Scan()
		if err != nil {
			log.Error().Err(err).Msg("scan failed")
			return
		}

		turn := pickTurn(points)
		log.Info().Str("turn", turn.String()).Msg("turning toward open ground")
		if err = p.rover.Drive(turn); err != nil {
			log.Error().Err(err).Msg("turn failed")
			return
		}
		if !p.wait(PILOT_TURN_MS) {
			return
		}
		p.rover.Halt()

	case !p.cruising && mm >= p.cfg.CruiseMM:
		// hysteresis: once halted we wait for cruise clearance, not
		// just stop clearance, so the chassis doesn't chatter
		log.Info().Uint64("mm", mm).Msg("way ahead clear, driving")
		if err := p.rover.Drive(hardware.DirectionForward); err != nil {
			log.Error().Err(err).Msg("drive failed")
			return
		}
		p.cruising = true
	}
}

func (p *Pilot) followCycle() {
	_, bias := p.rover.Track()

	if bias == hardware.BiasNotOnLine {
		if p.cruising {
			log.Warn().Msg("line lost, halting")
		}
		p.rover.Halt()
		p.cruising = false
		return
	}

	var direction hardware.ChassisDirection
	switch bias.TrackerDirection() {
	case hardware.TrackerLeft:
		direction = hardware.DirectionLeft
	case hardware.TrackerRight:
		direction = hardware.DirectionRight
	default:
		// centered, or a perpendicular crossing we drive straight over
		direction = hardware.DirectionForward
	}

	if err := p.rover.Drive(direction); err != nil {
		log.Error().Err(err).Msg("drive failed")
		return
	}
	p.cruising = true
}

// headroom flattens a measurement to millimetres of clear space.
func headroom(m hardware.Measurement) uint64 {
	if m.IsInfinity() {
		return PILOT_FAR_MM
	}
	if d, ok := m.Distance(); ok {
		return d.Millimeters()
	}
	return 0
}

// pickTurn finds the more open side of a sweep. Angle 0 is the
// right-hand end of the arc, 180 the left.
func pickTurn(points []ScanPoint) hardware.ChassisDirection {
	var left, right uint64
	for _, pt := range points {
		mm := headroom(pt.Result)
		switch {
		case pt.Angle < 90:
			if mm > right {
				right = mm
			}
		case pt.Angle > 90:
			if mm > left {
				left = mm
			}
		}
	}

	if left > right {
		return hardware.DirectionLeft
	}
	return hardware.DirectionRight
}
