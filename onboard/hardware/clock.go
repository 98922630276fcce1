package hardware

import (
	"errors"
	"sync"
	"time"

	"github.com/roverlabs/gorover/onboard/hwio"
)

const (
	// Reference timing for the stock 16MHz board: a compare match every
	// PRESCALER*TIMER_COUNTS cycles lands exactly on the millisecond.
	CPU_FREQ_KHZ       = 16000
	CLOCK_PRESCALER    = 64
	CLOCK_TIMER_COUNTS = 250

	// Milliseconds added per compare match. Integer division, so divisor
	// pairs that don't land on a whole millisecond truncate.
	MILLIS_INCREMENT = CLOCK_PRESCALER * CLOCK_TIMER_COUNTS / CPU_FREQ_KHZ
)

var (
	ERR_BAD_PRESCALER = errors.New("prescaler must be 8, 64, 256 or 1024")
	ERR_BAD_COUNTS    = errors.New("timer counts must fit the 8-bit compare register")
	ERR_CLOCK_RUNNING = errors.New("clock is already running")
)

// millisCell holds the shared millisecond count. The timer goroutine and
// callers race on it, so every access goes through these three accessors
// and nothing else touches the field.
type millisCell struct {
	lock   sync.Mutex
	millis uint64
}

func (m *millisCell) get() (ms uint64) {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.millis
}

func (m *millisCell) add(n uint64) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.millis += n
}

func (m *millisCell) zero() {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.millis = 0
}

// Clock counts milliseconds off a periodic compare-match interval, the
// same way the stock board derives millis from TIMER0.
type Clock struct {
	timer     hwio.IntervalTimer
	counter   millisCell
	increment uint64
	period    time.Duration
	running   bool
}

func NewClock(timer hwio.IntervalTimer, prescaler, timerCounts uint32) (c *Clock, err error) {
	// the hardware only has divisor bits for these four
	switch prescaler {
	case 8, 64, 256, 1024:
	default:
		return nil, ERR_BAD_PRESCALER
	}

	if timerCounts == 0 || timerCounts > 0xFF {
		return nil, ERR_BAD_COUNTS
	}

	cycles := uint64(prescaler) * uint64(timerCounts)
	c = &Clock{
		timer:     timer,
		increment: cycles / CPU_FREQ_KHZ,
		period:    time.Duration(cycles*1000/CPU_FREQ_KHZ) * time.Microsecond,
	}
	return
}

// Init zeroes the counter and arms the compare-match interval. Calling it
// again without Stop is an error.
func (c *Clock) Init() (err error) {
	if c.running {
		return ERR_CLOCK_RUNNING
	}

	c.counter.zero()

	if err = c.timer.Start(c.period, c.tick); err != nil {
		return
	}
	c.running = true
	return
}

// Now returns milliseconds since Init or the last Reset.
func (c *Clock) Now() uint64 {
	return c.counter.get()
}

// Reset rewinds the count to zero without disturbing the timer. A fire
// already in flight lands after the reset, which is fine.
func (c *Clock) Reset() {
	c.counter.zero()
}

func (c *Clock) Stop() {
	if !c.running {
		return
	}
	c.timer.Stop()
	c.running = false
}

func (c *Clock) tick() {
	c.counter.add(c.increment)
}
