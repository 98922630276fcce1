package hwio

import (
	"sync"
	"time"
)

// Sleeping below this is dominated by scheduler jitter, so short pulse
// widths spin instead.
const spinCeiling = 200 * time.Microsecond

// DelayMicros waits for the given pulse width. Datasheet-mandated widths
// (a 10µs trigger, a servo phase) sit well under the host's sleep
// granularity and are spun; anything longer sleeps.
func DelayMicros(us uint32) {
	d := time.Duration(us) * time.Microsecond
	if d <= spinCeiling {
		for start := time.Now(); time.Since(start) < d; {
		}
		return
	}
	time.Sleep(d)
}

// MonotonicCounter implements Counter on the host's monotonic clock: the
// tick count is the time since the last reset divided by the configured
// resolution, truncated to 16 bits exactly as the hardware register
// would wrap.
type MonotonicCounter struct {
	tick  time.Duration
	epoch time.Time
}

func NewMonotonicCounter(tick time.Duration) (c *MonotonicCounter, err error) {
	c = new(MonotonicCounter)
	if err = c.Configure(tick); err != nil {
		return nil, err
	}
	return
}

func (c *MonotonicCounter) Configure(tick time.Duration) error {
	if tick <= 0 {
		return ERR_BAD_RESOLUTION
	}
	c.tick = tick
	c.epoch = time.Now()
	return nil
}

func (c *MonotonicCounter) Reset() {
	c.epoch = time.Now()
}

func (c *MonotonicCounter) Ticks() uint16 {
	return uint16(time.Since(c.epoch) / c.tick)
}

// TickerTimer implements IntervalTimer with a time.Ticker serviced by a
// dedicated goroutine, the host stand-in for an interrupt context.
type TickerTimer struct {
	mu     sync.Mutex
	ticker *time.Ticker
	done   chan struct{}
}

func (t *TickerTimer) Start(period time.Duration, fn func()) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if period <= 0 {
		return ERR_BAD_PERIOD
	}
	if t.ticker != nil {
		return ERR_TIMER_RUNNING
	}

	t.ticker = time.NewTicker(period)
	t.done = make(chan struct{})
	go t.run(t.ticker, t.done, fn)

	return nil
}

func (t *TickerTimer) run(ticker *time.Ticker, done chan struct{}, fn func()) {
	for {
		select {
		case <-ticker.C:
			fn()
		case <-done:
			return
		}
	}
}

func (t *TickerTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ticker == nil {
		return
	}
	t.ticker.Stop()
	close(t.done)
	t.ticker = nil
}
