// Package hwio is the only layer that touches the host's hardware
// interfaces. Drivers above it consume these interfaces and never see a
// GPIO character device or a clock source directly.
package hwio

import (
	"errors"
	"time"
)

// errors
var (
	ERR_BAD_RESOLUTION = errors.New("unsupported counter tick resolution")
	ERR_BAD_PERIOD     = errors.New("timer period must be positive")
	ERR_TIMER_RUNNING  = errors.New("interval timer is already armed")
)

// Pull selects the input bias for a digital input.
type Pull int

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

type DigitalOutput interface {
	High()
	Low()
	Set(high bool)
}

type DigitalInput interface {
	Read() bool
}

// Counter is a free-running 16-bit hardware counter at a fixed tick
// resolution. It wraps at 65535 like the underlying register; owners
// reset it before a timed phase so the wrap period never matters at the
// configured resolution.
type Counter interface {
	Configure(tick time.Duration) error
	Reset()
	Ticks() uint16
}

// IntervalTimer is a recurring compare-match interrupt source. fn runs
// on the timer's own context and preempts the main context at any
// instruction boundary; state it shares with the main context must be
// guarded by the owner.
type IntervalTimer interface {
	Start(period time.Duration, fn func()) error
	Stop()
}
