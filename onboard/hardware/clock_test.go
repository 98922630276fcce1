package hardware

import (
	"testing"
	"time"

	"github.com/roverlabs/gorover/onboard/hwio"
	. "github.com/smartystreets/goconvey/convey"
)

type testTimer struct {
	period time.Duration
	fn     func()
	armed  bool
	stops  int
}

func (t *testTimer) Start(period time.Duration, fn func()) error {
	if t.armed {
		return hwio.ERR_TIMER_RUNNING
	}
	t.period = period
	t.fn = fn
	t.armed = true
	return nil
}

func (t *testTimer) Stop() {
	t.armed = false
	t.stops++
}

// fire stands in for n compare-match interrupts
func (t *testTimer) fire(n int) {
	for i := 0; i < n; i++ {
		t.fn()
	}
}

func TestNewClock(t *testing.T) {
	Convey("rejects a prescaler the hardware has no divisor bits for", t, func() {
		_, err := NewClock(&testTimer{}, 100, CLOCK_TIMER_COUNTS)
		So(err, ShouldEqual, ERR_BAD_PRESCALER)
	})

	Convey("rejects counts beyond the 8-bit compare register", t, func() {
		_, err := NewClock(&testTimer{}, CLOCK_PRESCALER, 300)
		So(err, ShouldEqual, ERR_BAD_COUNTS)

		_, err = NewClock(&testTimer{}, CLOCK_PRESCALER, 0)
		So(err, ShouldEqual, ERR_BAD_COUNTS)
	})

	Convey("reference divisor works out to one millisecond per fire", t, func() {
		So(MILLIS_INCREMENT, ShouldEqual, 1)
	})
}

func TestClock(t *testing.T) {
	Convey("with the reference divisor", t, func() {
		timer := &testTimer{}
		clock, err := NewClock(timer, CLOCK_PRESCALER, CLOCK_TIMER_COUNTS)
		So(err, ShouldBeNil)

		Convey("init arms the timer and starts from zero", func() {
			err := clock.Init()
			So(err, ShouldBeNil)
			So(timer.armed, ShouldBeTrue)
			So(timer.period, ShouldEqual, time.Millisecond)
			So(clock.Now(), ShouldEqual, 0)

			Convey("a second init fails", func() {
				So(clock.Init(), ShouldEqual, ERR_CLOCK_RUNNING)
			})

			Convey("count advances by MILLIS_INCREMENT per fire", func() {
				timer.fire(250)
				So(clock.Now(), ShouldEqual, 250*MILLIS_INCREMENT)
			})

			Convey("reset rewinds to zero and counting continues", func() {
				timer.fire(42)
				clock.Reset()
				So(clock.Now(), ShouldEqual, 0)

				timer.fire(3)
				So(clock.Now(), ShouldEqual, 3*MILLIS_INCREMENT)
			})

			Convey("stop disarms the timer", func() {
				clock.Stop()
				So(timer.armed, ShouldBeFalse)

				Convey("and init can arm it again", func() {
					timer.fire(0) // no-op, fn still present
					So(clock.Init(), ShouldBeNil)
					So(clock.Now(), ShouldEqual, 0)
				})
			})
		})
	})
}
