// Package clock turns the firmware timer counter into a monotonic time
// since boot.
package clock

import (
	"math/bits"
	"time"

	"voxos/fault"
	"voxos/hal"
)

// CalibrationWindow is how long the counter is measured against a
// firmware stall when the timer cannot report its frequency.
const CalibrationWindow = 10 * time.Millisecond

// Timing is the clock sample of one frame.
type Timing struct {
	Now   time.Duration
	Delta time.Duration
}

// Clock converts counter ticks to durations. Time is always derived
// from the total count since start, so rounding never accumulates.
type Clock struct {
	timer hal.Timer
	freq  uint64
	start uint64

	last     time.Duration
	lastTick time.Duration
	ticked   bool
}

// New builds a clock over the runtime timer, calibrating it first if the
// frequency is unknown.
func New(rt hal.RuntimeServices, l hal.Logger) (*Clock, error) {
	if rt == nil || rt.Timer() == nil {
		return nil, fault.New(fault.KindBootFatal, "clock", "no timer")
	}
	t := rt.Timer()
	freq := t.Frequency()
	calibrated := false
	if freq == 0 {
		c0 := t.Counter()
		rt.Stall(CalibrationWindow)
		c1 := t.Counter()
		freq = (c1 - c0) * uint64(time.Second/CalibrationWindow)
		calibrated = true
	}
	if freq == 0 {
		return nil, fault.New(fault.KindBootFatal, "clock", "timer does not advance")
	}
	c := &Clock{timer: t, freq: freq, start: t.Counter()}
	if calibrated {
		hal.Logf(l, "clock: %d Hz (calibrated over %v)", freq, CalibrationWindow)
	} else {
		hal.Logf(l, "clock: %d Hz", freq)
	}
	return c, nil
}

// Frequency returns the counter rate in Hz.
func (c *Clock) Frequency() uint64 { return c.freq }

// Now returns the time since the clock was created. It never decreases.
func (c *Clock) Now() time.Duration {
	counts := c.timer.Counter() - c.start
	hi, lo := bits.Mul64(counts, uint64(time.Second))
	var ns uint64
	if hi >= c.freq {
		ns = 1<<63 - 1
	} else {
		ns, _ = bits.Div64(hi, lo, c.freq)
		if ns > 1<<63-1 {
			ns = 1<<63 - 1
		}
	}
	now := time.Duration(ns)
	if now < c.last {
		now = c.last
	}
	c.last = now
	return now
}

// Since returns the time elapsed since t.
func (c *Clock) Since(t time.Duration) time.Duration {
	d := c.Now() - t
	if d < 0 {
		return 0
	}
	return d
}

// Tick samples the clock for a frame. The first tick has zero delta.
func (c *Clock) Tick() Timing {
	now := c.Now()
	var d time.Duration
	if c.ticked {
		d = now - c.lastTick
	}
	c.ticked = true
	c.lastTick = now
	return Timing{Now: now, Delta: d}
}
