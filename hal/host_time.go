//go:build !tinygo

package hal

import "time"

// hostTimer counts nanoseconds of the host monotonic clock.
type hostTimer struct {
	start time.Time
}

func newHostTimer() *hostTimer {
	return &hostTimer{start: time.Now()}
}

func (t *hostTimer) Counter() uint64 {
	return uint64(time.Since(t.start))
}

func (t *hostTimer) Frequency() uint64 { return uint64(time.Second) }

func (t *hostTimer) Stall(d time.Duration) { time.Sleep(d) }
