//go:build tinygo

package hal

import "time"

// New returns the TinyGo firmware. There is no UEFI binding for TinyGo,
// so the image runs on the in-process firmware with the runtime clock.
func New() *Sim {
	cfg := DefaultSimConfig()
	cfg.Timer = &tinyGoTimer{start: time.Now()}
	cfg.Logger = tinyGoLogger{}
	cfg.RetainInput = true
	return NewSim(cfg)
}

type tinyGoTimer struct {
	start time.Time
}

func (t *tinyGoTimer) Counter() uint64       { return uint64(time.Since(t.start)) }
func (t *tinyGoTimer) Frequency() uint64     { return uint64(time.Second) }
func (t *tinyGoTimer) Stall(d time.Duration) { time.Sleep(d) }

type tinyGoLogger struct{}

func (tinyGoLogger) WriteLineString(s string) { println(s) }
func (tinyGoLogger) WriteLineBytes(b []byte)  { println(string(b)) }
