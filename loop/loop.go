// Package loop drives the application: every iteration samples the
// clock and the input, steps the world, draws and presents one frame,
// until the world asks to exit or a fault stops it.
package loop

import (
	"context"
	"time"

	"voxos/clock"
	"voxos/display"
	"voxos/fault"
	"voxos/hal"
	"voxos/input"
	"voxos/render"
	"voxos/world"
)

// State is the loop's lifecycle state.
type State uint8

const (
	StateBooting State = iota
	StateRunning
	StateExitRequested
	StateFaulted
)

func (s State) String() string {
	switch s {
	case StateBooting:
		return "booting"
	case StateRunning:
		return "running"
	case StateExitRequested:
		return "exit-requested"
	case StateFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// Terminal reports whether the loop has stopped for good.
func (s State) Terminal() bool { return s == StateExitRequested || s == StateFaulted }

// InputSource is sampled once per frame.
type InputSource interface {
	Poll(now time.Duration) input.State
}

// Clock measures the time between frames.
type Clock interface {
	Tick() clock.Timing
}

// Surface is the frame protocol of the display.
type Surface interface {
	BeginFrame() display.Frame
	EndFrame() error
	DropFrame()
	Present() error
}

// Renderer draws the world into a frame.
type Renderer interface {
	Draw(w *world.World, f display.Frame, hud render.HUD) error
}

// Recorder sees the input and delta of every frame before the world
// steps, so a run can be replayed.
type Recorder interface {
	Record(in input.State, dt time.Duration) error
}

// Options configures a Loop. Logger and Recorder may be nil.
type Options struct {
	Logger   hal.Logger
	Recorder Recorder
}

// Stats counts what the loop has done so far.
type Stats struct {
	Frames    uint64
	Dropped   uint64
	Ticks     uint64
	LastDelta time.Duration
	FPS       int
}

// Loop owns the world for the rest of the run.
type Loop struct {
	w     *world.World
	in    InputSource
	clk   Clock
	surf  Surface
	rend  Renderer
	log   hal.Logger
	rec   Recorder
	state State
	err   error
	stats Stats

	debug    bool
	prevKeys input.Keys

	fpsStart  time.Duration
	fpsFrames int
}

// New returns a loop in StateBooting. The first Step moves it to
// StateRunning.
func New(w *world.World, in InputSource, clk Clock, s Surface, r Renderer, opts Options) *Loop {
	return &Loop{
		w:    w,
		in:   in,
		clk:  clk,
		surf: s,
		rend: r,
		log:  opts.Logger,
		rec:  opts.Recorder,
	}
}

func (l *Loop) State() State { return l.state }

// Err returns the fault that stopped the loop, if any.
func (l *Loop) Err() error { return l.err }

func (l *Loop) Stats() Stats { return l.stats }

// World returns the world the loop steps.
func (l *Loop) World() *world.World { return l.w }

// Status is the firmware status to return from the image entry point.
func (l *Loop) Status() hal.Status { return fault.StatusOf(l.err) }

// Step runs one frame. Once the loop has stopped, Step returns the
// final state and fault without doing anything. A panic inside the frame
// becomes a logic fault.
func (l *Loop) Step() (st State, err error) {
	if l.state.Terminal() {
		return l.state, l.err
	}
	if l.state == StateBooting {
		l.state = StateRunning
		hal.Logf(l.log, "loop: running")
	}

	defer func() {
		if v := recover(); v != nil {
			st, err = l.fail(fault.FromPanic("loop", v))
		}
	}()

	timing := l.clk.Tick()
	in := l.in.Poll(timing.Now)
	if l.rec != nil {
		if err := l.rec.Record(in, timing.Delta); err != nil {
			hal.Logf(l.log, "loop: recorder stopped: %v", err)
			l.rec = nil
		}
	}

	if in.Keys&^l.prevKeys&input.KeyDebug != 0 {
		l.debug = !l.debug
	}
	l.prevKeys = in.Keys

	ev := l.w.Step(in, timing.Delta)
	l.stats.Ticks += uint64(ev.Ticks)
	l.stats.LastDelta = timing.Delta
	if ev.Exit {
		l.state = StateExitRequested
		hal.Logf(l.log, "loop: exit requested after %d frames", l.stats.Frames)
		return l.state, nil
	}

	f := l.surf.BeginFrame()
	hud := render.HUD{FPS: l.stats.FPS, Dropped: l.stats.Dropped, Debug: l.debug}
	if err := l.rend.Draw(l.w, f, hud); err != nil {
		l.surf.DropFrame()
		if !fault.Recoverable(err) {
			return l.fail(err)
		}
		if l.stats.Dropped == 0 {
			hal.Logf(l.log, "loop: dropping frame: %v", err)
		}
		l.stats.Dropped++
		return l.state, nil
	}
	if err := l.surf.EndFrame(); err != nil {
		return l.fail(err)
	}
	if err := l.surf.Present(); err != nil {
		return l.fail(err)
	}
	l.stats.Frames++
	l.countFPS(timing.Now)
	return l.state, nil
}

func (l *Loop) fail(err error) (State, error) {
	l.state = StateFaulted
	l.err = err
	hal.Logf(l.log, "loop: %s fault: %v", fault.KindOf(err), err)
	return l.state, err
}

func (l *Loop) countFPS(now time.Duration) {
	l.fpsFrames++
	if elapsed := now - l.fpsStart; elapsed >= time.Second {
		l.stats.FPS = int(time.Duration(l.fpsFrames) * time.Second / elapsed)
		l.fpsStart = now
		l.fpsFrames = 0
	}
}

// Run steps until the loop stops or ctx is done. It returns nil on a
// requested exit, the fault otherwise.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		st, err := l.Step()
		if st.Terminal() {
			return err
		}
	}
}
