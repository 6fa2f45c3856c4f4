// Package app boots the renderer on a firmware and hands it to the frame
// loop.
package app

import (
	"context"

	"voxos/boot"
	"voxos/clock"
	"voxos/config"
	"voxos/display"
	"voxos/fault"
	"voxos/hal"
	"voxos/input"
	"voxos/internal/buildinfo"
	"voxos/loop"
	"voxos/mem"
	"voxos/render"
	"voxos/world"

	"github.com/dustin/go-humanize"
)

// Options configures Boot. Everything but Config may be left zero.
type Options struct {
	Config config.Config

	// Recorder sees the input of every frame.
	Recorder loop.Recorder
	// Input and Clock replace the devices captured at boot, as a replay
	// does. The devices are still opened.
	Input loop.InputSource
	Clock loop.Clock
	// OnWorld is called with the world before the first frame.
	OnWorld func(*world.World)

	// HoldFault keeps Step returning nil after a fault so a window stays
	// open on the fault screen.
	HoldFault bool
}

// App is a booted system.
type App struct {
	opts Options

	fw      hal.Firmware
	cons    *console
	rt      *boot.Runtime
	arena   *mem.Arena
	surf    *display.Surface
	target  *display.Target
	scratch *mem.Scratch
	loop    *loop.Loop

	stack []byte
	shown bool
}

// Boot runs every boot stage in order and returns a system ready for its
// first frame. On failure the fault is logged and, when the display came
// up, drawn on screen.
func Boot(fw hal.Firmware, opts Options) (*App, error) {
	a := &App{opts: opts, fw: fw, cons: &console{base: fw.Logger()}}
	fault.SetPanicHandler(func(p fault.PanicInfo) { a.stack = p.Stack })
	hal.Logf(a.cons, "%s", buildinfo.String())

	if err := a.boot(); err != nil {
		a.cons.detach()
		a.showFault(err)
		return nil, err
	}
	return a, nil
}

func (a *App) boot() (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fault.FromPanic("boot", v)
		}
	}()
	cfg := a.opts.Config

	ctx, err := boot.Initialize(firmware{Firmware: a.fw, log: a.cons})
	if err != nil {
		return err
	}
	mm, err := ctx.MemoryMap()
	if err != nil {
		return fault.Wrap(fault.KindBootFatal, "boot", err)
	}
	pm, err := ctx.PhysMem()
	if err != nil {
		return fault.Wrap(fault.KindBootFatal, "boot", err)
	}
	a.arena, err = mem.New(mem.RegionsFromMap(mm), pm, a.cons)
	if err != nil {
		return err
	}

	a.surf, err = display.New(ctx, a.arena, cfg.DisplayOptions())
	if err != nil {
		return err
	}
	a.target, err = display.NewTarget(a.surf, a.arena)
	if err != nil {
		return err
	}
	a.cons.attach(a.target)
	info := a.surf.Mode()
	w, h := a.surf.Size()
	hal.Logf(a.cons, "display: %dx%d %s, rendering %dx%d", info.Width, info.Height, info.Format, w, h)

	in := input.New(ctx, w, h, cfg.InputOptions())
	if cfg.Input.RequirePointer && !in.HasPointer() {
		return fault.New(fault.KindBootFatal, "input", "no pointer device")
	}

	a.rt, err = ctx.Finalize(cfg.Handoff.ExitBootServices)
	if err != nil {
		return err
	}
	if a.rt.Exited && cfg.Handoff.ReclaimBootMemory {
		if err := a.arena.Reclaim(mem.RegionsFromMap(a.rt.Map)); err != nil {
			return err
		}
	}

	clk, err := clock.New(a.rt.Services, a.cons)
	if err != nil {
		return err
	}

	wc := cfg.WorldConfig()
	blk, err := a.arena.Allocate(world.StorageSize(wc), 64)
	if err != nil {
		return err
	}
	wld, err := world.New(wc, blk.Bytes)
	if err != nil {
		return fault.Wrap(fault.KindBootFatal, "world", err)
	}
	hal.Logf(a.cons, "world: seed %d, %d×%d×%d chunks", wc.Seed, wc.SizeChunks, wc.HeightChunks, wc.SizeChunks)

	a.scratch, err = mem.NewScratch(a.arena, cfg.Memory.ScratchBytes)
	if err != nil {
		return err
	}
	tables, err := a.arena.Allocate(render.TableSize(w, h), 64)
	if err != nil {
		return err
	}
	rend, err := render.New(w, h, tables.Bytes, a.scratch, cfg.RenderOptions())
	if err != nil {
		return err
	}

	var src loop.InputSource = in
	if a.opts.Input != nil {
		src = a.opts.Input
	}
	var tick loop.Clock = clk
	if a.opts.Clock != nil {
		tick = a.opts.Clock
	}
	if a.opts.OnWorld != nil {
		a.opts.OnWorld(wld)
	}

	a.loop = loop.New(wld, src, tick, a.surf, rend, loop.Options{Logger: a.cons, Recorder: a.opts.Recorder})

	st := a.arena.Stats()
	hal.Logf(a.cons, "arena: %s of %s used in %d blocks", humanize.IBytes(st.Used), humanize.IBytes(st.Total), st.Blocks)
	a.cons.detach()
	return nil
}

// Loop returns the frame loop.
func (a *App) Loop() *loop.Loop { return a.loop }

// Scratch returns the per-frame budget.
func (a *App) Scratch() *mem.Scratch { return a.scratch }

// Status is the firmware status the run ends with.
func (a *App) Status() hal.Status { return a.loop.Status() }

// Step runs one frame. It returns hal.ErrHalt once the loop has stopped,
// after putting a fault on screen.
func (a *App) Step() error {
	st, err := a.loop.Step()
	if !st.Terminal() {
		return nil
	}
	if st == loop.StateFaulted {
		a.showFault(err)
		if a.opts.HoldFault {
			return nil
		}
	}
	return hal.ErrHalt
}

// Run steps until the loop stops or ctx is done.
func (a *App) Run(ctx context.Context) hal.Status {
	if err := a.loop.Run(ctx); err != nil && a.loop.State() == loop.StateFaulted {
		a.showFault(err)
	}
	return a.Status()
}

// Shutdown asks the firmware to power off with status.
func (a *App) Shutdown(status hal.Status) {
	hal.Logf(a.cons, "shutdown: %s", status)
	if a.rt != nil {
		a.rt.Services.ResetSystem(hal.ResetShutdown, status)
		return
	}
	a.fw.Runtime().ResetSystem(hal.ResetShutdown, status)
}

// showFault logs err and draws it once.
func (a *App) showFault(err error) {
	if a.shown || err == nil {
		return
	}
	a.shown = true
	logFault(a.cons, err, a.stack)
	if a.target == nil {
		return
	}
	if derr := drawFault(a.target, err, a.stack); derr != nil {
		hal.Logf(a.cons, "fault screen: %v", derr)
	}
}
