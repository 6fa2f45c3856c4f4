//go:build !tinygo

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"voxos/app"
	"voxos/config"
	"voxos/fault"
	"voxos/hal"
	"voxos/internal/replay"
	"voxos/world"
)

func main() {
	var (
		run        hal.HeadlessConfig
		configPath string
		recordPath string
		replayPath string
	)
	flag.BoolVar(&run.Enabled, "headless", false, "Run without a window.")
	flag.IntVar(&run.Hz, "hz", 0, "Frame rate in headless mode (0 = loop.target_hz).")
	flag.Uint64Var(&run.Frames, "frames", 0, "Stop after N frames in headless mode (0 = run until exit).")
	flag.BoolVar(&run.TTY, "tty", false, "Read keys from the terminal in headless mode.")
	flag.StringVar(&configPath, "config", "", "YAML config file; VOXOS_* variables override it.")
	flag.StringVar(&recordPath, "record", "", "Record the session to this file.")
	flag.StringVar(&replayPath, "replay", "", "Replay a recorded session instead of reading input.")
	flag.Parse()

	if recordPath != "" && replayPath != "" {
		fatalf("-record and -replay are exclusive")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fatalf("%v", err)
	}
	if run.Hz <= 0 {
		run.Hz = cfg.Loop.TargetHz
	}

	opts := app.Options{Config: cfg, HoldFault: !run.Enabled}
	var closers []func() error

	if replayPath != "" {
		f, err := os.Open(replayPath)
		if err != nil {
			fatalf("open replay: %v", err)
		}
		p, err := replay.NewPlayer(f)
		if err != nil {
			fatalf("%v", err)
		}
		closers = append(closers, func() error {
			p.Close()
			if err := p.Err(); err != nil {
				return err
			}
			fmt.Printf("replay: %d frames matched\n", p.Frames())
			return f.Close()
		})
		opts.Config.SetWorld(p.Header().World)
		opts.Input, opts.Clock = p, p
		opts.OnWorld = func(w *world.World) { p.Verify(w.Digest) }
	}

	if recordPath != "" {
		f, err := os.Create(recordPath)
		if err != nil {
			fatalf("create recording: %v", err)
		}
		var w *world.World
		rec, err := replay.NewRecorder(f, opts.Config.WorldConfig(), func() [32]byte { return w.Digest() })
		if err != nil {
			fatalf("%v", err)
		}
		closers = append(closers, func() error {
			if err := rec.Close(); err != nil {
				return fmt.Errorf("close recording: %w", err)
			}
			fmt.Printf("recorded %d frames to %s\n", rec.Frames(), recordPath)
			return f.Close()
		})
		opts.Recorder = rec
		opts.OnWorld = func(ww *world.World) { w = ww }
	}

	fw := hal.NewHost(hal.HostOptions{
		MemoryBytes: cfg.Memory.MachineBytes,
		Width:       cfg.Display.Width,
		Height:      cfg.Display.Height,
		KeyRelease:  !run.Enabled,
	})
	a, err := app.Boot(fw, opts)
	if err != nil {
		fw.Runtime().ResetSystem(hal.ResetShutdown, fault.StatusOf(err))
		exit(closers, fault.StatusOf(err).ExitCode())
	}

	if run.Enabled {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		err = hal.RunHeadless(ctx, fw, a.Step, run)
		stop()
	} else {
		err = hal.RunWindow(fw, a.Step)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
	}

	status := a.Status()
	a.Shutdown(status)
	exit(closers, status.ExitCode())
}

// exit runs the deferred closers, which os.Exit would skip.
func exit(closers []func() error, code int) {
	for _, c := range closers {
		if err := c(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			if code == 0 {
				code = 1
			}
		}
	}
	os.Exit(code)
}

func fatalf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(2)
}
