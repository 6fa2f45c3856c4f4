//go:build !tinygo

package hal

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	Enabled bool
	Hz      int
	// Frames stops the run after N steps (0 = run until halted).
	Frames uint64
	// TTY feeds keystrokes from the controlling terminal.
	TTY bool
}

// RunHeadless drives step at a fixed rate without opening a window.
func RunHeadless(ctx context.Context, fw *Sim, step func() error, cfg HeadlessConfig) error {
	if cfg.Hz <= 0 {
		cfg.Hz = 60
	}
	d := time.Second / time.Duration(cfg.Hz)
	if d <= 0 {
		return fmt.Errorf("invalid headless hz: %d", cfg.Hz)
	}

	if cfg.TTY {
		stop, err := startTTYKeyboard(fw)
		if err != nil {
			return fmt.Errorf("open tty: %w", err)
		}
		defer stop()
	}

	t := time.NewTicker(d)
	defer t.Stop()

	var frames uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if err := step(); err != nil {
				if errors.Is(err, ErrHalt) {
					return nil
				}
				return err
			}
			frames++
			if cfg.Frames > 0 && frames >= cfg.Frames {
				return nil
			}
		}
	}
}
