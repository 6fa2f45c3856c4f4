//go:build !tinygo

package hal

import (
	"fmt"
	"os"
	"sync"
)

// HostOptions sizes the firmware that backs host runs.
type HostOptions struct {
	MemoryBytes uint64
	// Width and Height add a mode of that size when it is not already
	// one of the default modes, and make it current.
	Width  int
	Height int
	// Keyboard reports releases (window backend) instead of strokes only.
	KeyRelease bool
}

// New returns a host firmware with default options.
func New() *Sim {
	return NewHost(HostOptions{})
}

// NewHost returns a firmware backed by the host: stdout console and the
// monotonic clock. Input stays usable after the handoff because the
// window keeps delivering events.
func NewHost(opts HostOptions) *Sim {
	cfg := DefaultSimConfig()
	if opts.MemoryBytes > 0 {
		cfg.MemoryBytes = opts.MemoryBytes
	}
	if opts.Width > 0 && opts.Height > 0 {
		cfg.Mode = -1
		for i, m := range cfg.Modes {
			if m.Width == opts.Width && m.Height == opts.Height {
				cfg.Mode = i
			}
		}
		if cfg.Mode < 0 {
			cfg.Modes = append(cfg.Modes, ModeInfo{Width: opts.Width, Height: opts.Height, Stride: opts.Width, Format: PixelBGRReserved8})
			cfg.Mode = len(cfg.Modes) - 1
		}
	}
	cfg.KeyRelease = opts.KeyRelease
	cfg.RetainInput = true
	cfg.Timer = newHostTimer()
	cfg.Logger = &hostLogger{w: os.Stdout}
	return NewSim(cfg)
}

type hostLogger struct {
	mu sync.Mutex
	w  *os.File
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}
