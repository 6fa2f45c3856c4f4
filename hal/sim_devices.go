package hal

import (
	"math/bits"
	"sync"
	"time"
)

const simKeyQueue = 64

type simGOP struct {
	s     *Sim
	modes []ModeInfo
	mode  int
	fb    []byte

	front     []byte
	frontInfo ModeInfo
	presents  uint64
	lost      bool
}

func (g *simGOP) setModeLocked(mode int) {
	info := g.modes[mode]
	g.mode = mode
	g.fb = make([]byte, info.Stride*info.Height*BytesPerPixel)
}

func (g *simGOP) MaxMode() int { return len(g.modes) }

func (g *simGOP) QueryMode(mode int) (ModeInfo, error) {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()
	if g.s.exited {
		return ModeInfo{}, ErrServicesExited
	}
	if mode < 0 || mode >= len(g.modes) {
		return ModeInfo{}, ErrInvalidMode
	}
	return g.modes[mode], nil
}

func (g *simGOP) SetMode(mode int) error {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()
	if g.s.exited {
		return ErrServicesExited
	}
	if g.lost {
		return ErrDeviceLost
	}
	if mode < 0 || mode >= len(g.modes) {
		return ErrInvalidMode
	}
	g.setModeLocked(mode)
	g.s.key++
	return nil
}

func (g *simGOP) Mode() (int, ModeInfo) {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()
	return g.mode, g.modes[g.mode]
}

func (g *simGOP) FrameBuffer() ([]byte, error) {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()
	if g.lost {
		return nil, ErrDeviceLost
	}
	return g.fb, nil
}

// Present copies the scanout buffer into the front buffer read by
// Snapshot, so a window never shows a half-written frame.
func (g *simGOP) Present() error {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()
	if g.lost {
		return ErrDeviceLost
	}
	if cap(g.front) < len(g.fb) {
		g.front = make([]byte, len(g.fb))
	}
	g.front = g.front[:len(g.fb)]
	copy(g.front, g.fb)
	g.frontInfo = g.modes[g.mode]
	g.presents++
	return nil
}

type simPointer struct {
	s       *Sim
	mode    PointerMode
	pending PointerState
	dirty   bool
	lost    bool
}

func (p *simPointer) Mode() PointerMode { return p.mode }

func (p *simPointer) Reset() error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	if p.lost {
		return ErrDeviceLost
	}
	p.pending.RelativeX = 0
	p.pending.RelativeY = 0
	p.dirty = false
	return nil
}

func (p *simPointer) ReadState() (PointerState, bool, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	if p.lost {
		return PointerState{}, false, ErrDeviceLost
	}
	if !p.dirty {
		return PointerState{}, false, nil
	}
	st := p.pending
	p.pending.RelativeX = 0
	p.pending.RelativeY = 0
	p.dirty = false
	return st, true, nil
}

type simKeyboard struct {
	s       *Sim
	release bool
	queue   []KeyEvent
	lost    bool
}

func (k *simKeyboard) Reset() error {
	k.s.mu.Lock()
	defer k.s.mu.Unlock()
	if k.lost {
		return ErrDeviceLost
	}
	k.queue = k.queue[:0]
	return nil
}

func (k *simKeyboard) ReadKey() (KeyEvent, bool, error) {
	k.s.mu.Lock()
	defer k.s.mu.Unlock()
	if k.lost {
		return KeyEvent{}, false, ErrDeviceLost
	}
	if len(k.queue) == 0 {
		return KeyEvent{}, false, nil
	}
	ev := k.queue[0]
	k.queue = append(k.queue[:0], k.queue[1:]...)
	return ev, true, nil
}

func (k *simKeyboard) ReportsRelease() bool { return k.release }

// ManualTimer is a counter advanced explicitly, for deterministic runs.
type ManualTimer struct {
	mu      sync.Mutex
	rate    uint64
	report  bool
	counter uint64
}

// NewManualTimer returns a timer running at freq counts per second that
// reports its frequency.
func NewManualTimer(freq uint64) *ManualTimer {
	return &ManualTimer{rate: freq, report: true}
}

// NewUncalibratedTimer returns a timer running at rate counts per second
// that reports a frequency of 0.
func NewUncalibratedTimer(rate uint64) *ManualTimer {
	return &ManualTimer{rate: rate}
}

func (t *ManualTimer) Counter() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counter
}

func (t *ManualTimer) Frequency() uint64 {
	if !t.report {
		return 0
	}
	return t.rate
}

// Advance moves the counter forward by d.
func (t *ManualTimer) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counter += ScaleDuration(d, t.rate)
}

// Stall advances the counter, standing in for a firmware busy wait.
func (t *ManualTimer) Stall(d time.Duration) { t.Advance(d) }

// ScaleDuration converts d into counts of a timer running at freq.
func ScaleDuration(d time.Duration, freq uint64) uint64 {
	if d <= 0 || freq == 0 {
		return 0
	}
	hi, lo := bits.Mul64(uint64(d), freq)
	if hi >= uint64(time.Second) {
		return ^uint64(0)
	}
	q, _ := bits.Div64(hi, lo, uint64(time.Second))
	return q
}
