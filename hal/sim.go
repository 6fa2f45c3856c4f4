package hal

import (
	"sync"
	"time"
)

// SimConfig configures an in-process firmware.
type SimConfig struct {
	// MemoryBytes is the amount of RAM described by the memory map.
	MemoryBytes uint64

	// Displays is the number of graphics output handles. Every handle
	// offers Modes and starts in mode Mode.
	Displays int
	Modes    []ModeInfo
	Mode     int

	Pointer         bool
	AbsolutePointer bool
	Keyboard        bool
	// KeyRelease makes the keyboard report releases as well as strokes.
	KeyRelease bool
	// RetainInput keeps pointer and keyboard usable after ExitBootServices.
	RetainInput bool

	// StaleExitOnce makes the first ExitBootServices call fail with a
	// stale map key, as firmware does when it allocates in between.
	StaleExitOnce bool

	Timer  Timer
	Logger Logger
}

// DefaultModes is the mode list of a typical virtual GPU.
func DefaultModes() []ModeInfo {
	return []ModeInfo{
		{Width: 640, Height: 480, Stride: 640, Format: PixelBGRReserved8},
		{Width: 800, Height: 600, Stride: 800, Format: PixelBGRReserved8},
		{Width: 1024, Height: 768, Stride: 1024, Format: PixelBGRReserved8},
		{Width: 1280, Height: 720, Stride: 1280, Format: PixelBGRReserved8},
	}
}

// DefaultSimConfig describes a 256 MiB machine with one GPU, a relative
// pointer and a keyboard.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		MemoryBytes: 256 << 20,
		Displays:    1,
		Modes:       DefaultModes(),
		Mode:        1,
		Pointer:     true,
		Keyboard:    true,
	}
}

// Sim is an in-process firmware that follows UEFI boot service rules:
// the memory map carries a key that changes on allocation, boot-only
// services fail after ExitBootServices, and input handles are revoked
// on exit unless RetainInput is set.
type Sim struct {
	mu sync.Mutex

	cfg    SimConfig
	logger Logger
	timer  Timer

	memmap []MemoryDescriptor
	key    uint64
	exited bool
	stale  bool

	gops     []*simGOP
	pointer  *simPointer
	keyboard *simKeyboard
	phys     *simPhysMem

	resetKind   ResetType
	resetStatus Status
	resetDone   bool
}

// NewSim builds a firmware from cfg.
func NewSim(cfg SimConfig) *Sim {
	s := &Sim{
		cfg:    cfg,
		logger: cfg.Logger,
		timer:  cfg.Timer,
		key:    1,
		stale:  cfg.StaleExitOnce,
	}
	if s.logger == nil {
		s.logger = discardLogger{}
	}
	if s.timer == nil {
		s.timer = NewManualTimer(1_000_000_000)
	}
	s.memmap = buildMemoryMap(cfg.MemoryBytes)
	s.phys = &simPhysMem{s: s, mapped: map[uint64][]byte{}}

	for i := 0; i < cfg.Displays && len(cfg.Modes) > 0; i++ {
		g := &simGOP{s: s, modes: append([]ModeInfo(nil), cfg.Modes...)}
		mode := cfg.Mode
		if mode < 0 || mode >= len(g.modes) {
			mode = 0
		}
		g.setModeLocked(mode)
		s.gops = append(s.gops, g)
	}
	if cfg.Pointer {
		mode := PointerMode{ResolutionX: 8, ResolutionY: 8, LeftButton: true, RightButton: true}
		if cfg.AbsolutePointer {
			mode = PointerMode{Absolute: true, MaxX: 0xFFFF, MaxY: 0xFFFF, LeftButton: true, RightButton: true}
		}
		s.pointer = &simPointer{s: s, mode: mode}
	}
	if cfg.Keyboard {
		s.keyboard = &simKeyboard{s: s, release: cfg.KeyRelease}
	}
	return s
}

const (
	simLowPages   = 0x9F
	simImageBase  = 0x100000
	simConvBase   = 0x900000
	simRuntimeLen = 1 << 20
	simACPILen    = 64 << 10
)

func buildMemoryMap(total uint64) []MemoryDescriptor {
	pages := func(n uint64) uint64 { return n / PageSize }
	m := []MemoryDescriptor{
		{Type: MemConventional, PhysicalStart: 0, NumberOfPages: simLowPages},
		{Type: MemReserved, PhysicalStart: simLowPages * PageSize, NumberOfPages: pages(simImageBase) - simLowPages},
		{Type: MemLoaderCode, PhysicalStart: simImageBase, NumberOfPages: pages(2 << 20)},
		{Type: MemLoaderData, PhysicalStart: 0x300000, NumberOfPages: pages(1 << 20)},
		{Type: MemBootServicesData, PhysicalStart: 0x400000, NumberOfPages: pages(4 << 20)},
		{Type: MemBootServicesCode, PhysicalStart: 0x800000, NumberOfPages: pages(1 << 20)},
	}
	next := uint64(simConvBase)
	if total > simConvBase+simRuntimeLen+simACPILen {
		conv := total - simConvBase - simRuntimeLen - simACPILen
		conv -= conv % PageSize
		if conv > 0 {
			m = append(m, MemoryDescriptor{Type: MemConventional, PhysicalStart: next, NumberOfPages: pages(conv)})
			next += conv
		}
	}
	m = append(m,
		MemoryDescriptor{Type: MemRuntimeServicesData, PhysicalStart: next, NumberOfPages: pages(simRuntimeLen), Attribute: AttrRuntime},
		MemoryDescriptor{Type: MemACPIReclaim, PhysicalStart: next + simRuntimeLen, NumberOfPages: pages(simACPILen)},
	)
	return m
}

func (s *Sim) Logger() Logger { return s.logger }

func (s *Sim) PhysMem() PhysMem { return s.phys }

func (s *Sim) Runtime() RuntimeServices { return simRuntime{s: s} }

func (s *Sim) MemoryMap() (MemoryMap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exited {
		return MemoryMap{}, ErrServicesExited
	}
	return MemoryMap{
		Descriptors: append([]MemoryDescriptor(nil), s.memmap...),
		Key:         s.key,
	}, nil
}

func (s *Sim) LocateGraphics() ([]GraphicsOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exited {
		return nil, ErrServicesExited
	}
	if len(s.gops) == 0 {
		return nil, ErrNotFound
	}
	s.key++
	out := make([]GraphicsOutput, 0, len(s.gops))
	for _, g := range s.gops {
		out = append(out, g)
	}
	return out, nil
}

func (s *Sim) LocatePointers() ([]Pointer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exited {
		return nil, ErrServicesExited
	}
	if s.pointer == nil {
		return nil, ErrNotFound
	}
	s.key++
	return []Pointer{s.pointer}, nil
}

func (s *Sim) LocateKeyboards() ([]Keyboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exited {
		return nil, ErrServicesExited
	}
	if s.keyboard == nil {
		return nil, ErrNotFound
	}
	s.key++
	return []Keyboard{s.keyboard}, nil
}

func (s *Sim) ExitBootServices(mapKey uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exited {
		return ErrServicesExited
	}
	if s.stale {
		s.stale = false
		s.key++
		return ErrStaleMapKey
	}
	if mapKey != s.key {
		return ErrStaleMapKey
	}
	s.exited = true
	if !s.cfg.RetainInput {
		if s.pointer != nil {
			s.pointer.lost = true
		}
		if s.keyboard != nil {
			s.keyboard.lost = true
		}
	}
	return nil
}

// Exited reports whether ExitBootServices succeeded.
func (s *Sim) Exited() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exited
}

// ResetRequest returns the last ResetSystem call, if any.
func (s *Sim) ResetRequest() (ResetType, Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resetKind, s.resetStatus, s.resetDone
}

// Snapshot copies the last presented frame of the first display into
// dst (grown as needed) and returns it with its mode.
func (s *Sim) Snapshot(dst []byte) ([]byte, ModeInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.gops) == 0 {
		return dst, ModeInfo{}, false
	}
	g := s.gops[0]
	if g.front == nil {
		return dst, ModeInfo{}, false
	}
	if cap(dst) < len(g.front) {
		dst = make([]byte, len(g.front))
	}
	dst = dst[:len(g.front)]
	copy(dst, g.front)
	return dst, g.frontInfo, true
}

// DisplayMode returns the current mode of the first display. It stays
// valid after ExitBootServices.
func (s *Sim) DisplayMode() (ModeInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.gops) == 0 {
		return ModeInfo{}, false
	}
	g := s.gops[0]
	return g.modes[g.mode], true
}

// Presents returns how many frames the first display has presented.
func (s *Sim) Presents() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.gops) == 0 {
		return 0
	}
	return s.gops[0].presents
}

// LoseDisplay makes every display fail from now on.
func (s *Sim) LoseDisplay() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.gops {
		g.lost = true
	}
}

// MovePointer queues relative pointer motion.
func (s *Sim) MovePointer(dx, dy int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pointer == nil {
		return
	}
	s.pointer.pending.RelativeX += dx
	s.pointer.pending.RelativeY += dy
	s.pointer.dirty = true
}

// SetPointerAbsolute sets the absolute pointer position.
func (s *Sim) SetPointerAbsolute(x, y uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pointer == nil {
		return
	}
	s.pointer.pending.AbsoluteX = x
	s.pointer.pending.AbsoluteY = y
	s.pointer.dirty = true
}

// SetButtons sets the pointer button levels.
func (s *Sim) SetButtons(left, right, middle bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pointer == nil {
		return
	}
	p := &s.pointer.pending
	if p.Left == left && p.Right == right && p.Middle == middle {
		return
	}
	p.Left, p.Right, p.Middle = left, right, middle
	s.pointer.dirty = true
}

// LosePointer makes the pointer fail from now on.
func (s *Sim) LosePointer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pointer != nil {
		s.pointer.lost = true
	}
}

// PushKey queues a keyboard event. Releases are dropped on stroke-only
// keyboards and events are dropped when the queue is full.
func (s *Sim) PushKey(ev KeyEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := s.keyboard
	if k == nil || (!ev.Press && !k.release) {
		return
	}
	if len(k.queue) >= simKeyQueue {
		return
	}
	k.queue = append(k.queue, ev)
}

type discardLogger struct{}

func (discardLogger) WriteLineString(string) {}
func (discardLogger) WriteLineBytes([]byte)  {}

type simRuntime struct {
	s *Sim
}

func (r simRuntime) Timer() Timer { return r.s.timer }

type staller interface {
	Stall(d time.Duration)
}

func (r simRuntime) Stall(d time.Duration) {
	if st, ok := r.s.timer.(staller); ok {
		st.Stall(d)
		return
	}
	t := r.s.timer
	freq := t.Frequency()
	if freq == 0 {
		return
	}
	start := t.Counter()
	want := ScaleDuration(d, freq)
	for t.Counter()-start < want {
	}
}

func (r simRuntime) ResetSystem(kind ResetType, status Status) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.resetKind = kind
	r.s.resetStatus = status
	r.s.resetDone = true
}

type simPhysMem struct {
	s      *Sim
	mapped map[uint64][]byte
}

func (p *simPhysMem) Map(addr, size uint64) ([]byte, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	if !(MemoryMap{Descriptors: p.s.memmap}).Contains(addr, size) {
		return nil, ErrBadAddress
	}
	if b, ok := p.mapped[addr]; ok && uint64(len(b)) >= size {
		return b[:size], nil
	}
	b := make([]byte, size)
	p.mapped[addr] = b
	return b, nil
}
