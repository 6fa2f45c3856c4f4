package render

import (
	"math"
	"testing"

	"voxos/display"
	"voxos/fault"
	"voxos/mem"
	"voxos/world"
)

const (
	testW = 96
	testH = 64

	sentinel = 0x00123456
)

func newFrame() display.Frame {
	f := display.Frame{Width: testW, Height: testH, Stride: testW + 8, Pix: make([]byte, (testW+8)*testH*4)}
	f.Fill(sentinel)
	return f
}

func newRenderer(t *testing.T, scratch int) *Renderer {
	t.Helper()
	r, err := New(testW, testH, make([]byte, TableSize(testW, testH)), mem.NewScratchBytes(make([]byte, scratch)), Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func terrain(t *testing.T) *world.World {
	t.Helper()
	cfg := world.DefaultConfig()
	w, err := world.New(cfg, make([]byte, world.StorageSize(cfg)))
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	return w
}

func TestEmptyWorldWritesEveryPixel(t *testing.T) {
	cfg := world.DefaultConfig()
	w, err := world.NewEmpty(cfg, make([]byte, world.StorageSize(cfg)), world.Vec3{X: 10, Y: 10, Z: 10})
	if err != nil {
		t.Fatalf("NewEmpty: %v", err)
	}
	r := newRenderer(t, 4096)
	f := newFrame()
	if err := r.Draw(w, f, HUD{FPS: 60}); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			if f.At(x, y) == sentinel {
				t.Fatalf("pixel (%d,%d) not written", x, y)
			}
		}
	}
	// Padding past the visible width belongs to nobody.
	if got := f.Pix[testW*4]; got != 0 {
		t.Fatalf("stride padding overwritten: %#x", got)
	}
}

func TestDrawDoesNotModifyWorld(t *testing.T) {
	w := terrain(t)
	w.Player.Pitch = -0.6
	before := w.Digest()
	r := newRenderer(t, 4096)
	if err := r.Draw(w, newFrame(), HUD{Debug: true}); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if w.Digest() != before {
		t.Fatalf("world changed while drawing")
	}
}

func TestScratchExhaustionLeavesFrameUntouched(t *testing.T) {
	w := terrain(t)
	r := newRenderer(t, 0)
	f := newFrame()
	err := r.Draw(w, f, HUD{})
	if fault.KindOf(err) != fault.KindScratchExhausted {
		t.Fatalf("err = %v, want scratch exhausted", err)
	}
	if !fault.Recoverable(err) {
		t.Fatalf("scratch exhaustion must be recoverable")
	}
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			if f.At(x, y) != sentinel {
				t.Fatalf("pixel (%d,%d) written on a failed frame", x, y)
			}
		}
	}
}

func TestScratchIsRewound(t *testing.T) {
	s := mem.NewScratchBytes(make([]byte, 4096))
	r, err := New(testW, testH, make([]byte, TableSize(testW, testH)), s, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	w := terrain(t)
	for range 3 {
		if err := r.Draw(w, newFrame(), HUD{}); err != nil {
			t.Fatalf("Draw: %v", err)
		}
	}
	if s.Used() != 0 {
		t.Fatalf("scratch used after draw = %d", s.Used())
	}
	if s.HighWater() == 0 {
		t.Fatalf("draw took no scratch")
	}
}

func TestFrameSizeMismatch(t *testing.T) {
	r := newRenderer(t, 4096)
	f := display.Frame{Width: 10, Height: 10, Stride: 10, Pix: make([]byte, 400)}
	if err := r.Draw(terrain(t), f, HUD{}); fault.KindOf(err) != fault.KindLogic {
		t.Fatalf("err = %v, want logic fault", err)
	}
}

func TestLookingDownShowsGround(t *testing.T) {
	w := terrain(t)
	w.Player.Pitch = -1.4
	r := newRenderer(t, 4096)
	f := newFrame()
	if err := r.Draw(w, f, HUD{}); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	x, y := testW/2+8, testH/2+8
	forward, right, up := world.Basis(w.Player.Yaw, w.Player.Pitch)
	dir := right.Scale(r.col(x)).Add(up.Scale(r.row(y))).Add(forward).Normalize()
	if got, sky := f.At(x, y), skyColor(dir).pack(); got == sky {
		t.Fatalf("pixel (%d,%d) is sky %#x", x, y, got)
	}
}

func TestCameraAboveGridSeesTerrain(t *testing.T) {
	w := terrain(t)
	sx, sy, sz := w.Size()
	w.Player.Pos = world.Vec3{X: float32(sx) / 2, Y: float32(sy) + 8, Z: float32(sz) / 2}
	w.Player.Pitch = -math.Pi/2 + 0.05
	r := newRenderer(t, 4096)

	g := grid{w: w, occ: mustOccupancy(t, r, w)}
	g.sx, g.sy, g.sz = sx, sy, sz
	g.ncx, g.ncy, g.ncz = w.Chunks()
	h, ok := r.cast(&g, w.Player.Pos, w.Player.Look())
	if !ok {
		t.Fatalf("ray from above the grid missed the terrain")
	}
	if h.normal != (world.Vec3{Y: 1}) {
		t.Fatalf("normal = %+v, want up", h.normal)
	}

	// Looking up from above the grid never enters it.
	if _, ok := r.cast(&g, w.Player.Pos, world.Vec3{Y: 1}); ok {
		t.Fatalf("ray leaving the grid hit something")
	}
}

func TestCastMatchesWorldRaycast(t *testing.T) {
	w := terrain(t)
	r := newRenderer(t, 4096)
	g := grid{w: w, occ: mustOccupancy(t, r, w)}
	g.sx, g.sy, g.sz = w.Size()
	g.ncx, g.ncy, g.ncz = w.Chunks()

	origin := w.Player.Pos
	for i := 0; i < 48; i++ {
		yaw := float32(i) * 0.37
		pitch := -1.2 + float32(i%8)*0.2
		dir, _, _ := world.Basis(yaw, pitch)
		h, ok := r.cast(&g, origin, dir)
		want, wantOK := w.Raycast(origin, dir, r.opts.MaxDistance)
		if ok != wantOK {
			t.Fatalf("ray %d: hit = %v, raycast hit = %v", i, ok, wantOK)
		}
		if !ok {
			continue
		}
		if d := h.dist - want.Dist; d > 0.01 || d < -0.01 {
			t.Fatalf("ray %d: dist = %v, raycast dist = %v", i, h.dist, want.Dist)
		}
		if h.block != want.Block {
			t.Fatalf("ray %d: block = %v, raycast block = %v", i, h.block, want.Block)
		}
	}
}

func mustOccupancy(t *testing.T, r *Renderer, w *world.World) []byte {
	t.Helper()
	occ, err := r.occupancy(w)
	if err != nil {
		t.Fatalf("occupancy: %v", err)
	}
	return occ
}

func TestDrawDoesNotAllocate(t *testing.T) {
	w := terrain(t)
	r := newRenderer(t, 4096)
	f := newFrame()
	for _, hud := range []HUD{{FPS: 60}, {FPS: 60, Dropped: 3, Debug: true}} {
		allocs := testing.AllocsPerRun(5, func() {
			if err := r.Draw(w, f, hud); err != nil {
				t.Fatalf("Draw: %v", err)
			}
		})
		if allocs != 0 {
			t.Fatalf("Draw with %+v allocated %v times per frame", hud, allocs)
		}
	}
}

func TestHUDLineStaysInBuffer(t *testing.T) {
	w := terrain(t)
	hud := HUD{FPS: 1234, Dropped: 99, Debug: true}
	full := string(formatHUD(make([]byte, hudBytes), w, hud))
	if len(full) < 16 {
		t.Fatalf("debug line too short: %q", full)
	}

	backing := make([]byte, 32)
	for i := range backing {
		backing[i] = '#'
	}
	for _, n := range []int{0, 1, 3, 6, 16} {
		line := formatHUD(backing[:n:n], w, hud)
		if len(line) != n {
			t.Fatalf("cap %d: line %q has length %d", n, line, len(line))
		}
		if n > 0 && &line[0] != &backing[0] {
			t.Fatalf("cap %d: line moved off its buffer", n)
		}
		if string(line) != full[:n] {
			t.Fatalf("cap %d: line = %q, want %q", n, line, full[:n])
		}
		for i, b := range backing[n:] {
			if b != '#' {
				t.Fatalf("cap %d: byte %d past the buffer written", n, n+i)
			}
		}
	}
}

func TestNewNeedsTableMemory(t *testing.T) {
	s := mem.NewScratchBytes(make([]byte, 64))
	_, err := New(testW, testH, make([]byte, TableSize(testW, testH)-1), s, Options{})
	if fault.KindOf(err) != fault.KindOutOfMemory {
		t.Fatalf("err = %v, want out of memory", err)
	}

	tables := make([]byte, TableSize(testW, testH))
	r, err := New(testW, testH, tables, s, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// The leftmost column looks left of centre and the top row up.
	if r.col(0) >= 0 || r.row(0) <= 0 {
		t.Fatalf("col(0) = %v, row(0) = %v", r.col(0), r.row(0))
	}
	if getFloat(tables, 0) != r.col(0) || getFloat(tables, testW) != r.row(0) {
		t.Fatal("camera tables are not kept in the given memory")
	}
}
