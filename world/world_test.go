package world

import (
	"testing"
	"time"

	"voxos/input"
)

func newWorld(t *testing.T, cfg Config) *World {
	t.Helper()
	w, err := New(cfg, make([]byte, StorageSize(cfg)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return w
}

func newEmpty(t *testing.T, pos Vec3) *World {
	t.Helper()
	cfg := DefaultConfig()
	w, err := NewEmpty(cfg, make([]byte, StorageSize(cfg)), pos)
	if err != nil {
		t.Fatalf("NewEmpty: %v", err)
	}
	return w
}

func floor(w *World) {
	sx, _, sz := w.Size()
	for z := 0; z < sz; z++ {
		for x := 0; x < sx; x++ {
			w.set(x, 0, z, Stone)
		}
	}
}

func TestNewIsSeeded(t *testing.T) {
	a := newWorld(t, DefaultConfig())
	b := newWorld(t, DefaultConfig())
	if a.Digest() != b.Digest() {
		t.Fatal("same seed produced different worlds")
	}
	cfg := DefaultConfig()
	cfg.Seed = 99
	c := newWorld(t, cfg)
	if a.Digest() == c.Digest() {
		t.Fatal("different seeds produced the same world")
	}
}

func TestTerrainLayers(t *testing.T) {
	w := newWorld(t, DefaultConfig())
	sx, _, sz := w.Size()
	for z := 0; z < sz; z += 7 {
		for x := 0; x < sx; x += 5 {
			if w.At(x, 0, z) != Bedrock {
				t.Fatalf("(%d,0,%d)=%v want bedrock", x, z, w.At(x, 0, z))
			}
		}
	}
	if w.collides(w.Player.Pos, false) {
		t.Fatalf("spawn %+v inside terrain", w.Player.Pos)
	}
}

func TestOutsideGridIsAir(t *testing.T) {
	w := newWorld(t, DefaultConfig())
	sx, sy, sz := w.Size()
	for _, c := range [][3]int{{-1, 0, 0}, {0, -1, 0}, {sx, 0, 0}, {0, sy, 0}, {0, 0, sz}} {
		if b := w.At(c[0], c[1], c[2]); b != Air {
			t.Fatalf("At%v=%v", c, b)
		}
		if w.set(c[0], c[1], c[2], Stone) {
			t.Fatalf("set%v accepted", c)
		}
	}
	if !w.ChunkEmpty(-1, 0, 0) {
		t.Fatal("chunk outside grid should be empty")
	}
}

func TestChunkCounts(t *testing.T) {
	w := newEmpty(t, Vec3{8, 20, 8})
	if !w.ChunkEmpty(0, 0, 0) {
		t.Fatal("empty world has a non-empty chunk")
	}
	w.set(1, 2, 3, Dirt)
	if w.ChunkEmpty(0, 0, 0) {
		t.Fatal("chunk should be non-empty")
	}
	w.set(1, 2, 3, Stone)
	w.set(1, 2, 3, Air)
	if !w.ChunkEmpty(0, 0, 0) {
		t.Fatal("chunk should be empty again")
	}
}

func TestStepZeroDurationNoInput(t *testing.T) {
	w := newEmpty(t, Vec3{8.5, 10, 8.5})
	w.set(0, 0, 0, Stone)
	before := w.Digest()

	ev := w.Step(input.State{}, 0)
	if ev.Ticks != 0 || ev.Removed || ev.Placed || ev.Exit {
		t.Fatalf("events=%+v", ev)
	}
	if w.Digest() != before {
		t.Fatal("world changed")
	}
	if w.At(0, 0, 0) != Stone {
		t.Fatal("voxel lost")
	}
}

func TestStepDeterministic(t *testing.T) {
	a := newWorld(t, DefaultConfig())
	b := a.Clone()

	script := []struct {
		in input.State
		dt time.Duration
	}{
		{input.State{Keys: input.KeyForward}, 16 * time.Millisecond},
		{input.State{Keys: input.KeyForward | input.KeyJump, DeltaX: 40}, 17 * time.Millisecond},
		{input.State{Buttons: input.ButtonLeft, DeltaY: 300}, 33 * time.Millisecond},
		{input.State{}, 5 * time.Second},
		{input.State{Buttons: input.ButtonRight, Keys: input.KeySlot3}, 16 * time.Millisecond},
		{input.State{Keys: input.KeyLeft | input.KeyCrouch}, 100 * time.Millisecond},
	}
	for i, s := range script {
		ea := a.Step(s.in, s.dt)
		eb := b.Step(s.in, s.dt)
		if ea != eb {
			t.Fatalf("step %d events differ: %+v vs %+v", i, ea, eb)
		}
		if a.Digest() != b.Digest() {
			t.Fatalf("step %d worlds differ", i)
		}
	}
}

func TestLargeDeltaClamped(t *testing.T) {
	a := newWorld(t, DefaultConfig())
	b := a.Clone()
	in := input.State{Keys: input.KeyForward}

	ea := a.Step(in, 10*time.Second)
	eb := b.Step(in, a.Config().MaxFrameDelta)
	if ea.Ticks != eb.Ticks || ea.Ticks != 15 {
		t.Fatalf("ticks %d vs %d", ea.Ticks, eb.Ticks)
	}
	if a.Digest() != b.Digest() {
		t.Fatal("10s step advanced further than one max-delta step")
	}

	if ev := a.Step(input.State{}, -time.Second); ev.Ticks != 0 {
		t.Fatalf("negative delta ran %d ticks", ev.Ticks)
	}
}

func TestFallNeverTunnels(t *testing.T) {
	w := newEmpty(t, Vec3{20.5, 30, 20.5})
	floor(w)
	for i := 0; i < 200; i++ {
		w.Step(input.State{}, 10*time.Second)
		lo, _ := bounds(w.Player.Pos, w.Player.Crouching)
		if lo.Y < 1 {
			t.Fatalf("step %d: feet at %v below the floor", i, lo.Y)
		}
		if v := w.Player.Vel.Y; v < -TerminalVelocity {
			t.Fatalf("velocity %v beyond terminal", v)
		}
	}
	if !w.Player.OnGround {
		t.Fatal("player never landed")
	}
}

func TestWalkForward(t *testing.T) {
	w := newEmpty(t, Vec3{20.5, 1 + eyeHeight(false) + 0.01, 20.5})
	floor(w)
	start := w.Player.Pos

	for i := 0; i < 60; i++ {
		w.Step(input.State{Keys: input.KeyForward}, w.TickDuration())
	}
	moved := w.Player.Pos.Z - start.Z
	if moved < 5.9 || moved > 6.1 {
		t.Fatalf("moved %v blocks, want about 6", moved)
	}
	if w.Player.Pos.Y != start.Y {
		t.Fatalf("height changed %v -> %v", start.Y, w.Player.Pos.Y)
	}
}

func TestWallBlocksMovement(t *testing.T) {
	w := newEmpty(t, Vec3{20.5, 1 + eyeHeight(false) + 0.01, 20.5})
	floor(w)
	for y := 1; y < 4; y++ {
		for x := 15; x < 26; x++ {
			w.set(x, y, 23, Stone)
		}
	}
	for i := 0; i < 120; i++ {
		w.Step(input.State{Keys: input.KeyForward}, w.TickDuration())
	}
	if _, hi := bounds(w.Player.Pos, false); hi.Z > 23 {
		t.Fatalf("player entered the wall: z=%v", hi.Z)
	}
}

func TestLookPitchClamped(t *testing.T) {
	w := newEmpty(t, Vec3{8, 20, 8})
	w.Step(input.State{DeltaY: -100000}, 0)
	if w.Player.Pitch > 1.5708 {
		t.Fatalf("pitch=%v", w.Player.Pitch)
	}
	w.Step(input.State{DeltaY: 100000}, 0)
	if w.Player.Pitch < -1.5708 {
		t.Fatalf("pitch=%v", w.Player.Pitch)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	w := newWorld(t, DefaultConfig())
	c := w.Clone()
	c.set(1, 1, 1, Air)
	c.set(1, 1, 1, Water)
	if w.Digest() == c.Digest() {
		t.Fatal("clone shares storage")
	}
}

func TestDigestCoversConfig(t *testing.T) {
	a := newWorld(t, DefaultConfig())
	cfg := DefaultConfig()
	cfg.Sensitivity *= 2
	cfg.EditRange++
	b := newWorld(t, cfg)
	if a.Digest() == b.Digest() {
		t.Fatal("worlds with different tuning share a digest")
	}

	a.Step(input.State{DeltaX: 100}, 0)
	b.Step(input.State{DeltaX: 100}, 0)
	if a.Player.Yaw == b.Player.Yaw {
		t.Fatal("sensitivity had no effect")
	}
}

func TestWorldLivesInStorage(t *testing.T) {
	cfg := DefaultConfig()
	need := StorageSize(cfg)
	storage := make([]byte, need+16)
	for i := range storage {
		storage[i] = 0xee
	}
	w, err := New(cfg, storage)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, b := range storage[need:] {
		if b != 0xee {
			t.Fatal("New wrote past StorageSize")
		}
	}

	// The chunk counts sit after the blocks, so editing a block through
	// the world shows up in the caller's memory.
	counts := storage[need-countBytes*numChunks(cfg) : need]
	sx, sy, sz := w.Size()
	w.set(sx-1, sy-1, sz-1, Air)
	before := append([]byte(nil), counts...)
	w.set(sx-1, sy-1, sz-1, Stone)
	if string(before) == string(counts) {
		t.Fatal("chunk counts are not kept in storage")
	}
	if w.ChunkEmpty(w.ncx-1, w.ncy-1, w.ncz-1) {
		t.Fatal("edited chunk still reads as empty")
	}

	if _, err := New(cfg, storage[:need-1]); err == nil {
		t.Fatal("New accepted storage without room for the counts")
	}
}
