package display

import (
	"encoding/binary"
	"errors"
	"image/color"
	"testing"

	"voxos/boot"
	"voxos/fault"
	"voxos/hal"
	"voxos/mem"
)

func newSurface(t *testing.T, cfg hal.SimConfig, opts Options) (*hal.Sim, *Surface) {
	t.Helper()
	s := hal.NewSim(cfg)
	ctx, err := boot.Initialize(s)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	mm, _ := ctx.MemoryMap()
	a, err := mem.New(mem.RegionsFromMap(mm), s.PhysMem(), nil)
	if err != nil {
		t.Fatalf("arena: %v", err)
	}
	surf, err := New(ctx, a, opts)
	if err != nil {
		t.Fatalf("display.New: %v", err)
	}
	return s, surf
}

func TestModeSelection(t *testing.T) {
	cases := []struct {
		name  string
		w, h  int
		wantW int
		wantH int
	}{
		{"exact", 1024, 768, 1024, 768},
		{"largest fitting", 1100, 800, 1024, 768},
		{"too small keeps current", 320, 200, 800, 600},
		{"zero keeps current", 0, 0, 800, 600},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, surf := newSurface(t, hal.DefaultSimConfig(), Options{Width: tc.w, Height: tc.h, Scale: 1})
			info := surf.Mode()
			if info.Width != tc.wantW || info.Height != tc.wantH {
				t.Fatalf("mode %dx%d want %dx%d", info.Width, info.Height, tc.wantW, tc.wantH)
			}
		})
	}
}

func TestBltOnlyRejected(t *testing.T) {
	cfg := hal.DefaultSimConfig()
	cfg.Modes = []hal.ModeInfo{{Width: 640, Height: 480, Stride: 640, Format: hal.PixelBltOnly}}
	cfg.Mode = 0
	s := hal.NewSim(cfg)
	ctx, _ := boot.Initialize(s)
	mm, _ := ctx.MemoryMap()
	a, _ := mem.New(mem.RegionsFromMap(mm), s.PhysMem(), nil)

	_, err := New(ctx, a, Options{Scale: 1})
	if !errors.Is(err, ErrNoGraphics) || fault.KindOf(err) != fault.KindBootFatal {
		t.Fatalf("err=%v", err)
	}
}

func TestPresentRequiresCompletedFrame(t *testing.T) {
	s, surf := newSurface(t, hal.DefaultSimConfig(), Options{Scale: 2})
	if err := surf.Present(); fault.KindOf(err) != fault.KindLogic {
		t.Fatalf("present without frame: %v", err)
	}

	f := surf.BeginFrame()
	f.Fill(RGB(1, 2, 3))
	if err := surf.Present(); fault.KindOf(err) != fault.KindLogic {
		t.Fatalf("present of unfinished frame: %v", err)
	}
	if s.Presents() != 0 {
		t.Fatal("partial frame reached the device")
	}

	f = surf.BeginFrame()
	f.Fill(RGB(1, 2, 3))
	if err := surf.EndFrame(); err != nil {
		t.Fatalf("EndFrame: %v", err)
	}
	if err := surf.Present(); err != nil {
		t.Fatalf("Present: %v", err)
	}
	if s.Presents() != 1 || surf.Presents() != 1 {
		t.Fatalf("presents=%d", s.Presents())
	}
}

func TestPresentUpscalesEveryPixel(t *testing.T) {
	cfg := hal.DefaultSimConfig()
	cfg.Modes = []hal.ModeInfo{{Width: 65, Height: 33, Stride: 80, Format: hal.PixelRGBReserved8}}
	cfg.Mode = 0
	s, surf := newSurface(t, cfg, Options{Scale: 2})

	w, h := surf.Size()
	if w != 32 || h != 16 {
		t.Fatalf("render size %dx%d", w, h)
	}
	f := surf.BeginFrame()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			f.Set(x, y, RGB(uint8(x), uint8(y), 0xAA))
		}
	}
	_ = surf.EndFrame()
	if err := surf.Present(); err != nil {
		t.Fatalf("Present: %v", err)
	}

	snap, info, ok := s.Snapshot(nil)
	if !ok {
		t.Fatal("no snapshot")
	}
	for y := 0; y < info.Height; y++ {
		for x := 0; x < info.Width; x++ {
			off := (y*info.Stride + x) * 4
			p := binary.LittleEndian.Uint32(snap[off:])
			r, g, b := hal.UnpackPixel(info, p)
			wantX, wantY := min(x/2, w-1), min(y/2, h-1)
			if r != uint8(wantX) || g != uint8(wantY) || b != 0xAA {
				t.Fatalf("pixel (%d,%d)=%d,%d,%d", x, y, r, g, b)
			}
		}
	}
}

func TestDeviceLossIsFatal(t *testing.T) {
	s, surf := newSurface(t, hal.DefaultSimConfig(), Options{Scale: 2})
	s.LoseDisplay()
	surf.BeginFrame()
	_ = surf.EndFrame()
	err := surf.Present()
	if fault.KindOf(err) != fault.KindDeviceLost || fault.Recoverable(err) {
		t.Fatalf("err=%v", err)
	}
}

func TestDropFrameKeepsPreviousImage(t *testing.T) {
	s, surf := newSurface(t, hal.DefaultSimConfig(), Options{Scale: 4})
	f := surf.BeginFrame()
	f.Fill(RGB(10, 20, 30))
	_ = surf.EndFrame()
	_ = surf.Present()
	before, _, _ := s.Snapshot(nil)

	f = surf.BeginFrame()
	f.Fill(RGB(200, 0, 0))
	surf.DropFrame()
	if err := surf.EndFrame(); err == nil {
		t.Fatal("EndFrame after DropFrame should fail")
	}
	after, _, _ := s.Snapshot(nil)
	if string(before) != string(after) {
		t.Fatal("dropped frame changed the device image")
	}
}

func TestTargetScroll(t *testing.T) {
	s := hal.NewSim(hal.DefaultSimConfig())
	ctx, _ := boot.Initialize(s)
	mm, _ := ctx.MemoryMap()
	a, _ := mem.New(mem.RegionsFromMap(mm), s.PhysMem(), nil)
	surf, err := New(ctx, a, Options{Scale: 4})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tg, err := NewTarget(surf, a)
	if err != nil {
		t.Fatalf("NewTarget: %v", err)
	}
	_, h := tg.Size()
	tg.Clear(color.RGBA{A: 255})
	tg.SetPixel(3, 10, color.RGBA{R: 255, A: 255})
	tg.SetPixel(-1, 10, color.RGBA{R: 255, A: 255})

	tg.SetScroll(10)
	if got := tg.pixel(3, 0); got != RGB(255, 0, 0) {
		t.Fatalf("scrolled pixel=%#x", got)
	}
	tg.SetScroll(-int16(h) + 10)
	if got := tg.pixel(3, 0); got != RGB(255, 0, 0) {
		t.Fatalf("negative scroll pixel=%#x", got)
	}
	if err := tg.Display(); err != nil {
		t.Fatalf("Display: %v", err)
	}
	if s.Presents() != 1 {
		t.Fatalf("presents=%d", s.Presents())
	}
}
