package input

import (
	"testing"
	"time"

	"voxos/boot"
	"voxos/hal"
)

func newSource(t *testing.T, cfg hal.SimConfig) (*hal.Sim, *Source) {
	t.Helper()
	s := hal.NewSim(cfg)
	ctx, err := boot.Initialize(s)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return s, New(ctx, 400, 300, Options{})
}

func TestPollWithoutEventsAdvancesTimeOnly(t *testing.T) {
	s, src := newSource(t, hal.DefaultSimConfig())
	s.MovePointer(10, 5)
	s.SetButtons(true, false, false)
	first := src.Poll(1 * time.Millisecond)
	if first.DeltaX != 10 || first.DeltaY != 5 || !first.Pressed(ButtonLeft) {
		t.Fatalf("first=%+v", first)
	}

	second := src.Poll(2 * time.Millisecond)
	if second.Time != 2*time.Millisecond {
		t.Fatalf("time=%v", second.Time)
	}
	if second.DeltaX != 0 || second.DeltaY != 0 {
		t.Fatalf("motion repeated: %+v", second)
	}
	if second.CursorX != first.CursorX || second.CursorY != first.CursorY || second.Buttons != first.Buttons {
		t.Fatalf("state changed without events: %+v vs %+v", second, first)
	}
}

func TestCursorClamped(t *testing.T) {
	s, src := newSource(t, hal.DefaultSimConfig())
	s.MovePointer(-100000, 100000)
	st := src.Poll(time.Millisecond)
	if st.CursorX != 0 || st.CursorY != 299 {
		t.Fatalf("cursor=%d,%d", st.CursorX, st.CursorY)
	}
}

func TestAbsolutePointer(t *testing.T) {
	cfg := hal.DefaultSimConfig()
	cfg.AbsolutePointer = true
	s, src := newSource(t, cfg)
	s.SetPointerAbsolute(0xFFFF, 0)
	st := src.Poll(time.Millisecond)
	if st.CursorX != 399 || st.CursorY != 0 {
		t.Fatalf("cursor=%d,%d", st.CursorX, st.CursorY)
	}
}

func TestNoDevicesGivesZeroState(t *testing.T) {
	cfg := hal.DefaultSimConfig()
	cfg.Pointer = false
	cfg.Keyboard = false
	_, src := newSource(t, cfg)
	st := src.Poll(5 * time.Millisecond)
	if st != (State{Time: 5 * time.Millisecond}) {
		t.Fatalf("state=%+v", st)
	}
}

func TestLostPointerDegrades(t *testing.T) {
	s, src := newSource(t, hal.DefaultSimConfig())
	s.SetButtons(true, true, false)
	if st := src.Poll(time.Millisecond); st.Buttons == 0 {
		t.Fatal("expected buttons")
	}
	s.LosePointer()
	st := src.Poll(2 * time.Millisecond)
	if st.Buttons != 0 || st.CursorX != 0 || st.CursorY != 0 {
		t.Fatalf("state=%+v", st)
	}
	if src.HasPointer() {
		t.Fatal("pointer should be dropped")
	}
}

func TestStrokeKeysPulseForOnePoll(t *testing.T) {
	s, src := newSource(t, hal.DefaultSimConfig())
	s.PushKey(hal.KeyEvent{Rune: 'w', Press: true})
	s.PushKey(hal.KeyEvent{Rune: '3', Press: true})
	st := src.Poll(time.Millisecond)
	if !st.Held(KeyForward) || st.Slot() != 3 {
		t.Fatalf("keys=%b", st.Keys)
	}
	st = src.Poll(2 * time.Millisecond)
	if st.Keys != 0 {
		t.Fatalf("stroke kept: %b", st.Keys)
	}
}

func TestReleaseKeyboardHoldsKeys(t *testing.T) {
	cfg := hal.DefaultSimConfig()
	cfg.KeyRelease = true
	s, src := newSource(t, cfg)
	s.PushKey(hal.KeyEvent{Code: hal.KeyEscape, Press: true})
	if st := src.Poll(time.Millisecond); !st.Held(KeyEscape) {
		t.Fatal("expected escape held")
	}
	if st := src.Poll(2 * time.Millisecond); !st.Held(KeyEscape) {
		t.Fatal("expected escape still held")
	}
	s.PushKey(hal.KeyEvent{Code: hal.KeyEscape, Press: false})
	if st := src.Poll(3 * time.Millisecond); st.Held(KeyEscape) {
		t.Fatal("expected escape released")
	}
}

func TestInputRevokedByHandoff(t *testing.T) {
	s := hal.NewSim(hal.DefaultSimConfig())
	ctx, _ := boot.Initialize(s)
	src := New(ctx, 100, 100, Options{})
	if _, err := ctx.Finalize(true); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	st := src.Poll(time.Millisecond)
	if st != (State{Time: time.Millisecond}) {
		t.Fatalf("state=%+v", st)
	}
	if src.HasPointer() || src.HasKeyboard() {
		t.Fatal("devices should be dropped after handoff")
	}
}
