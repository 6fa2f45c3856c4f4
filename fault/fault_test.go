package fault

import (
	"errors"
	"fmt"
	"testing"

	"voxos/hal"
)

func TestKindOf(t *testing.T) {
	if KindOf(nil) != KindNone {
		t.Fatal("nil should be KindNone")
	}
	if KindOf(errors.New("x")) != KindLogic {
		t.Fatal("unclassified error should be a logic fault")
	}
	err := New(KindOutOfMemory, "arena", "no space")
	wrapped := fmt.Errorf("world: %w", err)
	if KindOf(wrapped) != KindOutOfMemory {
		t.Fatalf("kind=%v", KindOf(wrapped))
	}
}

func TestWrapKeepsInnerKind(t *testing.T) {
	inner := New(KindScratchExhausted, "scratch", "full")
	err := Wrap(KindLogic, "render", inner)
	if KindOf(err) != KindScratchExhausted {
		t.Fatalf("kind=%v", KindOf(err))
	}
	if Wrap(KindLogic, "x", nil) != nil {
		t.Fatal("Wrap(nil) should be nil")
	}
	err = Wrap(KindDeviceLost, "display", hal.ErrDeviceLost)
	if !errors.Is(err, hal.ErrDeviceLost) || KindOf(err) != KindDeviceLost {
		t.Fatalf("err=%v", err)
	}
}

func TestRecoverable(t *testing.T) {
	cases := []struct {
		kind Kind
		want bool
	}{
		{KindScratchExhausted, true},
		{KindInputLost, true},
		{KindBootFatal, false},
		{KindOutOfMemory, false},
		{KindDeviceLost, false},
		{KindLogic, false},
	}
	for _, tc := range cases {
		if got := Recoverable(New(tc.kind, "op", "msg")); got != tc.want {
			t.Fatalf("%v: got %v want %v", tc.kind, got, tc.want)
		}
	}
	if !Recoverable(nil) {
		t.Fatal("nil should be recoverable")
	}
}

func TestStatusOf(t *testing.T) {
	if got := StatusOf(nil); got != hal.StatusSuccess {
		t.Fatalf("nil -> %v", got)
	}
	if got := StatusOf(Wrap(KindBootFatal, "boot", hal.ErrNotFound)); got != hal.StatusNotFound {
		t.Fatalf("missing protocol -> %v", got)
	}
	if got := StatusOf(New(KindBootFatal, "boot", "bad map")); got != hal.StatusLoadError {
		t.Fatalf("bad map -> %v", got)
	}
	if got := StatusOf(New(KindOutOfMemory, "arena", "full")); got != hal.StatusOutOfResources {
		t.Fatalf("oom -> %v", got)
	}
	if got := StatusOf(New(KindDeviceLost, "display", "gone")); got != hal.StatusDeviceError {
		t.Fatalf("device -> %v", got)
	}
	if got := StatusOf(errors.New("boom")); got != hal.StatusAborted {
		t.Fatalf("logic -> %v", got)
	}
}

func TestFromPanicRunsHandlerOnce(t *testing.T) {
	var calls int
	var first PanicInfo
	SetPanicHandler(func(info PanicInfo) {
		calls++
		first = info
	})

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = FromPanic("frame", r)
			}
		}()
		panic("index out of range")
	}()
	if KindOf(err) != KindLogic {
		t.Fatalf("kind=%v", KindOf(err))
	}
	_ = FromPanic("frame", errors.New("again"))

	if calls != 1 {
		t.Fatalf("handler calls=%d", calls)
	}
	if first.Op != "frame" || first.Value != "index out of range" {
		t.Fatalf("info=%+v", first)
	}
	if len(first.Stack) == 0 {
		t.Fatal("expected stack")
	}
	if !InPanicMode() {
		t.Fatal("expected panic mode")
	}
}
