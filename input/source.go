// Package input polls the pointer and keyboard once per frame and folds
// their reports into a State. Polling never blocks and never fails.
package input

import (
	"time"

	"voxos/boot"
	"voxos/hal"
)

// maxKeysPerPoll bounds how many queued keys one poll drains.
const maxKeysPerPoll = 32

// Options tunes the cursor.
type Options struct {
	// Sensitivity is cursor pixels per pointer count at the nominal
	// resolution of 8 counts per millimetre.
	Sensitivity float64
}

// Source is the input device set captured at boot. A device that fails
// is dropped for the rest of the run and its part of the state is zero.
type Source struct {
	ptr     hal.Pointer
	ptrMode hal.PointerMode
	kb      hal.Keyboard
	logger  hal.Logger

	w, h   int
	scale  float64
	fx, fy float64

	held  Keys
	state State
}

// New opens the first pointer and keyboard of ctx, if any, for a surface
// of w×h pixels.
func New(ctx *boot.Context, w, h int, opts Options) *Source {
	s := &Source{logger: ctx.Logger(), w: max(w, 1), h: max(h, 1)}
	if opts.Sensitivity <= 0 {
		opts.Sensitivity = 1
	}

	if ptrs, err := ctx.Pointers(); err == nil && len(ptrs) > 0 {
		p := ptrs[0]
		if err := p.Reset(); err != nil {
			hal.Logf(s.logger, "input: pointer reset: %v", err)
		} else {
			s.ptr = p
			s.ptrMode = p.Mode()
		}
	}
	if kbs, err := ctx.Keyboards(); err == nil && len(kbs) > 0 {
		k := kbs[0]
		if err := k.Reset(); err != nil {
			hal.Logf(s.logger, "input: keyboard reset: %v", err)
		} else {
			s.kb = k
		}
	}

	res := float64(s.ptrMode.ResolutionX)
	if res <= 0 {
		res = 8
	}
	s.scale = opts.Sensitivity * 8 / res

	if s.ptr != nil {
		s.fx, s.fy = float64(s.w/2), float64(s.h/2)
		s.state.CursorX, s.state.CursorY = s.w/2, s.h/2
	}
	hal.Logf(s.logger, "input: pointer=%v absolute=%v keyboard=%v", s.ptr != nil, s.ptrMode.Absolute, s.kb != nil)
	return s
}

// HasPointer reports whether a pointer is still attached.
func (s *Source) HasPointer() bool { return s.ptr != nil }

// HasKeyboard reports whether a keyboard is still attached.
func (s *Source) HasKeyboard() bool { return s.kb != nil }

// Poll samples the devices. Without new events the previous state comes
// back with the timestamp advanced and motion cleared.
func (s *Source) Poll(now time.Duration) State {
	next := s.state
	next.Time = now
	next.DeltaX, next.DeltaY = 0, 0

	s.pollPointer(&next)
	s.pollKeyboard(&next)

	s.state = next
	return next
}

func (s *Source) pollPointer(next *State) {
	if s.ptr == nil {
		next.CursorX, next.CursorY, next.Buttons = 0, 0, 0
		return
	}
	st, ok, err := s.ptr.ReadState()
	if err != nil {
		hal.Logf(s.logger, "input: pointer lost: %v", err)
		s.ptr = nil
		next.CursorX, next.CursorY, next.Buttons = 0, 0, 0
		return
	}
	if !ok {
		return
	}

	if s.ptrMode.Absolute {
		x := mapAxis(st.AbsoluteX, s.ptrMode.MinX, s.ptrMode.MaxX, s.w)
		y := mapAxis(st.AbsoluteY, s.ptrMode.MinY, s.ptrMode.MaxY, s.h)
		next.DeltaX = int32(x - next.CursorX)
		next.DeltaY = int32(y - next.CursorY)
		next.CursorX, next.CursorY = x, y
		s.fx, s.fy = float64(x), float64(y)
	} else {
		next.DeltaX, next.DeltaY = st.RelativeX, st.RelativeY
		s.fx = clampF(s.fx+float64(st.RelativeX)*s.scale, 0, float64(s.w-1))
		s.fy = clampF(s.fy+float64(st.RelativeY)*s.scale, 0, float64(s.h-1))
		next.CursorX, next.CursorY = int(s.fx), int(s.fy)
	}

	var b Buttons
	if st.Left {
		b |= ButtonLeft
	}
	if st.Right {
		b |= ButtonRight
	}
	if st.Middle {
		b |= ButtonMiddle
	}
	next.Buttons = b
}

func (s *Source) pollKeyboard(next *State) {
	if s.kb == nil {
		next.Keys = 0
		return
	}
	release := s.kb.ReportsRelease()
	var strokes Keys
	for i := 0; i < maxKeysPerPoll; i++ {
		ev, ok, err := s.kb.ReadKey()
		if err != nil {
			hal.Logf(s.logger, "input: keyboard lost: %v", err)
			s.kb = nil
			s.held = 0
			next.Keys = 0
			return
		}
		if !ok {
			break
		}
		k := keyFor(ev)
		if k == 0 {
			continue
		}
		switch {
		case !release:
			strokes |= k
		case ev.Press:
			s.held |= k
			strokes |= k
		default:
			s.held &^= k
		}
	}
	// Strokes keep a key that went down and up within one poll visible
	// for one sample.
	next.Keys = s.held | strokes
}

func keyFor(ev hal.KeyEvent) Keys {
	switch ev.Code {
	case hal.KeyEscape:
		return KeyEscape
	case hal.KeyUp:
		return KeyForward
	case hal.KeyDown:
		return KeyBack
	case hal.KeyLeft:
		return KeyLeft
	case hal.KeyRight:
		return KeyRight
	case hal.KeyF3:
		return KeyDebug
	}
	switch ev.Rune {
	case 'w', 'W':
		return KeyForward
	case 's', 'S':
		return KeyBack
	case 'a', 'A':
		return KeyLeft
	case 'd', 'D':
		return KeyRight
	case ' ':
		return KeyJump
	case 'c', 'C':
		return KeyCrouch
	case 'q', 'Q':
		return KeyQuit
	case 0x1b:
		return KeyEscape
	case '1':
		return KeySlot1
	case '2':
		return KeySlot2
	case '3':
		return KeySlot3
	case '4':
		return KeySlot4
	case '5':
		return KeySlot5
	}
	return 0
}

func mapAxis(v, lo, hi uint64, size int) int {
	if hi <= lo {
		return 0
	}
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return int((v - lo) * uint64(size-1) / (hi - lo))
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
