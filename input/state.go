package input

import "time"

// Buttons is a set of pointer buttons.
type Buttons uint8

const (
	ButtonLeft Buttons = 1 << iota
	ButtonRight
	ButtonMiddle

	AllButtons = ButtonLeft | ButtonRight | ButtonMiddle
)

// Keys is a set of keys the world reacts to.
type Keys uint32

const (
	KeyForward Keys = 1 << iota
	KeyBack
	KeyLeft
	KeyRight
	KeyJump
	KeyCrouch
	KeyQuit
	KeyEscape
	KeySlot1
	KeySlot2
	KeySlot3
	KeySlot4
	KeySlot5
	KeyDebug
)

// State is one input sample. It is replaced wholesale on every poll.
// Deltas are pointer motion since the previous poll, in device counts.
type State struct {
	CursorX int           `json:"x"`
	CursorY int           `json:"y"`
	DeltaX  int32         `json:"dx,omitempty"`
	DeltaY  int32         `json:"dy,omitempty"`
	Buttons Buttons       `json:"b,omitempty"`
	Keys    Keys          `json:"k,omitempty"`
	Time    time.Duration `json:"t"`
}

// Pressed reports whether every button in b is down.
func (s State) Pressed(b Buttons) bool { return b != 0 && s.Buttons&b == b }

// Held reports whether key k is down.
func (s State) Held(k Keys) bool { return s.Keys&k != 0 }

// Slot returns the block slot (1-5) selected this sample, or 0.
func (s State) Slot() int {
	for i, k := range []Keys{KeySlot1, KeySlot2, KeySlot3, KeySlot4, KeySlot5} {
		if s.Keys&k != 0 {
			return i + 1
		}
	}
	return 0
}
