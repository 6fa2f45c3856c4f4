// Package fault classifies failures into the kinds the frame loop acts on
// and maps them to firmware status codes.
package fault

import (
	"errors"
	"fmt"

	"voxos/hal"
)

// Kind is the class of a failure, decided where it is detected.
type Kind uint8

const (
	KindNone Kind = iota
	// KindBootFatal: a required protocol is missing or the memory map is
	// unusable. Nothing can run.
	KindBootFatal
	// KindOutOfMemory: a long-lived allocation failed.
	KindOutOfMemory
	// KindScratchExhausted: the per-frame budget ran out. The frame is
	// dropped and the loop continues.
	KindScratchExhausted
	// KindDeviceLost: the display stopped working.
	KindDeviceLost
	// KindInputLost: an input device stopped working. Input degrades to
	// the zero state.
	KindInputLost
	// KindLogic: an invariant was broken. Always fatal.
	KindLogic
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindBootFatal:
		return "boot-fatal"
	case KindOutOfMemory:
		return "out-of-memory"
	case KindScratchExhausted:
		return "scratch-exhausted"
	case KindDeviceLost:
		return "device-lost"
	case KindInputLost:
		return "input-lost"
	case KindLogic:
		return "logic"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Error is a classified failure.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.String()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// New returns a classified error with a plain message.
func New(kind Kind, op, msg string) error {
	return &Error{Kind: kind, Op: op, Err: errors.New(msg)}
}

// Errorf is New with formatting. %w is honoured.
func Errorf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap classifies err. A nil err stays nil. An err that is already
// classified keeps its kind; only the operation is prefixed.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return &Error{Kind: fe.Kind, Op: op, Err: err}
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of err. Unclassified errors are logic faults.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindLogic
}

// Recoverable reports whether the loop may continue after err.
func Recoverable(err error) bool {
	switch KindOf(err) {
	case KindNone, KindScratchExhausted, KindInputLost:
		return true
	default:
		return false
	}
}

// StatusOf maps err to the status returned to firmware.
func StatusOf(err error) hal.Status {
	switch KindOf(err) {
	case KindNone:
		return hal.StatusSuccess
	case KindBootFatal:
		if errors.Is(err, hal.ErrNotFound) {
			return hal.StatusNotFound
		}
		return hal.StatusLoadError
	case KindOutOfMemory, KindScratchExhausted:
		return hal.StatusOutOfResources
	case KindDeviceLost, KindInputLost:
		return hal.StatusDeviceError
	default:
		return hal.StatusAborted
	}
}
