package hal

import (
	"errors"
	"fmt"
	"time"
)

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

// Logf formats a line and writes it to l. A nil logger drops the line.
func Logf(l Logger, format string, args ...any) {
	if l == nil {
		return
	}
	l.WriteLineString(fmt.Sprintf(format, args...))
}

var (
	ErrNotFound       = errors.New("not found")
	ErrDeviceLost     = errors.New("device lost")
	ErrServicesExited = errors.New("boot services exited")
	ErrStaleMapKey    = errors.New("stale memory map key")
	ErrInvalidMode    = errors.New("invalid graphics mode")
	ErrBadAddress     = errors.New("address outside memory map")

	// ErrHalt is returned by a step function to stop a host runner cleanly.
	ErrHalt = errors.New("halt")
)

// PixelFormat is the GOP pixel encoding of a mode.
type PixelFormat uint8

const (
	PixelRGBReserved8 PixelFormat = iota
	PixelBGRReserved8
	PixelBitMask
	PixelBltOnly
)

func (f PixelFormat) String() string {
	switch f {
	case PixelRGBReserved8:
		return "RGBX8888"
	case PixelBGRReserved8:
		return "BGRX8888"
	case PixelBitMask:
		return "bitmask"
	case PixelBltOnly:
		return "blt-only"
	default:
		return "unknown"
	}
}

// PixelBitmask describes channel positions for PixelBitMask modes.
type PixelBitmask struct {
	Red, Green, Blue, Reserved uint32
}

// ModeInfo describes one graphics mode. Stride is in pixels per scan line.
type ModeInfo struct {
	Width  int
	Height int
	Stride int
	Format PixelFormat
	Mask   PixelBitmask
}

// GraphicsOutput is a graphics output protocol handle.
type GraphicsOutput interface {
	MaxMode() int
	QueryMode(mode int) (ModeInfo, error)
	SetMode(mode int) error
	Mode() (mode int, info ModeInfo)
	// FrameBuffer returns the linear framebuffer of the current mode.
	FrameBuffer() ([]byte, error)
	// Present publishes the framebuffer contents. Linear firmware
	// framebuffers are scanned out directly and return nil.
	Present() error
}

// PointerMode describes a pointer device. Resolution is in counts per
// millimetre for relative devices; Min/Max bound absolute coordinates.
type PointerMode struct {
	ResolutionX uint64
	ResolutionY uint64
	Absolute    bool
	MinX, MaxX  uint64
	MinY, MaxY  uint64
	LeftButton  bool
	RightButton bool
}

// PointerState is one pointer report. Relative fields accumulate
// movement since the previous report.
type PointerState struct {
	RelativeX int32
	RelativeY int32
	AbsoluteX uint64
	AbsoluteY uint64
	Left      bool
	Right     bool
	Middle    bool
}

// Pointer is a simple or absolute pointer protocol handle.
type Pointer interface {
	Mode() PointerMode
	Reset() error
	// ReadState returns ok=false when nothing changed since the last read.
	ReadState() (state PointerState, ok bool, err error)
}

// KeyCode is a minimal key identifier for non-printable keys.
type KeyCode uint16

const (
	KeyUnknown KeyCode = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyEnter
	KeyEscape
	KeyBackspace
	KeyTab
	KeyDelete
	KeyHome
	KeyEnd
	KeyF1
	KeyF2
	KeyF3
)

// KeyEvent is a keyboard event. Printable keys carry Rune.
type KeyEvent struct {
	Code  KeyCode
	Rune  rune
	Press bool
}

// Keyboard is a text input protocol handle.
type Keyboard interface {
	Reset() error
	// ReadKey returns ok=false when no key is queued.
	ReadKey() (ev KeyEvent, ok bool, err error)
	// ReportsRelease is false for stroke-only devices (UEFI text input).
	ReportsRelease() bool
}

// Timer is a free-running counter. Frequency is 0 when the platform
// cannot report it and the counter has to be calibrated.
type Timer interface {
	Counter() uint64
	Frequency() uint64
}

// ResetType selects the kind of system reset.
type ResetType uint8

const (
	ResetCold ResetType = iota
	ResetWarm
	ResetShutdown
)

// RuntimeServices is the surface that stays callable after the handoff.
type RuntimeServices interface {
	Timer() Timer
	Stall(d time.Duration)
	ResetSystem(kind ResetType, status Status)
}

// PhysMem maps physical ranges reported by the memory map into
// addressable memory.
type PhysMem interface {
	Map(addr, size uint64) ([]byte, error)
}

// Firmware is the boot services table handed to the application entry.
type Firmware interface {
	Logger() Logger
	MemoryMap() (MemoryMap, error)
	LocateGraphics() ([]GraphicsOutput, error)
	LocatePointers() ([]Pointer, error)
	LocateKeyboards() ([]Keyboard, error)
	PhysMem() PhysMem
	Runtime() RuntimeServices
	// ExitBootServices ends boot services. mapKey must match the key of
	// the most recent memory map.
	ExitBootServices(mapKey uint64) error
}
