package display

import (
	"encoding/binary"
	"errors"
	"image/color"

	"voxos/fault"
	"voxos/mem"

	"tinygo.org/x/drivers"
)

// Target draws text and shapes onto a Surface outside the frame loop:
// the boot console and the fault screen. It keeps its own canvas and
// emulates a hardware scroll register, so a terminal can scroll without
// redrawing.
type Target struct {
	s      *Surface
	canvas Frame
	scroll int16
}

// NewTarget allocates a canvas the size of the render resolution.
func NewTarget(s *Surface, a *mem.Arena) (*Target, error) {
	w, h := s.Size()
	blk, err := a.Allocate(uint64(w)*uint64(h)*4, 64)
	if err != nil {
		return nil, fault.Wrap(fault.KindOutOfMemory, "display: target", err)
	}
	if blk.Bytes == nil {
		return nil, fault.New(fault.KindLogic, "display: target", "arena has no mapper")
	}
	return &Target{s: s, canvas: Frame{Width: w, Height: h, Stride: w, Pix: blk.Bytes}}, nil
}

func (t *Target) Size() (x, y int16) {
	return int16(t.canvas.Width), int16(t.canvas.Height)
}

func (t *Target) SetPixel(x, y int16, c color.RGBA) {
	if x < 0 || y < 0 || int(x) >= t.canvas.Width || int(y) >= t.canvas.Height {
		return
	}
	t.canvas.Set(int(x), int(y), RGB(c.R, c.G, c.B))
}

func (t *Target) FillRectangle(x, y, width, height int16, c color.RGBA) error {
	if width < 0 || height < 0 {
		return errors.New("display: negative rectangle")
	}
	t.canvas.FillRect(int(x), int(y), int(width), int(height), RGB(c.R, c.G, c.B))
	return nil
}

// Clear fills the canvas and resets the scroll offset.
func (t *Target) Clear(c color.RGBA) {
	t.canvas.Fill(RGB(c.R, c.G, c.B))
	t.scroll = 0
}

// SetScroll makes canvas line `line` the top of the visible image.
func (t *Target) SetScroll(line int16) {
	h := int16(t.canvas.Height)
	if h == 0 {
		return
	}
	t.scroll = ((line % h) + h) % h
}

func (t *Target) SetRotation(rotation drivers.Rotation) error {
	if rotation != drivers.Rotation0 {
		return errors.New("display: rotation not supported")
	}
	return nil
}

// Display presents the canvas.
func (t *Target) Display() error {
	f := t.s.BeginFrame()
	h := t.canvas.Height
	for y := 0; y < f.Height && y < h; y++ {
		src := t.canvas.Row((y + int(t.scroll)) % h)
		copy(f.Row(y), src)
	}
	if err := t.s.EndFrame(); err != nil {
		return err
	}
	return t.s.Present()
}

// pixel returns the visible colour at (x, y), for tests.
func (t *Target) pixel(x, y int) uint32 {
	row := t.canvas.Row((y + int(t.scroll)) % t.canvas.Height)
	return binary.LittleEndian.Uint32(row[x*4:])
}
