package display

import "encoding/binary"

// Frame is the back buffer handed to the renderer for one frame. Pixels
// are XRGB8888, little endian. Stride is in pixels.
type Frame struct {
	Width  int
	Height int
	Stride int
	Pix    []byte
}

// RGB packs a colour the way Frame stores it.
func RGB(r, g, b uint8) uint32 {
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// Split unpacks a Frame colour.
func Split(c uint32) (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// Set writes one pixel. Coordinates outside the frame panic.
func (f Frame) Set(x, y int, c uint32) {
	if uint(x) >= uint(f.Width) || uint(y) >= uint(f.Height) {
		panic("display: pixel out of range")
	}
	off := (y*f.Stride + x) * 4
	binary.LittleEndian.PutUint32(f.Pix[off:off+4], c)
}

// At reads one pixel. Coordinates outside the frame panic.
func (f Frame) At(x, y int) uint32 {
	if uint(x) >= uint(f.Width) || uint(y) >= uint(f.Height) {
		panic("display: pixel out of range")
	}
	off := (y*f.Stride + x) * 4
	return binary.LittleEndian.Uint32(f.Pix[off : off+4])
}

// Row returns the bytes of scan line y.
func (f Frame) Row(y int) []byte {
	off := y * f.Stride * 4
	return f.Pix[off : off+f.Width*4]
}

// Fill sets every pixel to c.
func (f Frame) Fill(c uint32) {
	if f.Height == 0 || f.Width == 0 {
		return
	}
	row := f.Row(0)
	for x := 0; x < f.Width; x++ {
		binary.LittleEndian.PutUint32(row[x*4:], c)
	}
	for y := 1; y < f.Height; y++ {
		copy(f.Row(y), row)
	}
}

// FillRect fills the intersection of the rectangle with the frame.
func (f Frame) FillRect(x, y, w, h int, c uint32) {
	x0, y0 := max(x, 0), max(y, 0)
	x1, y1 := min(x+w, f.Width), min(y+h, f.Height)
	for yy := y0; yy < y1; yy++ {
		row := f.Row(yy)
		for xx := x0; xx < x1; xx++ {
			binary.LittleEndian.PutUint32(row[xx*4:], c)
		}
	}
}
