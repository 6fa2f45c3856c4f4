// Package display owns the graphics output: it picks and locks a mode,
// keeps a back buffer in arena memory, and copies only completed frames
// to the device.
package display

import (
	"encoding/binary"
	"errors"

	"voxos/boot"
	"voxos/fault"
	"voxos/hal"
	"voxos/mem"

	"github.com/dustin/go-humanize"
)

// ErrNoGraphics is returned when no handle offers a linear framebuffer.
var ErrNoGraphics = errors.New("no usable graphics output")

// Options selects the mode and render scale.
type Options struct {
	// Width and Height request a resolution. Zero keeps the current mode.
	Width  int
	Height int
	// Scale divides the device resolution to get the render resolution.
	Scale int
}

type frameState uint8

const (
	frameIdle frameState = iota
	frameDrawing
	frameReady
)

// Surface is the display for the rest of the run. The mode never changes
// after New.
type Surface struct {
	gop    hal.GraphicsOutput
	mode   int
	info   hal.ModeInfo
	scale  int
	back   Frame
	state  frameState
	logger hal.Logger

	presents uint64
}

// New selects a graphics output and mode and allocates the back buffer.
// Among all handles the exact requested resolution wins, then the
// largest mode that fits inside it, then the current mode of the first
// usable handle.
func New(ctx *boot.Context, a *mem.Arena, opts Options) (*Surface, error) {
	gops, err := ctx.Graphics()
	if err != nil {
		return nil, fault.Wrap(fault.KindBootFatal, "display", err)
	}
	gop, mode, info, ok := selectMode(gops, opts.Width, opts.Height)
	if !ok {
		return nil, fault.Wrap(fault.KindBootFatal, "display", ErrNoGraphics)
	}
	if cur, _ := gop.Mode(); cur != mode {
		if err := gop.SetMode(mode); err != nil {
			return nil, fault.Wrap(fault.KindBootFatal, "display: set mode", err)
		}
	}

	scale := opts.Scale
	if scale < 1 {
		scale = 1
	}
	bw, bh := max(info.Width/scale, 1), max(info.Height/scale, 1)
	size := uint64(bw) * uint64(bh) * 4
	blk, err := a.Allocate(size, 64)
	if err != nil {
		return nil, fault.Wrap(fault.KindOutOfMemory, "display: back buffer", err)
	}
	if blk.Bytes == nil {
		return nil, fault.New(fault.KindLogic, "display: back buffer", "arena has no mapper")
	}

	s := &Surface{
		gop:    gop,
		mode:   mode,
		info:   info,
		scale:  scale,
		back:   Frame{Width: bw, Height: bh, Stride: bw, Pix: blk.Bytes},
		logger: ctx.Logger(),
	}
	hal.Logf(s.logger, "display: mode %d %dx%d %s stride %d, render %dx%d (%s)",
		mode, info.Width, info.Height, info.Format, info.Stride, bw, bh, humanize.IBytes(size))
	return s, nil
}

func usable(info hal.ModeInfo) bool {
	if info.Width <= 0 || info.Height <= 0 || info.Stride < info.Width {
		return false
	}
	switch info.Format {
	case hal.PixelRGBReserved8, hal.PixelBGRReserved8:
		return true
	case hal.PixelBitMask:
		return info.Mask.Red != 0 && info.Mask.Green != 0 && info.Mask.Blue != 0
	default:
		return false
	}
}

func selectMode(gops []hal.GraphicsOutput, w, h int) (hal.GraphicsOutput, int, hal.ModeInfo, bool) {
	var (
		fallback     hal.GraphicsOutput
		fallbackMode int
		fallbackInfo hal.ModeInfo
		haveFallback bool

		best     hal.GraphicsOutput
		bestMode int
		bestInfo hal.ModeInfo
		bestArea int
	)
	for _, g := range gops {
		if g == nil {
			continue
		}
		cur, curInfo := g.Mode()
		if !haveFallback && usable(curInfo) {
			fallback, fallbackMode, fallbackInfo, haveFallback = g, cur, curInfo, true
		}
		if w <= 0 || h <= 0 {
			continue
		}
		for m := 0; m < g.MaxMode(); m++ {
			info, err := g.QueryMode(m)
			if err != nil || !usable(info) {
				continue
			}
			if info.Width == w && info.Height == h {
				return g, m, info, true
			}
			if info.Width <= w && info.Height <= h && info.Width*info.Height > bestArea {
				best, bestMode, bestInfo, bestArea = g, m, info, info.Width*info.Height
			}
		}
	}
	if best != nil {
		return best, bestMode, bestInfo, true
	}
	if haveFallback {
		return fallback, fallbackMode, fallbackInfo, true
	}
	return nil, 0, hal.ModeInfo{}, false
}

// Mode returns the locked device mode.
func (s *Surface) Mode() hal.ModeInfo { return s.info }

// Size returns the render resolution.
func (s *Surface) Size() (w, h int) { return s.back.Width, s.back.Height }

func (s *Surface) Scale() int { return s.scale }

// Presents returns the number of frames shown.
func (s *Surface) Presents() uint64 { return s.presents }

// BeginFrame hands out the back buffer. It stays valid until the next
// BeginFrame. Beginning again before Present discards the unfinished
// frame.
func (s *Surface) BeginFrame() Frame {
	s.state = frameDrawing
	return s.back
}

// EndFrame marks the frame complete so Present may show it.
func (s *Surface) EndFrame() error {
	if s.state != frameDrawing {
		return fault.New(fault.KindLogic, "display: end frame", "no frame in progress")
	}
	s.state = frameReady
	return nil
}

// DropFrame abandons the frame in progress. The device keeps showing the
// last presented frame.
func (s *Surface) DropFrame() {
	if s.state == frameDrawing {
		s.state = frameIdle
	}
}

// Present copies the completed frame to the device, scaling it up to the
// mode resolution. Presenting without a completed frame is a logic
// fault; any device failure is a device-lost fault.
func (s *Surface) Present() error {
	if s.state != frameReady {
		return fault.New(fault.KindLogic, "display: present", "no completed frame")
	}
	s.state = frameIdle

	fb, err := s.gop.FrameBuffer()
	if err != nil {
		return fault.Wrap(fault.KindDeviceLost, "display: framebuffer", err)
	}
	if len(fb) < s.info.Stride*s.info.Height*hal.BytesPerPixel {
		return fault.New(fault.KindDeviceLost, "display: framebuffer", "shorter than the mode")
	}
	s.blit(fb)
	if err := s.gop.Present(); err != nil {
		return fault.Wrap(fault.KindDeviceLost, "display: present", err)
	}
	s.presents++
	return nil
}

func (s *Surface) blit(fb []byte) {
	info := s.info
	back := s.back
	for y := 0; y < info.Height; y++ {
		sy := min(y/s.scale, back.Height-1)
		src := back.Row(sy)
		dst := fb[y*info.Stride*hal.BytesPerPixel:]
		for x := 0; x < info.Width; x++ {
			sx := min(x/s.scale, back.Width-1)
			c := binary.LittleEndian.Uint32(src[sx*4:])
			switch info.Format {
			case hal.PixelBGRReserved8:
			case hal.PixelRGBReserved8:
				c = (c&0xFF)<<16 | c&0xFF00 | (c>>16)&0xFF
			default:
				r, g, b := Split(c)
				c = hal.PackPixel(info, r, g, b)
			}
			binary.LittleEndian.PutUint32(dst[x*4:], c)
		}
	}
}
