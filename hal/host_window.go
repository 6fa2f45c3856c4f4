//go:build !tinygo && cgo

package hal

import (
	"errors"
	"image"

	"voxos/internal/buildinfo"

	"github.com/hajimehoshi/ebiten/v2"
)

// RunWindow opens a desktop window that shows every presented frame of
// fw and forwards mouse and keyboard input to it. step runs once per
// window tick; returning ErrHalt closes the window. It blocks until the
// window closes.
func RunWindow(fw *Sim, step func() error) error {
	w, h := 800, 600
	if info, ok := fw.DisplayMode(); ok {
		w, h = info.Width, info.Height
	}

	g := &hostGame{fw: fw, step: step, w: w, h: h}
	ebiten.SetWindowTitle("voxos (" + buildinfo.Short() + ")")
	ebiten.SetWindowSize(w, h)
	ebiten.SetTPS(60)
	ebiten.SetCursorMode(ebiten.CursorModeCaptured)

	err := ebiten.RunGame(g)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

type hostGame struct {
	fw   *Sim
	step func() error
	in   hostInput

	w, h    int
	img     *image.RGBA
	fbImg   *ebiten.Image
	scratch []byte
}

func (g *hostGame) Update() error {
	g.in.poll(g.fw)
	if g.step == nil {
		return nil
	}
	if err := g.step(); err != nil {
		if errors.Is(err, ErrHalt) {
			return ebiten.Termination
		}
		return err
	}
	return nil
}

func (g *hostGame) Draw(screen *ebiten.Image) {
	var info ModeInfo
	var ok bool
	g.scratch, info, ok = g.fw.Snapshot(g.scratch)
	if !ok {
		return
	}
	if g.img == nil || g.img.Bounds().Dx() != info.Width || g.img.Bounds().Dy() != info.Height {
		g.img = image.NewRGBA(image.Rect(0, 0, info.Width, info.Height))
		if g.fbImg != nil {
			g.fbImg.Deallocate()
		}
		g.fbImg = ebiten.NewImage(info.Width, info.Height)
		g.w, g.h = info.Width, info.Height
	}

	src := g.scratch
	dst := g.img.Pix
	for y := 0; y < info.Height; y++ {
		row := y * info.Stride * BytesPerPixel
		for x := 0; x < info.Width; x++ {
			off := row + x*BytesPerPixel
			if off+3 >= len(src) {
				break
			}
			p := uint32(src[off]) | uint32(src[off+1])<<8 | uint32(src[off+2])<<16 | uint32(src[off+3])<<24
			r, gg, b := UnpackPixel(info, p)
			j := (y*info.Width + x) * 4
			dst[j+0] = r
			dst[j+1] = gg
			dst[j+2] = b
			dst[j+3] = 0xFF
		}
	}

	g.fbImg.WritePixels(g.img.Pix)
	screen.DrawImage(g.fbImg, nil)
}

func (g *hostGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.w, g.h
}
