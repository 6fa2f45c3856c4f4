package render

import (
	"image/color"
	"strconv"

	"voxos/display"
	"voxos/world"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

// HUD is the frame loop state shown over the scene.
type HUD struct {
	FPS     int
	Dropped uint64
	// Debug adds the eye position and the targeted block.
	Debug bool
}

const hudBytes = 128

var (
	hudFont   tinyfont.Fonter = &proggy.TinySZ8pt7b
	hudText                   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	hudShadow                 = color.RGBA{A: 255}
)

// frameDisplay lets tinyfont draw into a frame. Pixels off the frame are
// dropped. The renderer owns one and points it at each frame in turn.
type frameDisplay struct {
	f display.Frame
}

func (d *frameDisplay) Size() (x, y int16) { return int16(d.f.Width), int16(d.f.Height) }

func (d *frameDisplay) SetPixel(x, y int16, c color.RGBA) {
	if x < 0 || y < 0 || int(x) >= d.f.Width || int(y) >= d.f.Height {
		return
	}
	d.f.Set(int(x), int(y), display.RGB(c.R, c.G, c.B))
}

func (d *frameDisplay) Display() error { return nil }

// drawCrosshair inverts a small cross at the centre of f.
func drawCrosshair(f display.Frame) {
	const arm = 4
	cx, cy := f.Width/2, f.Height/2
	for i := -arm; i <= arm; i++ {
		invert(f, cx+i, cy)
		if i != 0 {
			invert(f, cx, cy+i)
		}
	}
}

func invert(f display.Frame, x, y int) {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return
	}
	f.Set(x, y, f.At(x, y)^0xffffff)
}

// formatHUD writes the status line into buf and returns it. The line is
// cut at cap(buf); buf comes from scratch and is never grown.
func formatHUD(buf []byte, w *world.World, hud HUD) []byte {
	var num [48]byte
	line := buf[:0]
	line = appendFitBytes(line, strconv.AppendInt(num[:0], int64(hud.FPS), 10))
	line = appendFit(line, " fps  ")
	line = appendFit(line, w.Selected.String())
	if hud.Dropped > 0 {
		line = appendFit(line, "  drop ")
		line = appendFitBytes(line, strconv.AppendUint(num[:0], hud.Dropped, 10))
	}
	if hud.Debug {
		p := w.Player.Pos
		line = appendFit(line, "  ")
		line = appendFitBytes(line, appendCoord(num[:0], p.X))
		line = appendFit(line, " ")
		line = appendFitBytes(line, appendCoord(num[:0], p.Y))
		line = appendFit(line, " ")
		line = appendFitBytes(line, appendCoord(num[:0], p.Z))
		if t, ok := w.Target(); ok {
			line = appendFit(line, "  > ")
			line = appendFit(line, t.Block.String())
		}
	}
	return line
}

// drawHUD draws line with a drop shadow in the top left corner of d.
func drawHUD(d *frameDisplay, line []byte) {
	_, adv := tinyfont.LineWidth(hudFont, "0")
	if adv == 0 {
		return
	}
	y := int16(hudFont.GetYAdvance()) - 2
	x := int16(2)
	for _, c := range line {
		g := hudFont.GetGlyph(rune(c))
		g.Draw(d, x+1, y+1, hudShadow)
		g.Draw(d, x, y, hudText)
		x += int16(adv)
		if int(x) >= d.f.Width {
			break
		}
	}
}

// appendFit appends as much of s as still fits in cap(b).
func appendFit(b []byte, s string) []byte {
	return append(b, s[:min(len(s), cap(b)-len(b))]...)
}

func appendFitBytes(b, p []byte) []byte {
	return append(b, p[:min(len(p), cap(b)-len(b))]...)
}

func appendCoord(b []byte, v float32) []byte {
	return strconv.AppendFloat(b, float64(v), 'f', 1, 32)
}
