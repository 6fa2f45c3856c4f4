package app

import (
	"image/color"
	"strings"
	"unicode/utf8"

	"voxos/display"
	"voxos/fault"
	"voxos/hal"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

var (
	faultBG = color.RGBA{R: 0x20, G: 0x00, B: 0x00, A: 0xFF}
	faultFG = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
)

// logFault writes the fault and the panic stack, if any, to l.
func logFault(l hal.Logger, err error, stack []byte) {
	hal.Logf(l, "voxos halted: %s fault, status %s", fault.KindOf(err), fault.StatusOf(err))
	hal.Logf(l, "error: %v", err)
	for _, line := range strings.Split(string(stack), "\n") {
		if line != "" {
			l.WriteLineString(line)
		}
	}
}

// drawFault fills t with a description of err and presents it. Lines
// that do not fit are cut.
func drawFault(t *display.Target, err error, stack []byte) error {
	t.Clear(faultBG)

	font := &proggy.TinySZ8pt7b
	lineHeight := int16(font.GetYAdvance())
	fontOffset := lineHeight - 3
	_, outboxWidth := tinyfont.LineWidth(font, "0")
	fontWidth := int16(outboxWidth)
	if fontWidth <= 0 || lineHeight <= 0 {
		return t.Display()
	}

	lines := []string{
		"voxos halted",
		"fault: " + fault.KindOf(err).String(),
		"status: " + fault.StatusOf(err).String(),
		"error: " + err.Error(),
	}
	if len(stack) > 0 {
		lines = append(lines, "stack:")
		for _, line := range strings.Split(string(stack), "\n") {
			if line != "" {
				lines = append(lines, line)
			}
		}
	}

	w, h := t.Size()
	cols := max(w/fontWidth, 1)
	y := int16(0)
draw:
	for _, line := range lines {
		for len(line) > 0 {
			if y+lineHeight > h {
				break draw
			}
			chunk, rest := takeRunes(line, cols)
			drawTextLine(t, font, fontWidth, fontOffset, 0, y, chunk, faultFG)
			y += lineHeight
			line = strings.TrimLeft(rest, " \t")
		}
	}
	return t.Display()
}

func drawTextLine(t *display.Target, font tinyfont.Fonter, fontWidth, fontOffset, x0, y0 int16, s string, fg color.RGBA) {
	x := x0
	for _, r := range s {
		tinyfont.DrawChar(t, font, x, y0+fontOffset, r, fg)
		x += fontWidth
	}
}

// takeRunes splits s after n runes.
func takeRunes(s string, n int16) (prefix, rest string) {
	if n <= 0 || s == "" {
		return "", s
	}
	var i int
	for count := int16(0); i < len(s) && count < n; count++ {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s[:i], s[i:]
}
