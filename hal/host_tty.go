//go:build !tinygo

package hal

import (
	"github.com/mattn/go-tty"
)

// startTTYKeyboard forwards terminal keystrokes to the firmware keyboard.
// A terminal only reports strokes, so every rune becomes a press.
func startTTYKeyboard(fw *Sim) (stop func(), err error) {
	t, err := tty.Open()
	if err != nil {
		return nil, err
	}
	go func() {
		for {
			r, err := t.ReadRune()
			if err != nil {
				return
			}
			fw.PushKey(ttyKeyEvent(r))
		}
	}()
	return func() { _ = t.Close() }, nil
}

func ttyKeyEvent(r rune) KeyEvent {
	switch r {
	case 0x1b:
		return KeyEvent{Code: KeyEscape, Press: true}
	case '\r', '\n':
		return KeyEvent{Code: KeyEnter, Press: true}
	case '\t':
		return KeyEvent{Code: KeyTab, Press: true}
	case 0x7f, 0x08:
		return KeyEvent{Code: KeyBackspace, Press: true}
	default:
		return KeyEvent{Rune: r, Press: true}
	}
}
