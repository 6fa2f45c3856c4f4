//go:build !tinygo && cgo

package hal

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

type hostInput struct {
	lastX, lastY int
	primed       bool
}

var hostKeys = []struct {
	key  ebiten.Key
	code KeyCode
	r    rune
}{
	{key: ebiten.KeyW, r: 'w'},
	{key: ebiten.KeyA, r: 'a'},
	{key: ebiten.KeyS, r: 's'},
	{key: ebiten.KeyD, r: 'd'},
	{key: ebiten.KeyC, r: 'c'},
	{key: ebiten.KeyQ, r: 'q'},
	{key: ebiten.KeySpace, r: ' '},
	{key: ebiten.Key1, r: '1'},
	{key: ebiten.Key2, r: '2'},
	{key: ebiten.Key3, r: '3'},
	{key: ebiten.Key4, r: '4'},
	{key: ebiten.Key5, r: '5'},
	{key: ebiten.KeyEscape, code: KeyEscape},
	{key: ebiten.KeyArrowUp, code: KeyUp},
	{key: ebiten.KeyArrowDown, code: KeyDown},
	{key: ebiten.KeyArrowLeft, code: KeyLeft},
	{key: ebiten.KeyArrowRight, code: KeyRight},
	{key: ebiten.KeyF3, code: KeyF3},
}

// poll forwards this tick's mouse motion, buttons and key edges.
func (in *hostInput) poll(fw *Sim) {
	x, y := ebiten.CursorPosition()
	if in.primed && (x != in.lastX || y != in.lastY) {
		fw.MovePointer(int32(x-in.lastX), int32(y-in.lastY))
	}
	in.lastX, in.lastY = x, y
	in.primed = true

	fw.SetButtons(
		ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft),
		ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight),
		ebiten.IsMouseButtonPressed(ebiten.MouseButtonMiddle),
	)

	for _, k := range hostKeys {
		if inpututil.IsKeyJustPressed(k.key) {
			fw.PushKey(KeyEvent{Code: k.code, Rune: k.r, Press: true})
		}
		if inpututil.IsKeyJustReleased(k.key) {
			fw.PushKey(KeyEvent{Code: k.code, Rune: k.r, Press: false})
		}
	}
}
