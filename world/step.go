package world

import (
	"time"

	"voxos/input"
)

// Events reports what one Step did.
type Events struct {
	Ticks   int
	Removed bool
	Placed  bool
	Exit    bool
}

// TickDuration is the simulated time of one tick.
func (w *World) TickDuration() time.Duration {
	return time.Second / time.Duration(w.cfg.TickRate)
}

// Step advances the world by dt under input in. Deltas above
// MaxFrameDelta are clamped and negative deltas count as zero. Button
// and key presses act on the transition from released to pressed, so a
// held button edits once.
func (w *World) Step(in input.State, dt time.Duration) Events {
	var ev Events
	if w.exit {
		ev.Exit = true
		return ev
	}

	pressedButtons := in.Buttons &^ w.prevButtons
	pressedKeys := in.Keys &^ w.prevKeys
	allButtons := in.Buttons&input.AllButtons == input.AllButtons &&
		w.prevButtons&input.AllButtons != input.AllButtons
	w.prevButtons = in.Buttons
	w.prevKeys = in.Keys

	if pressedKeys&(input.KeyEscape|input.KeyQuit) != 0 || allButtons {
		w.exit = true
		ev.Exit = true
		return ev
	}

	w.Player.look(in.DeltaX, in.DeltaY, w.cfg.Sensitivity)

	pressedSlot := input.State{Keys: pressedKeys}.Slot()
	if pressedSlot > 0 {
		w.Selected = Block(pressedSlot)
	}
	if pressedKeys&input.KeyCrouch != 0 && w.onGround(w.Player) {
		w.toggleCrouch()
	}
	if pressedButtons&input.ButtonLeft != 0 {
		ev.Removed = w.removeTarget()
	}
	if pressedButtons&input.ButtonRight != 0 {
		ev.Placed = w.placeAtTarget()
	}

	if dt < 0 {
		dt = 0
	}
	if dt > w.cfg.MaxFrameDelta {
		dt = w.cfg.MaxFrameDelta
	}
	w.acc += dt
	step := w.TickDuration()
	for w.acc >= step {
		w.acc -= step
		w.tick(in.Keys)
		w.Tick++
		ev.Ticks++
	}
	return ev
}

func (w *World) toggleCrouch() {
	p := w.Player
	// Keep the feet where they are; only the eye moves.
	feet := p.Pos.Y - eyeHeight(p.Crouching)
	next := p
	next.Crouching = !p.Crouching
	next.Pos.Y = feet + eyeHeight(next.Crouching)
	if w.collides(next.Pos, next.Crouching) {
		return
	}
	w.Player = next
}

func (w *World) removeTarget() bool {
	hit, ok := w.Target()
	if !ok || !hit.Block.Breakable() {
		return false
	}
	return w.set(hit.X, hit.Y, hit.Z, Air)
}

func (w *World) placeAtTarget() bool {
	hit, ok := w.Target()
	if !ok {
		return false
	}
	x, y, z := hit.X+hit.NX, hit.Y+hit.NY, hit.Z+hit.NZ
	if !w.InBounds(x, y, z) || w.At(x, y, z).Solid() {
		return false
	}
	if w.Selected.Solid() && w.Player.overlapsCell(x, y, z) {
		return false
	}
	return w.set(x, y, z, w.Selected)
}

// tick is one fixed simulation step: walk, gravity or fly, then move one
// axis at a time and undo any move that ends inside a solid block.
func (w *World) tick(keys input.Keys) {
	p := &w.Player
	onGround := w.onGround(*p)

	forward, right, _ := Basis(p.Yaw, 0)
	var wish Vec3
	if keys&input.KeyForward != 0 {
		wish = wish.Add(forward)
	}
	if keys&input.KeyBack != 0 {
		wish = wish.Sub(forward)
	}
	if keys&input.KeyRight != 0 {
		wish = wish.Add(right)
	}
	if keys&input.KeyLeft != 0 {
		wish = wish.Sub(right)
	}
	wish = wish.Normalize()
	p.Vel.X = wish.X * MoveSpeed
	p.Vel.Z = wish.Z * MoveSpeed

	fly := false
	var flyY float32
	switch {
	case keys&input.KeyJump != 0 && onGround:
		p.Vel.Y = JumpStrength
	case keys&input.KeyJump != 0:
		fly, flyY = true, FlySpeed
	case keys&input.KeyCrouch != 0 && !onGround:
		fly, flyY = true, -FlySpeed
	}
	switch {
	case fly:
		p.Vel.Y = flyY
	case onGround:
		p.Vel.Y = max(p.Vel.Y, 0)
	default:
		p.Vel.Y -= Gravity
	}
	p.Vel.Y = clampF32(p.Vel.Y, -TerminalVelocity, TerminalVelocity)

	next := p.Pos
	next.X += p.Vel.X
	if w.collides(next, p.Crouching) {
		next.X = p.Pos.X
	}
	next.Z += p.Vel.Z
	if w.collides(next, p.Crouching) {
		next.Z = p.Pos.Z
	}
	next.Y += p.Vel.Y
	if w.collides(next, p.Crouching) {
		next.Y = p.Pos.Y
		p.Vel.Y = 0
	}
	p.Pos = next
	p.OnGround = w.onGround(*p)
}
