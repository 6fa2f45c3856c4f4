package world

import "math"

// Per-tick movement constants, in blocks and blocks per tick.
const (
	PlayerHeight   = 1.8
	CrouchHeight   = 1.3
	PlayerEyeRatio = 0.9
	CrouchEyeRatio = 0.8
	PlayerWidth    = 0.6

	Gravity      = 0.025
	JumpStrength = 0.3
	FlySpeed     = 0.15
	MoveSpeed    = 0.1

	// TerminalVelocity keeps a tick's fall under one block, so a fall can
	// never skip a floor.
	TerminalVelocity = 0.9

	groundProbe = 0.05
)

// Player is the camera body. Pos is the eye position.
type Player struct {
	Pos       Vec3
	Vel       Vec3
	Yaw       float32
	Pitch     float32
	Crouching bool
	OnGround  bool
}

func height(crouching bool) float32 {
	if crouching {
		return CrouchHeight
	}
	return PlayerHeight
}

func eyeRatio(crouching bool) float32 {
	if crouching {
		return CrouchEyeRatio
	}
	return PlayerEyeRatio
}

func eyeHeight(crouching bool) float32 { return height(crouching) * eyeRatio(crouching) }

// Look returns the view direction.
func (p Player) Look() Vec3 {
	f, _, _ := Basis(p.Yaw, p.Pitch)
	return f
}

// bounds returns the player box for an eye position.
func bounds(pos Vec3, crouching bool) (lo, hi Vec3) {
	h := height(crouching)
	r := eyeRatio(crouching)
	half := float32(PlayerWidth / 2)
	lo = Vec3{pos.X - half, pos.Y - h*r, pos.Z - half}
	hi = Vec3{pos.X + half, pos.Y + h*(1-r), pos.Z + half}
	return lo, hi
}

// solidAt is the collision view of the grid: the sides and floor of the
// grid are walls, the sky above it is open.
func (w *World) solidAt(x, y, z int) bool {
	sx, sy, sz := w.Size()
	if x < 0 || z < 0 || x >= sx || z >= sz || y < 0 {
		return true
	}
	if y >= sy {
		return false
	}
	return w.At(x, y, z).Solid()
}

func (w *World) collides(pos Vec3, crouching bool) bool {
	lo, hi := bounds(pos, crouching)
	for by := FastFloor(lo.Y); by <= FastFloor(hi.Y); by++ {
		for bz := FastFloor(lo.Z); bz <= FastFloor(hi.Z); bz++ {
			for bx := FastFloor(lo.X); bx <= FastFloor(hi.X); bx++ {
				if w.solidAt(bx, by, bz) {
					return true
				}
			}
		}
	}
	return false
}

// overlapsCell reports whether the player box intersects block cell
// (x, y, z).
func (p Player) overlapsCell(x, y, z int) bool {
	lo, hi := bounds(p.Pos, p.Crouching)
	return lo.X < float32(x+1) && hi.X > float32(x) &&
		lo.Y < float32(y+1) && hi.Y > float32(y) &&
		lo.Z < float32(z+1) && hi.Z > float32(z)
}

func (w *World) onGround(p Player) bool {
	probe := p.Pos
	probe.Y -= groundProbe
	return w.collides(probe, p.Crouching)
}

// look turns the player by pointer motion. Pitch stops at straight up
// and straight down.
func (p *Player) look(dx, dy int32, sensitivity float32) {
	if dx == 0 && dy == 0 {
		return
	}
	p.Yaw += float32(dx) * sensitivity
	p.Pitch -= float32(dy) * sensitivity
	p.Pitch = clampF32(p.Pitch, -math.Pi/2, math.Pi/2)
	p.Yaw = float32(math.Remainder(float64(p.Yaw), 2*math.Pi))
}
