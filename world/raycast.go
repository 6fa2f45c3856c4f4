package world

import "math"

// Hit is a block found by Raycast. Normal points out of the face the ray
// entered through, so the cell in front of the face is X+NX, Y+NY, Z+NZ.
type Hit struct {
	X, Y, Z    int
	NX, NY, NZ int
	Block      Block
	Dist       float32
}

// ddaInit prepares one axis of a voxel traversal.
func ddaInit(pos, dir float32, cell int) (step int, tMax, tDelta float32) {
	if dir > 0 {
		return 1, (float32(cell+1) - pos) / dir, 1 / dir
	}
	if dir < 0 {
		return -1, (pos - float32(cell)) / -dir, 1 / -dir
	}
	return 0, float32(math.Inf(1)), float32(math.Inf(1))
}

// Raycast walks the grid from origin along dir and returns the first
// solid block within maxDist. Water does not stop the ray.
func (w *World) Raycast(origin, dir Vec3, maxDist float32) (Hit, bool) {
	dir = dir.Normalize()
	if dir == (Vec3{}) || maxDist <= 0 {
		return Hit{}, false
	}
	x, y, z := FastFloor(origin.X), FastFloor(origin.Y), FastFloor(origin.Z)
	stepX, tMaxX, tDeltaX := ddaInit(origin.X, dir.X, x)
	stepY, tMaxY, tDeltaY := ddaInit(origin.Y, dir.Y, y)
	stepZ, tMaxZ, tDeltaZ := ddaInit(origin.Z, dir.Z, z)

	if b := w.At(x, y, z); b.Solid() {
		return Hit{X: x, Y: y, Z: z, Block: b}, true
	}

	maxSteps := 3 * (int(maxDist) + 2)
	var dist float32
	var nx, ny, nz int
	for range maxSteps {
		switch {
		case tMaxX < tMaxY && tMaxX < tMaxZ:
			x += stepX
			dist = tMaxX
			tMaxX += tDeltaX
			nx, ny, nz = -stepX, 0, 0
		case tMaxY < tMaxZ:
			y += stepY
			dist = tMaxY
			tMaxY += tDeltaY
			nx, ny, nz = 0, -stepY, 0
		default:
			z += stepZ
			dist = tMaxZ
			tMaxZ += tDeltaZ
			nx, ny, nz = 0, 0, -stepZ
		}
		if dist > maxDist {
			return Hit{}, false
		}
		if b := w.At(x, y, z); b.Solid() {
			return Hit{X: x, Y: y, Z: z, NX: nx, NY: ny, NZ: nz, Block: b, Dist: dist}, true
		}
	}
	return Hit{}, false
}

// Target returns the block the player is looking at within edit range.
func (w *World) Target() (Hit, bool) {
	return w.Raycast(w.Player.Pos, w.Player.Look(), w.cfg.EditRange)
}
