// Package render draws the world into a display frame by marching one
// ray per pixel through the voxel grid.
package render

import (
	"encoding/binary"
	"math"

	"voxos/display"
	"voxos/fault"
	"voxos/mem"
	"voxos/world"
)

// Options bounds the ray march.
type Options struct {
	// MaxDistance is how far, in blocks, a ray may travel before it
	// shows sky. It also sets the fog distance.
	MaxDistance float32
	// MaxSteps caps the cells and chunk skips one ray may visit.
	MaxSteps int
	// FOV is the tangent of half the vertical field of view.
	FOV float32
}

// DefaultOptions matches a 64 block world viewed at about 84° vertical.
func DefaultOptions() Options {
	return Options{MaxDistance: 48, MaxSteps: 192, FOV: 0.9}
}

// Renderer holds per-resolution camera tables. It never modifies the
// world it draws.
type Renderer struct {
	w, h    int
	opts    Options
	scratch *mem.Scratch
	disp    *frameDisplay

	// Screen-space ray offsets per column and row, as little endian
	// float32s.
	colDir []byte
	rowDir []byte
	light  world.Vec3
}

// TableSize returns the bytes New needs for its camera tables at w×h.
func TableSize(w, h int) uint64 {
	if w <= 0 || h <= 0 {
		return 0
	}
	return uint64(w+h) * 4
}

// New prepares a renderer for frames of w×h pixels. The camera tables
// live in tables, which must hold TableSize(w, h) bytes; per-frame
// working memory comes from scratch.
func New(w, h int, tables []byte, scratch *mem.Scratch, opts Options) (*Renderer, error) {
	if w <= 0 || h <= 0 {
		return nil, fault.Errorf(fault.KindLogic, "render", "bad size %dx%d", w, h)
	}
	if scratch == nil {
		return nil, fault.New(fault.KindLogic, "render", "no scratch")
	}
	if uint64(len(tables)) < TableSize(w, h) {
		return nil, fault.Errorf(fault.KindOutOfMemory, "render", "tables %d bytes, need %d", len(tables), TableSize(w, h))
	}
	def := DefaultOptions()
	if opts.MaxDistance <= 0 {
		opts.MaxDistance = def.MaxDistance
	}
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = def.MaxSteps
	}
	if opts.FOV <= 0 {
		opts.FOV = def.FOV
	}
	r := &Renderer{
		w:       w,
		h:       h,
		opts:    opts,
		scratch: scratch,
		disp:    &frameDisplay{},
		colDir:  tables[: w*4 : w*4],
		rowDir:  tables[w*4 : (w+h)*4 : (w+h)*4],
		light:   world.Vec3{X: 0.4, Y: 0.9, Z: -0.2}.Normalize(),
	}
	aspect := float32(w) / float32(h)
	for x := 0; x < w; x++ {
		nx := (float32(x)+0.5)/float32(w)*2 - 1
		putFloat(r.colDir, x, nx*aspect*opts.FOV)
	}
	for y := 0; y < h; y++ {
		ny := 1 - (float32(y)+0.5)/float32(h)*2
		putFloat(r.rowDir, y, ny*opts.FOV)
	}
	return r, nil
}

func putFloat(b []byte, i int, v float32) {
	binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
}

func getFloat(b []byte, i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
}

// col and row return the ray offset of one screen column or row.
func (r *Renderer) col(x int) float32 { return getFloat(r.colDir, x) }
func (r *Renderer) row(y int) float32 { return getFloat(r.rowDir, y) }

// Options returns the effective options.
func (r *Renderer) Options() Options { return r.opts }

// Draw writes every pixel of f from the player's point of view, then the
// crosshair and the HUD. All scratch memory is taken before the first
// pixel is written, so a scratch fault leaves f untouched and the caller
// drops the frame. Draw does not allocate.
func (r *Renderer) Draw(w *world.World, f display.Frame, hud HUD) error {
	if f.Width != r.w || f.Height != r.h {
		return fault.Errorf(fault.KindLogic, "render", "frame is %dx%d, renderer is %dx%d",
			f.Width, f.Height, r.w, r.h)
	}
	if len(f.Pix) < ((f.Height-1)*f.Stride+f.Width)*4 {
		return fault.New(fault.KindLogic, "render", "frame buffer too small")
	}

	mark := r.scratch.Mark()
	defer r.scratch.Rewind(mark)

	occ, err := r.occupancy(w)
	if err != nil {
		return err
	}
	text, err := r.scratch.Alloc(hudBytes, 1)
	if err != nil {
		return err
	}

	g := grid{w: w, occ: occ}
	g.sx, g.sy, g.sz = w.Size()
	g.ncx, g.ncy, g.ncz = w.Chunks()

	origin := w.Player.Pos
	forward, right, up := world.Basis(w.Player.Yaw, w.Player.Pitch)
	for y := 0; y < r.h; y++ {
		row := f.Row(y)
		ry := up.Scale(r.row(y)).Add(forward)
		for x := 0; x < r.w; x++ {
			dir := right.Scale(r.col(x)).Add(ry).Normalize()
			binary.LittleEndian.PutUint32(row[x*4:], r.shade(&g, origin, dir))
		}
	}

	drawCrosshair(f)
	r.disp.f = f
	drawHUD(r.disp, formatHUD(text, w, hud))
	r.disp.f = display.Frame{}
	return nil
}

// occupancy builds a one bit per chunk map of non-empty chunks.
func (r *Renderer) occupancy(w *world.World) ([]byte, error) {
	cx, cy, cz := w.Chunks()
	n := cx * cy * cz
	occ, err := r.scratch.Alloc((n+7)/8, 8)
	if err != nil {
		return nil, err
	}
	for y := 0; y < cy; y++ {
		for z := 0; z < cz; z++ {
			for x := 0; x < cx; x++ {
				if !w.ChunkEmpty(x, y, z) {
					i := (y*cz+z)*cx + x
					occ[i>>3] |= 1 << (i & 7)
				}
			}
		}
	}
	return occ, nil
}

type grid struct {
	w             *world.World
	occ           []byte
	sx, sy, sz    int
	ncx, ncy, ncz int
}

func (g *grid) inBounds(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 && x < g.sx && y < g.sy && z < g.sz
}

func (g *grid) chunkEmpty(x, y, z int) bool {
	cx, cy, cz := x/world.ChunkSize, y/world.ChunkSize, z/world.ChunkSize
	i := (cy*g.ncz+cz)*g.ncx + cx
	return g.occ[i>>3]&(1<<(i&7)) == 0
}

type rgb struct {
	r, g, b float32
}

func (c rgb) scale(s float32) rgb { return rgb{c.r * s, c.g * s, c.b * s} }
func (c rgb) add(o rgb) rgb       { return rgb{c.r + o.r, c.g + o.g, c.b + o.b} }

func (c rgb) lerp(o rgb, t float32) rgb { return c.scale(1 - t).add(o.scale(t)) }

func (c rgb) pack() uint32 {
	return display.RGB(channel(c.r), channel(c.g), channel(c.b))
}

func channel(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

var waterTint = rgb{20, 80, 160}

// shade returns the colour seen along one ray.
func (r *Renderer) shade(g *grid, origin, dir world.Vec3) uint32 {
	sky := skyColor(dir)
	h, ok := r.cast(g, origin, dir)
	if !ok {
		if h.wet {
			return sky.lerp(waterTint, 0.6).pack()
		}
		return sky.pack()
	}

	ndotl := max(h.normal.Dot(r.light), 0)
	faceShade := float32(0.15)
	if h.normal.X != 0 {
		faceShade = 0.10
	} else if h.normal.Z != 0 {
		faceShade = 0.05
	}
	intensity := clamp(0.18+0.82*ndotl-faceShade, 0, 1)
	col := blockColor(h.block).scale(intensity)
	if h.wet {
		col = col.lerp(waterTint, clamp(0.45+(h.dist-h.wetDist)*0.08, 0, 0.85))
	}
	fog := clamp(h.dist/r.opts.MaxDistance, 0, 1)
	return col.lerp(sky, fog*fog).pack()
}

func skyColor(dir world.Vec3) rgb {
	t := clamp(dir.Y*0.5+0.5, 0, 1)
	return rgb{20 + 60*t, 30 + 90*t, 80 + 150*t}
}

func blockColor(b world.Block) rgb {
	switch b {
	case world.Grass:
		return rgb{40, 170, 60}
	case world.Dirt:
		return rgb{120, 80, 45}
	case world.Stone:
		return rgb{125, 125, 135}
	case world.Bedrock:
		return rgb{45, 45, 50}
	case world.Water:
		return waterTint
	default:
		return rgb{255, 0, 255}
	}
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

type hit struct {
	block   world.Block
	dist    float32
	normal  world.Vec3
	wet     bool
	wetDist float32
}

// skipEpsilon nudges a ray past a chunk face so the next cell lookup
// lands in the neighbouring chunk.
const skipEpsilon = 1e-3

// cast walks the grid from origin along dir. The ray is clipped to the
// grid box first, so no cell outside the world is ever looked up; empty
// chunks are crossed in one step.
func (r *Renderer) cast(g *grid, origin, dir world.Vec3) (hit, bool) {
	var h hit
	t, tEnd, normal, ok := enter(origin, dir, 0, 0, 0, float32(g.sx), float32(g.sy), float32(g.sz))
	if !ok {
		return h, false
	}
	tEnd = min(tEnd, r.opts.MaxDistance)
	if t > tEnd {
		return h, false
	}
	if t == 0 {
		normal = world.Vec3{Y: 1}
	}

	var x, y, z, stepX, stepY, stepZ int
	var tMaxX, tMaxY, tMaxZ, tDeltaX, tDeltaY, tDeltaZ float32
	seek := func(at float32) {
		p := origin.Add(dir.Scale(at))
		x, y, z = world.FastFloor(p.X), world.FastFloor(p.Y), world.FastFloor(p.Z)
		stepX, tMaxX, tDeltaX = ddaInit(p.X, dir.X, x)
		stepY, tMaxY, tDeltaY = ddaInit(p.Y, dir.Y, y)
		stepZ, tMaxZ, tDeltaZ = ddaInit(p.Z, dir.Z, z)
		tMaxX += at
		tMaxY += at
		tMaxZ += at
	}
	if t > 0 {
		seek(t + skipEpsilon)
	} else {
		seek(0)
	}

	for range r.opts.MaxSteps {
		if t > tEnd || !g.inBounds(x, y, z) {
			return h, false
		}
		if g.chunkEmpty(x, y, z) {
			cx := float32(x / world.ChunkSize * world.ChunkSize)
			cy := float32(y / world.ChunkSize * world.ChunkSize)
			cz := float32(z / world.ChunkSize * world.ChunkSize)
			out, n := leave(origin, dir, cx, cy, cz, cx+world.ChunkSize, cy+world.ChunkSize, cz+world.ChunkSize)
			t, normal = max(out, t), n
			seek(t + skipEpsilon)
			continue
		}

		b := g.w.At(x, y, z)
		if b.Solid() {
			h.block, h.dist, h.normal = b, t, normal
			return h, true
		}
		if b == world.Water && !h.wet {
			h.wet, h.wetDist = true, t
		}

		switch {
		case tMaxX < tMaxY && tMaxX < tMaxZ:
			x += stepX
			t = tMaxX
			tMaxX += tDeltaX
			normal = world.Vec3{X: float32(-stepX)}
		case tMaxY < tMaxZ:
			y += stepY
			t = tMaxY
			tMaxY += tDeltaY
			normal = world.Vec3{Y: float32(-stepY)}
		default:
			z += stepZ
			t = tMaxZ
			tMaxZ += tDeltaZ
			normal = world.Vec3{Z: float32(-stepZ)}
		}
	}
	return h, false
}

func ddaInit(pos, dir float32, cell int) (step int, tMax, tDelta float32) {
	if dir > 0 {
		return 1, (float32(cell+1) - pos) / dir, 1 / dir
	}
	if dir < 0 {
		return -1, (pos - float32(cell)) / -dir, 1 / -dir
	}
	return 0, float32(math.Inf(1)), float32(math.Inf(1))
}

// slab intersects a ray with the planes lo and hi of one axis.
func slab(o, d, lo, hi float32) (near, far float32) {
	if d == 0 {
		if o < lo || o > hi {
			return float32(math.Inf(1)), float32(math.Inf(-1))
		}
		return float32(math.Inf(-1)), float32(math.Inf(1))
	}
	a, b := (lo-o)/d, (hi-o)/d
	if a > b {
		a, b = b, a
	}
	return a, b
}

func sign(v float32) float32 {
	if v < 0 {
		return -1
	}
	return 1
}

// enter returns where the ray first touches the box (0 if it starts
// inside), where it leaves, and the normal of the face it enters through.
func enter(o, d world.Vec3, x0, y0, z0, x1, y1, z1 float32) (tIn, tOut float32, normal world.Vec3, ok bool) {
	nx, fx := slab(o.X, d.X, x0, x1)
	ny, fy := slab(o.Y, d.Y, y0, y1)
	nz, fz := slab(o.Z, d.Z, z0, z1)
	tIn = max(nx, ny, nz, 0)
	tOut = min(fx, fy, fz)
	if tIn > tOut {
		return 0, 0, world.Vec3{}, false
	}
	switch tIn {
	case nx:
		normal = world.Vec3{X: -sign(d.X)}
	case ny:
		normal = world.Vec3{Y: -sign(d.Y)}
	case nz:
		normal = world.Vec3{Z: -sign(d.Z)}
	}
	return tIn, tOut, normal, true
}

// leave returns where the ray exits the box and the normal of the face
// of the next box it enters.
func leave(o, d world.Vec3, x0, y0, z0, x1, y1, z1 float32) (float32, world.Vec3) {
	_, fx := slab(o.X, d.X, x0, x1)
	_, fy := slab(o.Y, d.Y, y0, y1)
	_, fz := slab(o.Z, d.Z, z0, z1)
	switch {
	case fx <= fy && fx <= fz:
		return fx, world.Vec3{X: -sign(d.X)}
	case fy <= fz:
		return fy, world.Vec3{Y: -sign(d.Y)}
	default:
		return fz, world.Vec3{Z: -sign(d.Z)}
	}
}
