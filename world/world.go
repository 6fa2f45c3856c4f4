// Package world holds the voxel grid and the player, and advances them
// in fixed simulation ticks. Step is the only mutator; given the same
// world, input and delta it always produces the same result.
package world

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
	"time"

	"voxos/fault"
	"voxos/input"
)

// ChunkSize is the edge length of a chunk in blocks.
const ChunkSize = 16

const chunkVolume = ChunkSize * ChunkSize * ChunkSize

// countBytes holds one chunk's non-air block count.
const countBytes = 2

// Config sizes the world and tunes the simulation.
type Config struct {
	Seed uint64
	// SizeChunks is the horizontal extent, in chunks, along X and Z.
	SizeChunks   int
	HeightChunks int

	// EditRange is how far, in blocks, edits reach from the eye.
	EditRange float32
	// TickRate is the number of simulation ticks per second.
	TickRate int
	// MaxFrameDelta caps the time one Step may simulate.
	MaxFrameDelta time.Duration
	// Sensitivity is radians of turn per pointer count.
	Sensitivity float32
}

// DefaultConfig is a 64×32×64 world simulated at 60 Hz.
func DefaultConfig() Config {
	return Config{
		Seed:          1,
		SizeChunks:    4,
		HeightChunks:  2,
		EditRange:     6,
		TickRate:      60,
		MaxFrameDelta: 250 * time.Millisecond,
		Sensitivity:   0.002,
	}
}

// StorageSize returns the bytes New needs for cfg: the blocks followed
// by a per-chunk occupancy count.
func StorageSize(cfg Config) uint64 {
	if cfg.SizeChunks <= 0 || cfg.HeightChunks <= 0 {
		return 0
	}
	return numChunks(cfg) * (chunkVolume + countBytes)
}

func numChunks(cfg Config) uint64 {
	return uint64(cfg.SizeChunks) * uint64(cfg.SizeChunks) * uint64(cfg.HeightChunks)
}

// World is the voxel grid plus everything Step reads from one call to
// the next. Coordinates outside the grid read as Air.
type World struct {
	cfg Config

	ncx, ncy, ncz int
	blocks        []byte
	counts        []byte

	Player   Player
	Selected Block
	Tick     uint64

	acc         time.Duration
	prevButtons input.Buttons
	prevKeys    input.Keys
	exit        bool
}

// New builds a world in storage (one byte per block, chunk major, then
// the chunk counts) and fills it with the seeded terrain. The world
// keeps no other memory.
func New(cfg Config, storage []byte) (*World, error) {
	if cfg.TickRate <= 0 || cfg.MaxFrameDelta <= 0 {
		return nil, fault.Errorf(fault.KindLogic, "world", "bad timing: %d Hz, max delta %v", cfg.TickRate, cfg.MaxFrameDelta)
	}
	need := StorageSize(cfg)
	if need == 0 {
		return nil, fault.Errorf(fault.KindLogic, "world", "bad size %dx%d chunks", cfg.SizeChunks, cfg.HeightChunks)
	}
	if uint64(len(storage)) < need {
		return nil, fault.Errorf(fault.KindOutOfMemory, "world", "storage %d bytes, need %d", len(storage), need)
	}
	nb := numChunks(cfg) * chunkVolume
	w := &World{
		cfg:      cfg,
		ncx:      cfg.SizeChunks,
		ncy:      cfg.HeightChunks,
		ncz:      cfg.SizeChunks,
		blocks:   storage[:nb:nb],
		counts:   storage[nb:need:need],
		Selected: Stone,
	}
	clear(w.blocks)
	clear(w.counts)
	generate(w)
	w.Player = spawn(w)
	return w, nil
}

// NewEmpty builds an all-air world with the player at pos.
func NewEmpty(cfg Config, storage []byte, pos Vec3) (*World, error) {
	w, err := New(cfg, storage)
	if err != nil {
		return nil, err
	}
	clear(w.blocks)
	clear(w.counts)
	w.Player = Player{Pos: pos}
	return w, nil
}

func (w *World) Config() Config { return w.cfg }

// Size returns the grid extent in blocks.
func (w *World) Size() (x, y, z int) {
	return w.ncx * ChunkSize, w.ncy * ChunkSize, w.ncz * ChunkSize
}

// Chunks returns the grid extent in chunks.
func (w *World) Chunks() (x, y, z int) { return w.ncx, w.ncy, w.ncz }

// ChunkEmpty reports whether a chunk holds only air. Chunks outside the
// grid are empty.
func (w *World) ChunkEmpty(cx, cy, cz int) bool {
	if cx < 0 || cy < 0 || cz < 0 || cx >= w.ncx || cy >= w.ncy || cz >= w.ncz {
		return true
	}
	return w.count((cy*w.ncz+cz)*w.ncx+cx) == 0
}

func (w *World) count(chunk int) uint16 {
	return binary.LittleEndian.Uint16(w.counts[chunk*countBytes:])
}

func (w *World) addCount(chunk, d int) {
	binary.LittleEndian.PutUint16(w.counts[chunk*countBytes:], uint16(int(w.count(chunk))+d))
}

// InBounds reports whether (x, y, z) is inside the grid.
func (w *World) InBounds(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 &&
		x < w.ncx*ChunkSize && y < w.ncy*ChunkSize && z < w.ncz*ChunkSize
}

func (w *World) index(x, y, z int) (chunk, off int) {
	cx, cy, cz := x/ChunkSize, y/ChunkSize, z/ChunkSize
	lx, ly, lz := x%ChunkSize, y%ChunkSize, z%ChunkSize
	chunk = (cy*w.ncz+cz)*w.ncx + cx
	return chunk, chunk*chunkVolume + (ly*ChunkSize+lz)*ChunkSize + lx
}

// At returns the block at (x, y, z).
func (w *World) At(x, y, z int) Block {
	if !w.InBounds(x, y, z) {
		return Air
	}
	_, off := w.index(x, y, z)
	return Block(w.blocks[off])
}

// set stores b at (x, y, z). Writes outside the grid or of unknown
// blocks are rejected.
func (w *World) set(x, y, z int, b Block) bool {
	if !w.InBounds(x, y, z) || !b.Valid() {
		return false
	}
	chunk, off := w.index(x, y, z)
	old := Block(w.blocks[off])
	if old == b {
		return true
	}
	w.blocks[off] = byte(b)
	switch {
	case old == Air:
		w.addCount(chunk, 1)
	case b == Air:
		w.addCount(chunk, -1)
	}
	return true
}

// ExitRequested reports whether the player asked to leave.
func (w *World) ExitRequested() bool { return w.exit }

// Clone returns a deep copy backed by fresh memory.
func (w *World) Clone() *World {
	c := *w
	c.blocks = append([]byte(nil), w.blocks...)
	c.counts = append([]byte(nil), w.counts...)
	return &c
}

// Digest hashes the configuration and every field Step reads or writes.
// Two worlds with equal digests step identically.
func (w *World) Digest() [sha256.Size]byte {
	h := sha256.New()
	var buf [8]byte
	u64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	f32 := func(v float32) { u64(uint64(math.Float32bits(v))) }
	vec := func(v Vec3) {
		f32(v.X)
		f32(v.Y)
		f32(v.Z)
	}
	flag := func(b bool) {
		if b {
			u64(1)
		} else {
			u64(0)
		}
	}

	c := w.cfg
	u64(c.Seed)
	u64(uint64(c.SizeChunks))
	u64(uint64(c.HeightChunks))
	f32(c.EditRange)
	u64(uint64(c.TickRate))
	u64(uint64(c.MaxFrameDelta))
	f32(c.Sensitivity)
	h.Write(w.blocks)

	p := w.Player
	vec(p.Pos)
	vec(p.Vel)
	f32(p.Yaw)
	f32(p.Pitch)
	flag(p.Crouching)
	flag(p.OnGround)

	u64(uint64(w.Selected))
	u64(w.Tick)
	u64(uint64(w.acc))
	u64(uint64(w.prevButtons))
	u64(uint64(w.prevKeys))
	flag(w.exit)

	var out [sha256.Size]byte
	h.Sum(out[:0])
	return out
}
