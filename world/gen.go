package world

// Terrain is a value-noise height field on a coarse lattice, layered
// bedrock, stone, dirt and grass, with water filling low ground.

const (
	latticeStep = 8
	dirtDepth   = 3
)

func hash2(seed uint64, x, z uint32) uint32 {
	h := x*0x9e3779b1 ^ z*0x85ebca6b ^ uint32(seed) ^ uint32(seed>>32)*0xc2b2ae35
	h ^= h >> 16
	h *= 0x7feb352d
	h ^= h >> 15
	h *= 0x846ca68b
	h ^= h >> 16
	return h
}

// latticeValue is a stable pseudo-random value in [0, 256).
func latticeValue(seed uint64, lx, lz int) int {
	return int(hash2(seed, uint32(lx), uint32(lz)) >> 24)
}

// terrainHeight returns the y of the top solid block at (x, z).
func terrainHeight(seed uint64, x, z, sy int) int {
	lx, lz := x/latticeStep, z/latticeStep
	fx, fz := x%latticeStep, z%latticeStep

	v00 := latticeValue(seed, lx, lz)
	v10 := latticeValue(seed, lx+1, lz)
	v01 := latticeValue(seed, lx, lz+1)
	v11 := latticeValue(seed, lx+1, lz+1)

	top := v00*(latticeStep-fx) + v10*fx
	bot := v01*(latticeStep-fx) + v11*fx
	v := top*(latticeStep-fz) + bot*fz // 0 .. 256*64

	lo, span := sy/4, sy/3
	h := lo + v*span/(256*latticeStep*latticeStep)
	return min(max(h, 1), sy-2)
}

func waterLevel(sy int) int { return sy/4 + sy/12 }

func generate(w *World) {
	sx, sy, sz := w.Size()
	water := waterLevel(sy)
	for z := 0; z < sz; z++ {
		for x := 0; x < sx; x++ {
			h := terrainHeight(w.cfg.Seed, x, z, sy)
			for y := 0; y <= max(h, water); y++ {
				var b Block
				switch {
				case y == 0:
					b = Bedrock
				case y > h:
					b = Water
				case y == h && h >= water:
					b = Grass
				case y > h-dirtDepth:
					b = Dirt
				default:
					b = Stone
				}
				w.set(x, y, z, b)
			}
		}
	}
}

func spawn(w *World) Player {
	sx, sy, sz := w.Size()
	x, z := sx/2, sz/2
	h := terrainHeight(w.cfg.Seed, x, z, sy)
	feet := float32(max(h, waterLevel(sy)) + 1)
	return Player{
		Pos: Vec3{float32(x) + 0.5, feet + eyeHeight(false) + 0.01, float32(z) + 0.5},
	}
}
