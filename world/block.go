package world

// Block is a voxel identifier. The zero value is Air.
type Block uint8

const (
	Air Block = iota
	Stone
	Grass
	Dirt
	Bedrock
	Water

	numBlocks
)

var blockNames = [...]string{"air", "stone", "grass", "dirt", "bedrock", "water"}

func (b Block) String() string {
	if int(b) < len(blockNames) {
		return blockNames[b]
	}
	return "invalid"
}

// Solid reports whether the player collides with b.
func (b Block) Solid() bool { return b != Air && b != Water }

// Valid reports whether b is a known block.
func (b Block) Valid() bool { return b < numBlocks }

// Breakable reports whether a removal edit may clear b.
func (b Block) Breakable() bool { return b.Solid() && b != Bedrock }
