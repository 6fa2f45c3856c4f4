package mem

import (
	"math/rand"
	"sort"
	"testing"

	"voxos/fault"
	"voxos/hal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type heapMapper struct{}

func (heapMapper) Map(_, size uint64) ([]byte, error) { return make([]byte, size), nil }

func TestArenaSingleRegionScenario(t *testing.T) {
	a, err := New([]Region{{Start: 0, Length: 64 << 20, Class: ClassUsable}}, nil, nil)
	require.NoError(t, err)

	b, err := a.Allocate(1<<20, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), b.Offset)
	assert.Equal(t, uint64(1<<20), b.Size)

	_, err = a.Allocate(64<<20, 1)
	require.Error(t, err)
	assert.Equal(t, fault.KindOutOfMemory, fault.KindOf(err))
	assert.Equal(t, uint64(1<<20), a.Stats().Used)
}

func TestArenaAlignment(t *testing.T) {
	a, err := New([]Region{{Start: 0x1003, Length: 0x10000, Class: ClassUsable}}, nil, nil)
	require.NoError(t, err)

	b, err := a.Allocate(10, 0x1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x2000), b.Addr)

	b, err = a.Allocate(3, 8)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x2010), b.Addr)

	_, err = a.Allocate(8, 3)
	assert.Equal(t, fault.KindLogic, fault.KindOf(err))
	_, err = a.Allocate(0, 8)
	assert.Equal(t, fault.KindLogic, fault.KindOf(err))
}

func TestArenaFirstFitAcrossRegions(t *testing.T) {
	regions := []Region{
		{Start: 0x200000, Length: 0x1000, Class: ClassUsable},
		{Start: 0x100000, Length: 0x1000, Class: ClassUsable},
		{Start: 0x300000, Length: 0x1000, Class: ClassReserved},
	}
	a, err := New(regions, heapMapper{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, a.Stats().Regions)

	b1, err := a.Allocate(0x800, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x100000), b1.Addr)
	assert.Len(t, b1.Bytes, 0x800)

	b2, err := a.Allocate(0x1000, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x200000), b2.Addr)
	assert.Equal(t, uint64(0), b2.Offset)

	b3, err := a.Allocate(0x800, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x100800), b3.Addr)

	_, err = a.Allocate(1, 1)
	assert.Equal(t, fault.KindOutOfMemory, fault.KindOf(err))
}

func TestArenaRejectsBadRegions(t *testing.T) {
	_, err := New(nil, nil, nil)
	assert.Equal(t, fault.KindBootFatal, fault.KindOf(err))

	_, err = New([]Region{
		{Start: 0x1000, Length: 0x2000, Class: ClassUsable},
		{Start: 0x2000, Length: 0x2000, Class: ClassUsable},
	}, nil, nil)
	assert.Equal(t, fault.KindBootFatal, fault.KindOf(err))
}

func TestArenaNeverOverlaps(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for iter := 0; iter < 50; iter++ {
		var regions []Region
		var total uint64
		addr := uint64(LegacyLimit)
		for i := 0; i < 1+rng.Intn(5); i++ {
			addr += uint64(rng.Intn(4)) * hal.PageSize
			length := uint64(1+rng.Intn(16)) * hal.PageSize
			regions = append(regions, Region{Start: addr, Length: length, Class: ClassUsable})
			addr += length
			total += length
		}
		rng.Shuffle(len(regions), func(i, j int) { regions[i], regions[j] = regions[j], regions[i] })

		a, err := New(regions, nil, nil)
		require.NoError(t, err)

		var blocks []Block
		for n := uint64(0); n < total/hal.PageSize; n++ {
			b, err := a.Allocate(hal.PageSize, hal.PageSize)
			require.NoError(t, err, "iter %d alloc %d", iter, n)
			blocks = append(blocks, b)
		}
		_, err = a.Allocate(hal.PageSize, hal.PageSize)
		require.Equal(t, fault.KindOutOfMemory, fault.KindOf(err))

		sort.Slice(blocks, func(i, j int) bool { return blocks[i].Addr < blocks[j].Addr })
		for i := 1; i < len(blocks); i++ {
			require.LessOrEqual(t, blocks[i-1].Addr+blocks[i-1].Size, blocks[i].Addr)
		}
		require.LessOrEqual(t, a.Stats().Used, total)
	}
}

func TestArenaReclaim(t *testing.T) {
	regions := []Region{
		{Start: 0x100000, Length: 0x1000, Class: ClassUsable},
		{Start: 0x400000, Length: 0x4000, Class: ClassReclaimable},
	}
	a, err := New(regions, nil, nil)
	require.NoError(t, err)

	_, err = a.Allocate(0x2000, 1)
	require.Equal(t, fault.KindOutOfMemory, fault.KindOf(err))

	require.NoError(t, a.Reclaim(regions))
	b, err := a.Allocate(0x2000, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x400000), b.Addr)
	assert.Equal(t, uint64(0x5000), a.Stats().Total)
}

func TestRegionsFromSimMap(t *testing.T) {
	s := hal.NewSim(hal.DefaultSimConfig())
	mm, err := s.MemoryMap()
	require.NoError(t, err)

	regions := RegionsFromMap(mm)
	for _, r := range regions {
		if r.Class != ClassReserved {
			assert.GreaterOrEqual(t, r.Start, uint64(LegacyLimit), "region %+v", r)
		}
	}
	assert.Equal(t, uint64(5<<20), Sum(regions, ClassReclaimable))
	assert.Greater(t, Sum(regions, ClassUsable), uint64(200<<20))

	a, err := New(regions, s.PhysMem(), nil)
	require.NoError(t, err)
	b, err := a.Allocate(1<<20, 4096)
	require.NoError(t, err)
	require.Len(t, b.Bytes, 1<<20)
}
