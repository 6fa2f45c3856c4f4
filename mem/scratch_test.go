package mem

import (
	"testing"

	"voxos/fault"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScratchAllocRewind(t *testing.T) {
	s := NewScratchBytes(make([]byte, 256))

	a, err := s.Alloc(10, 0)
	require.NoError(t, err)
	a[0] = 0xFF

	m := s.Mark()
	b, err := s.Alloc(16, 16)
	require.NoError(t, err)
	assert.Equal(t, 32, s.Used())
	assert.Len(t, b, 16)

	s.Rewind(m)
	assert.Equal(t, 10, s.Used())

	s.Reset()
	c, err := s.Alloc(10, 0)
	require.NoError(t, err)
	assert.Equal(t, byte(0), c[0], "scratch must hand out zeroed memory")
	assert.Equal(t, 32, s.HighWater())
}

func TestScratchExhaustionIsRecoverable(t *testing.T) {
	s := NewScratchBytes(make([]byte, 64))
	_, err := s.Alloc(48, 0)
	require.NoError(t, err)

	_, err = s.Alloc(32, 0)
	require.Error(t, err)
	assert.Equal(t, fault.KindScratchExhausted, fault.KindOf(err))
	assert.True(t, fault.Recoverable(err))
	assert.Equal(t, 48, s.Used(), "failed alloc must not move the cursor")
}

func TestScratchFromArena(t *testing.T) {
	a, err := New([]Region{{Start: 0x100000, Length: 0x10000, Class: ClassUsable}}, heapMapper{}, nil)
	require.NoError(t, err)

	s, err := NewScratch(a, 0x4000)
	require.NoError(t, err)
	assert.Equal(t, 0x4000, s.Cap())

	_, err = NewScratch(a, 0x10000)
	assert.Equal(t, fault.KindOutOfMemory, fault.KindOf(err))

	noMap, err := New([]Region{{Start: 0x100000, Length: 0x10000, Class: ClassUsable}}, nil, nil)
	require.NoError(t, err)
	_, err = NewScratch(noMap, 0x1000)
	assert.Equal(t, fault.KindLogic, fault.KindOf(err))
}
