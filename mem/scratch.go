package mem

import "voxos/fault"

// Scratch is a fixed bump region for state that lives for one frame.
// Reset (or Rewind) reclaims everything allocated since.
type Scratch struct {
	buf  []byte
	off  int
	high int
}

// NewScratch carves a scratch region of size bytes from a.
func NewScratch(a *Arena, size uint64) (*Scratch, error) {
	b, err := a.Allocate(size, 64)
	if err != nil {
		return nil, fault.Wrap(fault.KindOutOfMemory, "scratch", err)
	}
	if b.Bytes == nil {
		return nil, fault.New(fault.KindLogic, "scratch", "arena has no mapper")
	}
	return NewScratchBytes(b.Bytes), nil
}

// NewScratchBytes uses buf as the scratch region.
func NewScratchBytes(buf []byte) *Scratch {
	return &Scratch{buf: buf}
}

// Alloc returns size zeroed bytes aligned to align (a power of two, or 0
// for none). Running out is a recoverable scratch-exhausted fault.
func (s *Scratch) Alloc(size, align int) ([]byte, error) {
	if size < 0 {
		return nil, fault.Errorf(fault.KindLogic, "scratch", "negative size %d", size)
	}
	off := s.off
	if align > 1 {
		if align&(align-1) != 0 {
			return nil, fault.Errorf(fault.KindLogic, "scratch", "alignment %d is not a power of two", align)
		}
		off = (off + align - 1) &^ (align - 1)
	}
	if off+size > len(s.buf) || off+size < off {
		return nil, fault.Errorf(fault.KindScratchExhausted, "scratch",
			"need %d bytes at %d, capacity %d", size, off, len(s.buf))
	}
	out := s.buf[off : off+size : off+size]
	clear(out)
	s.off = off + size
	if s.off > s.high {
		s.high = s.off
	}
	return out, nil
}

// Mark returns the current position for Rewind.
func (s *Scratch) Mark() int { return s.off }

// Rewind releases everything allocated after m.
func (s *Scratch) Rewind(m int) {
	if m < 0 || m > s.off {
		return
	}
	s.off = m
}

// Reset releases everything.
func (s *Scratch) Reset() { s.off = 0 }

func (s *Scratch) Used() int { return s.off }

func (s *Scratch) Cap() int { return len(s.buf) }

// HighWater is the largest Used seen since creation.
func (s *Scratch) HighWater() int { return s.high }
