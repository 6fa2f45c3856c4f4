package mem

import (
	"math/bits"
	"sort"

	"voxos/fault"
	"voxos/hal"

	"github.com/dustin/go-humanize"
)

// Mapper makes a physical range addressable. hal.PhysMem satisfies it.
type Mapper interface {
	Map(addr, size uint64) ([]byte, error)
}

// Block is one allocation. Offset is relative to the start of the region
// it was carved from.
type Block struct {
	Addr   uint64
	Size   uint64
	Offset uint64
	Bytes  []byte
}

// Stats summarises the arena.
type Stats struct {
	Regions int
	Total   uint64
	Used    uint64
	Blocks  int
}

type pool struct {
	start, end uint64
	next       uint64
}

// Arena is a first-fit bump allocator over address-sorted regions. It has
// one owner and no free; long-lived allocations live until halt.
type Arena struct {
	pools  []pool
	mapper Mapper
	logger hal.Logger

	total  uint64
	used   uint64
	blocks int
}

// New builds an arena over the usable regions. Overlapping usable
// regions or an empty pool are boot-fatal. m may be nil, in which case
// blocks carry no bytes.
func New(regions []Region, m Mapper, l hal.Logger) (*Arena, error) {
	a := &Arena{mapper: m, logger: l}
	if err := a.add(regions, ClassUsable); err != nil {
		return nil, err
	}
	if len(a.pools) == 0 {
		return nil, fault.New(fault.KindBootFatal, "arena", "no usable memory")
	}
	hal.Logf(l, "arena: %d regions, %s usable", len(a.pools), humanize.IBytes(a.total))
	return a, nil
}

func (a *Arena) add(regions []Region, class Class) error {
	var added []pool
	for _, r := range regions {
		if r.Class != class || r.Length == 0 {
			continue
		}
		if r.End() < r.Start {
			return fault.Errorf(fault.KindBootFatal, "arena", "region %#x+%#x wraps", r.Start, r.Length)
		}
		added = append(added, pool{start: r.Start, end: r.End(), next: r.Start})
	}
	merged := append(append([]pool(nil), a.pools...), added...)
	sort.Slice(merged, func(i, j int) bool { return merged[i].start < merged[j].start })
	for i := 1; i < len(merged); i++ {
		if merged[i].start < merged[i-1].end {
			return fault.Errorf(fault.KindBootFatal, "arena", "regions overlap at %#x", merged[i].start)
		}
	}
	a.pools = merged
	for _, p := range added {
		a.total += p.end - p.start
	}
	return nil
}

// Reclaim adds the reclaimable regions to the pool. Call it only after
// boot services have exited.
func (a *Arena) Reclaim(regions []Region) error {
	before := a.total
	if err := a.add(regions, ClassReclaimable); err != nil {
		return err
	}
	hal.Logf(a.logger, "arena: reclaimed %s", humanize.IBytes(a.total-before))
	return nil
}

// Allocate returns size bytes aligned to align, which must be a power of
// two. Running out of space is an out-of-memory fault.
func (a *Arena) Allocate(size, align uint64) (Block, error) {
	if size == 0 {
		return Block{}, fault.New(fault.KindLogic, "arena: allocate", "zero size")
	}
	if align == 0 || bits.OnesCount64(align) != 1 {
		return Block{}, fault.Errorf(fault.KindLogic, "arena: allocate", "alignment %d is not a power of two", align)
	}
	for i := range a.pools {
		p := &a.pools[i]
		addr, ok := alignUp(p.next, align)
		if !ok || addr < p.start {
			continue
		}
		end := addr + size
		if end < addr || end > p.end {
			continue
		}

		b := Block{Addr: addr, Size: size, Offset: addr - p.start}
		if a.mapper != nil {
			buf, err := a.mapper.Map(addr, size)
			if err != nil {
				return Block{}, fault.Wrap(fault.KindLogic, "arena: map", err)
			}
			b.Bytes = buf
		}
		p.next = end
		a.used += size
		a.blocks++
		return b, nil
	}
	return Block{}, fault.Errorf(fault.KindOutOfMemory, "arena: allocate",
		"%s (align %d) does not fit, %s of %s used",
		humanize.IBytes(size), align, humanize.IBytes(a.used), humanize.IBytes(a.total))
}

// Stats returns current usage.
func (a *Arena) Stats() Stats {
	return Stats{Regions: len(a.pools), Total: a.total, Used: a.used, Blocks: a.blocks}
}

func alignUp(v, align uint64) (uint64, bool) {
	r := (v + align - 1) &^ (align - 1)
	return r, r >= v
}
