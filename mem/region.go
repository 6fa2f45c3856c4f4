// Package mem owns physical memory after the handoff: a first-fit arena
// for long-lived allocations and a rewindable scratch region for
// per-frame state.
package mem

import (
	"sort"

	"voxos/hal"
)

// Class says what a region may be used for.
type Class uint8

const (
	// ClassReserved is never allocated from.
	ClassReserved Class = iota
	// ClassUsable is free at init.
	ClassUsable
	// ClassReclaimable is free only once boot services have exited.
	ClassReclaimable
)

func (c Class) String() string {
	switch c {
	case ClassUsable:
		return "usable"
	case ClassReclaimable:
		return "reclaimable"
	default:
		return "reserved"
	}
}

// Region is one physical range taken from the firmware memory map.
type Region struct {
	Start  uint64
	Length uint64
	Class  Class
}

// End returns the first address past r.
func (r Region) End() uint64 { return r.Start + r.Length }

// LegacyLimit is the end of the low legacy area, which is never used.
const LegacyLimit = 1 << 20

// Classify maps a firmware memory type to a region class.
func Classify(t hal.MemoryType) Class {
	switch t {
	case hal.MemConventional:
		return ClassUsable
	case hal.MemBootServicesCode, hal.MemBootServicesData:
		return ClassReclaimable
	default:
		return ClassReserved
	}
}

// RegionsFromMap converts a memory map into address-sorted regions.
// Runtime ranges are reserved whatever their type and ranges below
// LegacyLimit are clipped away.
func RegionsFromMap(mm hal.MemoryMap) []Region {
	out := make([]Region, 0, len(mm.Descriptors))
	for _, d := range mm.Descriptors {
		start, end := d.PhysicalStart, d.End()
		if end <= start {
			continue
		}
		class := Classify(d.Type)
		if d.IsRuntime() {
			class = ClassReserved
		}
		if class != ClassReserved && start < LegacyLimit {
			if end <= LegacyLimit {
				continue
			}
			start = LegacyLimit
		}
		out = append(out, Region{Start: start, Length: end - start, Class: class})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// Sum returns the total length of the regions of class c.
func Sum(regions []Region, c Class) uint64 {
	var n uint64
	for _, r := range regions {
		if r.Class == c {
			n += r.Length
		}
	}
	return n
}
