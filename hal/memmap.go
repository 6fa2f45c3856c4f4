package hal

// PageSize is the firmware page size.
const PageSize = 4096

// MemoryType is the type of a memory descriptor.
type MemoryType uint32

const (
	MemReserved MemoryType = iota
	MemLoaderCode
	MemLoaderData
	MemBootServicesCode
	MemBootServicesData
	MemRuntimeServicesCode
	MemRuntimeServicesData
	MemConventional
	MemUnusable
	MemACPIReclaim
	MemACPINVS
	MemMappedIO
	MemMappedIOPortSpace
	MemPalCode
	MemPersistent
)

var memoryTypeNames = [...]string{
	"reserved",
	"loader-code",
	"loader-data",
	"boot-code",
	"boot-data",
	"runtime-code",
	"runtime-data",
	"conventional",
	"unusable",
	"acpi-reclaim",
	"acpi-nvs",
	"mmio",
	"mmio-port",
	"pal-code",
	"persistent",
}

func (t MemoryType) String() string {
	if int(t) < len(memoryTypeNames) {
		return memoryTypeNames[t]
	}
	return "unknown"
}

// AttrRuntime marks memory that runtime services still use after exit.
const AttrRuntime uint64 = 0x8000000000000000

// MemoryDescriptor is one entry of the firmware memory map.
type MemoryDescriptor struct {
	Type          MemoryType
	PhysicalStart uint64
	NumberOfPages uint64
	Attribute     uint64
}

// Length returns the descriptor size in bytes.
func (d MemoryDescriptor) Length() uint64 { return d.NumberOfPages * PageSize }

// End returns the first address past the descriptor.
func (d MemoryDescriptor) End() uint64 { return d.PhysicalStart + d.Length() }

// IsRuntime reports whether runtime services use this range.
func (d MemoryDescriptor) IsRuntime() bool { return d.Attribute&AttrRuntime != 0 }

// MemoryMap is a snapshot of the firmware memory map and its key.
type MemoryMap struct {
	Descriptors []MemoryDescriptor
	Key         uint64
}

// Contains reports whether [addr, addr+size) lies inside one descriptor.
func (m MemoryMap) Contains(addr, size uint64) bool {
	for _, d := range m.Descriptors {
		if addr >= d.PhysicalStart && addr+size <= d.End() && addr+size >= addr {
			return true
		}
	}
	return false
}
