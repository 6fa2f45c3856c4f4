package hal

import "fmt"

// Status is a firmware status code returned from the image entry point.
type Status uint64

const errorBit = 1 << 63

const (
	StatusSuccess          Status = 0
	StatusLoadError        Status = errorBit | 1
	StatusInvalidParameter Status = errorBit | 2
	StatusUnsupported      Status = errorBit | 3
	StatusDeviceError      Status = errorBit | 7
	StatusOutOfResources   Status = errorBit | 9
	StatusNotFound         Status = errorBit | 14
	StatusAborted          Status = errorBit | 21
)

// IsError reports whether s has the error bit set.
func (s Status) IsError() bool { return s&errorBit != 0 }

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusLoadError:
		return "LOAD_ERROR"
	case StatusInvalidParameter:
		return "INVALID_PARAMETER"
	case StatusUnsupported:
		return "UNSUPPORTED"
	case StatusDeviceError:
		return "DEVICE_ERROR"
	case StatusOutOfResources:
		return "OUT_OF_RESOURCES"
	case StatusNotFound:
		return "NOT_FOUND"
	case StatusAborted:
		return "ABORTED"
	default:
		return fmt.Sprintf("STATUS(%#x)", uint64(s))
	}
}

// ExitCode maps a status to a host process exit code.
func (s Status) ExitCode() int {
	if !s.IsError() {
		return 0
	}
	code := int(s &^ errorBit)
	if code <= 0 || code > 125 {
		return 1
	}
	return code
}
