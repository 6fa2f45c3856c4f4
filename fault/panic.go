package fault

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// PanicInfo describes a recovered panic.
type PanicInfo struct {
	Op    string
	Value any
	Stack []byte
}

var (
	panicActive atomic.Bool
	panicOnce   sync.Once

	panicHandler atomic.Value // func(PanicInfo)
)

// InPanicMode reports whether a panic has been recovered.
func InPanicMode() bool {
	return panicActive.Load()
}

// SetPanicHandler installs a process-wide panic handler.
//
// The handler is invoked at most once (on the first panic). It must not panic.
func SetPanicHandler(fn func(PanicInfo)) {
	panicHandler.Store(fn)
}

// FromPanic turns a recovered panic value into a logic fault and runs the
// panic handler if this is the first panic of the process. Call it from
// the deferred function that recovered.
func FromPanic(op string, v any) error {
	triggerPanic(PanicInfo{Op: op, Value: v})
	if err, ok := v.(error); ok {
		return &Error{Kind: KindLogic, Op: op, Err: fmt.Errorf("panic: %w", err)}
	}
	return &Error{Kind: KindLogic, Op: op, Err: fmt.Errorf("panic: %v", v)}
}

func triggerPanic(info PanicInfo) {
	panicOnce.Do(func() {
		panicActive.Store(true)
		info.Stack = captureStack()
		if v := panicHandler.Load(); v != nil {
			if fn, ok := v.(func(PanicInfo)); ok && fn != nil {
				fn(info)
			}
		}
	})
}
