//go:build tinygo

package fault

func captureStack() []byte { return nil }
