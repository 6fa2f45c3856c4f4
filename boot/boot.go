// Package boot takes over from firmware: it captures the boot services
// the other components need and later ends them.
package boot

import (
	"errors"

	"voxos/fault"
	"voxos/hal"

	"github.com/dustin/go-humanize"
)

// ErrConsumed is returned by every Context method once Finalize ran.
var ErrConsumed = errors.New("boot context already consumed")

// Context holds the boot-only capabilities. It is consumed by Finalize;
// nothing obtained from it may call boot services afterwards.
type Context struct {
	fw     hal.Firmware
	logger hal.Logger

	mm        hal.MemoryMap
	graphics  []hal.GraphicsOutput
	pointers  []hal.Pointer
	keyboards []hal.Keyboard

	consumed bool
}

// Runtime is what remains after the handoff.
type Runtime struct {
	Services hal.RuntimeServices
	// Map is the memory map the firmware was handed off with.
	Map hal.MemoryMap
	// Exited is false when boot services were deliberately kept.
	Exited bool
}

// Initialize captures the memory map and protocol handles. A missing
// memory map or graphics output is boot-fatal; pointers and keyboards
// are optional.
func Initialize(fw hal.Firmware) (*Context, error) {
	if fw == nil {
		return nil, fault.New(fault.KindBootFatal, "boot", "no firmware table")
	}
	c := &Context{fw: fw, logger: fw.Logger()}

	mm, err := fw.MemoryMap()
	if err != nil {
		return nil, fault.Wrap(fault.KindBootFatal, "boot: memory map", err)
	}
	if len(mm.Descriptors) == 0 {
		return nil, fault.New(fault.KindBootFatal, "boot: memory map", "empty")
	}
	c.mm = mm

	gops, err := fw.LocateGraphics()
	if err == nil && len(gops) == 0 {
		err = hal.ErrNotFound
	}
	if err != nil {
		return nil, fault.Wrap(fault.KindBootFatal, "boot: graphics output", err)
	}
	c.graphics = gops

	c.pointers, err = fw.LocatePointers()
	if err != nil {
		hal.Logf(c.logger, "boot: no pointer: %v", err)
		c.pointers = nil
	}
	c.keyboards, err = fw.LocateKeyboards()
	if err != nil {
		hal.Logf(c.logger, "boot: no keyboard: %v", err)
		c.keyboards = nil
	}

	var ram uint64
	for _, d := range mm.Descriptors {
		ram += d.Length()
	}
	hal.Logf(c.logger, "boot: %d descriptors (%s), %d displays, %d pointers, %d keyboards",
		len(mm.Descriptors), humanize.IBytes(ram), len(c.graphics), len(c.pointers), len(c.keyboards))
	return c, nil
}

func (c *Context) Logger() hal.Logger { return c.logger }

func (c *Context) MemoryMap() (hal.MemoryMap, error) {
	if c.consumed {
		return hal.MemoryMap{}, ErrConsumed
	}
	return c.mm, nil
}

func (c *Context) Graphics() ([]hal.GraphicsOutput, error) {
	if c.consumed {
		return nil, ErrConsumed
	}
	return c.graphics, nil
}

func (c *Context) Pointers() ([]hal.Pointer, error) {
	if c.consumed {
		return nil, ErrConsumed
	}
	return c.pointers, nil
}

func (c *Context) Keyboards() ([]hal.Keyboard, error) {
	if c.consumed {
		return nil, ErrConsumed
	}
	return c.keyboards, nil
}

// PhysMem returns the physical memory mapper, which stays valid after
// the handoff.
func (c *Context) PhysMem() (hal.PhysMem, error) {
	if c.consumed {
		return nil, ErrConsumed
	}
	return c.fw.PhysMem(), nil
}

// Finalize ends boot services and consumes c. The map key is refreshed
// right before the exit call; a stale key is retried once with a new map.
// With exit false the services are kept but c is still consumed.
func (c *Context) Finalize(exit bool) (*Runtime, error) {
	if c.consumed {
		return nil, fault.Wrap(fault.KindLogic, "boot: finalize", ErrConsumed)
	}
	c.consumed = true
	fw := c.fw
	c.fw = nil
	c.graphics, c.pointers, c.keyboards = nil, nil, nil

	rt := &Runtime{Services: fw.Runtime(), Map: c.mm}
	if !exit {
		hal.Logf(c.logger, "boot: keeping boot services")
		return rt, nil
	}

	mm, err := fw.MemoryMap()
	if err == nil {
		err = fw.ExitBootServices(mm.Key)
	}
	if errors.Is(err, hal.ErrStaleMapKey) {
		hal.Logf(c.logger, "boot: stale map key %d, retrying", mm.Key)
		mm, err = fw.MemoryMap()
		if err == nil {
			err = fw.ExitBootServices(mm.Key)
		}
	}
	if err != nil {
		return nil, fault.Wrap(fault.KindBootFatal, "boot: exit boot services", err)
	}

	rt.Map = mm
	rt.Exited = true
	hal.Logf(c.logger, "boot: exited boot services (key %d)", mm.Key)
	return rt, nil
}
