package app

import (
	"voxos/display"
	"voxos/hal"

	"tinygo.org/x/tinyfont/proggy"
	"tinygo.org/x/tinyterm"
)

var crlf = []byte("\r\n")

// console forwards log lines to the firmware logger and, while boot is
// in progress, onto the screen through a terminal.
type console struct {
	base   hal.Logger
	term   *tinyterm.Terminal
	target *display.Target
}

// attach starts mirroring lines onto t.
func (c *console) attach(t *display.Target) {
	c.term = tinyterm.NewTerminal(t)
	c.term.Configure(&tinyterm.Config{
		Font:       &proggy.TinySZ8pt7b,
		FontHeight: 10,
		FontOffset: 8,
	})
	c.target = t
}

// detach stops mirroring. The frame loop owns the screen from here.
func (c *console) detach() {
	c.term = nil
	c.target = nil
}

func (c *console) WriteLineString(s string) {
	c.base.WriteLineString(s)
	c.mirror([]byte(s))
}

func (c *console) WriteLineBytes(b []byte) {
	c.base.WriteLineBytes(b)
	c.mirror(b)
}

func (c *console) mirror(b []byte) {
	if c.term == nil {
		return
	}
	_, _ = c.term.Write(b)
	_, _ = c.term.Write(crlf)
	if err := c.target.Display(); err != nil {
		c.detach()
		c.base.WriteLineString("console: " + err.Error())
	}
}

// firmware hands the console to everything that asks the firmware for
// its logger.
type firmware struct {
	hal.Firmware
	log hal.Logger
}

func (f firmware) Logger() hal.Logger { return f.log }
