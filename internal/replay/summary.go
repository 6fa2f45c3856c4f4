package replay

import (
	"io"
	"time"

	"voxos/input"
)

// Summary describes a recording without replaying it.
type Summary struct {
	Header   Header
	Frames   uint64
	Duration time.Duration
	// MaxDelta is the longest frame, before the world clamps it.
	MaxDelta time.Duration
	// Clicks counts press edges of the left, right and middle buttons.
	Clicks [3]uint64
	// Keys counts key press edges.
	Keys    uint64
	Digests bool
}

// Summarize reads a whole recording.
func Summarize(r io.Reader) (Summary, error) {
	p, err := NewPlayer(r)
	if err != nil {
		return Summary{}, err
	}
	defer p.Close()

	s := Summary{Header: p.Header()}
	var prev input.State
	for {
		t := p.Tick()
		if p.Done() {
			break
		}
		in := p.cur.Input
		s.Frames++
		s.Duration += t.Delta
		s.MaxDelta = max(s.MaxDelta, t.Delta)
		s.Digests = s.Digests || p.cur.Digest != ""

		pressed := in.Buttons &^ prev.Buttons
		for i, b := range []input.Buttons{input.ButtonLeft, input.ButtonRight, input.ButtonMiddle} {
			if pressed&b != 0 {
				s.Clicks[i]++
			}
		}
		for k := in.Keys &^ prev.Keys; k != 0; k &= k - 1 {
			s.Keys++
		}
		prev = in
	}
	return s, p.Err()
}
