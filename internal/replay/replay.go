// Package replay records the per-frame input of a run as zstd
// compressed JSON lines and plays it back as the input source and clock
// of a later run. With digests enabled, playback checks that the world
// evolves bit for bit as it did when recorded.
package replay

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"

	"voxos/clock"
	"voxos/input"
	"voxos/internal/buildinfo"
	"voxos/world"
)

// Version is the recording format version.
const Version = 1

// Header is the first line of a recording.
type Header struct {
	Version int          `json:"v"`
	Build   string       `json:"build"`
	World   world.Config `json:"world"`
}

// Frame is one recorded frame. Digest is the world digest before the
// frame's step, when the recorder had one.
type Frame struct {
	N      uint64        `json:"n"`
	Input  input.State   `json:"in"`
	Delta  time.Duration `json:"dt"`
	Digest string        `json:"d,omitempty"`
}

// DigestFunc returns the current world digest.
type DigestFunc func() [sha256.Size]byte

var ErrMismatch = errors.New("replay: world diverged from recording")

// Recorder writes a recording. It is not safe for concurrent use.
type Recorder struct {
	enc    *zstd.Encoder
	w      *bufio.Writer
	digest DigestFunc
	n      uint64
}

// NewRecorder writes the header for cfg to w. digest may be nil.
func NewRecorder(w io.Writer, cfg world.Config, digest DigestFunc) (*Recorder, error) {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, err
	}
	r := &Recorder{enc: enc, w: bufio.NewWriterSize(enc, 64*1024), digest: digest}
	if err := r.writeLine(Header{Version: Version, Build: buildinfo.Short(), World: cfg}); err != nil {
		_ = enc.Close()
		return nil, err
	}
	return r, nil
}

// Record appends one frame.
func (r *Recorder) Record(in input.State, dt time.Duration) error {
	f := Frame{N: r.n, Input: in, Delta: dt}
	if r.digest != nil {
		d := r.digest()
		f.Digest = hex.EncodeToString(d[:])
	}
	r.n++
	return r.writeLine(f)
}

// Frames returns the number of frames recorded so far.
func (r *Recorder) Frames() uint64 { return r.n }

func (r *Recorder) writeLine(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := r.w.Write(b); err != nil {
		return err
	}
	return r.w.WriteByte('\n')
}

// Close flushes the recording. It does not close the underlying writer.
func (r *Recorder) Close() error {
	if err := r.w.Flush(); err != nil {
		_ = r.enc.Close()
		return err
	}
	return r.enc.Close()
}

// Player feeds a recording back as a clock and an input source. When the
// recording ends it reports Escape so the world asks to exit.
type Player struct {
	dec    *zstd.Decoder
	sc     *bufio.Scanner
	header Header
	digest DigestFunc

	cur    Frame
	played uint64
	done   bool
	err    error
}

// NewPlayer reads the header from r.
func NewPlayer(r io.Reader) (*Player, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 4096), 1<<20)
	p := &Player{dec: dec, sc: sc}
	if !sc.Scan() {
		dec.Close()
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("replay: header: %w", err)
		}
		return nil, fmt.Errorf("replay: empty recording")
	}
	if err := json.Unmarshal(sc.Bytes(), &p.header); err != nil {
		dec.Close()
		return nil, fmt.Errorf("replay: header: %w", err)
	}
	if p.header.Version != Version {
		dec.Close()
		return nil, fmt.Errorf("replay: unsupported version %d", p.header.Version)
	}
	return p, nil
}

// Verify checks every following frame that carries a digest against
// digest, which must describe the world being replayed into.
func (p *Player) Verify(digest DigestFunc) { p.digest = digest }

// Header returns the recording header.
func (p *Player) Header() Header { return p.header }

// Done reports whether the recording has run out.
func (p *Player) Done() bool { return p.done }

// Err returns the first read error or digest mismatch.
func (p *Player) Err() error { return p.err }

// Frames returns how many frames have been played.
func (p *Player) Frames() uint64 { return p.played }

// Tick advances to the next recorded frame and returns its timing.
func (p *Player) Tick() clock.Timing {
	if p.done {
		return clock.Timing{Now: p.cur.Input.Time}
	}
	if !p.sc.Scan() {
		p.finish(p.sc.Err())
		return clock.Timing{Now: p.cur.Input.Time}
	}
	var f Frame
	if err := json.Unmarshal(p.sc.Bytes(), &f); err != nil {
		p.finish(fmt.Errorf("replay: frame: %w", err))
		return clock.Timing{Now: p.cur.Input.Time}
	}
	if p.digest != nil && f.Digest != "" && p.err == nil {
		d := p.digest()
		if got := hex.EncodeToString(d[:]); got != f.Digest {
			p.err = fmt.Errorf("%w: frame %d", ErrMismatch, f.N)
		}
	}
	p.cur = f
	p.played++
	return clock.Timing{Now: f.Input.Time, Delta: f.Delta}
}

// Poll returns the input of the current frame.
func (p *Player) Poll(now time.Duration) input.State {
	if p.done {
		return input.State{Keys: input.KeyEscape, Time: now}
	}
	st := p.cur.Input
	st.Time = now
	return st
}

func (p *Player) finish(err error) {
	p.done = true
	if err != nil && p.err == nil {
		p.err = err
	}
}

// Close releases the decoder.
func (p *Player) Close() {
	p.dec.Close()
}
