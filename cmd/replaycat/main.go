//go:build !tinygo

// Command replaycat prints a summary of a recorded session and can check
// that the recording still reproduces the same world.
package main

import (
	"flag"
	"fmt"
	"os"

	"voxos/internal/replay"
	"voxos/world"

	"github.com/dustin/go-humanize"
)

func main() {
	var (
		inPath = flag.String("in", "", "Recording (.jsonl.zst).")
		verify = flag.Bool("verify", false, "Replay the session against a fresh world and check every digest.")
	)
	flag.Parse()
	if *inPath == "" && flag.NArg() == 1 {
		*inPath = flag.Arg(0)
	}
	if *inPath == "" {
		fatalf("usage: replaycat [-verify] -in session.jsonl.zst")
	}

	st, err := os.Stat(*inPath)
	if err != nil {
		fatalf("stat: %v", err)
	}
	s, err := summarize(*inPath)
	if err != nil {
		fatalf("summarize: %v", err)
	}

	h := s.Header
	fmt.Printf("file:     %s (%s)\n", *inPath, humanize.IBytes(uint64(st.Size())))
	fmt.Printf("build:    %s (format v%d)\n", h.Build, h.Version)
	fmt.Printf("world:    seed %d, %d×%d×%d chunks at %d Hz\n", h.World.Seed, h.World.SizeChunks, h.World.HeightChunks, h.World.SizeChunks, h.World.TickRate)
	fmt.Printf("frames:   %s over %v (longest %v)\n", humanize.Comma(int64(s.Frames)), s.Duration, s.MaxDelta)
	fmt.Printf("clicks:   %d left, %d right, %d middle\n", s.Clicks[0], s.Clicks[1], s.Clicks[2])
	fmt.Printf("keys:     %s presses\n", humanize.Comma(int64(s.Keys)))
	fmt.Printf("digests:  %v\n", s.Digests)

	if !*verify {
		return
	}
	if !s.Digests {
		fatalf("verify: recording carries no digests")
	}
	n, err := verifyFile(*inPath)
	if err != nil {
		fatalf("verify: %v", err)
	}
	fmt.Printf("verified: %s frames\n", humanize.Comma(int64(n)))
}

func summarize(path string) (replay.Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return replay.Summary{}, err
	}
	defer f.Close()
	return replay.Summarize(f)
}

// verifyFile steps a world built from the recorded configuration through
// every frame and returns how many frames matched.
func verifyFile(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	p, err := replay.NewPlayer(f)
	if err != nil {
		return 0, err
	}
	defer p.Close()

	cfg := p.Header().World
	w, err := world.New(cfg, make([]byte, world.StorageSize(cfg)))
	if err != nil {
		return 0, fmt.Errorf("build world: %w", err)
	}
	p.Verify(w.Digest)
	for !p.Done() && !w.ExitRequested() {
		tm := p.Tick()
		if err := p.Err(); err != nil {
			return p.Frames(), err
		}
		w.Step(p.Poll(tm.Now), tm.Delta)
	}
	return p.Frames(), p.Err()
}

func fatalf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(2)
}
