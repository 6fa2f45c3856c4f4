// Package buildinfo identifies the running image in logs, the window
// title and replay recordings.
package buildinfo

import (
	"runtime/debug"
	"sync"
)

// Version, Commit and Date are set at build time with -ldflags "-X".
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

var vcsOnce sync.Once

// fillFromVCS takes the commit and date stamped by the go command when
// they were not set explicitly.
func fillFromVCS() {
	vcsOnce.Do(func() {
		bi, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if Commit == "unknown" && s.Value != "" {
					Commit = s.Value
				}
			case "vcs.time":
				if Date == "unknown" && s.Value != "" {
					Date = s.Value
				}
			}
		}
	})
}

// Short returns a compact identifier: the version if set, else a short
// commit, else "dev".
func Short() string {
	fillFromVCS()
	if Version != "" && Version != "dev" {
		return Version
	}
	if Commit != "" && Commit != "unknown" {
		if len(Commit) > 12 {
			return Commit[:12]
		}
		return Commit
	}
	return "dev"
}

// String is the full line logged at boot.
func String() string {
	fillFromVCS()
	return "voxos " + Version + " commit " + Commit + " built " + Date
}
