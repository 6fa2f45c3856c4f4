package buildinfo

import (
	"strings"
	"testing"
)

func TestShort(t *testing.T) {
	fillFromVCS()
	v, c := Version, Commit
	defer func() { Version, Commit = v, c }()

	Version, Commit = "v1.2.3", "0123456789abcdef0123"
	if got := Short(); got != "v1.2.3" {
		t.Fatalf("Short = %q, want version", got)
	}
	Version = "dev"
	if got := Short(); got != "0123456789ab" {
		t.Fatalf("Short = %q, want short commit", got)
	}
	Commit = "unknown"
	if got := Short(); got != "dev" {
		t.Fatalf("Short = %q, want dev", got)
	}
}

func TestString(t *testing.T) {
	if s := String(); !strings.HasPrefix(s, "voxos ") || !strings.Contains(s, Version) {
		t.Fatalf("String = %q", s)
	}
}
