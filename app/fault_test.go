package app

import "testing"

func TestTakeRunes(t *testing.T) {
	tests := []struct {
		s          string
		n          int16
		head, rest string
	}{
		{"hello", 3, "hel", "lo"},
		{"hi", 5, "hi", ""},
		{"", 4, "", ""},
		{"abc", 0, "", "abc"},
		{"héllo", 2, "hé", "llo"},
	}
	for _, tt := range tests {
		head, rest := takeRunes(tt.s, tt.n)
		if head != tt.head || rest != tt.rest {
			t.Fatalf("takeRunes(%q, %d) = %q, %q; want %q, %q", tt.s, tt.n, head, rest, tt.head, tt.rest)
		}
	}
}
