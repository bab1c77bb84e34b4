package main

import "testing"

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		w, h int
		ok   bool
	}{
		{"80x24", 80, 24, true},
		{"120X40", 120, 40, true},
		{"80", 0, 0, false},
		{"0x24", 0, 0, false},
		{"80x", 0, 0, false},
		{"axb", 0, 0, false},
	}
	for _, tt := range tests {
		w, h, err := parseSize(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("%q: unexpected error state %v", tt.in, err)
			continue
		}
		if tt.ok && (w != tt.w || h != tt.h) {
			t.Errorf("%q: got %dx%d, want %dx%d", tt.in, w, h, tt.w, tt.h)
		}
	}
}
