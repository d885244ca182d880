package utils

import (
	"testing"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello world", 5, "hello..."},
		{"x", 0, "x"},
		{"naïve café", 5, "naïve..."},
		{"", 3, ""},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestTruncateFit(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 5, "hello"},
		{"hello world", 8, "hello..."},
		{"hello world", 2, "he..."},
		{"ünïcödé text", 7, "ünïc..."},
	}
	for _, tt := range tests {
		got := TruncateFit(tt.in, tt.max)
		if got != tt.want {
			t.Errorf("TruncateFit(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
