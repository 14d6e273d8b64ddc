package components

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestClip(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello world", 8, "hello w…"},
		{"인재 검색", 5, "인재…"},
		{"abc", 1, "…"},
		{"abc", 0, ""},
		{"abc", -3, ""},
	}

	for _, tt := range tests {
		got := Clip(tt.in, tt.width)
		if got != tt.want {
			t.Errorf("Clip(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
		if lipgloss.Width(got) > max(tt.width, 0) {
			t.Errorf("Clip(%q, %d) is %d cells wide", tt.in, tt.width, lipgloss.Width(got))
		}
	}
}
