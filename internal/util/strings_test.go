package util

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{"short string unchanged", "mzdy", 10, "mzdy"},
		{"exact length unchanged", "mzdy", 4, "mzdy"},
		{"long string truncated", "Zákonné poistenie", 8, "Zákon..."},
		{"small maxLen returns ellipsis", "mzdy", 3, "..."},
		{"negative maxLen returns ellipsis", "mzdy", -1, "..."},
		{"empty string unchanged", "", 10, ""},
		{"accents counted as one rune", "Účtovný doklad", 5, "Úč..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateString(tt.input, tt.maxLen); got != tt.expected {
				t.Errorf("TruncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.expected)
			}
		})
	}
}

func TestTruncateANSI(t *testing.T) {
	styled := lipgloss.NewStyle().Bold(true).Render("cleaned__mzdy_januar.csv")

	t.Run("fits", func(t *testing.T) {
		if got := TruncateANSI(styled, 80); got != styled {
			t.Errorf("TruncateANSI() changed a string that fits: %q", got)
		}
	})

	t.Run("cut to width", func(t *testing.T) {
		got := TruncateANSI(styled, 10)
		if w := lipgloss.Width(got); w > 10 {
			t.Errorf("TruncateANSI() width = %d, want <= 10", w)
		}
	})

	t.Run("tiny width", func(t *testing.T) {
		if got := TruncateANSI(styled, 2); got != "..." {
			t.Errorf("TruncateANSI() = %q, want ellipsis", got)
		}
	})
}

func TestTruncatePath(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		width int
		want  string
	}{
		{"fits", "/in/mzdy.csv", 20, "/in/mzdy.csv"},
		{"keeps the tail", "/very/long/inbox/mzdy.csv", 11, "...mzdy.csv"},
		{"tiny width", "/in/mzdy.csv", 3, "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncatePath(tt.path, tt.width); got != tt.want {
				t.Errorf("TruncatePath(%q, %d) = %q, want %q", tt.path, tt.width, got, tt.want)
			}
		})
	}
}
