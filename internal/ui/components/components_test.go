package components

import (
	"strings"
	"testing"

	"charm.land/lipgloss/v2"
	"github.com/stretchr/testify/assert"
)

func TestProgressBarWidth(t *testing.T) {
	tests := []struct {
		percent float64
		filled  int
	}{
		{0, 0},
		{0.5, 10},
		{1, 20},
		{1.7, 20},
		{-0.2, 0},
	}
	for _, tc := range tests {
		bar := NewProgressBar("", tc.percent, false, 20).View()
		assert.Equal(t, 20, lipgloss.Width(bar))
		assert.Equal(t, tc.filled, strings.Count(bar, "█"), "percent %v", tc.percent)
	}
}

func TestProgressBarPercent(t *testing.T) {
	bar := NewProgressBar("Stars", 0.42, true, 40).View()
	assert.Contains(t, bar, "Stars")
	assert.Contains(t, bar, "42%")
	assert.LessOrEqual(t, lipgloss.Width(bar), 40)
}

func TestChoices(t *testing.T) {
	out := Choices([]string{"Mars", "Venus", "Earth", "Jupiter"}, "", "")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 4)
	assert.Contains(t, lines[0], "1)")
	assert.Contains(t, lines[3], "Jupiter")

	graded := Choices([]string{"Mars", "Venus"}, "Mars", "venus")
	assert.Contains(t, graded, "Venus")
}
