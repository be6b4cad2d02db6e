package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/scholarly/internal/ui/theme"
)

// Choices renders the options of a multiple-choice question, numbered from 1.
// After grading, pass the chosen and correct option texts to color them;
// empty strings render the plain list.
func Choices(options []string, chosen, correct string) string {
	var b strings.Builder
	for i, opt := range options {
		line := fmt.Sprintf("  %d)  %s", i+1, opt)

		var style lipgloss.Style
		switch {
		case correct == "":
			style = theme.Body
		case strings.EqualFold(opt, correct):
			style = theme.Correct
		case strings.EqualFold(opt, chosen):
			style = theme.Incorrect
		default:
			style = theme.Hint
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}
