package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/scholarly/internal/store"
)

var subs = []string{"Cell Structure", "Photosynthesis"}

func mc(answer string, choices ...string) store.Question {
	return store.Question{
		Subtopic: "Photosynthesis", Text: "Which gas is released?", Format: store.FormatMultipleChoice,
		Choices: choices, CorrectAnswer: answer, Difficulty: 2,
	}
}

func TestSanitize_MultipleChoice(t *testing.T) {
	tests := []struct {
		name       string
		in         store.Question
		keep       bool
		wantAnswer string
	}{
		{"valid", mc("Oxygen", "Oxygen", "Nitrogen", "Carbon dioxide", "Helium"), true, "Oxygen"},
		{"case repair", mc("oxygen", "Oxygen", "Nitrogen", "Carbon dioxide", "Helium"), true, "Oxygen"},
		{"whitespace repair", mc("  Carbon   dioxide ", "Oxygen", "Nitrogen", "Carbon dioxide", "Helium"), true, "Carbon dioxide"},
		{"answer missing", mc("Argon", "Oxygen", "Nitrogen", "Carbon dioxide", "Helium"), false, ""},
		{"three choices", mc("Oxygen", "Oxygen", "Nitrogen", "Helium"), false, ""},
		{"five choices", mc("Oxygen", "Oxygen", "Nitrogen", "Helium", "Neon", "Argon"), false, ""},
		{"duplicate choices", mc("Oxygen", "Oxygen", "oxygen", "Helium", "Neon"), false, ""},
		{"empty choice", mc("Oxygen", "Oxygen", " ", "Helium", "Neon"), false, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := Sanitize([]store.Question{tc.in}, subs)
			if !tc.keep {
				assert.Empty(t, out)
				return
			}
			require.Len(t, out, 1)
			assert.Equal(t, tc.wantAnswer, out[0].CorrectAnswer)
			assert.Contains(t, out[0].Choices, out[0].CorrectAnswer)
		})
	}
}

func TestSanitize_FreeResponse(t *testing.T) {
	q := store.Question{
		Subtopic: "cell structure", Text: " What powers the cell? ", Format: store.FormatFreeResponse,
		Choices: []string{"stray"}, CorrectAnswer: "Mitochondria", AcceptableAnswers: []string{"mitochondrion", " "},
		Difficulty: 9,
	}
	out := Sanitize([]store.Question{q}, subs)
	require.Len(t, out, 1)
	assert.Nil(t, out[0].Choices)
	assert.Equal(t, "Cell Structure", out[0].Subtopic, "subtopic is canonicalized")
	assert.Equal(t, "What powers the cell?", out[0].Text)
	assert.Equal(t, []string{"mitochondrion"}, out[0].AcceptableAnswers)
	assert.Equal(t, 5, out[0].Difficulty)
}

func TestSanitize_Drops(t *testing.T) {
	in := []store.Question{
		{Subtopic: "Genetics", Text: "q", Format: store.FormatFreeResponse, CorrectAnswer: "a"},
		{Subtopic: "Photosynthesis", Text: "", Format: store.FormatFreeResponse, CorrectAnswer: "a"},
		{Subtopic: "Photosynthesis", Text: "q", Format: store.FormatFreeResponse, CorrectAnswer: ""},
		{Subtopic: "Photosynthesis", Text: "q", Format: "true_false", CorrectAnswer: "true"},
	}
	assert.Empty(t, Sanitize(in, subs))
}
