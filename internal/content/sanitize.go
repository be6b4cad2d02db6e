package content

import (
	"strings"

	"github.com/abhisek/scholarly/internal/store"
)

// RequiredChoices is the number of options a multiple-choice question has.
const RequiredChoices = 4

// Sanitize validates generated questions against the topic's subtopics and
// repairs what it can. Questions that cannot be repaired are dropped.
//
// A multiple-choice question needs exactly four distinct choices, one of
// which must equal the correct answer. A correct answer that differs from a
// choice only in case or surrounding whitespace is rewritten to that
// choice. Free-response questions carry no choices.
func Sanitize(questions []store.Question, subtopics []string) []store.Question {
	known := make(map[string]string, len(subtopics))
	for _, s := range subtopics {
		known[foldKey(s)] = s
	}

	out := make([]store.Question, 0, len(questions))
	for _, q := range questions {
		if fixed, ok := sanitizeOne(q, known); ok {
			out = append(out, fixed)
		}
	}
	return out
}

func sanitizeOne(q store.Question, known map[string]string) (store.Question, bool) {
	sub, ok := known[foldKey(q.Subtopic)]
	if !ok {
		return q, false
	}
	q.Subtopic = sub
	q.Text = strings.TrimSpace(q.Text)
	q.CorrectAnswer = strings.TrimSpace(q.CorrectAnswer)
	q.Explanation = strings.TrimSpace(q.Explanation)
	q.Difficulty = clampDifficulty(q.Difficulty)
	if q.Text == "" || q.CorrectAnswer == "" {
		return q, false
	}

	switch q.Format {
	case store.FormatMultipleChoice:
		return repairChoices(q)
	case store.FormatFreeResponse:
		q.Choices = nil
		q.AcceptableAnswers = cleanList(q.AcceptableAnswers)
		return q, true
	}
	return q, false
}

func repairChoices(q store.Question) (store.Question, bool) {
	if len(q.Choices) != RequiredChoices {
		return q, false
	}
	choices := make([]string, 0, RequiredChoices)
	seen := make(map[string]bool, RequiredChoices)
	for _, c := range q.Choices {
		c = strings.TrimSpace(c)
		key := foldKey(c)
		if c == "" || seen[key] {
			return q, false
		}
		seen[key] = true
		choices = append(choices, c)
	}

	answer := ""
	for _, c := range choices {
		if c == q.CorrectAnswer {
			answer = c
			break
		}
	}
	if answer == "" {
		for _, c := range choices {
			if foldKey(c) == foldKey(q.CorrectAnswer) {
				answer = c
				break
			}
		}
	}
	if answer == "" {
		return q, false
	}

	q.Choices = choices
	q.CorrectAnswer = answer
	q.AcceptableAnswers = nil
	return q, true
}

// foldKey collapses case and internal whitespace.
func foldKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func cleanList(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
