package session

import (
	"strings"
	"unicode"

	"github.com/abhisek/scholarly/internal/matcher"
	"github.com/abhisek/scholarly/internal/store"
)

const (
	// SimilarityThreshold is the share of a candidate's significant words
	// that, when exceeded, marks it as a repeat of another question.
	SimilarityThreshold = 0.7

	// MaxSharedAnswers is the number of queued questions that may already
	// have the candidate's answer before it is rejected.
	MaxSharedAnswers = 2
)

// SignificantWords returns the lower-cased words of s longer than two
// characters.
func SignificantWords(s string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len([]rune(w)) > 2 {
			words[w] = true
		}
	}
	return words
}

// overlap returns the share of cand's words that appear in other.
func overlap(cand, other map[string]bool) float64 {
	if len(cand) == 0 {
		return 0
	}
	shared := 0
	for w := range cand {
		if other[w] {
			shared++
		}
	}
	return float64(shared) / float64(len(cand))
}

// TooSimilar reports whether candidate repeats an asked or queued question,
// or would cluster too many queued questions on the same answer.
func TooSimilar(candidate store.Question, asked []string, queued []store.Question) bool {
	words := SignificantWords(candidate.Text)
	text := strings.ToLower(strings.TrimSpace(candidate.Text))

	repeats := func(other string) bool {
		if strings.ToLower(strings.TrimSpace(other)) == text {
			return true
		}
		return overlap(words, SignificantWords(other)) > SimilarityThreshold
	}
	for _, a := range asked {
		if repeats(a) {
			return true
		}
	}

	answer := matcher.Normalize(candidate.CorrectAnswer)
	shared := 0
	for _, q := range queued {
		if repeats(q.Text) {
			return true
		}
		if answer != "" && matcher.Normalize(q.CorrectAnswer) == answer {
			shared++
		}
	}
	return shared >= MaxSharedAnswers
}

// admit appends the questions that pass the similarity filter to the run's
// queue. Callers hold the orchestrator lock.
func (r *run) admit(qs []store.Question) int {
	n := 0
	for _, q := range qs {
		if !r.accepts(q) || TooSimilar(q, r.asked, r.queue) {
			continue
		}
		r.queue = append(r.queue, q)
		n++
	}
	return n
}

// accepts applies the session's focus and format restrictions.
func (r *run) accepts(q store.Question) bool {
	if r.opts.Format != "" && q.Format != r.opts.Format {
		return false
	}
	if r.opts.FocusSubtopic != "" && q.Subtopic != r.opts.FocusSubtopic {
		return false
	}
	return true
}
