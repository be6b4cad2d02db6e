// Package matcher grades free-text and multiple-choice answers.
//
// Free-text grading is lenient: answers are normalized, then accepted on an
// exact, substring or small-edit-distance match. Partial word overlap is
// reported as Uncertain so the caller can escalate to a second opinion.
package matcher

import (
	"strconv"
	"strings"
)

// Verdict is the outcome of grading a free-text answer.
type Verdict int

const (
	Incorrect Verdict = iota
	Correct
	Uncertain
)

func (v Verdict) String() string {
	switch v {
	case Correct:
		return "correct"
	case Uncertain:
		return "uncertain"
	default:
		return "incorrect"
	}
}

const (
	// MaxEditDistance is the largest Levenshtein distance accepted as a typo.
	MaxEditDistance = 2

	// OverlapThreshold is the word-overlap ratio that makes an answer uncertain.
	OverlapThreshold = 0.5

	// minLength is the normalized length below which only exact matches count.
	minLength = 2
)

var articles = []string{"the ", "a ", "an "}

// Normalize lowercases s, strips a leading article, drops everything outside
// [a-z0-9 ] and collapses runs of whitespace.
func Normalize(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	for _, a := range articles {
		if strings.HasPrefix(s, a) {
			s = s[len(a):]
			break
		}
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Evaluate grades userAnswer against correct and the extra acceptable forms.
func Evaluate(userAnswer string, acceptable []string, correct string) Verdict {
	user := Normalize(userAnswer)
	candidates := candidateSet(correct, acceptable)

	if len(user) < minLength {
		for _, c := range candidates {
			if user == c {
				return Correct
			}
		}
		return Incorrect
	}

	for _, c := range candidates {
		if user == c {
			return Correct
		}
	}
	for _, c := range candidates {
		if strings.Contains(c, user) || strings.Contains(user, c) {
			return Correct
		}
	}
	for _, c := range candidates {
		if Levenshtein(user, c) <= MaxEditDistance {
			return Correct
		}
	}
	for _, c := range candidates {
		if WordOverlap(user, c) >= OverlapThreshold {
			return Uncertain
		}
	}
	return Incorrect
}

// candidateSet returns the normalized, de-duplicated, non-empty answers.
func candidateSet(correct string, acceptable []string) []string {
	seen := make(map[string]bool, len(acceptable)+1)
	out := make([]string, 0, len(acceptable)+1)
	for _, a := range append([]string{correct}, acceptable...) {
		n := Normalize(a)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// WordOverlap returns the fraction of the words in target that also appear
// in answer. Both inputs are expected to be normalized.
func WordOverlap(answer, target string) float64 {
	targetWords := strings.Fields(target)
	if len(targetWords) == 0 {
		return 0
	}
	have := make(map[string]bool)
	for _, w := range strings.Fields(answer) {
		have[w] = true
	}
	counted := make(map[string]bool, len(targetWords))
	hits := 0
	for _, w := range targetWords {
		if counted[w] {
			continue
		}
		counted[w] = true
		if have[w] {
			hits++
		}
	}
	return float64(hits) / float64(len(counted))
}

// Levenshtein returns the edit distance between a and b, counting single
// rune insertions, deletions and substitutions.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// MatchChoice checks a multiple-choice selection. The selection may be the
// choice text or its 1-based index into choices; text wins when a choice is
// itself a number.
func MatchChoice(selected string, choices []string, correct string) bool {
	selected = strings.ToLower(strings.TrimSpace(selected))
	if selected == "" {
		return false
	}
	isChoice := false
	for _, c := range choices {
		if strings.ToLower(strings.TrimSpace(c)) == selected {
			isChoice = true
			break
		}
	}
	if !isChoice {
		if idx, err := strconv.Atoi(selected); err == nil && idx >= 1 && idx <= len(choices) {
			selected = strings.ToLower(strings.TrimSpace(choices[idx-1]))
		}
	}
	return selected == strings.ToLower(strings.TrimSpace(correct))
}
