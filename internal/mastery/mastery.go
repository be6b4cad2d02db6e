// Package mastery decides when a subtopic counts as learned and where the
// learner currently stands on a topic's learning path.
package mastery

import (
	"time"

	"github.com/abhisek/scholarly/internal/store"
)

const (
	// MinAnswered is the number of answers required before mastery is possible.
	MinAnswered = 10

	// MinAccuracy is the accuracy percentage required for mastery.
	MinAccuracy = 80.0

	// MaxDifficulty is the hardest question level the generator is asked for.
	MaxDifficulty = 5
)

// Accuracy returns the correct percentage for p, 0 when nothing was answered.
func Accuracy(p *store.SubtopicProgress) float64 {
	return p.Accuracy()
}

// IsMasteryReached reports whether the counters in p meet the mastery bar.
func IsMasteryReached(p *store.SubtopicProgress) bool {
	return p.QuestionsAnswered >= MinAnswered && Accuracy(p) >= MinAccuracy
}

// SuggestedDifficulty maps progress on a subtopic to a 1-5 question level.
// Early answers are capped at 3 until there is enough signal.
func SuggestedDifficulty(p *store.SubtopicProgress) int {
	if p == nil || p.QuestionsAnswered == 0 {
		return 1
	}
	acc := Accuracy(p)
	var level int
	switch {
	case acc < 50:
		level = 1
	case acc < 65:
		level = 2
	case acc < 80:
		level = 3
	case acc < 90:
		level = 4
	default:
		level = MaxDifficulty
	}
	if p.QuestionsAnswered < 5 {
		level = min(level, 3)
	}
	return level
}

// Transition is reported the first time a subtopic reaches mastery.
type Transition struct {
	TopicID  string
	Subtopic string
	At       time.Time

	// TopicMastered is set when this transition completed the whole topic.
	TopicMastered bool

	// NextSubtopic is the new path pointer, empty when the topic is complete.
	NextSubtopic string
}
