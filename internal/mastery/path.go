package mastery

import (
	"sort"
	"time"

	"github.com/abhisek/scholarly/internal/store"
)

// StepState is a subtopic's position on the learning path.
type StepState string

const (
	StepMastered StepState = "mastered"
	StepCurrent  StepState = "current"
	StepLocked   StepState = "locked"
)

// Step is one entry of a topic's learning path.
type Step struct {
	Subtopic string
	State    StepState
	Accuracy float64
	Answered int
}

func ordered(progress []store.SubtopicProgress) []store.SubtopicProgress {
	out := append([]store.SubtopicProgress(nil), progress...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out
}

// CurrentSubtopic returns the first non-mastered subtopic in path order, or
// "" when every subtopic is mastered.
func CurrentSubtopic(progress []store.SubtopicProgress) string {
	for _, p := range ordered(progress) {
		if !p.IsMastered {
			return p.Subtopic
		}
	}
	return ""
}

// TopicMastered reports whether the topic has subtopics and all are mastered.
func TopicMastered(progress []store.SubtopicProgress) bool {
	if len(progress) == 0 {
		return false
	}
	for _, p := range progress {
		if !p.IsMastered {
			return false
		}
	}
	return true
}

// Path returns the learning path with each step's state.
func Path(progress []store.SubtopicProgress) []Step {
	current := CurrentSubtopic(progress)
	steps := make([]Step, 0, len(progress))
	for _, p := range ordered(progress) {
		state := StepLocked
		switch {
		case p.IsMastered:
			state = StepMastered
		case p.Subtopic == current:
			state = StepCurrent
		}
		steps = append(steps, Step{
			Subtopic: p.Subtopic,
			State:    state,
			Accuracy: p.Accuracy(),
			Answered: p.QuestionsAnswered,
		})
	}
	return steps
}

// MasteredOn counts subtopics whose mastery time falls on the same local
// calendar day as day.
func MasteredOn(progress []store.SubtopicProgress, day time.Time) int {
	key := store.DayKey(day)
	n := 0
	for _, p := range progress {
		if p.IsMastered && p.MasteredAt != nil && store.DayKey(*p.MasteredAt) == key {
			n++
		}
	}
	return n
}

// Percent returns the share of mastered subtopics, 0-100.
func Percent(progress []store.SubtopicProgress) float64 {
	if len(progress) == 0 {
		return 0
	}
	n := 0
	for _, p := range progress {
		if p.IsMastered {
			n++
		}
	}
	return float64(n) / float64(len(progress)) * 100
}
