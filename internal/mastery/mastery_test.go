package mastery

import (
	"testing"
	"time"

	"github.com/abhisek/scholarly/internal/store"
)

func TestIsMasteryReached(t *testing.T) {
	tests := []struct {
		answered, correct int
		want              bool
	}{
		{9, 9, false},
		{10, 8, true},
		{10, 7, false},
		{20, 16, true},
		{0, 0, false},
	}
	for _, tc := range tests {
		p := &store.SubtopicProgress{QuestionsAnswered: tc.answered, QuestionsCorrect: tc.correct}
		if got := IsMasteryReached(p); got != tc.want {
			t.Errorf("IsMasteryReached(%d/%d) = %v, want %v", tc.correct, tc.answered, got, tc.want)
		}
	}
}

func TestAccuracyZeroWhenUnanswered(t *testing.T) {
	if got := Accuracy(&store.SubtopicProgress{}); got != 0 {
		t.Errorf("Accuracy = %v, want 0", got)
	}
}

func TestSuggestedDifficulty(t *testing.T) {
	tests := []struct {
		answered, correct int
		want              int
	}{
		{0, 0, 1},
		{4, 4, 3},
		{10, 4, 1},
		{10, 6, 2},
		{10, 7, 3},
		{10, 8, 4},
		{10, 9, 5},
	}
	for _, tc := range tests {
		p := &store.SubtopicProgress{QuestionsAnswered: tc.answered, QuestionsCorrect: tc.correct}
		if got := SuggestedDifficulty(p); got != tc.want {
			t.Errorf("SuggestedDifficulty(%d/%d) = %d, want %d", tc.correct, tc.answered, got, tc.want)
		}
	}
	if got := SuggestedDifficulty(nil); got != 1 {
		t.Errorf("SuggestedDifficulty(nil) = %d, want 1", got)
	}
}

func progressFixture() []store.SubtopicProgress {
	return []store.SubtopicProgress{
		{Subtopic: "c", SortOrder: 2},
		{Subtopic: "a", SortOrder: 0, IsMastered: true},
		{Subtopic: "b", SortOrder: 1},
	}
}

func TestCurrentSubtopic(t *testing.T) {
	if got := CurrentSubtopic(progressFixture()); got != "b" {
		t.Errorf("CurrentSubtopic = %q, want %q", got, "b")
	}

	all := progressFixture()
	for i := range all {
		all[i].IsMastered = true
	}
	if got := CurrentSubtopic(all); got != "" {
		t.Errorf("CurrentSubtopic (all mastered) = %q, want empty", got)
	}
	if !TopicMastered(all) {
		t.Error("TopicMastered = false, want true")
	}
	if TopicMastered(nil) {
		t.Error("TopicMastered(nil) = true, want false")
	}
}

func TestPath(t *testing.T) {
	steps := Path(progressFixture())
	want := []struct {
		sub   string
		state StepState
	}{
		{"a", StepMastered},
		{"b", StepCurrent},
		{"c", StepLocked},
	}
	if len(steps) != len(want) {
		t.Fatalf("len(Path) = %d, want %d", len(steps), len(want))
	}
	for i, w := range want {
		if steps[i].Subtopic != w.sub || steps[i].State != w.state {
			t.Errorf("step %d = %s/%s, want %s/%s", i, steps[i].Subtopic, steps[i].State, w.sub, w.state)
		}
	}
}

func TestMasteredOn(t *testing.T) {
	now := time.Date(2025, 6, 1, 15, 0, 0, 0, time.Local)
	yesterday := now.AddDate(0, 0, -1)
	progress := []store.SubtopicProgress{
		{Subtopic: "a", IsMastered: true, MasteredAt: &now},
		{Subtopic: "b", IsMastered: true, MasteredAt: &now},
		{Subtopic: "c", IsMastered: true, MasteredAt: &yesterday},
		{Subtopic: "d"},
	}
	if got := MasteredOn(progress, now); got != 2 {
		t.Errorf("MasteredOn = %d, want 2", got)
	}
	if got := Percent(progress); got != 75 {
		t.Errorf("Percent = %v, want 75", got)
	}
}
