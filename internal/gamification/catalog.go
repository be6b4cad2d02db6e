package gamification

import (
	"sort"
	"sync"
)

// group is a set of achievements evaluated together. A group is skipped
// once every achievement in it is unlocked.
type group string

const (
	groupAnswer   group = "answer"
	groupSession  group = "session"
	groupProgress group = "progress"
	groupRecords  group = "records"
	groupStreak   group = "streak"
	groupReview   group = "review"
)

var definitions = []Definition{
	{ID: "first_subtopic", Name: "First Steps", Description: "Master your first subtopic", Category: CategoryLearning, XP: 25, Icon: "🌱", group: groupProgress},
	{ID: "perfect_session", Name: "Flawless", Description: "Finish a session of 5+ questions with every answer correct", Category: CategoryLearning, XP: 50, Icon: "✨", group: groupSession},
	{ID: "expert_answer", Name: "Deep Diver", Description: "Answer a hardest-level question correctly", Category: CategoryLearning, XP: 30, Icon: "🤿", group: groupAnswer},
	{ID: "first_topic", Name: "Topic Conqueror", Description: "Master every subtopic of a topic", Category: CategoryMastery, XP: 100, Icon: "🏔️", group: groupProgress},
	{ID: "five_topics", Name: "Polymath", Description: "Fully master 5 topics", Category: CategoryMastery, XP: 250, Icon: "📚", group: groupProgress},
	{ID: "ten_topics", Name: "Renaissance Mind", Description: "Fully master 10 topics", Category: CategoryMastery, XP: 500, Icon: "🏛️", group: groupProgress},
	{ID: "triple_mastery", Name: "Hat Trick", Description: "Master 3 subtopics in a single day", Category: CategoryMastery, XP: 75, Icon: "🎩", group: groupProgress},
	{ID: "questions_100", Name: "Curious", Description: "Answer 100 questions", Category: CategoryDedication, XP: 50, Icon: "❓", group: groupRecords},
	{ID: "questions_500", Name: "Relentless", Description: "Answer 500 questions", Category: CategoryDedication, XP: 150, Icon: "🔁", group: groupRecords},
	{ID: "sharpshooter", Name: "Sharpshooter", Description: "Keep 90% accuracy over 100+ answers", Category: CategoryDedication, XP: 150, Icon: "🎯", group: groupRecords},
	{ID: "review_clear", Name: "Clean Slate", Description: "Clear every due review", Category: CategoryDedication, XP: 40, Icon: "🧹", group: groupReview},
	{ID: "streak_7", Name: "Week Warrior", Description: "Study 7 days in a row", Category: CategoryStreak, XP: 70, Icon: "🔥", group: groupStreak},
	{ID: "streak_14", Name: "Fortnight Focus", Description: "Study 14 days in a row", Category: CategoryStreak, XP: 140, Icon: "⚡", group: groupStreak},
	{ID: "streak_30", Name: "Unstoppable", Description: "Study 30 days in a row", Category: CategoryStreak, XP: 300, Icon: "🌋", group: groupStreak},
}

var catalog = sync.OnceValue(func() map[string]Definition {
	m := make(map[string]Definition, len(definitions))
	for _, d := range definitions {
		m[d.ID] = d
	}
	return m
})

// Catalog returns the achievement definitions keyed by ID.
func Catalog() map[string]Definition {
	return catalog()
}

// Lookup returns the definition for id.
func Lookup(id string) (Definition, bool) {
	d, ok := catalog()[id]
	return d, ok
}

// Definitions returns the catalog in display order.
func Definitions() []Definition {
	out := append([]Definition(nil), definitions...)
	order := map[Category]int{CategoryLearning: 0, CategoryMastery: 1, CategoryDedication: 2, CategoryStreak: 3}
	sort.SliceStable(out, func(i, j int) bool { return order[out[i].Category] < order[out[j].Category] })
	return out
}

func groupIDs(g group) []string {
	var ids []string
	for _, d := range definitions {
		if d.group == g {
			ids = append(ids, d.ID)
		}
	}
	return ids
}
