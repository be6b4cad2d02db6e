package session

import (
	"github.com/abhisek/scholarly/internal/gamification"
	"github.com/abhisek/scholarly/internal/matcher"
)

// EventKind names something that happened during a session.
type EventKind string

const (
	EventQuestionReady       EventKind = "question_ready"
	EventAnswerResult        EventKind = "answer_result"
	EventXPAwarded           EventKind = "xp_awarded"
	EventAchievementUnlocked EventKind = "achievement_unlocked"
	EventRankUp              EventKind = "rank_up"
	EventSubtopicMastered    EventKind = "subtopic_mastered"
	EventTopicMastered       EventKind = "topic_mastered"
	EventLessonReady         EventKind = "lesson_ready"
	EventStreakProtected     EventKind = "streak_protected"
	EventGenerationError     EventKind = "generation_error"
	EventSessionEnded        EventKind = "session_ended"
)

// Event is delivered to the observer. Only the fields relevant to Kind are
// set.
type Event struct {
	Kind      EventKind
	SessionID string
	TopicID   string
	Subtopic  string

	Item        *Item
	Correct     bool
	Verdict     matcher.Verdict
	Award       *gamification.LedgerEntry
	Achievement *gamification.Unlock
	RankUp      *gamification.RankUp
	Days        []string
	Summary     *Summary
	Err         error
}

// Observer receives session events. It is called from the prefetch and
// lesson goroutines too, so it must be safe for concurrent use.
type Observer func(Event)

func (o *Orchestrator) emit(e Event) {
	if o.observer != nil {
		o.observer(e)
	}
}

// emitOutcome reports the awards, unlocks and rank change of one hook.
func (o *Orchestrator) emitOutcome(base Event, out gamification.Outcome) {
	for i := range out.Awards {
		e := base
		e.Kind = EventXPAwarded
		e.Award = &out.Awards[i]
		o.emit(e)
	}
	for i := range out.Unlocked {
		e := base
		e.Kind = EventAchievementUnlocked
		e.Achievement = &out.Unlocked[i]
		o.emit(e)
	}
	if out.RankUp != nil {
		e := base
		e.Kind = EventRankUp
		e.RankUp = out.RankUp
		o.emit(e)
	}
}
