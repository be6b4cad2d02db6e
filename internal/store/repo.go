package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrPrecondition is returned when a conditional write matched no row.
var ErrPrecondition = errors.New("precondition failed")

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	Purpose string    // exact purpose match
	From    time.Time // timestamp >= From
}

// TopicRepo manages topics and their subtopic rows.
type TopicRepo interface {
	// Create inserts a topic and one progress row per subtopic, in order.
	Create(ctx context.Context, t *Topic) error
	Get(ctx context.Context, id string) (*Topic, error)
	List(ctx context.Context) ([]Topic, error)
	TouchPracticed(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// ProgressRepo manages per-subtopic counters, mastery and lessons.
type ProgressRepo interface {
	// List returns the topic's subtopics ordered by sort order.
	List(ctx context.Context, topicID string) ([]SubtopicProgress, error)
	Get(ctx context.Context, topicID, subtopic string) (*SubtopicProgress, error)
	// RecordAnswer increments the counters and returns the updated row.
	RecordAnswer(ctx context.Context, topicID, subtopic string, correct bool) (*SubtopicProgress, error)
	// MarkMastered flips IsMastered once. Reports whether this call flipped it.
	MarkMastered(ctx context.Context, topicID, subtopic string, at time.Time) (bool, error)
	SaveLesson(ctx context.Context, topicID, subtopic string, l Lesson) error
	MarkLessonViewed(ctx context.Context, topicID, subtopic string) error
}

// RecordRepo appends question records.
type RecordRepo interface {
	// Append inserts rec unless its AnswerID was already recorded.
	// Reports whether a row was written.
	Append(ctx context.Context, rec *QuestionRecord) (bool, error)
	AskedQuestions(ctx context.Context, topicID string) ([]string, error)
	Recent(ctx context.Context, topicID string, limit int) ([]QuestionRecord, error)
}

// ReviewRepo manages spaced-repetition cards.
type ReviewRepo interface {
	Find(ctx context.Context, topicID, question string) (*ReviewItem, error)
	// Save inserts the item when ID is zero, otherwise updates its schedule.
	Save(ctx context.Context, item *ReviewItem) error
	// List returns the cards for a topic, or all cards when topicID is empty.
	List(ctx context.Context, topicID string) ([]ReviewItem, error)
}

// QuestionCacheRepo stores generated questions until they are answered.
type QuestionCacheRepo interface {
	// Add stores questions, skipping duplicates. Returns the number stored.
	Add(ctx context.Context, topicID string, qs []Question) (int, error)
	// Unanswered returns cached questions with no matching question record.
	Unanswered(ctx context.Context, topicID string) ([]CachedQuestion, error)
}

// ProfileRepo manages the learner profile, XP ledger, achievements and
// daily activity.
type ProfileRepo interface {
	Get(ctx context.Context) (*Profile, error)
	// AddXP credits amount and journals it. Returns totals before and after.
	AddXP(ctx context.Context, amount int, reason, sessionID string) (before, after int, err error)
	// SpendForFreeze debits cost and adds one held freeze when the balance
	// covers it and fewer than maxHeld are held. Returns ErrPrecondition otherwise.
	SpendForFreeze(ctx context.Context, cost, maxHeld int) (*Profile, error)
	SetFreezes(ctx context.Context, held int, dates []string) error
	SetDailyGoal(ctx context.Context, completed bool, day string) error
	// UnlockAchievement records the achievement and credits its XP in one
	// transaction. Reports false without side effects when already unlocked.
	UnlockAchievement(ctx context.Context, id string, xp int, at time.Time, sessionID string) (unlocked bool, before, after int, err error)
	Achievements(ctx context.Context) ([]Achievement, error)
	XPEntries(ctx context.Context, limit int) ([]XPEntry, error)
	// BumpActivity adds one completed question to the given day.
	BumpActivity(ctx context.Context, day string) error
	// ActivityDays returns active days, most recent first.
	ActivityDays(ctx context.Context) ([]DailyActivity, error)
}

// StatsRepo answers cross-table aggregate questions.
type StatsRepo interface {
	AnswerTotals(ctx context.Context) (answered, correct int, err error)
	MasteredTopicCount(ctx context.Context) (int, error)
	MasteredSubtopicCount(ctx context.Context) (int, error)
	// MasteredBetween counts subtopics whose mastery time falls in [from, to).
	MasteredBetween(ctx context.Context, from, to time.Time) (int, error)
	DueReviewCount(ctx context.Context, now time.Time) (int, error)
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)
	GetLLMEvent(ctx context.Context, id int64) (*LLMRequestEvent, error)
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error)
	LLMUsageByModel(ctx context.Context) ([]LLMUsage, error)
}
