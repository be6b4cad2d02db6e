package store

import "time"

// Topic is a subject the learner is studying. Subtopics are kept in the
// order the learning path visits them.
type Topic struct {
	ID            string
	Name          string
	Subtopics     []string
	Category      string
	RelatedTopics []string
	CreatedAt     time.Time
	LastPracticed *time.Time
}

// Lesson is the study material attached to a subtopic.
type Lesson struct {
	Overview       string
	KeyFacts       []string
	Misconceptions []string
	Connections    []string
}

// Empty reports whether no lesson content has been generated yet.
func (l Lesson) Empty() bool {
	return l.Overview == "" && len(l.KeyFacts) == 0
}

// SubtopicProgress holds answer counters and mastery state for one subtopic.
type SubtopicProgress struct {
	TopicID           string
	Subtopic          string
	SortOrder         int
	QuestionsAnswered int
	QuestionsCorrect  int
	IsMastered        bool
	MasteredAt        *time.Time
	Lesson            Lesson
	LessonViewed      bool
}

// Accuracy returns the correct percentage, 0 when nothing was answered.
func (p *SubtopicProgress) Accuracy() float64 {
	if p.QuestionsAnswered == 0 {
		return 0
	}
	return float64(p.QuestionsCorrect) / float64(p.QuestionsAnswered) * 100
}

// QuestionRecord is an append-only log entry for one answered question.
type QuestionRecord struct {
	ID            int64
	AnswerID      string
	SessionID     string
	AnsweredAt    time.Time
	TopicID       string
	Subtopic      string
	Difficulty    int
	Question      string
	UserResponse  string
	CorrectAnswer string
	Correct       bool
	Explanation   string
}

// QuestionFormat distinguishes multiple-choice from free-response items.
type QuestionFormat string

const (
	FormatMultipleChoice QuestionFormat = "multiple_choice"
	FormatFreeResponse   QuestionFormat = "free_response"
)

// Question is the payload shared by cached questions and review items.
type Question struct {
	Subtopic          string
	Text              string
	Format            QuestionFormat
	Choices           []string
	CorrectAnswer     string
	AcceptableAnswers []string
	Explanation       string
	Difficulty        int
}

// ReviewItem is a spaced-repetition card created when a question is missed.
type ReviewItem struct {
	ID             int64
	TopicID        string
	Question       Question
	DateMissed     time.Time
	NextReviewDate time.Time
	IntervalDays   float64
	EaseFactor     float64
	ReviewCount    int
}

// CachedQuestion is a generated question waiting to be served.
type CachedQuestion struct {
	ID        int64
	TopicID   string
	Question  Question
	CreatedAt time.Time
}

// Profile is the singleton learner profile.
type Profile struct {
	TotalXP            int
	StreakFreezes      int
	FreezeDates        []string
	DailyGoalCompleted bool
	DailyGoalDate      string
}

// DailyActivity counts answered questions on one local calendar day.
type DailyActivity struct {
	Day                string
	QuestionsCompleted int
}

// Achievement is an unlocked achievement with the XP it granted.
type Achievement struct {
	ID         string
	UnlockedAt time.Time
	XPAwarded  int
}

// XPEntry is one row of the XP ledger. Debits carry a negative amount.
type XPEntry struct {
	ID        int64
	AwardedAt time.Time
	Amount    int
	Reason    string
	SessionID string
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a persisted LLM request.
type LLMRequestEvent struct {
	ID        int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsage aggregates token usage for a purpose or model.
type LLMUsage struct {
	Purpose      string
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// DayKey formats t as a local calendar day key.
func DayKey(t time.Time) string {
	return t.Local().Format(DayLayout)
}

// DayLayout is the layout used for calendar-day keys.
const DayLayout = "2006-01-02"
