package api

import (
	"time"

	"github.com/abhisek/scholarly/internal/gamification"
	"github.com/abhisek/scholarly/internal/mastery"
	"github.com/abhisek/scholarly/internal/store"
)

type topicView struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Category       string     `json:"category,omitempty"`
	Subtopics      []string   `json:"subtopics"`
	RelatedTopics  []string   `json:"related_topics,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	LastPracticed  *time.Time `json:"last_practiced,omitempty"`
	Current        string     `json:"current_subtopic,omitempty"`
	PercentMastery float64    `json:"percent_mastered"`
	Mastered       bool       `json:"mastered"`
}

func newTopicView(t *store.Topic, progress []store.SubtopicProgress) topicView {
	return topicView{
		ID:             t.ID,
		Name:           t.Name,
		Category:       t.Category,
		Subtopics:      t.Subtopics,
		RelatedTopics:  t.RelatedTopics,
		CreatedAt:      t.CreatedAt,
		LastPracticed:  t.LastPracticed,
		Current:        mastery.CurrentSubtopic(progress),
		PercentMastery: mastery.Percent(progress),
		Mastered:       mastery.TopicMastered(progress),
	}
}

type subtopicView struct {
	Subtopic     string     `json:"subtopic"`
	Answered     int        `json:"questions_answered"`
	Correct      int        `json:"questions_correct"`
	Accuracy     float64    `json:"accuracy"`
	Mastered     bool       `json:"mastered"`
	MasteredAt   *time.Time `json:"mastered_at,omitempty"`
	LessonReady  bool       `json:"lesson_ready"`
	LessonViewed bool       `json:"lesson_viewed"`
}

type topicDetail struct {
	topicView
	Progress []subtopicView `json:"progress"`
}

type stepView struct {
	Subtopic string  `json:"subtopic"`
	State    string  `json:"state"`
	Accuracy float64 `json:"accuracy"`
	Answered int     `json:"answered"`
}

func newStepViews(steps []mastery.Step) []stepView {
	out := make([]stepView, 0, len(steps))
	for _, s := range steps {
		out = append(out, stepView{Subtopic: s.Subtopic, State: string(s.State), Accuracy: s.Accuracy, Answered: s.Answered})
	}
	return out
}

type reviewView struct {
	TopicID        string    `json:"topic_id"`
	Subtopic       string    `json:"subtopic"`
	Question       string    `json:"question"`
	Format         string    `json:"format"`
	NextReviewDate time.Time `json:"next_review_date"`
	IntervalDays   float64   `json:"interval_days"`
	EaseFactor     float64   `json:"ease_factor"`
	ReviewCount    int       `json:"review_count"`
	OverdueDays    float64   `json:"overdue_days"`
}

type rankView struct {
	Level int    `json:"level"`
	Name  string `json:"name"`
	MinXP int    `json:"min_xp"`
}

func newRankView(r gamification.Rank) rankView {
	return rankView{Level: r.Level, Name: r.Name, MinXP: r.MinXP}
}

type profileView struct {
	TotalXP          int       `json:"total_xp"`
	Rank             rankView  `json:"rank"`
	NextRank         *rankView `json:"next_rank,omitempty"`
	RankProgress     float64   `json:"rank_progress"`
	Streak           int       `json:"streak"`
	StreakWithFreeze int       `json:"streak_with_freezes"`
	StreakFreezes    int       `json:"streak_freezes"`
	DailyGoal        bool      `json:"daily_goal_completed"`
	QuestionsTotal   int       `json:"questions_answered"`
	CorrectTotal     int       `json:"questions_correct"`
	TopicsMastered   int       `json:"topics_mastered"`
	DueReviews       int       `json:"due_reviews"`
}

type achievementView struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Icon        string     `json:"icon"`
	XP          int        `json:"xp"`
	Unlocked    bool       `json:"unlocked"`
	UnlockedAt  *time.Time `json:"unlocked_at,omitempty"`
}

type xpEntryView struct {
	AwardedAt time.Time `json:"awarded_at"`
	Amount    int       `json:"amount"`
	Reason    string    `json:"reason"`
	SessionID string    `json:"session_id,omitempty"`
}
