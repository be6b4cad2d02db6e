// Package session runs quiz sessions: it serves due reviews and generated
// questions, grades answers and feeds the results to the progress, review
// and reward engines.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/abhisek/scholarly/internal/gamification"
	"github.com/abhisek/scholarly/internal/store"
)

var (
	// ErrSessionEnded is returned by calls made after the session ended.
	ErrSessionEnded = errors.New("session ended")

	// ErrNoQuestion is returned by Submit when no question is being asked.
	ErrNoQuestion = errors.New("no question is being asked")

	// ErrNoQuestions is returned by Next when nothing can be served and a
	// refill produced no usable question.
	ErrNoQuestions = errors.New("no questions available")

	// ErrNoSession is returned when no session was started.
	ErrNoSession = errors.New("no active session")
)

// Phase is the session's position in its lifecycle.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseLesson
	PhaseServing
	PhaseAnswered
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseLesson:
		return "lesson"
	case PhaseServing:
		return "serving"
	case PhaseAnswered:
		return "answered"
	case PhaseEnded:
		return "ended"
	}
	return "unknown"
}

// Config tunes session pacing.
type Config struct {
	// MaxQuestions answered ends the session.
	MaxQuestions int

	// PrefetchPacing is the pause after a successful background fetch.
	PrefetchPacing time.Duration

	// BackoffBase is multiplied by 2^failures after a failed fetch.
	BackoffBase time.Duration

	// MaxPrefetchFailures consecutive fetches without progress stop the worker.
	MaxPrefetchFailures int

	// LessonTimeout bounds background lesson generation.
	LessonTimeout time.Duration
}

// DefaultConfig returns the standard session settings.
func DefaultConfig() Config {
	return Config{
		MaxQuestions:        10,
		PrefetchPacing:      500 * time.Millisecond,
		BackoffBase:         time.Second,
		MaxPrefetchFailures: 3,
		LessonTimeout:       2 * time.Minute,
	}
}

// Options selects what a session practices.
type Options struct {
	// TopicID scopes the session to one topic. Required unless ReviewOnly.
	TopicID string

	// FocusSubtopic restricts new questions to one subtopic.
	FocusSubtopic string

	// Format restricts new questions to one format.
	Format store.QuestionFormat

	// ReviewOnly serves due reviews and nothing else. Without a TopicID it
	// covers every topic.
	ReviewOnly bool
}

// Item is a question being asked.
type Item struct {
	// AnswerID identifies this asking; submitting twice records once.
	AnswerID string
	TopicID  string
	Question store.Question
	IsReview bool
	// Number is the 1-based position among served questions.
	Number int
}

// Summary describes a finished session.
type Summary struct {
	SessionID string
	TopicID   string
	Answered  int
	Correct   int
	StartedAt time.Time
	EndedAt   time.Time
	Outcome   gamification.Outcome
}

// run is the state of one session.
type run struct {
	id        string
	opts      Options
	topic     *store.Topic
	activeSub string
	startedAt time.Time

	phase    Phase
	reviews  []store.ReviewItem
	queue    []store.Question
	asked    []string
	current  *Item
	served   int
	answered int
	correct  int

	wake    chan struct{}
	cancel  func()
	wg      sync.WaitGroup
	endOnce sync.Once
	summary *Summary
}

func (r *run) topicID() string {
	if r.topic == nil {
		return ""
	}
	return r.topic.ID
}
