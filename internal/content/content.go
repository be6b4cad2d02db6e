// Package content produces topics, lessons and quiz questions and judges
// free-text answers the matcher cannot decide.
package content

import (
	"context"

	"github.com/abhisek/scholarly/internal/store"
)

// BatchSize is the number of questions requested per generation call.
const BatchSize = 10

// Generator produces learning content.
type Generator interface {
	// GenerateTopic breaks a topic name into an ordered subtopic list.
	GenerateTopic(ctx context.Context, name string) (*TopicStructure, error)

	// GenerateLesson writes the lesson for one subtopic.
	GenerateLesson(ctx context.Context, topic *store.Topic, subtopic string) (*store.Lesson, error)

	// GenerateQuestions returns up to BatchSize questions. The result is
	// sanitized: callers receive only well-formed questions for known
	// subtopics.
	GenerateQuestions(ctx context.Context, req QuestionRequest) ([]store.Question, error)

	// JudgeAnswer decides whether a free-text response is acceptable.
	JudgeAnswer(ctx context.Context, req JudgeRequest) (bool, error)
}

// TopicStructure is the outline of a new topic.
type TopicStructure struct {
	Name          string
	Subtopics     []string
	Category      string
	RelatedTopics []string
}

// QuestionRequest describes a batch to generate.
type QuestionRequest struct {
	Topic *store.Topic

	// FocusSubtopic, when set, restricts the batch to one subtopic.
	FocusSubtopic string

	// Format, when set, restricts the batch to one question format.
	Format store.QuestionFormat

	// Difficulty is the target level from 1 to 5.
	Difficulty int

	// Asked lists question texts that must not be repeated.
	Asked []string
}

// JudgeRequest asks whether Response answers Question.
type JudgeRequest struct {
	Topic             string
	Question          string
	CorrectAnswer     string
	AcceptableAnswers []string
	Response          string
}

// Unavailable is a Generator that fails every call with Err. It lets review
// sessions run without an LLM; uncertain answers are then graded incorrect.
type Unavailable struct {
	Err error
}

func (u Unavailable) GenerateTopic(context.Context, string) (*TopicStructure, error) {
	return nil, u.Err
}

func (u Unavailable) GenerateLesson(context.Context, *store.Topic, string) (*store.Lesson, error) {
	return nil, u.Err
}

func (u Unavailable) GenerateQuestions(context.Context, QuestionRequest) ([]store.Question, error) {
	return nil, u.Err
}

func (u Unavailable) JudgeAnswer(context.Context, JudgeRequest) (bool, error) {
	return false, u.Err
}
