package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/abhisek/scholarly/internal/llm"
	"github.com/abhisek/scholarly/internal/store"
)

// Config controls the behavior of the LLMGenerator.
type Config struct {
	TopicMaxTokens    int
	LessonMaxTokens   int
	QuestionMaxTokens int
	JudgeMaxTokens    int

	// Temperature applies to topic, lesson and question generation.
	// Judgments always run at 0.
	Temperature float64

	// MaxPriorQuestions caps the dedup list sent with a question batch.
	MaxPriorQuestions int
}

// DefaultConfig returns recommended defaults.
func DefaultConfig() Config {
	return Config{
		TopicMaxTokens:    1024,
		LessonMaxTokens:   2048,
		QuestionMaxTokens: 4096,
		JudgeMaxTokens:    256,
		Temperature:       0.7,
		MaxPriorQuestions: 30,
	}
}

// ErrEmptyTopic is returned when the outline has no usable subtopics.
var ErrEmptyTopic = errors.New("topic outline has no subtopics")

// LLMGenerator implements Generator on top of an llm.Provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
	logger   *slog.Logger
}

// New creates an LLMGenerator. A nil logger uses slog.Default.
func New(provider llm.Provider, cfg Config, logger *slog.Logger) *LLMGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMGenerator{
		provider: provider,
		config:   cfg,
		logger:   logger.With("component", "content"),
	}
}

// generate sends one single-turn request and decodes the JSON reply into out.
func (g *LLMGenerator) generate(ctx context.Context, purpose, system, user string, schema *llm.Schema, maxTokens int, temp float64, out any) error {
	ctx = llm.WithPurpose(ctx, purpose)
	resp, err := g.provider.Generate(ctx, llm.Request{
		System:      system,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: user}},
		Schema:      schema,
		MaxTokens:   maxTokens,
		Temperature: temp,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", purpose, err)
	}
	if err := json.Unmarshal(resp.Content, out); err != nil {
		return fmt.Errorf("%s: parse response: %w", purpose, &llm.ErrInvalidResponse{Content: resp.Content, Err: err})
	}
	return nil
}

type topicOutput struct {
	Name          string   `json:"name"`
	Subtopics     []string `json:"subtopics"`
	Category      string   `json:"category"`
	RelatedTopics []string `json:"related_topics"`
}

func (g *LLMGenerator) GenerateTopic(ctx context.Context, name string) (*TopicStructure, error) {
	var out topicOutput
	if err := g.generate(ctx, llm.PurposeTopic, topicSystemPrompt, buildTopicMessage(name),
		TopicSchema, g.config.TopicMaxTokens, g.config.Temperature, &out); err != nil {
		return nil, err
	}

	// Subtopics key progress rows, so they must be unique.
	seen := make(map[string]bool, len(out.Subtopics))
	var subs []string
	for _, s := range out.Subtopics {
		s = strings.TrimSpace(s)
		if s == "" || seen[foldKey(s)] {
			continue
		}
		seen[foldKey(s)] = true
		subs = append(subs, s)
	}
	if len(subs) == 0 {
		return nil, ErrEmptyTopic
	}

	display := strings.TrimSpace(out.Name)
	if display == "" {
		display = strings.TrimSpace(name)
	}
	return &TopicStructure{
		Name:          display,
		Subtopics:     subs,
		Category:      strings.TrimSpace(out.Category),
		RelatedTopics: cleanList(out.RelatedTopics),
	}, nil
}

type lessonOutput struct {
	Overview       string   `json:"overview"`
	KeyFacts       []string `json:"key_facts"`
	Misconceptions []string `json:"misconceptions"`
	Connections    []string `json:"connections"`
}

func (g *LLMGenerator) GenerateLesson(ctx context.Context, topic *store.Topic, subtopic string) (*store.Lesson, error) {
	var out lessonOutput
	if err := g.generate(ctx, llm.PurposeLesson, lessonSystemPrompt, buildLessonMessage(topic, subtopic),
		LessonSchema, g.config.LessonMaxTokens, g.config.Temperature, &out); err != nil {
		return nil, err
	}
	return &store.Lesson{
		Overview:       strings.TrimSpace(out.Overview),
		KeyFacts:       cleanList(out.KeyFacts),
		Misconceptions: cleanList(out.Misconceptions),
		Connections:    cleanList(out.Connections),
	}, nil
}

type questionOutput struct {
	Subtopic          string   `json:"subtopic"`
	Question          string   `json:"question"`
	Format            string   `json:"format"`
	Choices           []string `json:"choices"`
	CorrectAnswer     string   `json:"correct_answer"`
	AcceptableAnswers []string `json:"acceptable_answers"`
	Explanation       string   `json:"explanation"`
	Difficulty        int      `json:"difficulty"`
}

func (g *LLMGenerator) GenerateQuestions(ctx context.Context, req QuestionRequest) ([]store.Question, error) {
	if req.Topic == nil {
		return nil, errors.New("generate questions: topic is required")
	}

	var out struct {
		Questions []questionOutput `json:"questions"`
	}
	if err := g.generate(ctx, llm.PurposeQuestions, questionSystemPrompt, buildQuestionMessage(req, g.config.MaxPriorQuestions),
		QuestionBatchSchema, g.config.QuestionMaxTokens, g.config.Temperature, &out); err != nil {
		return nil, err
	}

	raw := make([]store.Question, 0, len(out.Questions))
	for _, q := range out.Questions {
		raw = append(raw, store.Question{
			Subtopic:          q.Subtopic,
			Text:              q.Question,
			Format:            store.QuestionFormat(q.Format),
			Choices:           q.Choices,
			CorrectAnswer:     q.CorrectAnswer,
			AcceptableAnswers: q.AcceptableAnswers,
			Explanation:       q.Explanation,
			Difficulty:        q.Difficulty,
		})
	}

	allowed := req.Topic.Subtopics
	if req.FocusSubtopic != "" {
		allowed = []string{req.FocusSubtopic}
	}
	clean := Sanitize(raw, allowed)
	if req.Format != "" {
		clean = filterFormat(clean, req.Format)
	}
	if dropped := len(raw) - len(clean); dropped > 0 {
		g.logger.Debug("dropped malformed questions", "topic", req.Topic.ID, "dropped", dropped, "kept", len(clean))
	}
	if len(clean) > BatchSize {
		clean = clean[:BatchSize]
	}
	return clean, nil
}

func filterFormat(qs []store.Question, f store.QuestionFormat) []store.Question {
	out := qs[:0]
	for _, q := range qs {
		if q.Format == f {
			out = append(out, q)
		}
	}
	return out
}

type judgeOutput struct {
	Acceptable bool   `json:"acceptable"`
	Reason     string `json:"reason"`
}

func (g *LLMGenerator) JudgeAnswer(ctx context.Context, req JudgeRequest) (bool, error) {
	var out judgeOutput
	if err := g.generate(ctx, llm.PurposeJudge, judgeSystemPrompt, buildJudgeMessage(req),
		JudgeSchema, g.config.JudgeMaxTokens, 0, &out); err != nil {
		return false, err
	}
	g.logger.Debug("answer judged", "acceptable", out.Acceptable, "reason", out.Reason)
	return out.Acceptable, nil
}
