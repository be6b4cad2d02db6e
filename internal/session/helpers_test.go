package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/scholarly/internal/content"
	"github.com/abhisek/scholarly/internal/gamification"
	"github.com/abhisek/scholarly/internal/store"
	"github.com/abhisek/scholarly/internal/store/storetest"
)

var codewords = []string{
	"alpha", "bravo", "charlie", "delta", "echo", "foxtrot", "golf", "hotel", "india",
	"juliet", "kilo", "lima", "mike", "november", "oscar", "papa", "quebec", "romeo",
	"sierra", "tango", "uniform", "victor", "whiskey", "xray", "yankee", "zulu",
}

// fakeQuestion returns a free-response question whose text and answer are
// unique for n.
func fakeQuestion(sub string, n int) store.Question {
	word := fmt.Sprintf("%s%d", codewords[n%len(codewords)], n/len(codewords))
	return store.Question{
		Subtopic:      sub,
		Text:          fmt.Sprintf("What is fact %s?", word),
		Format:        store.FormatFreeResponse,
		CorrectAnswer: word,
		Explanation:   "Because " + word + ".",
		Difficulty:    2,
	}
}

// fakeGenerator is a scripted content.Generator.
type fakeGenerator struct {
	mu sync.Mutex

	subtopics []string
	next      int // next fakeQuestion index

	// questionsErr, when set, fails every GenerateQuestions call.
	questionsErr error
	// empty makes GenerateQuestions return no questions.
	empty bool
	delay time.Duration

	judge      func(content.JudgeRequest) (bool, error)
	judgeCalls int

	questionCalls int
	lessonCalls   []string
	inFlight      int
	maxInFlight   int
}

func newFakeGenerator(subtopics ...string) *fakeGenerator {
	return &fakeGenerator{subtopics: subtopics}
}

func (f *fakeGenerator) GenerateTopic(_ context.Context, name string) (*content.TopicStructure, error) {
	return &content.TopicStructure{Name: name, Subtopics: f.subtopics, Category: "Test"}, nil
}

func (f *fakeGenerator) GenerateLesson(_ context.Context, _ *store.Topic, sub string) (*store.Lesson, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lessonCalls = append(f.lessonCalls, sub)
	return &store.Lesson{Overview: "All about " + sub, KeyFacts: []string{sub + " matters"}}, nil
}

func (f *fakeGenerator) GenerateQuestions(ctx context.Context, req content.QuestionRequest) ([]store.Question, error) {
	f.mu.Lock()
	f.questionCalls++
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	delay, err, empty := f.delay, f.questionsErr, f.empty
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	if err != nil {
		return nil, err
	}
	if empty {
		return nil, nil
	}

	sub := req.FocusSubtopic
	if sub == "" {
		sub = req.Topic.Subtopics[0]
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	qs := make([]store.Question, 0, content.BatchSize)
	for range content.BatchSize {
		qs = append(qs, fakeQuestion(sub, f.next))
		f.next++
	}
	return qs, nil
}

func (f *fakeGenerator) JudgeAnswer(_ context.Context, req content.JudgeRequest) (bool, error) {
	f.mu.Lock()
	f.judgeCalls++
	judge := f.judge
	f.mu.Unlock()
	if judge == nil {
		return false, errors.New("no judge configured")
	}
	return judge(req)
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.questionCalls
}

// eventLog records observed events.
type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) observe(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) count(kind EventKind) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

type harness struct {
	orch   *Orchestrator
	store  *store.Store
	engine *gamification.Engine
	gen    *fakeGenerator
	events *eventLog
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.PrefetchPacing = time.Millisecond
	cfg.BackoffBase = time.Millisecond
	cfg.LessonTimeout = time.Second
	return cfg
}

func newHarness(t *testing.T, gen *fakeGenerator, cfg Config) *harness {
	t.Helper()
	s := storetest.Open(t)
	engine := gamification.New(s.Profile(), s.Stats())
	events := &eventLog{}
	orch := New(Deps{
		Store:     s,
		Generator: gen,
		Engine:    engine,
		Observer:  events.observe,
	}, cfg)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		orch.Close(ctx)
	})
	return &harness{orch: orch, store: s, engine: engine, gen: gen, events: events}
}

// seedTopic stores a topic directly, with lessons already viewed.
func (h *harness) seedTopic(t *testing.T, id string, subs ...string) *store.Topic {
	t.Helper()
	ctx := context.Background()
	topic := &store.Topic{ID: id, Name: id, Subtopics: subs, CreatedAt: time.Now()}
	if err := h.store.Topics().Create(ctx, topic); err != nil {
		t.Fatalf("create topic: %v", err)
	}
	for _, sub := range subs {
		if err := h.store.Progress().SaveLesson(ctx, id, sub, store.Lesson{Overview: sub}); err != nil {
			t.Fatalf("save lesson: %v", err)
		}
		if err := h.store.Progress().MarkLessonViewed(ctx, id, sub); err != nil {
			t.Fatalf("mark viewed: %v", err)
		}
	}
	return topic
}
