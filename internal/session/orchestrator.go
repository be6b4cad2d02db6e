package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/abhisek/scholarly/internal/content"
	"github.com/abhisek/scholarly/internal/gamification"
	"github.com/abhisek/scholarly/internal/mastery"
	"github.com/abhisek/scholarly/internal/spacedrep"
	"github.com/abhisek/scholarly/internal/store"
)

// Deps are the collaborators an Orchestrator drives.
type Deps struct {
	Store     *store.Store
	Generator content.Generator
	Engine    *gamification.Engine
	Logger    *slog.Logger
	Observer  Observer
	// Clock defaults to time.Now. Share it with the engine.
	Clock func() time.Time
}

// Orchestrator runs one session at a time.
type Orchestrator struct {
	store     *store.Store
	gen       content.Generator
	engine    *gamification.Engine
	tracker   *mastery.Tracker
	scheduler *spacedrep.Scheduler
	cfg       Config
	logger    *slog.Logger
	observer  Observer
	now       func() time.Time

	// fetches keeps one generation call per topic in flight.
	fetches singleflight.Group
	// lessons tracks background lesson generation, which outlives sessions.
	lessons sync.WaitGroup

	mu  sync.Mutex
	cur *run
}

// New creates an Orchestrator.
func New(deps Deps, cfg Config) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		store:     deps.Store,
		gen:       deps.Generator,
		engine:    deps.Engine,
		tracker:   mastery.NewTracker(deps.Store.Progress()),
		scheduler: spacedrep.NewScheduler(deps.Store.Reviews()),
		cfg:       cfg,
		logger:    logger.With("component", "session"),
		observer:  deps.Observer,
		now:       now,
	}
}

// CreateTopic generates a topic outline, stores it with its progress rows,
// then generates the first subtopic's lesson and a first question batch.
// Failures after the topic is stored are logged and leave the topic usable.
func (o *Orchestrator) CreateTopic(ctx context.Context, name string) (*store.Topic, error) {
	outline, err := o.gen.GenerateTopic(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("generate topic: %w", err)
	}
	if len(outline.Subtopics) == 0 {
		return nil, fmt.Errorf("generate topic %q: %w", name, content.ErrEmptyTopic)
	}

	t := &store.Topic{
		ID:            uuid.NewString(),
		Name:          outline.Name,
		Subtopics:     outline.Subtopics,
		Category:      outline.Category,
		RelatedTopics: outline.RelatedTopics,
		CreatedAt:     o.now(),
	}
	if err := o.store.Topics().Create(ctx, t); err != nil {
		return nil, err
	}
	o.logger.Info("topic created", "topic", t.ID, "name", t.Name, "subtopics", len(t.Subtopics))

	first := t.Subtopics[0]
	if lesson, err := o.gen.GenerateLesson(ctx, t, first); err != nil {
		o.logger.Warn("generate first lesson", "topic", t.ID, "error", err)
	} else if err := o.store.Progress().SaveLesson(ctx, t.ID, first, *lesson); err != nil {
		o.logger.Warn("save first lesson", "topic", t.ID, "error", err)
	}

	qs, err := o.gen.GenerateQuestions(ctx, content.QuestionRequest{
		Topic:         t,
		FocusSubtopic: first,
		Difficulty:    1,
	})
	if err != nil {
		o.logger.Warn("generate first questions", "topic", t.ID, "error", err)
		return t, nil
	}
	if _, err := o.store.QuestionCache().Add(ctx, t.ID, qs); err != nil {
		o.logger.Warn("cache first questions", "topic", t.ID, "error", err)
	}
	return t, nil
}

// Start begins a session, ending any session still running.
func (o *Orchestrator) Start(ctx context.Context, opts Options) error {
	if opts.TopicID == "" && !opts.ReviewOnly {
		return errors.New("start session: topic id is required")
	}
	if prev := o.active(); prev != nil {
		o.end(ctx, prev)
	}

	r := &run{
		id:        uuid.NewString(),
		opts:      opts,
		startedAt: o.now(),
		phase:     PhaseLoading,
		wake:      make(chan struct{}, 1),
		cancel:    func() {},
	}
	now := r.startedAt

	var progress []store.SubtopicProgress
	if opts.TopicID != "" {
		t, err := o.store.Topics().Get(ctx, opts.TopicID)
		if err != nil {
			return fmt.Errorf("start session: %w", err)
		}
		r.topic = t
		if progress, err = o.tracker.Progress(ctx, t.ID); err != nil {
			return fmt.Errorf("start session: %w", err)
		}
		r.activeSub = opts.FocusSubtopic
		if r.activeSub == "" {
			r.activeSub = mastery.CurrentSubtopic(progress)
		}
		if r.asked, err = o.store.Records().AskedQuestions(ctx, t.ID); err != nil {
			return fmt.Errorf("start session: %w", err)
		}
	}

	reviews, err := o.scheduler.Due(ctx, opts.TopicID, now)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	r.reviews = reviews

	if r.topic != nil && !opts.ReviewOnly {
		cached, err := o.store.QuestionCache().Unanswered(ctx, r.topic.ID)
		if err != nil {
			return fmt.Errorf("start session: %w", err)
		}
		qs := make([]store.Question, 0, len(cached))
		for _, c := range cached {
			qs = append(qs, c.Question)
		}
		r.admit(qs)
	}

	o.engine.ResetSession(r.id)
	if err := o.engine.RolloverDailyGoal(ctx); err != nil {
		o.logger.Warn("roll over daily goal", "error", err)
	}
	if days, err := o.engine.ProtectStreak(ctx); err != nil {
		o.logger.Warn("protect streak", "error", err)
	} else if len(days) > 0 {
		o.emit(Event{Kind: EventStreakProtected, SessionID: r.id, Days: days})
	}

	r.phase = PhaseServing
	if p := findProgress(progress, r.activeSub); p != nil && !opts.ReviewOnly {
		switch {
		case p.Lesson.Empty():
			o.generateLessonAsync(r.topic, r.activeSub)
		case !p.LessonViewed:
			r.phase = PhaseLesson
		}
	}

	o.mu.Lock()
	o.cur = r
	o.mu.Unlock()

	if r.topic != nil && !opts.ReviewOnly {
		wctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		r.cancel = cancel
		r.wg.Add(1)
		go o.prefetch(wctx, r)
	}

	o.logger.Info("session started", "session", r.id, "topic", r.topicID(),
		"reviews", len(r.reviews), "queued", len(r.queue), "phase", r.phase)
	return nil
}

func findProgress(progress []store.SubtopicProgress, sub string) *store.SubtopicProgress {
	for i := range progress {
		if progress[i].Subtopic == sub {
			return &progress[i]
		}
	}
	return nil
}

func (o *Orchestrator) active() *run {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cur == nil || o.cur.phase == PhaseEnded {
		return nil
	}
	return o.cur
}

// Phase returns the current session's phase.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cur == nil {
		return PhaseEnded
	}
	return o.cur.phase
}

// SessionID returns the current session's ID, "" before Start.
func (o *Orchestrator) SessionID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cur == nil {
		return ""
	}
	return o.cur.id
}

// Lesson returns the lesson for the subtopic being studied.
func (o *Orchestrator) Lesson(ctx context.Context) (string, *store.Lesson, error) {
	o.mu.Lock()
	r := o.cur
	o.mu.Unlock()
	if r == nil || r.topic == nil || r.activeSub == "" {
		return "", nil, ErrNoSession
	}
	p, err := o.store.Progress().Get(ctx, r.topic.ID, r.activeSub)
	if err != nil {
		return "", nil, err
	}
	return p.Subtopic, &p.Lesson, nil
}

// ViewLesson marks the current lesson as read and starts serving questions.
func (o *Orchestrator) ViewLesson(ctx context.Context) error {
	o.mu.Lock()
	r := o.cur
	if r == nil || r.phase == PhaseEnded {
		o.mu.Unlock()
		return ErrSessionEnded
	}
	if r.phase == PhaseLesson {
		r.phase = PhaseServing
	}
	topicID, sub := r.topicID(), r.activeSub
	o.mu.Unlock()

	if topicID == "" || sub == "" {
		return nil
	}
	return o.store.Progress().MarkLessonViewed(ctx, topicID, sub)
}

// Next returns the question to answer. Due reviews are served before new
// questions. When nothing is queued it blocks on a refill.
func (o *Orchestrator) Next(ctx context.Context) (*Item, error) {
	o.mu.Lock()
	r := o.cur
	if r == nil {
		o.mu.Unlock()
		return nil, ErrNoSession
	}
	if r.phase == PhaseEnded {
		o.mu.Unlock()
		return nil, ErrSessionEnded
	}
	if r.current != nil {
		item := r.current
		o.mu.Unlock()
		return item, nil
	}
	if r.answered >= o.cfg.MaxQuestions {
		o.mu.Unlock()
		o.end(ctx, r)
		return nil, ErrSessionEnded
	}
	item := o.take(r)
	o.mu.Unlock()

	if item == nil {
		if r.opts.ReviewOnly || r.topic == nil {
			o.end(ctx, r)
			return nil, ErrSessionEnded
		}
		if _, err := o.refill(ctx, r); err != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		o.mu.Lock()
		if r.phase == PhaseEnded {
			o.mu.Unlock()
			return nil, ErrSessionEnded
		}
		item = o.take(r)
		o.mu.Unlock()
		if item == nil {
			return nil, ErrNoQuestions
		}
	}

	o.nudge(r)
	o.emit(Event{Kind: EventQuestionReady, SessionID: r.id, TopicID: item.TopicID,
		Subtopic: item.Question.Subtopic, Item: item})
	return item, nil
}

// take pops the next review or queued question. Callers hold the lock.
func (o *Orchestrator) take(r *run) *Item {
	item := &Item{AnswerID: uuid.NewString()}
	switch {
	case len(r.reviews) > 0:
		rv := r.reviews[0]
		r.reviews = r.reviews[1:]
		item.TopicID = rv.TopicID
		item.Question = rv.Question
		item.IsReview = true
	case len(r.queue) > 0:
		item.TopicID = r.topic.ID
		item.Question = r.queue[0]
		r.queue = r.queue[1:]
	default:
		return nil
	}
	r.served++
	item.Number = r.served
	r.asked = append(r.asked, item.Question.Text)
	r.current = item
	r.phase = PhaseServing
	return item
}

// End finishes the session. The end-of-session rewards are granted exactly
// once; later calls return the same summary.
func (o *Orchestrator) End(ctx context.Context) (*Summary, error) {
	o.mu.Lock()
	r := o.cur
	o.mu.Unlock()
	if r == nil {
		return nil, ErrNoSession
	}
	return o.end(ctx, r), nil
}

func (o *Orchestrator) end(ctx context.Context, r *run) *Summary {
	r.endOnce.Do(func() {
		o.mu.Lock()
		r.phase = PhaseEnded
		r.current = nil
		o.mu.Unlock()

		r.cancel()
		r.wg.Wait()

		s := &Summary{
			SessionID: r.id,
			TopicID:   r.topicID(),
			Answered:  r.answered,
			Correct:   r.correct,
			StartedAt: r.startedAt,
			EndedAt:   o.now(),
		}
		s.Outcome = o.engine.OnSessionEnded(ctx, gamification.SessionSummary{
			Answered: r.answered,
			Correct:  r.correct,
		})

		o.mu.Lock()
		r.summary = s
		o.mu.Unlock()

		base := Event{SessionID: r.id, TopicID: s.TopicID}
		o.emitOutcome(base, s.Outcome)
		base.Kind = EventSessionEnded
		base.Summary = s
		o.emit(base)
		o.logger.Info("session ended", "session", r.id, "answered", r.answered, "correct", r.correct)
	})
	o.mu.Lock()
	defer o.mu.Unlock()
	return r.summary
}

// Close ends the current session and waits for background lesson
// generation until ctx is done.
func (o *Orchestrator) Close(ctx context.Context) {
	if r := o.active(); r != nil {
		o.end(ctx, r)
	}
	done := make(chan struct{})
	go func() {
		o.lessons.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// generateLessonAsync writes the lesson for sub in the background when it
// has none yet.
func (o *Orchestrator) generateLessonAsync(t *store.Topic, sub string) {
	if t == nil || sub == "" {
		return
	}
	o.lessons.Add(1)
	go func() {
		defer o.lessons.Done()
		ctx, cancel := context.WithTimeout(context.Background(), o.cfg.LessonTimeout)
		defer cancel()

		p, err := o.store.Progress().Get(ctx, t.ID, sub)
		if err != nil || !p.Lesson.Empty() {
			return
		}
		lesson, err := o.gen.GenerateLesson(ctx, t, sub)
		if err != nil {
			o.logger.Warn("generate lesson", "topic", t.ID, "subtopic", sub, "error", err)
			o.emit(Event{Kind: EventGenerationError, TopicID: t.ID, Subtopic: sub, Err: err})
			return
		}
		if err := o.store.Progress().SaveLesson(ctx, t.ID, sub, *lesson); err != nil {
			o.logger.Warn("save lesson", "topic", t.ID, "subtopic", sub, "error", err)
			return
		}
		o.emit(Event{Kind: EventLessonReady, TopicID: t.ID, Subtopic: sub})
	}()
}
