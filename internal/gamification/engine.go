// Package gamification awards XP, tracks ranks, unlocks achievements and
// keeps the daily goal and study streak.
package gamification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/abhisek/scholarly/internal/mastery"
	"github.com/abhisek/scholarly/internal/store"
)

// XP granted for learning events.
const (
	XPSubtopicMastered    = 50
	XPFirstSubtopicBonus  = 100
	XPTopicMastered       = 200
	XPReviewsCleared      = 25
	XPSessionComplete     = 10
	XPPerCorrectInSession = 2
)

// Engine applies the reward rules. It holds no learner state of its own
// beyond a cache of unlocked achievement IDs and the current session ledger.
type Engine struct {
	profile store.ProfileRepo
	stats   store.StatsRepo
	now     func() time.Time
	logger  *slog.Logger

	mu        sync.Mutex
	unlocked  map[string]bool
	sessionID string
	ledger    []LedgerEntry
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger used for best-effort failures.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an Engine.
func New(profile store.ProfileRepo, stats store.StatsRepo, opts ...Option) *Engine {
	e := &Engine{
		profile: profile,
		stats:   stats,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "gamification")
	return e
}

// ResetSession clears the session ledger. Called at session start.
func (e *Engine) ResetSession(sessionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sessionID = sessionID
	e.ledger = nil
}

// Ledger returns the XP entries awarded since the last ResetSession.
func (e *Engine) Ledger() []LedgerEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]LedgerEntry(nil), e.ledger...)
}

func (e *Engine) currentSession() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessionID
}

func (e *Engine) journal(entry LedgerEntry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ledger = append(e.ledger, entry)
}

// AwardXP credits amount for reason. A RankUp is returned when the credit
// moves the profile into a higher rank; a jump across several ranks is a
// single RankUp naming the final one.
func (e *Engine) AwardXP(ctx context.Context, amount int, reason string) (LedgerEntry, *RankUp, error) {
	if amount <= 0 {
		return LedgerEntry{}, nil, fmt.Errorf("award xp: amount must be positive, got %d", amount)
	}
	before, after, err := e.profile.AddXP(ctx, amount, reason, e.currentSession())
	if err != nil {
		return LedgerEntry{}, nil, err
	}
	entry := LedgerEntry{Amount: amount, Reason: reason, AwardedAt: e.now()}
	e.journal(entry)
	return entry, checkRankUp(before, after), nil
}

// award is AwardXP folded into an outcome, logging instead of failing.
func (e *Engine) award(ctx context.Context, out *Outcome, amount int, reason string) {
	entry, rankUp, err := e.AwardXP(ctx, amount, reason)
	if err != nil {
		e.logger.Warn("award xp failed", "reason", reason, "error", err)
		return
	}
	out.Awards = append(out.Awards, entry)
	out.addRankUp(rankUp)
}

// Profile returns the stored profile.
func (e *Engine) Profile(ctx context.Context) (*store.Profile, error) {
	return e.profile.Get(ctx)
}

// Rank returns the current rank.
func (e *Engine) Rank(ctx context.Context) (Rank, int, error) {
	p, err := e.profile.Get(ctx)
	if err != nil {
		return Rank{}, 0, err
	}
	return RankFor(p.TotalXP), p.TotalXP, nil
}

// AnswerFacts describes a single graded answer.
type AnswerFacts struct {
	Correct    bool
	Difficulty int
	IsReview   bool
}

// OnAnswer runs the per-answer rules: hard-question and volume achievements,
// streak milestones and review clearing.
func (e *Engine) OnAnswer(ctx context.Context, f AnswerFacts) Outcome {
	var out Outcome
	if f.Correct && f.Difficulty >= mastery.MaxDifficulty {
		e.evaluate(ctx, &out, groupAnswer, func(string) (bool, error) { return true, nil })
	}
	e.evaluateRecords(ctx, &out)
	e.evaluateStreak(ctx, &out)

	// A missed review is rescheduled, so it can empty the queue too.
	if f.IsReview && f.Correct {
		due, err := e.stats.DueReviewCount(ctx, e.now())
		if err != nil {
			e.logger.Warn("count due reviews", "error", err)
		} else if due == 0 {
			e.award(ctx, &out, XPReviewsCleared, "reviews_cleared")
			e.evaluate(ctx, &out, groupReview, func(string) (bool, error) { return true, nil })
		}
	}
	return out
}

// OnSubtopicMastered awards mastery XP, completes the daily goal and checks
// the progress achievements.
func (e *Engine) OnSubtopicMastered(ctx context.Context, tr *mastery.Transition) Outcome {
	var out Outcome
	if tr == nil {
		return out
	}

	e.award(ctx, &out, XPSubtopicMastered, "subtopic_mastered:"+tr.Subtopic)

	mastered, err := e.stats.MasteredSubtopicCount(ctx)
	if err != nil {
		e.logger.Warn("count mastered subtopics", "error", err)
	} else if mastered == 1 && e.isLocked(ctx, "first_subtopic") {
		e.award(ctx, &out, XPFirstSubtopicBonus, "first_mastery_bonus")
	}

	if tr.TopicMastered {
		e.award(ctx, &out, XPTopicMastered, "topic_mastered")
	}

	if err := e.CompleteDailyGoal(ctx); err != nil {
		e.logger.Warn("complete daily goal", "error", err)
	}

	e.evaluateProgress(ctx, &out, mastered)
	return out
}

// SessionSummary describes a finished session.
type SessionSummary struct {
	Answered int
	Correct  int
}

// OnSessionEnded awards completion XP and checks the session achievements.
// Sessions with no answers earn nothing.
func (e *Engine) OnSessionEnded(ctx context.Context, s SessionSummary) Outcome {
	var out Outcome
	if s.Answered == 0 {
		return out
	}
	e.award(ctx, &out, XPSessionComplete+XPPerCorrectInSession*s.Correct, "session_complete")
	e.evaluate(ctx, &out, groupSession, func(id string) (bool, error) {
		return s.Answered >= 5 && s.Correct == s.Answered, nil
	})
	return out
}

func (e *Engine) evaluateProgress(ctx context.Context, out *Outcome, masteredSubtopics int) {
	var topics int
	var topicsErr error
	topicsLoaded := false
	loadTopics := func() (int, error) {
		if !topicsLoaded {
			topics, topicsErr = e.stats.MasteredTopicCount(ctx)
			topicsLoaded = true
		}
		return topics, topicsErr
	}

	e.evaluate(ctx, out, groupProgress, func(id string) (bool, error) {
		switch id {
		case "first_subtopic":
			return masteredSubtopics >= 1, nil
		case "first_topic":
			n, err := loadTopics()
			return n >= 1, err
		case "five_topics":
			n, err := loadTopics()
			return n >= 5, err
		case "ten_topics":
			n, err := loadTopics()
			return n >= 10, err
		case "triple_mastery":
			from, to := dayBounds(e.now())
			n, err := e.stats.MasteredBetween(ctx, from, to)
			return n >= 3, err
		}
		return false, nil
	})
}

func (e *Engine) evaluateRecords(ctx context.Context, out *Outcome) {
	var answered, correct int
	loaded := false
	e.evaluate(ctx, out, groupRecords, func(id string) (bool, error) {
		if !loaded {
			var err error
			answered, correct, err = e.stats.AnswerTotals(ctx)
			if err != nil {
				return false, err
			}
			loaded = true
		}
		switch id {
		case "questions_100":
			return answered >= 100, nil
		case "questions_500":
			return answered >= 500, nil
		case "sharpshooter":
			return answered >= 100 && float64(correct)/float64(answered) >= 0.9, nil
		}
		return false, nil
	})
}

func (e *Engine) evaluateStreak(ctx context.Context, out *Outcome) {
	streak := -1
	e.evaluate(ctx, out, groupStreak, func(id string) (bool, error) {
		if streak < 0 {
			n, err := e.StreakWithFreezes(ctx)
			if err != nil {
				return false, err
			}
			streak = n
		}
		switch id {
		case "streak_7":
			return streak >= 7, nil
		case "streak_14":
			return streak >= 14, nil
		case "streak_30":
			return streak >= 30, nil
		}
		return false, nil
	})
}

// evaluate checks each locked achievement of group g with cond and unlocks
// the ones that hold. The whole group is skipped when nothing is locked.
func (e *Engine) evaluate(ctx context.Context, out *Outcome, g group, cond func(id string) (bool, error)) {
	locked, err := e.lockedIn(ctx, g)
	if err != nil {
		e.logger.Warn("load achievements", "error", err)
		return
	}
	for _, id := range locked {
		ok, err := cond(id)
		if err != nil {
			e.logger.Warn("check achievement", "id", id, "error", err)
			continue
		}
		if ok {
			e.unlock(ctx, out, id)
		}
	}
}

func (e *Engine) lockedIn(ctx context.Context, g group) ([]string, error) {
	if err := e.loadUnlocked(ctx); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	var locked []string
	for _, id := range groupIDs(g) {
		if !e.unlocked[id] {
			locked = append(locked, id)
		}
	}
	return locked, nil
}

// isLocked reports whether achievement id has never been unlocked.
// Unlocks outlive deleted topics, so this remembers history that the
// progress counts forget. Load errors count as unlocked.
func (e *Engine) isLocked(ctx context.Context, id string) bool {
	if err := e.loadUnlocked(ctx); err != nil {
		e.logger.Warn("load achievements", "error", err)
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.unlocked[id]
}

func (e *Engine) loadUnlocked(ctx context.Context) error {
	e.mu.Lock()
	loaded := e.unlocked != nil
	e.mu.Unlock()
	if loaded {
		return nil
	}

	achievements, err := e.profile.Achievements(ctx)
	if err != nil {
		return err
	}
	set := make(map[string]bool, len(achievements))
	for _, a := range achievements {
		set[a.ID] = true
	}
	e.mu.Lock()
	e.unlocked = set
	e.mu.Unlock()
	return nil
}

// unlock records the achievement and its XP atomically. An achievement that
// is already stored is a no-op.
func (e *Engine) unlock(ctx context.Context, out *Outcome, id string) {
	def, ok := Lookup(id)
	if !ok {
		return
	}
	at := e.now()
	done, before, after, err := e.profile.UnlockAchievement(ctx, id, def.XP, at, e.currentSession())
	if err != nil {
		e.logger.Warn("unlock achievement", "id", id, "error", err)
		return
	}

	e.mu.Lock()
	e.unlocked[id] = true
	e.mu.Unlock()
	if !done {
		return
	}

	entry := LedgerEntry{Amount: def.XP, Reason: "achievement:" + id, AwardedAt: at}
	e.journal(entry)
	out.Awards = append(out.Awards, entry)
	out.Unlocked = append(out.Unlocked, Unlock{Definition: def, UnlockedAt: at})
	out.addRankUp(checkRankUp(before, after))
}

// Achievements returns the stored unlocks.
func (e *Engine) Achievements(ctx context.Context) ([]store.Achievement, error) {
	return e.profile.Achievements(ctx)
}

// dayBounds returns the local calendar day containing t as [start, end).
func dayBounds(t time.Time) (time.Time, time.Time) {
	t = t.Local()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
	return start, start.AddDate(0, 0, 1)
}

// ErrInsufficientXP is returned when a purchase costs more than the balance.
var ErrInsufficientXP = errors.New("not enough XP")

// ErrFreezeLimit is returned when the maximum number of freezes is held.
var ErrFreezeLimit = errors.New("streak freeze limit reached")
