package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/abhisek/scholarly/internal/gamification"
	"github.com/abhisek/scholarly/internal/mastery"
	"github.com/abhisek/scholarly/internal/spacedrep"
)

const (
	defaultXPLimit = 50
	maxXPLimit     = 500
)

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DB().PingContext(r.Context()); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) listTopics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	topics, err := h.store.Topics().List(ctx)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	out := make([]topicView, 0, len(topics))
	for i := range topics {
		progress, err := h.tracker.Progress(ctx, topics[i].ID)
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		out = append(out, newTopicView(&topics[i], progress))
	}
	h.respondJSON(w, http.StatusOK, out)
}

func (h *Handler) getTopic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	t, err := h.store.Topics().Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	progress, err := h.tracker.Progress(ctx, t.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	detail := topicDetail{topicView: newTopicView(t, progress)}
	for i := range progress {
		p := &progress[i]
		detail.Progress = append(detail.Progress, subtopicView{
			Subtopic:     p.Subtopic,
			Answered:     p.QuestionsAnswered,
			Correct:      p.QuestionsCorrect,
			Accuracy:     p.Accuracy(),
			Mastered:     p.IsMastered,
			MasteredAt:   p.MasteredAt,
			LessonReady:  !p.Lesson.Empty(),
			LessonViewed: p.LessonViewed,
		})
	}
	h.respondJSON(w, http.StatusOK, detail)
}

func (h *Handler) topicPath(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	t, err := h.store.Topics().Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	progress, err := h.tracker.Progress(ctx, t.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, newStepViews(mastery.Path(progress)))
}

// dueReviews lists the cards due now, optionally for one ?topic.
func (h *Handler) dueReviews(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	items, err := h.scheduler.Due(r.Context(), r.URL.Query().Get("topic"), now)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	out := make([]reviewView, 0, len(items))
	for i := range items {
		it := &items[i]
		out = append(out, reviewView{
			TopicID:        it.TopicID,
			Subtopic:       it.Question.Subtopic,
			Question:       it.Question.Text,
			Format:         string(it.Question.Format),
			NextReviewDate: it.NextReviewDate,
			IntervalDays:   it.IntervalDays,
			EaseFactor:     it.EaseFactor,
			ReviewCount:    it.ReviewCount,
			OverdueDays:    spacedrep.OverdueDays(it, now),
		})
	}
	h.respondJSON(w, http.StatusOK, out)
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := h.engine.Profile(ctx)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	rank := gamification.RankFor(p.TotalXP)
	view := profileView{
		TotalXP:       p.TotalXP,
		Rank:          newRankView(rank),
		RankProgress:  gamification.RankProgress(p.TotalXP),
		StreakFreezes: p.StreakFreezes,
	}
	if next, ok := gamification.NextRank(rank); ok {
		nv := newRankView(next)
		view.NextRank = &nv
	}

	if err := h.fillActivity(ctx, &view); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

func (h *Handler) fillActivity(ctx context.Context, view *profileView) error {
	var err error
	if view.Streak, err = h.engine.Streak(ctx); err != nil {
		return err
	}
	if view.StreakWithFreeze, err = h.engine.StreakWithFreezes(ctx); err != nil {
		return err
	}
	if view.DailyGoal, err = h.engine.DailyGoal(ctx); err != nil {
		return err
	}
	stats := h.store.Stats()
	if view.QuestionsTotal, view.CorrectTotal, err = stats.AnswerTotals(ctx); err != nil {
		return err
	}
	if view.TopicsMastered, err = stats.MasteredTopicCount(ctx); err != nil {
		return err
	}
	view.DueReviews, err = stats.DueReviewCount(ctx, h.now())
	return err
}

// achievements returns the whole catalog with unlock state.
func (h *Handler) achievements(w http.ResponseWriter, r *http.Request) {
	unlocked, err := h.engine.Achievements(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	byID := make(map[string]int, len(unlocked))
	for i, a := range unlocked {
		byID[a.ID] = i
	}

	defs := gamification.Definitions()
	out := make([]achievementView, 0, len(defs))
	for _, d := range defs {
		v := achievementView{
			ID:          d.ID,
			Name:        d.Name,
			Description: d.Description,
			Category:    string(d.Category),
			Icon:        d.Icon,
			XP:          d.XP,
		}
		if i, ok := byID[d.ID]; ok {
			v.Unlocked = true
			at := unlocked[i].UnlockedAt
			v.UnlockedAt = &at
		}
		out = append(out, v)
	}
	h.respondJSON(w, http.StatusOK, out)
}

// xpLedger returns the newest XP entries; ?limit caps the count.
func (h *Handler) xpLedger(w http.ResponseWriter, r *http.Request) {
	limit := defaultXPLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxXPLimit {
			h.respondError(w, r, fmt.Errorf("%w: limit must be between 1 and %d", errBadRequest, maxXPLimit))
			return
		}
		limit = n
	}
	entries, err := h.store.Profile().XPEntries(r.Context(), limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	out := make([]xpEntryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, xpEntryView{AwardedAt: e.AwardedAt, Amount: e.Amount, Reason: e.Reason, SessionID: e.SessionID})
	}
	h.respondJSON(w, http.StatusOK, out)
}
