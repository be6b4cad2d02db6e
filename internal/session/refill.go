package session

import (
	"context"
	"time"

	"github.com/abhisek/scholarly/internal/content"
	"github.com/abhisek/scholarly/internal/mastery"
)

// refill generates one batch for the run's topic, caches it and admits
// what passes the similarity filter. Concurrent callers for the same topic
// share a single generation call. Returns the number of questions admitted.
func (o *Orchestrator) refill(ctx context.Context, r *run) (int, error) {
	v, err, shared := o.fetches.Do(r.topic.ID, func() (any, error) {
		return o.fetchBatch(ctx, r)
	})
	if err != nil {
		return 0, err
	}
	if shared {
		o.logger.Debug("joined in-flight refill", "topic", r.topic.ID)
	}
	return v.(int), nil
}

func (o *Orchestrator) fetchBatch(ctx context.Context, r *run) (int, error) {
	o.mu.Lock()
	focus := r.opts.FocusSubtopic
	if focus == "" {
		focus = r.activeSub
	}
	asked := make([]string, 0, len(r.asked)+len(r.queue))
	asked = append(asked, r.asked...)
	for _, q := range r.queue {
		asked = append(asked, q.Text)
	}
	o.mu.Unlock()

	difficulty := 3
	if focus != "" {
		if p, err := o.store.Progress().Get(ctx, r.topic.ID, focus); err == nil {
			difficulty = mastery.SuggestedDifficulty(p)
		}
	}

	qs, err := o.gen.GenerateQuestions(ctx, content.QuestionRequest{
		Topic:         r.topic,
		FocusSubtopic: focus,
		Format:        r.opts.Format,
		Difficulty:    difficulty,
		Asked:         asked,
	})
	if err != nil {
		if ctx.Err() == nil {
			o.logger.Warn("generate questions", "topic", r.topic.ID, "error", err)
			o.emit(Event{Kind: EventGenerationError, SessionID: r.id, TopicID: r.topic.ID, Subtopic: focus, Err: err})
		}
		return 0, err
	}

	if _, err := o.store.QuestionCache().Add(ctx, r.topic.ID, qs); err != nil {
		o.logger.Warn("cache questions", "topic", r.topic.ID, "error", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if r.phase == PhaseEnded {
		return 0, nil
	}
	n := r.admit(qs)
	o.logger.Debug("refilled queue", "topic", r.topic.ID, "generated", len(qs), "admitted", n, "queued", len(r.queue))
	return n, nil
}

// needsMore reports whether the queue is short of what the rest of the
// session can use. Callers hold the lock.
func (o *Orchestrator) needsMore(r *run) bool {
	if r.phase == PhaseEnded {
		return false
	}
	pending := len(r.queue) + len(r.reviews)
	if r.current != nil {
		pending++
	}
	return r.answered+pending < o.cfg.MaxQuestions
}

// nudge wakes the prefetch worker without blocking.
func (o *Orchestrator) nudge(r *run) {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// prefetch tops up the queue ahead of need. It pauses PrefetchPacing after
// a productive fetch, backs off BackoffBase*2^failures after an
// unproductive one and gives up after MaxPrefetchFailures in a row.
func (o *Orchestrator) prefetch(ctx context.Context, r *run) {
	defer r.wg.Done()
	logger := o.logger.With("session", r.id, "topic", r.topic.ID)

	failures := 0
	for {
		o.mu.Lock()
		need := o.needsMore(r)
		o.mu.Unlock()

		if !need {
			select {
			case <-ctx.Done():
				return
			case <-r.wake:
				continue
			}
		}

		n, err := o.refill(ctx, r)
		if ctx.Err() != nil {
			return
		}

		delay := o.cfg.PrefetchPacing
		if err != nil || n == 0 {
			failures++
			if failures >= o.cfg.MaxPrefetchFailures {
				logger.Info("prefetch stopped", "failures", failures)
				return
			}
			delay = o.cfg.BackoffBase * time.Duration(1<<failures)
		} else {
			failures = 0
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}
