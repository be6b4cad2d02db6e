package session

import (
	"context"

	"github.com/abhisek/scholarly/internal/content"
	"github.com/abhisek/scholarly/internal/gamification"
	"github.com/abhisek/scholarly/internal/mastery"
	"github.com/abhisek/scholarly/internal/matcher"
	"github.com/abhisek/scholarly/internal/store"
)

// Result is the outcome of one submitted answer.
type Result struct {
	Item    *Item
	Correct bool
	// Verdict is the matcher's call before any judgment.
	Verdict matcher.Verdict
	// Judged is set when an uncertain answer was sent to the judge.
	Judged bool

	CorrectAnswer string
	Explanation   string

	Progress   *store.SubtopicProgress
	Transition *mastery.Transition
	Review     *store.ReviewItem

	// Answer holds per-answer rewards, Mastery the rewards of a mastery
	// crossing.
	Answer  gamification.Outcome
	Mastery gamification.Outcome

	// Summary is set when this answer ended the session.
	Summary *Summary
}

// XP returns the XP earned by this answer, end-of-session rewards included.
func (r *Result) XP() int {
	xp := r.Answer.XP() + r.Mastery.XP()
	if r.Summary != nil {
		xp += r.Summary.Outcome.XP()
	}
	return xp
}

// Submit grades the answer to the current question and records it.
func (o *Orchestrator) Submit(ctx context.Context, answer string) (*Result, error) {
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
	item := r.current
	if item == nil {
		o.mu.Unlock()
		return nil, ErrNoQuestion
	}
	r.current = nil
	r.phase = PhaseAnswered
	topicName := ""
	if r.topic != nil {
		topicName = r.topic.Name
	}
	o.mu.Unlock()

	res := &Result{
		Item:          item,
		CorrectAnswer: item.Question.CorrectAnswer,
		Explanation:   item.Question.Explanation,
	}
	res.Correct, res.Verdict, res.Judged = o.grade(ctx, topicName, item.Question, answer)

	o.record(ctx, r, item, answer, res)

	o.mu.Lock()
	r.answered++
	if res.Correct {
		r.correct++
	}
	if res.Transition != nil && r.opts.FocusSubtopic == "" && item.TopicID == r.topicID() {
		r.activeSub = res.Transition.NextSubtopic
	}
	done := r.answered >= o.cfg.MaxQuestions
	o.mu.Unlock()

	o.emit(Event{Kind: EventAnswerResult, SessionID: r.id, TopicID: item.TopicID,
		Subtopic: item.Question.Subtopic, Item: item, Correct: res.Correct, Verdict: res.Verdict})
	base := Event{SessionID: r.id, TopicID: item.TopicID, Subtopic: item.Question.Subtopic}
	o.emitOutcome(base, res.Answer)
	if tr := res.Transition; tr != nil {
		e := base
		e.Kind = EventSubtopicMastered
		o.emit(e)
		if tr.TopicMastered {
			e.Kind = EventTopicMastered
			o.emit(e)
		}
	}
	o.emitOutcome(base, res.Mastery)

	if done {
		res.Summary = o.end(ctx, r)
	} else {
		o.nudge(r)
	}
	return res, nil
}

// grade decides correctness. Uncertain free-text answers go to the judge;
// a failed judgment counts as incorrect.
func (o *Orchestrator) grade(ctx context.Context, topic string, q store.Question, answer string) (bool, matcher.Verdict, bool) {
	if q.Format == store.FormatMultipleChoice {
		if matcher.MatchChoice(answer, q.Choices, q.CorrectAnswer) {
			return true, matcher.Correct, false
		}
		return false, matcher.Incorrect, false
	}

	v := matcher.Evaluate(answer, q.AcceptableAnswers, q.CorrectAnswer)
	if v != matcher.Uncertain {
		return v == matcher.Correct, v, false
	}
	ok, err := o.gen.JudgeAnswer(ctx, content.JudgeRequest{
		Topic:             topic,
		Question:          q.Text,
		CorrectAnswer:     q.CorrectAnswer,
		AcceptableAnswers: q.AcceptableAnswers,
		Response:          answer,
	})
	if err != nil {
		o.logger.Warn("judge answer failed, counting as incorrect", "error", err)
		return false, v, true
	}
	return ok, v, true
}

// record persists the answer and runs the progress, review and reward
// updates. Writes are best effort; the updates only run when the record
// was newly inserted, so a resubmitted AnswerID changes nothing.
func (o *Orchestrator) record(ctx context.Context, r *run, item *Item, answer string, res *Result) {
	now := o.now()
	q := item.Question
	logger := o.logger.With("session", r.id, "topic", item.TopicID, "subtopic", q.Subtopic)

	inserted, err := o.store.Records().Append(ctx, &store.QuestionRecord{
		AnswerID:      item.AnswerID,
		SessionID:     r.id,
		AnsweredAt:    now,
		TopicID:       item.TopicID,
		Subtopic:      q.Subtopic,
		Difficulty:    q.Difficulty,
		Question:      q.Text,
		UserResponse:  answer,
		CorrectAnswer: q.CorrectAnswer,
		Correct:       res.Correct,
		Explanation:   q.Explanation,
	})
	if err != nil {
		logger.Warn("append question record", "error", err)
		return
	}
	if !inserted {
		logger.Debug("answer already recorded", "answer_id", item.AnswerID)
		return
	}

	if err := o.engine.RecordActivity(ctx); err != nil {
		logger.Warn("record activity", "error", err)
	}
	if err := o.store.Topics().TouchPracticed(ctx, item.TopicID, now); err != nil {
		logger.Warn("touch topic", "error", err)
	}

	progress, tr, err := o.tracker.RecordAnswer(ctx, item.TopicID, q.Subtopic, res.Correct, now)
	if err != nil {
		logger.Warn("update progress", "error", err)
	}
	res.Progress, res.Transition = progress, tr

	if res.Review, err = o.scheduler.RecordAnswer(ctx, item.TopicID, q, res.Correct, now); err != nil {
		logger.Warn("update review", "error", err)
	}

	if tr != nil {
		res.Mastery = o.engine.OnSubtopicMastered(ctx, tr)
		if tr.NextSubtopic != "" {
			if t, err := o.store.Topics().Get(ctx, item.TopicID); err == nil {
				o.generateLessonAsync(t, tr.NextSubtopic)
			}
		}
	}
	res.Answer = o.engine.OnAnswer(ctx, gamification.AnswerFacts{
		Correct:    res.Correct,
		Difficulty: q.Difficulty,
		IsReview:   item.IsReview,
	})
}
