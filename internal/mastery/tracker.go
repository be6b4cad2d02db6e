package mastery

import (
	"context"
	"fmt"
	"time"

	"github.com/abhisek/scholarly/internal/store"
)

// Tracker applies answers to subtopic counters and detects mastery.
type Tracker struct {
	progress store.ProgressRepo
}

// NewTracker creates a tracker backed by repo.
func NewTracker(repo store.ProgressRepo) *Tracker {
	return &Tracker{progress: repo}
}

// RecordAnswer counts one answer for the subtopic. It returns the updated
// progress and, the first time the subtopic crosses the mastery bar, a
// Transition. Mastery is never revoked by later answers.
func (t *Tracker) RecordAnswer(ctx context.Context, topicID, subtopic string, correct bool, now time.Time) (*store.SubtopicProgress, *Transition, error) {
	p, err := t.progress.RecordAnswer(ctx, topicID, subtopic, correct)
	if err != nil {
		return nil, nil, fmt.Errorf("record answer: %w", err)
	}
	if p.IsMastered || !IsMasteryReached(p) {
		return p, nil, nil
	}

	flipped, err := t.progress.MarkMastered(ctx, topicID, subtopic, now)
	if err != nil {
		return p, nil, err
	}
	if !flipped {
		return p, nil, nil
	}
	p.IsMastered = true
	p.MasteredAt = &now

	all, err := t.progress.List(ctx, topicID)
	if err != nil {
		return p, nil, fmt.Errorf("load path: %w", err)
	}
	return p, &Transition{
		TopicID:       topicID,
		Subtopic:      subtopic,
		At:            now,
		TopicMastered: TopicMastered(all),
		NextSubtopic:  CurrentSubtopic(all),
	}, nil
}

// Progress returns the topic's subtopics in path order.
func (t *Tracker) Progress(ctx context.Context, topicID string) ([]store.SubtopicProgress, error) {
	return t.progress.List(ctx, topicID)
}
