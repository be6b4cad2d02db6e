package spacedrep

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/abhisek/scholarly/internal/store"
)

// Scheduler persists review cards and applies the schedule to them.
type Scheduler struct {
	repo store.ReviewRepo
}

// NewScheduler creates a scheduler backed by repo.
func NewScheduler(repo store.ReviewRepo) *Scheduler {
	return &Scheduler{repo: repo}
}

// RecordAnswer updates the card for q after it was answered. A miss on a
// question without a card creates one; a correct answer without a card is a
// no-op and returns nil.
func (s *Scheduler) RecordAnswer(ctx context.Context, topicID string, q store.Question, correct bool, now time.Time) (*store.ReviewItem, error) {
	item, err := s.repo.Find(ctx, topicID, q.Text)
	if err != nil {
		return nil, err
	}

	switch {
	case item == nil && correct:
		return nil, nil
	case item == nil:
		item = NewItem(topicID, q, now)
	case correct:
		ProcessCorrect(item, now)
	default:
		ProcessIncorrect(item, now)
	}

	if err := s.repo.Save(ctx, item); err != nil {
		return nil, fmt.Errorf("save review item: %w", err)
	}
	return item, nil
}

// Due returns the due cards for a topic (all topics when topicID is empty),
// most overdue first.
func (s *Scheduler) Due(ctx context.Context, topicID string, now time.Time) ([]store.ReviewItem, error) {
	items, err := s.repo.List(ctx, topicID)
	if err != nil {
		return nil, err
	}
	due := DueItems(items, now)
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].NextReviewDate.Before(due[j].NextReviewDate)
	})
	return due, nil
}

// All returns every card for a topic, or all topics when topicID is empty.
func (s *Scheduler) All(ctx context.Context, topicID string) ([]store.ReviewItem, error) {
	return s.repo.List(ctx, topicID)
}
