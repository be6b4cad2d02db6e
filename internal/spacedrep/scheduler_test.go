package spacedrep

import (
	"context"
	"testing"
	"time"

	"github.com/abhisek/scholarly/internal/store"
)

// mockReviewRepo is an in-memory ReviewRepo.
type mockReviewRepo struct {
	items  []*store.ReviewItem
	nextID int64
	saves  int
}

func (m *mockReviewRepo) Find(_ context.Context, topicID, question string) (*store.ReviewItem, error) {
	for _, it := range m.items {
		if it.TopicID == topicID && it.Question.Text == question {
			cp := *it
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockReviewRepo) Save(_ context.Context, item *store.ReviewItem) error {
	m.saves++
	if item.ID == 0 {
		m.nextID++
		item.ID = m.nextID
		cp := *item
		m.items = append(m.items, &cp)
		return nil
	}
	for i, it := range m.items {
		if it.ID == item.ID {
			cp := *item
			m.items[i] = &cp
		}
	}
	return nil
}

func (m *mockReviewRepo) List(_ context.Context, topicID string) ([]store.ReviewItem, error) {
	var out []store.ReviewItem
	for _, it := range m.items {
		if topicID == "" || it.TopicID == topicID {
			out = append(out, *it)
		}
	}
	return out, nil
}

func TestScheduler_RecordAnswer(t *testing.T) {
	repo := &mockReviewRepo{}
	s := NewScheduler(repo)
	ctx := t.Context()
	q := store.Question{Subtopic: "s", Text: "What is ATP?"}

	item, err := s.RecordAnswer(ctx, "t", q, true, t0)
	if err != nil || item != nil {
		t.Fatalf("correct answer without card = (%v, %v), want (nil, nil)", item, err)
	}
	if repo.saves != 0 {
		t.Fatalf("saves = %d, want 0", repo.saves)
	}

	item, err = s.RecordAnswer(ctx, "t", q, false, t0)
	if err != nil {
		t.Fatalf("miss: %v", err)
	}
	if item.ID == 0 || item.ReviewCount != 0 || item.EaseFactor != DefaultEase {
		t.Errorf("new card = %+v", item)
	}

	later := t0.Add(25 * time.Hour)
	item, err = s.RecordAnswer(ctx, "t", q, true, later)
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if item.ReviewCount != 1 {
		t.Errorf("ReviewCount = %d, want 1", item.ReviewCount)
	}
	if len(repo.items) != 1 {
		t.Errorf("cards = %d, want 1", len(repo.items))
	}
}

func TestScheduler_DueOrdering(t *testing.T) {
	repo := &mockReviewRepo{}
	s := NewScheduler(repo)
	ctx := t.Context()

	for i, offset := range []time.Duration{-time.Hour, -72 * time.Hour, time.Hour} {
		item := NewItem("t", store.Question{Text: string(rune('a' + i))}, t0)
		item.NextReviewDate = t0.Add(offset)
		if err := repo.Save(ctx, item); err != nil {
			t.Fatal(err)
		}
	}

	due, err := s.Due(ctx, "t", t0)
	if err != nil {
		t.Fatalf("Due: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("len(due) = %d, want 2", len(due))
	}
	if due[0].Question.Text != "b" {
		t.Errorf("first due = %q, want most overdue %q", due[0].Question.Text, "b")
	}
}
