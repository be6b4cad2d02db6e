package spacedrep

import (
	"testing"
	"time"

	"github.com/abhisek/scholarly/internal/store"
)

var t0 = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func freshItem() *store.ReviewItem {
	return NewItem("topic", store.Question{Text: "q"}, t0)
}

func TestNewItem(t *testing.T) {
	item := freshItem()
	if item.IntervalDays != 1 || item.EaseFactor != 2.5 || item.ReviewCount != 0 {
		t.Errorf("NewItem = interval %v ease %v count %d, want 1/2.5/0",
			item.IntervalDays, item.EaseFactor, item.ReviewCount)
	}
	if !item.NextReviewDate.Equal(t0.Add(24 * time.Hour)) {
		t.Errorf("NextReviewDate = %v, want one day later", item.NextReviewDate)
	}
}

func TestProcessCorrect_Sequence(t *testing.T) {
	item := freshItem()
	item.EaseFactor = 2.0

	tests := []struct {
		wantCount    int
		wantInterval float64
		wantEase     float64
		wantDays     int
	}{
		{1, 1, 2.1, 1},
		{2, 3, 2.2, 3},
		{3, 6.6, 2.3, 7},
		{4, 15.18, 2.4, 15},
	}

	for i, tc := range tests {
		ProcessCorrect(item, t0)
		if item.ReviewCount != tc.wantCount {
			t.Errorf("step %d: ReviewCount = %d, want %d", i, item.ReviewCount, tc.wantCount)
		}
		if diff := item.IntervalDays - tc.wantInterval; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("step %d: IntervalDays = %v, want %v", i, item.IntervalDays, tc.wantInterval)
		}
		if diff := item.EaseFactor - tc.wantEase; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("step %d: EaseFactor = %v, want %v", i, item.EaseFactor, tc.wantEase)
		}
		want := t0.Add(time.Duration(tc.wantDays) * 24 * time.Hour)
		if !item.NextReviewDate.Equal(want) {
			t.Errorf("step %d: NextReviewDate = %v, want %v", i, item.NextReviewDate, want)
		}
	}
}

func TestProcessCorrect_EaseCapped(t *testing.T) {
	item := freshItem()
	ProcessCorrect(item, t0)
	if item.EaseFactor != DefaultEase {
		t.Errorf("EaseFactor = %v, want capped at %v", item.EaseFactor, DefaultEase)
	}
}

func TestProcessIncorrect(t *testing.T) {
	item := freshItem()
	item.ReviewCount = 4
	item.IntervalDays = 20
	item.EaseFactor = 2.5

	ProcessIncorrect(item, t0)

	if item.ReviewCount != 0 {
		t.Errorf("ReviewCount = %d, want 0", item.ReviewCount)
	}
	if item.IntervalDays != 1 {
		t.Errorf("IntervalDays = %v, want 1", item.IntervalDays)
	}
	if diff := item.EaseFactor - 2.3; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("EaseFactor = %v, want 2.3", item.EaseFactor)
	}
	if !item.NextReviewDate.Equal(t0.Add(24 * time.Hour)) {
		t.Errorf("NextReviewDate = %v, want tomorrow", item.NextReviewDate)
	}
}

func TestProcessIncorrect_EaseFloor(t *testing.T) {
	item := freshItem()
	for range 10 {
		ProcessIncorrect(item, t0)
	}
	if item.EaseFactor != MinEase {
		t.Errorf("EaseFactor = %v, want floor %v", item.EaseFactor, MinEase)
	}
}

func TestIsDue(t *testing.T) {
	item := &store.ReviewItem{NextReviewDate: t0}
	if !IsDue(item, t0) {
		t.Error("expected due on review date")
	}
	if IsDue(item, t0.Add(-time.Second)) {
		t.Error("expected not due before review date")
	}
	if !IsDue(item, t0.Add(48*time.Hour)) {
		t.Error("expected due after review date")
	}
}

func TestDueItems_StableAndPure(t *testing.T) {
	items := []store.ReviewItem{
		{ID: 1, NextReviewDate: t0.Add(-time.Hour)},
		{ID: 2, NextReviewDate: t0.Add(time.Hour)},
		{ID: 3, NextReviewDate: t0.Add(-48 * time.Hour)},
		{ID: 4, NextReviewDate: t0},
	}
	before := append([]store.ReviewItem(nil), items...)

	due := DueItems(items, t0)

	if len(due) != 3 || due[0].ID != 1 || due[1].ID != 3 || due[2].ID != 4 {
		t.Errorf("DueItems = %v, want ids 1,3,4 in order", due)
	}
	for i := range items {
		if items[i].ID != before[i].ID || !items[i].NextReviewDate.Equal(before[i].NextReviewDate) {
			t.Fatalf("input mutated at %d", i)
		}
	}
}

func TestStatus(t *testing.T) {
	item := &store.ReviewItem{NextReviewDate: t0, IntervalDays: 3}

	if got := Status(item, t0.Add(-time.Hour)); got != ReviewNotDue {
		t.Errorf("Status = %q, want %q", got, ReviewNotDue)
	}
	if got := Status(item, t0.Add(24*time.Hour)); got != ReviewDue {
		t.Errorf("Status = %q, want %q", got, ReviewDue)
	}
	if got := Status(item, t0.Add(4*24*time.Hour)); got != ReviewOverdue {
		t.Errorf("Status = %q, want %q", got, ReviewOverdue)
	}
}

func TestDaysUntilReview(t *testing.T) {
	item := &store.ReviewItem{NextReviewDate: t0.Add(108 * time.Hour)} // 4.5 days
	if got := DaysUntilReview(item, t0); got != 5 {
		t.Errorf("DaysUntilReview = %d, want 5", got)
	}
	if got := DaysUntilReview(item, t0.Add(200*time.Hour)); got != 0 {
		t.Errorf("DaysUntilReview when due = %d, want 0", got)
	}
}
