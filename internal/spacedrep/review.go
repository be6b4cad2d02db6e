package spacedrep

import (
	"math"
	"time"

	"github.com/abhisek/scholarly/internal/store"
)

const day = 24 * time.Hour

// NewItem builds a fresh card for a question missed at now. It is first due
// one day later.
func NewItem(topicID string, q store.Question, now time.Time) *store.ReviewItem {
	return &store.ReviewItem{
		TopicID:        topicID,
		Question:       q,
		DateMissed:     now,
		NextReviewDate: now.Add(day),
		IntervalDays:   FirstIntervalDays,
		EaseFactor:     DefaultEase,
	}
}

// ProcessCorrect advances a card after a correct review.
func ProcessCorrect(item *store.ReviewItem, now time.Time) {
	item.ReviewCount++
	switch item.ReviewCount {
	case 1:
		item.IntervalDays = FirstIntervalDays
	case 2:
		item.IntervalDays = SecondIntervalDays
	default:
		item.IntervalDays = item.IntervalDays * item.EaseFactor
	}
	item.EaseFactor = math.Min(DefaultEase, item.EaseFactor+EaseBonus)
	item.NextReviewDate = now.Add(time.Duration(math.Round(item.IntervalDays)) * day)
}

// ProcessIncorrect resets a card after a missed review.
func ProcessIncorrect(item *store.ReviewItem, now time.Time) {
	item.IntervalDays = FirstIntervalDays
	item.EaseFactor = math.Max(MinEase, item.EaseFactor-EasePenalty)
	item.ReviewCount = 0
	item.NextReviewDate = now.Add(day)
}

// IsDue returns true if the card is due for review (at or past the review date).
func IsDue(item *store.ReviewItem, now time.Time) bool {
	return !now.Before(item.NextReviewDate)
}

// DueItems returns the due cards in their original order. items is not modified.
func DueItems(items []store.ReviewItem, now time.Time) []store.ReviewItem {
	var due []store.ReviewItem
	for i := range items {
		if IsDue(&items[i], now) {
			due = append(due, items[i])
		}
	}
	return due
}

// OverdueDays returns how many days past due the card is. Returns 0 if not yet due.
func OverdueDays(item *store.ReviewItem, now time.Time) float64 {
	if now.Before(item.NextReviewDate) {
		return 0
	}
	return now.Sub(item.NextReviewDate).Hours() / 24.0
}

// ReviewStatus describes a card's review status for display.
type ReviewStatus string

const (
	ReviewNotDue  ReviewStatus = "not_due"
	ReviewDue     ReviewStatus = "due"
	ReviewOverdue ReviewStatus = "overdue"
)

// Status returns the review status for display. A card is overdue once it
// has gone unreviewed for longer than its own interval.
func Status(item *store.ReviewItem, now time.Time) ReviewStatus {
	if !IsDue(item, now) {
		return ReviewNotDue
	}
	if OverdueDays(item, now) > item.IntervalDays {
		return ReviewOverdue
	}
	return ReviewDue
}

// DaysUntilReview returns the number of days until the next review.
// Returns 0 if already due.
func DaysUntilReview(item *store.ReviewItem, now time.Time) int {
	if IsDue(item, now) {
		return 0
	}
	return int(item.NextReviewDate.Sub(now).Hours()/24.0) + 1
}
