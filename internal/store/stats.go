package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"
)

// statsRepo implements StatsRepo.
type statsRepo struct {
	db *sqlx.DB
}

func (r *statsRepo) AnswerTotals(ctx context.Context) (answered, correct int, err error) {
	query, args := build().Select(entsql.Count("*"), "COALESCE(SUM(correct), 0)").
		From(entsql.Table("question_records")).
		Query()
	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&answered, &correct); err != nil {
		return 0, 0, fmt.Errorf("answer totals: %w", err)
	}
	return answered, correct, nil
}

// MasteredTopicCount counts topics with at least one subtopic where every
// subtopic is mastered.
func (r *statsRepo) MasteredTopicCount(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `
		SELECT COUNT(*) FROM topics t
		WHERE EXISTS (SELECT 1 FROM subtopic_progress p WHERE p.topic_id = t.id)
		  AND NOT EXISTS (SELECT 1 FROM subtopic_progress p WHERE p.topic_id = t.id AND p.is_mastered = 0)`)
	if err != nil {
		return 0, fmt.Errorf("mastered topic count: %w", err)
	}
	return n, nil
}

func (r *statsRepo) MasteredSubtopicCount(ctx context.Context) (int, error) {
	query, args := build().Select(entsql.Count("*")).
		From(entsql.Table("subtopic_progress")).
		Where(entsql.EQ("is_mastered", 1)).
		Query()
	var n int
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("mastered subtopic count: %w", err)
	}
	return n, nil
}

func (r *statsRepo) MasteredBetween(ctx context.Context, from, to time.Time) (int, error) {
	query, args := build().Select(entsql.Count("*")).
		From(entsql.Table("subtopic_progress")).
		Where(entsql.And(
			entsql.EQ("is_mastered", 1),
			entsql.GTE("mastered_at", toMillis(from)),
			entsql.LT("mastered_at", toMillis(to)),
		)).
		Query()
	var n int
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("mastered between: %w", err)
	}
	return n, nil
}

func (r *statsRepo) DueReviewCount(ctx context.Context, now time.Time) (int, error) {
	query, args := build().Select(entsql.Count("*")).
		From(entsql.Table("review_items")).
		Where(entsql.LTE("next_review_date", toMillis(now))).
		Query()
	var n int
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("due review count: %w", err)
	}
	return n, nil
}
