package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"
)

// questionColumns are shared by review_items and cached_questions.
var questionColumns = []string{
	"subtopic", "question", "format", "choices", "correct_answer",
	"acceptable_answers", "explanation", "difficulty",
}

type questionRow struct {
	Subtopic          string `db:"subtopic"`
	Text              string `db:"question"`
	Format            string `db:"format"`
	Choices           string `db:"choices"`
	CorrectAnswer     string `db:"correct_answer"`
	AcceptableAnswers string `db:"acceptable_answers"`
	Explanation       string `db:"explanation"`
	Difficulty        int    `db:"difficulty"`
}

func (r questionRow) toQuestion() Question {
	return Question{
		Subtopic:          r.Subtopic,
		Text:              r.Text,
		Format:            QuestionFormat(r.Format),
		Choices:           decodeList(r.Choices),
		CorrectAnswer:     r.CorrectAnswer,
		AcceptableAnswers: decodeList(r.AcceptableAnswers),
		Explanation:       r.Explanation,
		Difficulty:        r.Difficulty,
	}
}

func questionValues(q Question) []any {
	return []any{
		q.Subtopic, q.Text, string(q.Format), encodeList(q.Choices), q.CorrectAnswer,
		encodeList(q.AcceptableAnswers), q.Explanation, q.Difficulty,
	}
}

var reviewColumns = append([]string{
	"id", "topic_id", "date_missed", "next_review_date", "interval_days", "ease_factor", "review_count",
}, questionColumns...)

type reviewRow struct {
	ID             int64   `db:"id"`
	TopicID        string  `db:"topic_id"`
	DateMissed     int64   `db:"date_missed"`
	NextReviewDate int64   `db:"next_review_date"`
	IntervalDays   float64 `db:"interval_days"`
	EaseFactor     float64 `db:"ease_factor"`
	ReviewCount    int     `db:"review_count"`
	questionRow
}

func (r reviewRow) toItem() ReviewItem {
	return ReviewItem{
		ID:             r.ID,
		TopicID:        r.TopicID,
		Question:       r.questionRow.toQuestion(),
		DateMissed:     fromMillis(r.DateMissed),
		NextReviewDate: fromMillis(r.NextReviewDate),
		IntervalDays:   r.IntervalDays,
		EaseFactor:     r.EaseFactor,
		ReviewCount:    r.ReviewCount,
	}
}

// reviewRepo implements ReviewRepo.
type reviewRepo struct {
	db *sqlx.DB
}

func (r *reviewRepo) Find(ctx context.Context, topicID, question string) (*ReviewItem, error) {
	query, args := build().Select(reviewColumns...).
		From(entsql.Table("review_items")).
		Where(entsql.And(entsql.EQ("topic_id", topicID), entsql.EQ("question", question))).
		Query()

	var row reviewRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find review item: %w", err)
	}
	item := row.toItem()
	return &item, nil
}

func (r *reviewRepo) Save(ctx context.Context, item *ReviewItem) error {
	if item.ID == 0 {
		cols := append([]string{
			"topic_id", "date_missed", "next_review_date", "interval_days", "ease_factor", "review_count",
		}, questionColumns...)
		vals := append([]any{
			item.TopicID, toMillis(item.DateMissed), toMillis(item.NextReviewDate),
			item.IntervalDays, item.EaseFactor, item.ReviewCount,
		}, questionValues(item.Question)...)

		query, args := build().Insert("review_items").
			Columns(cols...).
			Values(vals...).
			Query()
		res, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("insert review item: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert review item: %w", err)
		}
		item.ID = id
		return nil
	}

	query, args := build().Update("review_items").
		Set("next_review_date", toMillis(item.NextReviewDate)).
		Set("interval_days", item.IntervalDays).
		Set("ease_factor", item.EaseFactor).
		Set("review_count", item.ReviewCount).
		Where(entsql.EQ("id", item.ID)).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update review item: %w", err)
	}
	return nil
}

func (r *reviewRepo) List(ctx context.Context, topicID string) ([]ReviewItem, error) {
	sel := build().Select(reviewColumns...).
		From(entsql.Table("review_items")).
		OrderBy("next_review_date", "id")
	if topicID != "" {
		sel.Where(entsql.EQ("topic_id", topicID))
	}
	query, args := sel.Query()

	var rows []reviewRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list review items: %w", err)
	}
	out := make([]ReviewItem, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toItem())
	}
	return out, nil
}
