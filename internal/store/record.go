package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"
)

var recordColumns = []string{
	"answer_id", "session_id", "answered_at", "topic_id", "subtopic", "difficulty",
	"question", "user_response", "correct_answer", "correct", "explanation",
}

type recordRow struct {
	ID            int64  `db:"id"`
	AnswerID      string `db:"answer_id"`
	SessionID     string `db:"session_id"`
	AnsweredAt    int64  `db:"answered_at"`
	TopicID       string `db:"topic_id"`
	Subtopic      string `db:"subtopic"`
	Difficulty    int    `db:"difficulty"`
	Question      string `db:"question"`
	UserResponse  string `db:"user_response"`
	CorrectAnswer string `db:"correct_answer"`
	Correct       bool   `db:"correct"`
	Explanation   string `db:"explanation"`
}

// recordRepo implements RecordRepo.
type recordRepo struct {
	db *sqlx.DB
}

func (r *recordRepo) Append(ctx context.Context, rec *QuestionRecord) (bool, error) {
	if rec.AnswerID == "" {
		return false, fmt.Errorf("append record: empty answer id")
	}
	query, args := build().Insert("question_records").
		Columns(recordColumns...).
		Values(rec.AnswerID, rec.SessionID, toMillis(rec.AnsweredAt), rec.TopicID, rec.Subtopic,
			rec.Difficulty, rec.Question, rec.UserResponse, rec.CorrectAnswer,
			boolInt(rec.Correct), rec.Explanation).
		OnConflict(entsql.ConflictColumns("answer_id"), entsql.DoNothing()).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("append record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("append record: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	if id, err := res.LastInsertId(); err == nil {
		rec.ID = id
	}
	return true, nil
}

func (r *recordRepo) AskedQuestions(ctx context.Context, topicID string) ([]string, error) {
	query, args := build().Select("question").
		Distinct().
		From(entsql.Table("question_records")).
		Where(entsql.EQ("topic_id", topicID)).
		Query()

	var out []string
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("asked questions: %w", err)
	}
	return out, nil
}

func (r *recordRepo) Recent(ctx context.Context, topicID string, limit int) ([]QuestionRecord, error) {
	sel := build().Select(append([]string{"id"}, recordColumns...)...).
		From(entsql.Table("question_records")).
		OrderBy(entsql.Desc("id"))
	if topicID != "" {
		sel.Where(entsql.EQ("topic_id", topicID))
	}
	if limit > 0 {
		sel.Limit(limit)
	}
	query, args := sel.Query()

	var rows []recordRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("recent records: %w", err)
	}
	out := make([]QuestionRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, QuestionRecord{
			ID:            row.ID,
			AnswerID:      row.AnswerID,
			SessionID:     row.SessionID,
			AnsweredAt:    fromMillis(row.AnsweredAt),
			TopicID:       row.TopicID,
			Subtopic:      row.Subtopic,
			Difficulty:    row.Difficulty,
			Question:      row.Question,
			UserResponse:  row.UserResponse,
			CorrectAnswer: row.CorrectAnswer,
			Correct:       row.Correct,
			Explanation:   row.Explanation,
		})
	}
	return out, nil
}
