package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"
)

type cachedRow struct {
	ID        int64  `db:"id"`
	TopicID   string `db:"topic_id"`
	CreatedAt int64  `db:"created_at"`
	questionRow
}

// questionCacheRepo implements QuestionCacheRepo.
type questionCacheRepo struct {
	db *sqlx.DB
}

func (r *questionCacheRepo) Add(ctx context.Context, topicID string, qs []Question) (int, error) {
	if len(qs) == 0 {
		return 0, nil
	}
	now := toMillis(time.Now())
	stored := 0
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for _, q := range qs {
			query, args := build().Insert("cached_questions").
				Columns(append([]string{"topic_id", "created_at"}, questionColumns...)...).
				Values(append([]any{topicID, now}, questionValues(q)...)...).
				OnConflict(entsql.ConflictColumns("topic_id", "subtopic", "question"), entsql.DoNothing()).
				Query()
			res, err := tx.ExecContext(ctx, query, args...)
			if err != nil {
				return fmt.Errorf("cache question: %w", err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				stored++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return stored, nil
}

// Unanswered uses raw SQL for the anti-join; the cache is never pruned, a
// question simply stops being eligible once it has a record.
func (r *questionCacheRepo) Unanswered(ctx context.Context, topicID string) ([]CachedQuestion, error) {
	cols := make([]string, 0, len(questionColumns)+3)
	for _, c := range append([]string{"id", "topic_id", "created_at"}, questionColumns...) {
		cols = append(cols, "c."+c)
	}
	query := `SELECT ` + strings.Join(cols, ", ") + `
		FROM cached_questions c
		WHERE c.topic_id = ?
		  AND NOT EXISTS (
			SELECT 1 FROM question_records r
			WHERE r.topic_id = c.topic_id AND r.question = c.question
		  )
		ORDER BY c.id`

	var rows []cachedRow
	if err := r.db.SelectContext(ctx, &rows, query, topicID); err != nil {
		return nil, fmt.Errorf("unanswered questions: %w", err)
	}
	out := make([]CachedQuestion, 0, len(rows))
	for _, row := range rows {
		out = append(out, CachedQuestion{
			ID:        row.ID,
			TopicID:   row.TopicID,
			Question:  row.questionRow.toQuestion(),
			CreatedAt: fromMillis(row.CreatedAt),
		})
	}
	return out, nil
}
