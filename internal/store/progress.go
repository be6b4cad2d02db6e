package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"
)

var progressColumns = []string{
	"topic_id", "subtopic", "sort_order", "questions_answered", "questions_correct",
	"is_mastered", "mastered_at", "overview", "key_facts", "misconceptions",
	"connections", "lesson_viewed",
}

type progressRow struct {
	TopicID           string        `db:"topic_id"`
	Subtopic          string        `db:"subtopic"`
	SortOrder         int           `db:"sort_order"`
	QuestionsAnswered int           `db:"questions_answered"`
	QuestionsCorrect  int           `db:"questions_correct"`
	IsMastered        bool          `db:"is_mastered"`
	MasteredAt        sql.NullInt64 `db:"mastered_at"`
	Overview          string        `db:"overview"`
	KeyFacts          string        `db:"key_facts"`
	Misconceptions    string        `db:"misconceptions"`
	Connections       string        `db:"connections"`
	LessonViewed      bool          `db:"lesson_viewed"`
}

func (r progressRow) toProgress() SubtopicProgress {
	return SubtopicProgress{
		TopicID:           r.TopicID,
		Subtopic:          r.Subtopic,
		SortOrder:         r.SortOrder,
		QuestionsAnswered: r.QuestionsAnswered,
		QuestionsCorrect:  r.QuestionsCorrect,
		IsMastered:        r.IsMastered,
		MasteredAt:        fromNullMillis(r.MasteredAt),
		Lesson: Lesson{
			Overview:       r.Overview,
			KeyFacts:       decodeList(r.KeyFacts),
			Misconceptions: decodeList(r.Misconceptions),
			Connections:    decodeList(r.Connections),
		},
		LessonViewed: r.LessonViewed,
	}
}

// progressRepo implements ProgressRepo.
type progressRepo struct {
	db *sqlx.DB
}

func subtopicKey(topicID, subtopic string) *entsql.Predicate {
	return entsql.And(entsql.EQ("topic_id", topicID), entsql.EQ("subtopic", subtopic))
}

func (r *progressRepo) List(ctx context.Context, topicID string) ([]SubtopicProgress, error) {
	query, args := build().Select(progressColumns...).
		From(entsql.Table("subtopic_progress")).
		Where(entsql.EQ("topic_id", topicID)).
		OrderBy("sort_order").
		Query()

	var rows []progressRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	out := make([]SubtopicProgress, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toProgress())
	}
	return out, nil
}

func (r *progressRepo) Get(ctx context.Context, topicID, subtopic string) (*SubtopicProgress, error) {
	return getProgress(ctx, r.db, topicID, subtopic)
}

func getProgress(ctx context.Context, q sqlx.QueryerContext, topicID, subtopic string) (*SubtopicProgress, error) {
	query, args := build().Select(progressColumns...).
		From(entsql.Table("subtopic_progress")).
		Where(subtopicKey(topicID, subtopic)).
		Query()

	var row progressRow
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("subtopic %q: %w", subtopic, ErrNotFound)
		}
		return nil, fmt.Errorf("get progress: %w", err)
	}
	p := row.toProgress()
	return &p, nil
}

func (r *progressRepo) RecordAnswer(ctx context.Context, topicID, subtopic string, correct bool) (*SubtopicProgress, error) {
	var out *SubtopicProgress
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		upd := build().Update("subtopic_progress").
			Add("questions_answered", 1)
		if correct {
			upd.Add("questions_correct", 1)
		}
		query, args := upd.Where(subtopicKey(topicID, subtopic)).Query()

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("record answer: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("subtopic %q: %w", subtopic, ErrNotFound)
		}

		out, err = getProgress(ctx, tx, topicID, subtopic)
		return err
	})
	return out, err
}

func (r *progressRepo) MarkMastered(ctx context.Context, topicID, subtopic string, at time.Time) (bool, error) {
	query, args := build().Update("subtopic_progress").
		Set("is_mastered", 1).
		Set("mastered_at", toMillis(at)).
		Where(entsql.And(subtopicKey(topicID, subtopic), entsql.EQ("is_mastered", 0))).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("mark mastered: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark mastered: %w", err)
	}
	return n == 1, nil
}

func (r *progressRepo) SaveLesson(ctx context.Context, topicID, subtopic string, l Lesson) error {
	query, args := build().Update("subtopic_progress").
		Set("overview", l.Overview).
		Set("key_facts", encodeList(l.KeyFacts)).
		Set("misconceptions", encodeList(l.Misconceptions)).
		Set("connections", encodeList(l.Connections)).
		Set("lesson_viewed", 0).
		Where(subtopicKey(topicID, subtopic)).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save lesson: %w", err)
	}
	return nil
}

func (r *progressRepo) MarkLessonViewed(ctx context.Context, topicID, subtopic string) error {
	query, args := build().Update("subtopic_progress").
		Set("lesson_viewed", 1).
		Where(subtopicKey(topicID, subtopic)).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark lesson viewed: %w", err)
	}
	return nil
}
