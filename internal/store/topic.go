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

var topicColumns = []string{"id", "name", "subtopics", "category", "related_topics", "created_at", "last_practiced"}

type topicRow struct {
	ID            string        `db:"id"`
	Name          string        `db:"name"`
	Subtopics     string        `db:"subtopics"`
	Category      string        `db:"category"`
	RelatedTopics string        `db:"related_topics"`
	CreatedAt     int64         `db:"created_at"`
	LastPracticed sql.NullInt64 `db:"last_practiced"`
}

func (r topicRow) toTopic() Topic {
	return Topic{
		ID:            r.ID,
		Name:          r.Name,
		Subtopics:     decodeList(r.Subtopics),
		Category:      r.Category,
		RelatedTopics: decodeList(r.RelatedTopics),
		CreatedAt:     fromMillis(r.CreatedAt),
		LastPracticed: fromNullMillis(r.LastPracticed),
	}
}

// topicRepo implements TopicRepo.
type topicRepo struct {
	db *sqlx.DB
}

func (r *topicRepo) Create(ctx context.Context, t *Topic) error {
	if t.ID == "" {
		return errors.New("create topic: empty id")
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query, args := build().Insert("topics").
			Columns(topicColumns...).
			Values(t.ID, t.Name, encodeList(t.Subtopics), t.Category,
				encodeList(t.RelatedTopics), toMillis(t.CreatedAt), nullMillis(t.LastPracticed)).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert topic: %w", err)
		}

		for i, sub := range t.Subtopics {
			query, args := build().Insert("subtopic_progress").
				Columns("topic_id", "subtopic", "sort_order").
				Values(t.ID, sub, i).
				Query()
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("insert subtopic %q: %w", sub, err)
			}
		}
		return nil
	})
}

func (r *topicRepo) Get(ctx context.Context, id string) (*Topic, error) {
	query, args := build().Select(topicColumns...).
		From(entsql.Table("topics")).
		Where(entsql.EQ("id", id)).
		Query()

	var row topicRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("topic %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get topic: %w", err)
	}
	t := row.toTopic()
	return &t, nil
}

func (r *topicRepo) List(ctx context.Context) ([]Topic, error) {
	query, args := build().Select(topicColumns...).
		From(entsql.Table("topics")).
		OrderBy(entsql.Desc("created_at")).
		Query()

	var rows []topicRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	topics := make([]Topic, 0, len(rows))
	for _, row := range rows {
		topics = append(topics, row.toTopic())
	}
	return topics, nil
}

func (r *topicRepo) TouchPracticed(ctx context.Context, id string, at time.Time) error {
	query, args := build().Update("topics").
		Set("last_practiced", toMillis(at)).
		Where(entsql.EQ("id", id)).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("touch topic: %w", err)
	}
	return nil
}

func (r *topicRepo) Delete(ctx context.Context, id string) error {
	query, args := build().Delete("topics").
		Where(entsql.EQ("id", id)).
		Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete topic: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("topic %s: %w", id, ErrNotFound)
	}
	return nil
}
