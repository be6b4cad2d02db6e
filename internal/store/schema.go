package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema is applied on every Open. Statements must be idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS topics (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		subtopics TEXT NOT NULL DEFAULT '[]',
		category TEXT NOT NULL DEFAULT '',
		related_topics TEXT NOT NULL DEFAULT '[]',
		created_at INTEGER NOT NULL,
		last_practiced INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS subtopic_progress (
		topic_id TEXT NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
		subtopic TEXT NOT NULL,
		sort_order INTEGER NOT NULL,
		questions_answered INTEGER NOT NULL DEFAULT 0,
		questions_correct INTEGER NOT NULL DEFAULT 0,
		is_mastered INTEGER NOT NULL DEFAULT 0,
		mastered_at INTEGER,
		overview TEXT NOT NULL DEFAULT '',
		key_facts TEXT NOT NULL DEFAULT '[]',
		misconceptions TEXT NOT NULL DEFAULT '[]',
		connections TEXT NOT NULL DEFAULT '[]',
		lesson_viewed INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (topic_id, subtopic)
	)`,
	`CREATE TABLE IF NOT EXISTS question_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		answer_id TEXT NOT NULL UNIQUE,
		session_id TEXT NOT NULL DEFAULT '',
		answered_at INTEGER NOT NULL,
		topic_id TEXT NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
		subtopic TEXT NOT NULL,
		difficulty INTEGER NOT NULL DEFAULT 1,
		question TEXT NOT NULL,
		user_response TEXT NOT NULL,
		correct_answer TEXT NOT NULL,
		correct INTEGER NOT NULL,
		explanation TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_question_records_topic ON question_records(topic_id, question)`,
	`CREATE TABLE IF NOT EXISTS review_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		topic_id TEXT NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
		subtopic TEXT NOT NULL,
		question TEXT NOT NULL,
		format TEXT NOT NULL,
		choices TEXT NOT NULL DEFAULT '[]',
		correct_answer TEXT NOT NULL,
		acceptable_answers TEXT NOT NULL DEFAULT '[]',
		explanation TEXT NOT NULL DEFAULT '',
		difficulty INTEGER NOT NULL DEFAULT 1,
		date_missed INTEGER NOT NULL,
		next_review_date INTEGER NOT NULL,
		interval_days REAL NOT NULL DEFAULT 1.0,
		ease_factor REAL NOT NULL DEFAULT 2.5,
		review_count INTEGER NOT NULL DEFAULT 0,
		UNIQUE (topic_id, question)
	)`,
	`CREATE TABLE IF NOT EXISTS cached_questions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		topic_id TEXT NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
		subtopic TEXT NOT NULL,
		question TEXT NOT NULL,
		format TEXT NOT NULL,
		choices TEXT NOT NULL DEFAULT '[]',
		correct_answer TEXT NOT NULL,
		acceptable_answers TEXT NOT NULL DEFAULT '[]',
		explanation TEXT NOT NULL DEFAULT '',
		difficulty INTEGER NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL,
		UNIQUE (topic_id, subtopic, question)
	)`,
	`CREATE TABLE IF NOT EXISTS profile (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		total_xp INTEGER NOT NULL DEFAULT 0,
		streak_freezes INTEGER NOT NULL DEFAULT 0,
		freeze_dates TEXT NOT NULL DEFAULT '[]',
		daily_goal_completed INTEGER NOT NULL DEFAULT 0,
		daily_goal_date TEXT NOT NULL DEFAULT ''
	)`,
	`INSERT OR IGNORE INTO profile (id) VALUES (1)`,
	`CREATE TABLE IF NOT EXISTS daily_activity (
		day TEXT PRIMARY KEY,
		questions_completed INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS achievements (
		id TEXT PRIMARY KEY,
		unlocked_at INTEGER NOT NULL,
		xp_awarded INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS xp_ledger (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		awarded_at INTEGER NOT NULL,
		amount INTEGER NOT NULL,
		reason TEXT NOT NULL,
		session_id TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS llm_request_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp INTEGER NOT NULL,
		provider TEXT NOT NULL,
		model TEXT NOT NULL,
		purpose TEXT NOT NULL,
		input_tokens INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		latency_ms INTEGER NOT NULL DEFAULT 0,
		success INTEGER NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		request_body TEXT NOT NULL DEFAULT '',
		response_body TEXT NOT NULL DEFAULT ''
	)`,
}

func migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
