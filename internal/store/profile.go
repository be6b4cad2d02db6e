package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"
)

type profileRow struct {
	TotalXP            int    `db:"total_xp"`
	StreakFreezes      int    `db:"streak_freezes"`
	FreezeDates        string `db:"freeze_dates"`
	DailyGoalCompleted bool   `db:"daily_goal_completed"`
	DailyGoalDate      string `db:"daily_goal_date"`
}

// profileRepo implements ProfileRepo. The profile is a single row with id 1.
type profileRepo struct {
	db *sqlx.DB
}

func getProfile(ctx context.Context, q sqlx.QueryerContext) (*Profile, error) {
	query, args := build().Select("total_xp", "streak_freezes", "freeze_dates", "daily_goal_completed", "daily_goal_date").
		From(entsql.Table("profile")).
		Where(entsql.EQ("id", 1)).
		Query()

	var row profileRow
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &Profile{
		TotalXP:            row.TotalXP,
		StreakFreezes:      row.StreakFreezes,
		FreezeDates:        decodeList(row.FreezeDates),
		DailyGoalCompleted: row.DailyGoalCompleted,
		DailyGoalDate:      row.DailyGoalDate,
	}, nil
}

func (r *profileRepo) Get(ctx context.Context) (*Profile, error) {
	return getProfile(ctx, r.db)
}

// creditXP adds amount to the profile total and journals it. Must run in tx.
func creditXP(ctx context.Context, tx *sqlx.Tx, amount int, reason, sessionID string, at time.Time) (before, after int, err error) {
	p, err := getProfile(ctx, tx)
	if err != nil {
		return 0, 0, err
	}
	before = p.TotalXP
	after = before + amount

	query, args := build().Update("profile").
		Set("total_xp", after).
		Where(entsql.EQ("id", 1)).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return 0, 0, fmt.Errorf("update xp: %w", err)
	}

	query, args = build().Insert("xp_ledger").
		Columns("awarded_at", "amount", "reason", "session_id").
		Values(toMillis(at), amount, reason, sessionID).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return 0, 0, fmt.Errorf("journal xp: %w", err)
	}
	return before, after, nil
}

func (r *profileRepo) AddXP(ctx context.Context, amount int, reason, sessionID string) (before, after int, err error) {
	err = withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		before, after, err = creditXP(ctx, tx, amount, reason, sessionID, time.Now())
		return err
	})
	return before, after, err
}

func (r *profileRepo) SpendForFreeze(ctx context.Context, cost, maxHeld int) (*Profile, error) {
	var out *Profile
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		p, err := getProfile(ctx, tx)
		if err != nil {
			return err
		}
		if p.TotalXP < cost || p.StreakFreezes >= maxHeld {
			return ErrPrecondition
		}
		if _, _, err := creditXP(ctx, tx, -cost, "streak_freeze", "", time.Now()); err != nil {
			return err
		}
		query, args := build().Update("profile").
			Add("streak_freezes", 1).
			Where(entsql.EQ("id", 1)).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("add freeze: %w", err)
		}
		out, err = getProfile(ctx, tx)
		return err
	})
	return out, err
}

func (r *profileRepo) SetFreezes(ctx context.Context, held int, dates []string) error {
	query, args := build().Update("profile").
		Set("streak_freezes", held).
		Set("freeze_dates", encodeList(dates)).
		Where(entsql.EQ("id", 1)).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("set freezes: %w", err)
	}
	return nil
}

func (r *profileRepo) SetDailyGoal(ctx context.Context, completed bool, day string) error {
	query, args := build().Update("profile").
		Set("daily_goal_completed", boolInt(completed)).
		Set("daily_goal_date", day).
		Where(entsql.EQ("id", 1)).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("set daily goal: %w", err)
	}
	return nil
}

func (r *profileRepo) UnlockAchievement(ctx context.Context, id string, xp int, at time.Time, sessionID string) (unlocked bool, before, after int, err error) {
	err = withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query, args := build().Insert("achievements").
			Columns("id", "unlocked_at", "xp_awarded").
			Values(id, toMillis(at), xp).
			OnConflict(entsql.ConflictColumns("id"), entsql.DoNothing()).
			Query()
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("insert achievement: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}
		unlocked = true
		before, after, err = creditXP(ctx, tx, xp, "achievement:"+id, sessionID, at)
		return err
	})
	if err != nil {
		return false, 0, 0, err
	}
	return unlocked, before, after, nil
}

func (r *profileRepo) Achievements(ctx context.Context) ([]Achievement, error) {
	query, args := build().Select("id", "unlocked_at", "xp_awarded").
		From(entsql.Table("achievements")).
		OrderBy("unlocked_at", "id").
		Query()

	var rows []struct {
		ID         string `db:"id"`
		UnlockedAt int64  `db:"unlocked_at"`
		XPAwarded  int    `db:"xp_awarded"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	out := make([]Achievement, 0, len(rows))
	for _, row := range rows {
		out = append(out, Achievement{ID: row.ID, UnlockedAt: fromMillis(row.UnlockedAt), XPAwarded: row.XPAwarded})
	}
	return out, nil
}

func (r *profileRepo) XPEntries(ctx context.Context, limit int) ([]XPEntry, error) {
	sel := build().Select("id", "awarded_at", "amount", "reason", "session_id").
		From(entsql.Table("xp_ledger")).
		OrderBy(entsql.Desc("id"))
	if limit > 0 {
		sel.Limit(limit)
	}
	query, args := sel.Query()

	var rows []struct {
		ID        int64  `db:"id"`
		AwardedAt int64  `db:"awarded_at"`
		Amount    int    `db:"amount"`
		Reason    string `db:"reason"`
		SessionID string `db:"session_id"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list xp entries: %w", err)
	}
	out := make([]XPEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, XPEntry{
			ID:        row.ID,
			AwardedAt: fromMillis(row.AwardedAt),
			Amount:    row.Amount,
			Reason:    row.Reason,
			SessionID: row.SessionID,
		})
	}
	return out, nil
}

// BumpActivity uses a raw upsert; the builder's conflict resolution cannot
// express an increment of the existing row.
func (r *profileRepo) BumpActivity(ctx context.Context, day string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO daily_activity (day, questions_completed) VALUES (?, 1)
		 ON CONFLICT(day) DO UPDATE SET questions_completed = questions_completed + 1`,
		day,
	)
	if err != nil {
		return fmt.Errorf("bump activity: %w", err)
	}
	return nil
}

func (r *profileRepo) ActivityDays(ctx context.Context) ([]DailyActivity, error) {
	query, args := build().Select("day", "questions_completed").
		From(entsql.Table("daily_activity")).
		Where(entsql.GT("questions_completed", 0)).
		OrderBy(entsql.Desc("day")).
		Query()

	var rows []struct {
		Day                string `db:"day"`
		QuestionsCompleted int    `db:"questions_completed"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	out := make([]DailyActivity, 0, len(rows))
	for _, row := range rows {
		out = append(out, DailyActivity{Day: row.Day, QuestionsCompleted: row.QuestionsCompleted})
	}
	return out, nil
}
