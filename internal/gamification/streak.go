package gamification

import (
	"context"
	"errors"
	"time"

	"github.com/abhisek/scholarly/internal/store"
)

const (
	// FreezeCost is the XP price of one streak freeze.
	FreezeCost = 200

	// MaxFreezes is the most freezes a learner can hold.
	MaxFreezes = 3
)

// ComputeStreak counts consecutive days in days (YYYY-MM-DD keys) ending
// today or yesterday. A streak whose last day is older than yesterday is 0.
func ComputeStreak(days []string, today time.Time) int {
	set := make(map[string]bool, len(days))
	for _, d := range days {
		set[d] = true
	}

	cursor := today.Local()
	if !set[store.DayKey(cursor)] {
		cursor = cursor.AddDate(0, 0, -1)
		if !set[store.DayKey(cursor)] {
			return 0
		}
	}

	n := 0
	for set[store.DayKey(cursor)] {
		n++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return n
}

func (e *Engine) activeDays(ctx context.Context) ([]string, error) {
	activity, err := e.profile.ActivityDays(ctx)
	if err != nil {
		return nil, err
	}
	days := make([]string, 0, len(activity))
	for _, a := range activity {
		days = append(days, a.Day)
	}
	return days, nil
}

// Streak returns the study streak counting only days with activity.
func (e *Engine) Streak(ctx context.Context) (int, error) {
	days, err := e.activeDays(ctx)
	if err != nil {
		return 0, err
	}
	return ComputeStreak(days, e.now()), nil
}

// StreakWithFreezes returns the study streak where frozen days count as active.
func (e *Engine) StreakWithFreezes(ctx context.Context) (int, error) {
	days, err := e.activeDays(ctx)
	if err != nil {
		return 0, err
	}
	p, err := e.profile.Get(ctx)
	if err != nil {
		return 0, err
	}
	return ComputeStreak(append(days, p.FreezeDates...), e.now()), nil
}

// ProtectStreak spends held freezes to cover the missed days between the
// last active day and yesterday. It does nothing when the gap is larger than
// the freezes held or there is no streak to save. Returns the freeze dates
// consumed.
func (e *Engine) ProtectStreak(ctx context.Context) ([]string, error) {
	p, err := e.profile.Get(ctx)
	if err != nil {
		return nil, err
	}
	if p.StreakFreezes == 0 {
		return nil, nil
	}
	days, err := e.activeDays(ctx)
	if err != nil {
		return nil, err
	}
	covered := make(map[string]bool, len(days)+len(p.FreezeDates))
	for _, d := range append(days, p.FreezeDates...) {
		covered[d] = true
	}

	today := e.now().Local()
	var gap []string
	cursor := today.AddDate(0, 0, -1)
	for !covered[store.DayKey(cursor)] {
		gap = append(gap, store.DayKey(cursor))
		if len(gap) > p.StreakFreezes {
			return nil, nil
		}
		cursor = cursor.AddDate(0, 0, -1)
	}
	if len(gap) == 0 {
		return nil, nil
	}

	dates := append(append([]string(nil), p.FreezeDates...), gap...)
	if err := e.profile.SetFreezes(ctx, p.StreakFreezes-len(gap), dates); err != nil {
		return nil, err
	}
	e.logger.Info("streak freezes used", "days", gap)
	return gap, nil
}

// BuyStreakFreeze spends FreezeCost XP on one freeze. The debit is final.
func (e *Engine) BuyStreakFreeze(ctx context.Context) (*store.Profile, error) {
	p, err := e.profile.Get(ctx)
	if err != nil {
		return nil, err
	}
	if p.StreakFreezes >= MaxFreezes {
		return nil, ErrFreezeLimit
	}
	if p.TotalXP < FreezeCost {
		return nil, ErrInsufficientXP
	}

	updated, err := e.profile.SpendForFreeze(ctx, FreezeCost, MaxFreezes)
	if errors.Is(err, store.ErrPrecondition) {
		// Lost a race with another writer; report what now blocks the purchase.
		if cur, gerr := e.profile.Get(ctx); gerr == nil && cur.StreakFreezes >= MaxFreezes {
			return nil, ErrFreezeLimit
		}
		return nil, ErrInsufficientXP
	}
	if err != nil {
		return nil, err
	}
	e.journal(LedgerEntry{Amount: -FreezeCost, Reason: "streak_freeze", AwardedAt: e.now()})
	return updated, nil
}

// RecordActivity counts one completed question for today.
func (e *Engine) RecordActivity(ctx context.Context) error {
	return e.profile.BumpActivity(ctx, store.DayKey(e.now()))
}

// DailyGoal reports whether today's goal is complete. A goal stamped with an
// earlier day reads as not complete.
func (e *Engine) DailyGoal(ctx context.Context) (bool, error) {
	p, err := e.profile.Get(ctx)
	if err != nil {
		return false, err
	}
	return p.DailyGoalCompleted && p.DailyGoalDate == store.DayKey(e.now()), nil
}

// CompleteDailyGoal marks today's goal complete.
func (e *Engine) CompleteDailyGoal(ctx context.Context) error {
	return e.profile.SetDailyGoal(ctx, true, store.DayKey(e.now()))
}

// RolloverDailyGoal clears a goal left over from a previous day.
func (e *Engine) RolloverDailyGoal(ctx context.Context) error {
	p, err := e.profile.Get(ctx)
	if err != nil {
		return err
	}
	today := store.DayKey(e.now())
	if p.DailyGoalDate == today {
		return nil
	}
	return e.profile.SetDailyGoal(ctx, false, today)
}
