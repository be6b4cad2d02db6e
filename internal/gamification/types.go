package gamification

import "time"

// Category groups achievements for display.
type Category string

const (
	CategoryLearning   Category = "learning"
	CategoryMastery    Category = "mastery"
	CategoryDedication Category = "dedication"
	CategoryStreak     Category = "streak"
)

// DisplayName returns a human-readable label for the category.
func (c Category) DisplayName() string {
	switch c {
	case CategoryLearning:
		return "Learning"
	case CategoryMastery:
		return "Mastery"
	case CategoryDedication:
		return "Dedication"
	case CategoryStreak:
		return "Streak"
	default:
		return string(c)
	}
}

// Definition describes one achievement in the catalog.
type Definition struct {
	ID          string
	Name        string
	Description string
	Category    Category
	XP          int
	Icon        string

	group group
}

// Unlock is an achievement unlocked during this run.
type Unlock struct {
	Definition
	UnlockedAt time.Time
}

// LedgerEntry is one XP credit or debit.
type LedgerEntry struct {
	Amount    int
	Reason    string
	AwardedAt time.Time
}

// RankUp is reported when an award moves the learner into a higher rank.
type RankUp struct {
	From Rank
	To   Rank
}

// Outcome collects everything a single engine hook produced.
type Outcome struct {
	Awards   []LedgerEntry
	Unlocked []Unlock
	RankUp   *RankUp
}

// XP returns the net XP of all awards in the outcome.
func (o *Outcome) XP() int {
	total := 0
	for _, a := range o.Awards {
		total += a.Amount
	}
	return total
}

// Empty reports whether the hook produced nothing.
func (o *Outcome) Empty() bool {
	return len(o.Awards) == 0 && len(o.Unlocked) == 0 && o.RankUp == nil
}

// addRankUp folds r into the outcome so several crossings in one hook are
// reported once, ending at the final rank.
func (o *Outcome) addRankUp(r *RankUp) {
	if r == nil {
		return
	}
	if o.RankUp == nil {
		o.RankUp = r
		return
	}
	o.RankUp = &RankUp{From: o.RankUp.From, To: r.To}
}

// Merge appends other to o.
func (o *Outcome) Merge(other Outcome) {
	o.Awards = append(o.Awards, other.Awards...)
	o.Unlocked = append(o.Unlocked, other.Unlocked...)
	o.addRankUp(other.RankUp)
}
