package gamification

// Rank is a named XP tier.
type Rank struct {
	Level int
	Name  string
	MinXP int
}

// Ranks lists the tiers in ascending order.
var Ranks = []Rank{
	{1, "Novice", 0},
	{2, "Apprentice", 300},
	{3, "Scholar", 1000},
	{4, "Expert", 2500},
	{5, "Master", 5000},
	{6, "Sage", 10000},
	{7, "Luminary", 20000},
}

// RankFor returns the highest rank whose threshold xp reaches.
func RankFor(xp int) Rank {
	r := Ranks[0]
	for _, candidate := range Ranks {
		if xp >= candidate.MinXP {
			r = candidate
		}
	}
	return r
}

// NextRank returns the rank after r and false when r is the top rank.
func NextRank(r Rank) (Rank, bool) {
	if r.Level >= len(Ranks) {
		return Rank{}, false
	}
	return Ranks[r.Level], true
}

// RankProgress returns how far xp is between its rank and the next one, 0-1.
// The top rank always reports 1.
func RankProgress(xp int) float64 {
	cur := RankFor(xp)
	next, ok := NextRank(cur)
	if !ok {
		return 1
	}
	return float64(xp-cur.MinXP) / float64(next.MinXP-cur.MinXP)
}

// checkRankUp returns a RankUp when after lands in a higher rank than before.
func checkRankUp(before, after int) *RankUp {
	from, to := RankFor(before), RankFor(after)
	if to.Level <= from.Level {
		return nil
	}
	return &RankUp{From: from, To: to}
}
