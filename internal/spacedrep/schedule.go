package spacedrep

const (
	// DefaultEase is the ease factor a new card starts with. It is also the ceiling.
	DefaultEase = 2.5

	// MinEase is the floor for the ease factor.
	MinEase = 1.3

	// EaseBonus is added to the ease factor on a correct review.
	EaseBonus = 0.1

	// EasePenalty is subtracted from the ease factor on a miss.
	EasePenalty = 0.2

	// FirstIntervalDays and SecondIntervalDays are the fixed intervals after
	// the first and second consecutive correct reviews.
	FirstIntervalDays  = 1.0
	SecondIntervalDays = 3.0
)
