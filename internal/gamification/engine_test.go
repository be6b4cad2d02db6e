package gamification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/scholarly/internal/mastery"
	"github.com/abhisek/scholarly/internal/store"
	"github.com/abhisek/scholarly/internal/store/storetest"
)

var fixedNow = time.Date(2025, 5, 10, 14, 0, 0, 0, time.Local)

func newEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()
	s := storetest.Open(t)
	e := New(s.Profile(), s.Stats(), WithClock(func() time.Time { return fixedNow }))
	return e, s
}

func seedTopic(t *testing.T, s *store.Store, id string, subs ...string) {
	t.Helper()
	require.NoError(t, s.Topics().Create(t.Context(), &store.Topic{ID: id, Name: id, Subtopics: subs}))
}

func masterSub(t *testing.T, s *store.Store, topicID, sub string, at time.Time) {
	t.Helper()
	ok, err := s.Progress().MarkMastered(t.Context(), topicID, sub, at)
	require.NoError(t, err)
	require.True(t, ok)
}

func unlockedIDs(out Outcome) []string {
	var ids []string
	for _, u := range out.Unlocked {
		ids = append(ids, u.ID)
	}
	return ids
}

func TestCatalog(t *testing.T) {
	c := Catalog()
	assert.Len(t, c, 14)
	for id, d := range c {
		assert.Equal(t, id, d.ID)
		assert.Positive(t, d.XP, id)
		assert.NotEmpty(t, d.group, id)
	}
	assert.Len(t, Definitions(), 14)
}

func TestRankFor(t *testing.T) {
	tests := []struct {
		xp   int
		want string
	}{
		{0, "Novice"},
		{299, "Novice"},
		{300, "Apprentice"},
		{1000, "Scholar"},
		{2499, "Scholar"},
		{2500, "Expert"},
		{5000, "Master"},
		{10000, "Sage"},
		{20000, "Luminary"},
		{99999, "Luminary"},
	}
	for _, tc := range tests {
		if got := RankFor(tc.xp); got.Name != tc.want {
			t.Errorf("RankFor(%d) = %s, want %s", tc.xp, got.Name, tc.want)
		}
	}
	if _, ok := NextRank(RankFor(20000)); ok {
		t.Error("NextRank(top) should report false")
	}
	if got := RankProgress(650); got != 0.5 {
		t.Errorf("RankProgress(650) = %v, want 0.5", got)
	}
}

func TestAwardXP_SingleRankUpAcrossTwoThresholds(t *testing.T) {
	e, s := newEngine(t)
	ctx := t.Context()
	_, _, err := s.Profile().AddXP(ctx, 250, "seed", "")
	require.NoError(t, err)

	_, rankUp, err := e.AwardXP(ctx, 950, "big")
	require.NoError(t, err)
	require.NotNil(t, rankUp)
	assert.Equal(t, "Novice", rankUp.From.Name)
	assert.Equal(t, "Scholar", rankUp.To.Name)

	_, rankUp, err = e.AwardXP(ctx, 10, "small")
	require.NoError(t, err)
	assert.Nil(t, rankUp)

	_, _, err = e.AwardXP(ctx, 0, "zero")
	assert.Error(t, err)
}

func TestOnSubtopicMastered_FirstEver(t *testing.T) {
	e, s := newEngine(t)
	ctx := t.Context()
	seedTopic(t, s, "t", "one", "two", "three")
	masterSub(t, s, "t", "one", fixedNow)

	out := e.OnSubtopicMastered(ctx, &mastery.Transition{TopicID: "t", Subtopic: "one", At: fixedNow, NextSubtopic: "two"})

	assert.Equal(t, 175, out.XP())
	assert.Equal(t, []string{"first_subtopic"}, unlockedIDs(out))
	assert.Nil(t, out.RankUp)

	p, err := e.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 175, p.TotalXP)

	done, err := e.DailyGoal(ctx)
	require.NoError(t, err)
	assert.True(t, done)

	// Second mastery: base XP only, achievement not repeated.
	masterSub(t, s, "t", "two", fixedNow)
	out = e.OnSubtopicMastered(ctx, &mastery.Transition{TopicID: "t", Subtopic: "two", At: fixedNow})
	assert.Equal(t, XPSubtopicMastered, out.XP())
	assert.Empty(t, out.Unlocked)
}

func TestOnSubtopicMastered_BonusOnceAfterTopicDeleted(t *testing.T) {
	e, s := newEngine(t)
	ctx := t.Context()
	seedTopic(t, s, "t", "one", "two")
	masterSub(t, s, "t", "one", fixedNow)
	out := e.OnSubtopicMastered(ctx, &mastery.Transition{TopicID: "t", Subtopic: "one", At: fixedNow})
	require.Equal(t, 175, out.XP())

	require.NoError(t, s.Topics().Delete(ctx, "t"))
	seedTopic(t, s, "b", "x", "y")
	masterSub(t, s, "b", "x", fixedNow)
	n, err := s.Stats().MasteredSubtopicCount(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n, "deleting the topic drops its mastered rows")

	// A fresh engine has no cached unlocks and must read them back.
	e = New(s.Profile(), s.Stats(), WithClock(func() time.Time { return fixedNow }))
	out = e.OnSubtopicMastered(ctx, &mastery.Transition{TopicID: "b", Subtopic: "x", At: fixedNow})
	assert.Equal(t, XPSubtopicMastered, out.XP())
	for _, a := range out.Awards {
		assert.NotEqual(t, "first_mastery_bonus", a.Reason)
	}
	assert.Empty(t, out.Unlocked)
}

func TestOnSubtopicMastered_TopicAndTriple(t *testing.T) {
	e, s := newEngine(t)
	ctx := t.Context()
	seedTopic(t, s, "t", "a", "b", "c")
	masterSub(t, s, "t", "a", fixedNow)
	masterSub(t, s, "t", "b", fixedNow)
	masterSub(t, s, "t", "c", fixedNow)

	out := e.OnSubtopicMastered(ctx, &mastery.Transition{TopicID: "t", Subtopic: "c", At: fixedNow, TopicMastered: true})

	ids := unlockedIDs(out)
	assert.ElementsMatch(t, []string{"first_subtopic", "first_topic", "triple_mastery"}, ids)
	// 50 base + 200 topic + 25 + 100 + 75; no first-ever bonus, three are mastered.
	assert.Equal(t, 450, out.XP())
	require.NotNil(t, out.RankUp)
	assert.Equal(t, "Apprentice", out.RankUp.To.Name)
}

func TestOnSessionEnded(t *testing.T) {
	e, _ := newEngine(t)
	ctx := t.Context()

	out := e.OnSessionEnded(ctx, SessionSummary{})
	assert.True(t, out.Empty())

	out = e.OnSessionEnded(ctx, SessionSummary{Answered: 4, Correct: 4})
	assert.Equal(t, XPSessionComplete+4*XPPerCorrectInSession, out.XP())
	assert.Empty(t, out.Unlocked, "fewer than 5 answers is not a perfect session")

	out = e.OnSessionEnded(ctx, SessionSummary{Answered: 5, Correct: 5})
	assert.Equal(t, []string{"perfect_session"}, unlockedIDs(out))

	out = e.OnSessionEnded(ctx, SessionSummary{Answered: 5, Correct: 5})
	assert.Empty(t, out.Unlocked)

	assert.Len(t, e.Ledger(), 4)
}

func TestOnAnswer_ExpertAndReviewClear(t *testing.T) {
	e, s := newEngine(t)
	ctx := t.Context()
	seedTopic(t, s, "t", "a")

	out := e.OnAnswer(ctx, AnswerFacts{Correct: true, Difficulty: 3})
	assert.True(t, out.Empty())

	out = e.OnAnswer(ctx, AnswerFacts{Correct: true, Difficulty: 5})
	assert.Equal(t, []string{"expert_answer"}, unlockedIDs(out))

	require.NoError(t, s.Reviews().Save(ctx, &store.ReviewItem{
		TopicID: "t", Question: store.Question{Subtopic: "a", Text: "q", Format: store.FormatFreeResponse},
		DateMissed: fixedNow, NextReviewDate: fixedNow.Add(-time.Hour), IntervalDays: 1, EaseFactor: 2.5,
	}))
	out = e.OnAnswer(ctx, AnswerFacts{Correct: true, IsReview: true})
	assert.Zero(t, out.XP(), "a review is still due")

	items, err := s.Reviews().List(ctx, "t")
	require.NoError(t, err)
	items[0].NextReviewDate = fixedNow.Add(24 * time.Hour)
	require.NoError(t, s.Reviews().Save(ctx, &items[0]))

	out = e.OnAnswer(ctx, AnswerFacts{Correct: false, IsReview: true})
	assert.Zero(t, out.XP(), "a missed review clears nothing")
	assert.Empty(t, out.Unlocked)

	out = e.OnAnswer(ctx, AnswerFacts{Correct: true, IsReview: true})
	assert.Equal(t, []string{"review_clear"}, unlockedIDs(out))
	assert.Equal(t, XPReviewsCleared+40, out.XP())
}

func TestOnAnswer_StreakMilestone(t *testing.T) {
	e, s := newEngine(t)
	ctx := t.Context()
	for i := range 7 {
		require.NoError(t, s.Profile().BumpActivity(ctx, store.DayKey(fixedNow.AddDate(0, 0, -i))))
	}

	out := e.OnAnswer(ctx, AnswerFacts{Correct: false})
	assert.Equal(t, []string{"streak_7"}, unlockedIDs(out))
}
