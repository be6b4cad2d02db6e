package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedTopic(t *testing.T, s *Store) *Topic {
	t.Helper()
	topic := &Topic{
		ID:        "t1",
		Name:      "Photosynthesis",
		Subtopics: []string{"Light reactions", "Calvin cycle", "Chloroplasts"},
		Category:  "Biology",
	}
	require.NoError(t, s.Topics().Create(t.Context(), topic))
	return topic
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := s.DB().QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestCreateTopicCreatesOrderedProgress(t *testing.T) {
	s := openTestStore(t)
	topic := seedTopic(t, s)

	got, err := s.Topics().Get(t.Context(), topic.ID)
	require.NoError(t, err)
	assert.Equal(t, topic.Subtopics, got.Subtopics)
	assert.Nil(t, got.LastPracticed)

	progress, err := s.Progress().List(t.Context(), topic.ID)
	require.NoError(t, err)
	require.Len(t, progress, 3)
	for i, p := range progress {
		assert.Equal(t, topic.Subtopics[i], p.Subtopic)
		assert.Equal(t, i, p.SortOrder)
		assert.False(t, p.IsMastered)
		assert.Zero(t, p.Accuracy())
	}
}

func TestGetTopicNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Topics().Get(t.Context(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRecordAnswerAndMarkMastered(t *testing.T) {
	s := openTestStore(t)
	topic := seedTopic(t, s)
	ctx := t.Context()

	p, err := s.Progress().RecordAnswer(ctx, topic.ID, "Calvin cycle", true)
	require.NoError(t, err)
	assert.Equal(t, 1, p.QuestionsAnswered)
	assert.Equal(t, 1, p.QuestionsCorrect)

	p, err = s.Progress().RecordAnswer(ctx, topic.ID, "Calvin cycle", false)
	require.NoError(t, err)
	assert.Equal(t, 2, p.QuestionsAnswered)
	assert.Equal(t, 1, p.QuestionsCorrect)
	assert.InDelta(t, 50.0, p.Accuracy(), 0.001)

	now := time.Now()
	flipped, err := s.Progress().MarkMastered(ctx, topic.ID, "Calvin cycle", now)
	require.NoError(t, err)
	assert.True(t, flipped)

	flipped, err = s.Progress().MarkMastered(ctx, topic.ID, "Calvin cycle", now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, flipped, "second mark must be a no-op")

	got, err := s.Progress().Get(ctx, topic.ID, "Calvin cycle")
	require.NoError(t, err)
	require.NotNil(t, got.MasteredAt)
	assert.Equal(t, now.UnixMilli(), got.MasteredAt.UnixMilli())
}

func TestRecordAnswerUnknownSubtopic(t *testing.T) {
	s := openTestStore(t)
	topic := seedTopic(t, s)
	_, err := s.Progress().RecordAnswer(t.Context(), topic.ID, "Nope", true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAppendRecordIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	topic := seedTopic(t, s)
	ctx := t.Context()

	rec := &QuestionRecord{
		AnswerID:      "a-1",
		AnsweredAt:    time.Now(),
		TopicID:       topic.ID,
		Subtopic:      "Light reactions",
		Question:      "What splits water?",
		UserResponse:  "photosystem ii",
		CorrectAnswer: "Photosystem II",
		Correct:       true,
	}
	ok, err := s.Records().Append(ctx, rec)
	require.NoError(t, err)
	assert.True(t, ok)

	dup := *rec
	ok, err = s.Records().Append(ctx, &dup)
	require.NoError(t, err)
	assert.False(t, ok)

	answered, correct, err := s.Stats().AnswerTotals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, answered)
	assert.Equal(t, 1, correct)

	asked, err := s.Records().AskedQuestions(ctx, topic.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"What splits water?"}, asked)
}

func TestQuestionCacheSkipsAnswered(t *testing.T) {
	s := openTestStore(t)
	topic := seedTopic(t, s)
	ctx := t.Context()

	qs := []Question{
		{Subtopic: "Light reactions", Text: "Q1", Format: FormatFreeResponse, CorrectAnswer: "a1"},
		{Subtopic: "Light reactions", Text: "Q2", Format: FormatMultipleChoice, Choices: []string{"a", "b", "c", "d"}, CorrectAnswer: "a"},
		{Subtopic: "Light reactions", Text: "Q1", Format: FormatFreeResponse, CorrectAnswer: "a1"},
	}
	n, err := s.QuestionCache().Add(ctx, topic.ID, qs)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = s.Records().Append(ctx, &QuestionRecord{
		AnswerID: "x", AnsweredAt: time.Now(), TopicID: topic.ID, Subtopic: "Light reactions",
		Question: "Q1", UserResponse: "a1", CorrectAnswer: "a1", Correct: true,
	})
	require.NoError(t, err)

	left, err := s.QuestionCache().Unanswered(ctx, topic.ID)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "Q2", left[0].Question.Text)
	assert.Equal(t, []string{"a", "b", "c", "d"}, left[0].Question.Choices)
}

func TestReviewItemSaveAndFind(t *testing.T) {
	s := openTestStore(t)
	topic := seedTopic(t, s)
	ctx := t.Context()
	now := time.Now()

	item := &ReviewItem{
		TopicID:        topic.ID,
		Question:       Question{Subtopic: "Chloroplasts", Text: "Where is chlorophyll?", Format: FormatFreeResponse, CorrectAnswer: "thylakoid"},
		DateMissed:     now,
		NextReviewDate: now.Add(24 * time.Hour),
		IntervalDays:   1,
		EaseFactor:     2.5,
	}
	require.NoError(t, s.Reviews().Save(ctx, item))
	require.NotZero(t, item.ID)

	item.IntervalDays = 3
	item.ReviewCount = 2
	require.NoError(t, s.Reviews().Save(ctx, item))

	got, err := s.Reviews().Find(ctx, topic.ID, "Where is chlorophyll?")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 3.0, got.IntervalDays)
	assert.Equal(t, 2, got.ReviewCount)

	due, err := s.Stats().DueReviewCount(ctx, now.Add(48*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, due)

	missing, err := s.Reviews().Find(ctx, topic.ID, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDeleteTopicCascades(t *testing.T) {
	s := openTestStore(t)
	topic := seedTopic(t, s)
	ctx := t.Context()

	require.NoError(t, s.Reviews().Save(ctx, &ReviewItem{
		TopicID: topic.ID, Question: Question{Subtopic: "Calvin cycle", Text: "Q", Format: FormatFreeResponse},
		DateMissed: time.Now(), NextReviewDate: time.Now(), IntervalDays: 1, EaseFactor: 2.5,
	}))
	require.NoError(t, s.Topics().Delete(ctx, topic.ID))

	progress, err := s.Progress().List(ctx, topic.ID)
	require.NoError(t, err)
	assert.Empty(t, progress)

	items, err := s.Reviews().List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestUnlockAchievementAtomicAndOnce(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()

	ok, before, after, err := s.Profile().UnlockAchievement(ctx, "first_subtopic", 25, time.Now(), "sess")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, before)
	assert.Equal(t, 25, after)

	ok, _, _, err = s.Profile().UnlockAchievement(ctx, "first_subtopic", 25, time.Now(), "sess")
	require.NoError(t, err)
	assert.False(t, ok)

	p, err := s.Profile().Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 25, p.TotalXP)

	entries, err := s.Profile().XPEntries(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "achievement:first_subtopic", entries[0].Reason)
}

func TestSpendForFreeze(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()

	_, err := s.Profile().SpendForFreeze(ctx, 200, 3)
	assert.ErrorIs(t, err, ErrPrecondition)

	_, _, err = s.Profile().AddXP(ctx, 450, "test", "")
	require.NoError(t, err)

	p, err := s.Profile().SpendForFreeze(ctx, 200, 3)
	require.NoError(t, err)
	assert.Equal(t, 250, p.TotalXP)
	assert.Equal(t, 1, p.StreakFreezes)
}

func TestActivityDays(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()

	require.NoError(t, s.Profile().BumpActivity(ctx, "2026-03-01"))
	require.NoError(t, s.Profile().BumpActivity(ctx, "2026-03-01"))
	require.NoError(t, s.Profile().BumpActivity(ctx, "2026-03-02"))

	days, err := s.Profile().ActivityDays(ctx)
	require.NoError(t, err)
	assert.Equal(t, []DailyActivity{
		{Day: "2026-03-02", QuestionsCompleted: 1},
		{Day: "2026-03-01", QuestionsCompleted: 2},
	}, days)
}

func TestLLMEventsUsage(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()
	repo := s.EventRepo()

	for _, purpose := range []string{"question-gen", "question-gen", "lesson"} {
		require.NoError(t, repo.AppendLLMRequest(ctx, LLMRequestEventData{
			Provider: "mock", Model: "mock-model", Purpose: purpose,
			InputTokens: 10, OutputTokens: 5, LatencyMs: 100, Success: true,
		}))
	}

	events, err := repo.QueryLLMEvents(ctx, QueryOpts{Purpose: "lesson"})
	require.NoError(t, err)
	require.Len(t, events, 1)

	got, err := repo.GetLLMEvent(ctx, events[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "lesson", got.Purpose)

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	require.NoError(t, err)
	require.Len(t, byPurpose, 2)
	assert.Equal(t, "question-gen", byPurpose[0].Purpose)
	assert.Equal(t, 2, byPurpose[0].Calls)
	assert.Equal(t, 20, byPurpose[0].InputTokens)

	byModel, err := repo.LLMUsageByModel(ctx)
	require.NoError(t, err)
	require.Len(t, byModel, 1)
	assert.Equal(t, 3, byModel[0].Calls)
}
