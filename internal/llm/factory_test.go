package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/scholarly/internal/store"
	"github.com/abhisek/scholarly/internal/store/storetest"
)

func TestNewProvider_Mock(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Provider: ProviderMock}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "mock", p.ModelID())
}

func TestNewProvider_MissingKey(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Provider: ProviderOpenRouter}, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SCHOLARLY_OPENROUTER_API_KEY")
}

func TestNewProvider_OpenRouterWrapped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = ProviderOpenRouter
	cfg.OpenRouter.APIKey = "sk-or-test"

	p, err := NewProvider(context.Background(), cfg, nil, nil)
	require.NoError(t, err)
	_, ok := p.(*TimeoutProvider)
	assert.True(t, ok, "outermost decorator should be the timeout")
	assert.Equal(t, "google/gemini-2.5-flash", p.ModelID())
}

func TestDiscoverConfig_Order(t *testing.T) {
	for _, k := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}
	_, ok := DiscoverConfig()
	assert.False(t, ok)

	t.Setenv("ANTHROPIC_API_KEY", "a")
	t.Setenv("OPENAI_API_KEY", "o")
	cfg, ok := DiscoverConfig()
	require.True(t, ok)
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
}

func TestLoggingProvider_RecordsEvent(t *testing.T) {
	s := storetest.Open(t)
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"ok":true}`), Usage: Usage{InputTokens: 12, OutputTokens: 3}},
		MockResponse{Err: &ErrRateLimit{Err: errors.New("slow down")}},
	)
	p := WithLogging(mock, ProviderMock, s.EventRepo(), nil)

	ctx := WithPurpose(context.Background(), PurposeQuestions)
	_, err := p.Generate(ctx, Request{
		System:   "sys",
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
		Schema:   &Schema{Name: "quiz-questions", Definition: map[string]any{"type": "object"}},
	})
	require.NoError(t, err)
	_, err = p.Generate(ctx, Request{})
	require.Error(t, err)

	events, err := s.EventRepo().QueryLLMEvents(context.Background(), store.QueryOpts{})
	require.NoError(t, err)
	require.Len(t, events, 2)

	failed, ok := events[0], events[1]
	assert.False(t, failed.Success)
	assert.Contains(t, failed.ErrorMessage, "slow down")

	assert.True(t, ok.Success)
	assert.Equal(t, PurposeQuestions, ok.Purpose)
	assert.Equal(t, ProviderMock, ok.Provider)
	assert.Equal(t, 12, ok.InputTokens)
	assert.Contains(t, ok.RequestBody, "[schema: quiz-questions]")
	assert.JSONEq(t, `{"ok":true}`, ok.ResponseBody)
}

type slowProvider struct{}

func (slowProvider) Generate(ctx context.Context, _ Request) (*Response, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (slowProvider) ModelID() string { return "slow" }

func TestTimeoutProvider(t *testing.T) {
	p := WithTimeout(slowProvider{}, 10*time.Millisecond)
	_, err := p.Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMockProvider_RespondAfterQueue(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`1`)})
	mock.Respond = func(req Request) MockResponse {
		return MockResponse{Content: json.RawMessage(`"` + req.System + `"`)}
	}

	r1, err := mock.Generate(context.Background(), Request{System: "a"})
	require.NoError(t, err)
	assert.Equal(t, "1", string(r1.Content))

	r2, err := mock.Generate(context.Background(), Request{System: "b"})
	require.NoError(t, err)
	assert.Equal(t, `"b"`, string(r2.Content))

	last, ok := mock.LastCall()
	require.True(t, ok)
	assert.Equal(t, "b", last.System)
}
