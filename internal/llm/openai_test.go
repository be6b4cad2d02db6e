package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chatServer serves one canned Chat Completions answer and records the
// last request it saw.
type chatServer struct {
	status  int
	body    any
	lastReq *http.Request
	lastRaw []byte
}

func (s *chatServer) start(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.lastReq = r
		s.lastRaw, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(s.status)
		_ = json.NewEncoder(w).Encode(s.body)
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/v1"
}

func chatCompletion(model, content, finish string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1760000000,
		"model":   model,
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": finish,
		}},
		"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 25, "total_tokens": 65},
	}
}

func TestOpenAIProvider_Generate(t *testing.T) {
	srv := &chatServer{status: http.StatusOK, body: chatCompletion("gpt-4o-mini-2024-07-18", `{"correct":false,"feedback":"Close, but no."}`, "stop")}
	p := newChatProvider("k", srv.start(t), "gpt-4o-mini", nil)

	resp, err := p.Generate(context.Background(), Request{
		System:   "You grade answers.",
		Messages: []Message{{Role: RoleUser, Content: "Is 'ribosome' right?"}},
		Schema:   judgeSchema,
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{"correct":false,"feedback":"Close, but no."}`, string(resp.Content))
	assert.Equal(t, Usage{InputTokens: 40, OutputTokens: 25, TotalTokens: 65}, resp.Usage)
	assert.Equal(t, "gpt-4o-mini-2024-07-18", resp.Model)
	assert.Equal(t, "end", resp.StopReason)

	var sent struct {
		Model          string `json:"model"`
		Messages       []map[string]any
		ResponseFormat struct {
			Type       string `json:"type"`
			JSONSchema struct {
				Name   string `json:"name"`
				Strict bool   `json:"strict"`
			} `json:"json_schema"`
		} `json:"response_format"`
	}
	require.NoError(t, json.Unmarshal(srv.lastRaw, &sent))
	assert.Equal(t, "gpt-4o-mini", sent.Model)
	assert.Len(t, sent.Messages, 2)
	assert.Equal(t, "json_schema", sent.ResponseFormat.Type)
	assert.Equal(t, "test-verdict", sent.ResponseFormat.JSONSchema.Name)
	assert.True(t, sent.ResponseFormat.JSONSchema.Strict)
}

func TestOpenAIProvider_Errors(t *testing.T) {
	apiError := func(typ string) map[string]any {
		return map[string]any{"error": map[string]any{"type": typ, "message": typ}}
	}
	tests := []struct {
		name   string
		status int
		body   any
		target any
	}{
		{"rate limit", http.StatusTooManyRequests, apiError("rate_limit_exceeded"), new(*ErrRateLimit)},
		{"bad key", http.StatusUnauthorized, apiError("invalid_api_key"), new(*ErrAuth)},
		{"server error", http.StatusBadGateway, apiError("server_error"), new(*ErrProviderUnavailable)},
		{"truncated", http.StatusOK, chatCompletion("gpt-4o-mini", `{"corr`, "length"), new(*ErrMaxTokensExceeded)},
		{"not json", http.StatusOK, chatCompletion("gpt-4o-mini", `I think so`, "stop"), new(*ErrInvalidResponse)},
		{"no choices", http.StatusOK, map[string]any{"id": "x", "choices": []any{}}, new(*ErrInvalidResponse)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := &chatServer{status: tt.status, body: tt.body}
			p := newChatProvider("k", srv.start(t), "gpt-4o-mini", nil)
			_, err := p.Generate(context.Background(), Request{
				Messages: []Message{{Role: RoleUser, Content: "grade"}},
				Schema:   judgeSchema,
			})
			require.Error(t, err)
			assert.ErrorAs(t, err, tt.target)
		})
	}
}

func TestOpenAIProvider_PlainText(t *testing.T) {
	srv := &chatServer{status: http.StatusOK, body: chatCompletion("gpt-4o-mini", "a partial answer", "length")}
	p := newChatProvider("k", srv.start(t), "gpt-4o-mini", nil)

	resp, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	require.NoError(t, err)
	assert.Equal(t, "a partial answer", string(resp.Content))
	assert.Equal(t, "max_tokens", resp.StopReason)
}

func TestNewOpenAIProvider_RequiresKey(t *testing.T) {
	_, err := NewOpenAIProvider(OpenAIConfig{Model: "gpt-4o-mini"})
	assert.Error(t, err)

	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "k", Model: "gpt-4o"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", p.ModelID())
}
