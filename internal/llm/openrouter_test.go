package llm

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenRouterProvider(t *testing.T) {
	_, err := NewOpenRouterProvider(OpenRouterConfig{Model: "google/gemini-2.5-flash"})
	require.Error(t, err)

	p, err := NewOpenRouterProvider(OpenRouterConfig{APIKey: "sk-or", Model: "google/gemini-2.5-flash"})
	require.NoError(t, err)
	assert.Equal(t, "google/gemini-2.5-flash", p.ModelID())
}

func TestOpenRouterProvider_Generate(t *testing.T) {
	srv := &chatServer{status: http.StatusOK, body: chatCompletion("google/gemini-2.5-flash", `{"correct":true,"feedback":"Yes."}`, "stop")}
	p, err := NewOpenRouterProvider(OpenRouterConfig{
		APIKey:  "sk-or",
		Model:   "google/gemini-2.5-flash",
		BaseURL: srv.start(t) + "/",
	})
	require.NoError(t, err)

	resp, err := p.Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "grade"}},
		Schema:   judgeSchema,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"correct":true,"feedback":"Yes."}`, string(resp.Content))

	require.NotNil(t, srv.lastReq)
	assert.Equal(t, "/v1/chat/completions", srv.lastReq.URL.Path)
	assert.Equal(t, "Bearer sk-or", srv.lastReq.Header.Get("Authorization"))
	assert.Equal(t, "scholarly", srv.lastReq.Header.Get("X-Title"))
	assert.NotEmpty(t, srv.lastReq.Header.Get("HTTP-Referer"))
	assert.Contains(t, string(srv.lastRaw), `"model":"google/gemini-2.5-flash"`)
}
