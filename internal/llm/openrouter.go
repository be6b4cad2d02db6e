package llm

import (
	"errors"
	"net/http"
)

const openRouterURL = "https://openrouter.ai/api/v1"

// NewOpenRouterProvider builds a Chat Completions provider pointed at
// OpenRouter. Model IDs keep their vendor prefix, e.g.
// "google/gemini-2.5-flash". Requests carry OpenRouter's app attribution
// headers.
func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openrouter: missing API key")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openRouterURL
	}
	headers := http.Header{}
	headers.Set("HTTP-Referer", "https://github.com/abhisek/scholarly")
	headers.Set("X-Title", "scholarly")
	return newChatProvider(cfg.APIKey, baseURL, cfg.Model, headers), nil
}
