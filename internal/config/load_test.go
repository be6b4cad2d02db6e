package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/scholarly/internal/llm"
)

// isolate clears every variable Load consults and points the user config
// directory at an empty temp dir.
func isolate(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, k := range []string{
		"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY",
		"SCHOLARLY_DB", "SCHOLARLY_LLM_PROVIDER", "SCHOLARLY_LOG_LEVEL",
		"SCHOLARLY_ANTHROPIC_API_KEY", "SCHOLARLY_OPENAI_API_KEY",
		"SCHOLARLY_GEMINI_API_KEY", "SCHOLARLY_OPENROUTER_API_KEY",
		"SCHOLARLY_SESSION_MAX_QUESTIONS",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, llm.ProviderAnthropic, cfg.LLM.Provider)
	assert.False(t, cfg.LLM.HasKey())
	assert.Equal(t, 2, cfg.LLM.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.LLM.Retry.InitialWait)

	sc := cfg.SessionSettings()
	assert.Equal(t, 10, sc.MaxQuestions)
	assert.Equal(t, 500*time.Millisecond, sc.PrefetchPacing)
	assert.Equal(t, 3, sc.MaxPrefetchFailures)
	assert.Equal(t, "127.0.0.1:8765", cfg.Server.Addr)
}

func TestLoadFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("SCHOLARLY_LLM_PROVIDER", "openrouter")
	t.Setenv("SCHOLARLY_OPENROUTER_API_KEY", "sk-or")
	t.Setenv("SCHOLARLY_LOG_LEVEL", "debug")
	t.Setenv("SCHOLARLY_SESSION_MAX_QUESTIONS", "5")
	t.Setenv("SCHOLARLY_DB", "/tmp/x.db")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderOpenRouter, cfg.LLM.Provider)
	assert.Equal(t, "sk-or", cfg.LLM.OpenRouter.APIKey)
	assert.True(t, cfg.LLM.HasKey())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 5, cfg.Session.MaxQuestions)
	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
}

func TestLoadFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "scholarly.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: info
  format: json
llm:
  provider: gemini
  gemini:
    api_key: g-key
    model: gemini-pro
session:
  prefetch_pacing: 250ms
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, llm.ProviderGemini, cfg.LLM.Provider)
	assert.Equal(t, "gemini-pro", cfg.LLM.Gemini.Model)
	assert.Equal(t, 250*time.Millisecond, cfg.Session.PrefetchPacing)

	// Environment beats the file.
	t.Setenv("SCHOLARLY_GEMINI_API_KEY", "env-key")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.LLM.Gemini.APIKey)
}

func TestLoadDiscoversVendorKey(t *testing.T) {
	isolate(t)
	t.Setenv("OPENAI_API_KEY", "sk-vendor")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "sk-vendor", cfg.LLM.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.OpenAI.Model)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad level", map[string]string{"SCHOLARLY_LOG_LEVEL": "loud"}},
		{"bad provider", map[string]string{"SCHOLARLY_LLM_PROVIDER": "llamas"}},
		{"zero questions", map[string]string{"SCHOLARLY_SESSION_MAX_QUESTIONS": "0"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	isolate(t)
	t.Cleanup(func() { os.Unsetenv("SCHOLARLY_LOG_FORMAT") })
	require.NoError(t, os.WriteFile(".env", []byte("SCHOLARLY_LOG_FORMAT=json\nSCHOLARLY_LOG_LEVEL=error\n"), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "warn", cfg.Log.Level, "variables already in the environment win over .env")
}

func TestLoadMissingFile(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
