package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/abhisek/scholarly/internal/llm"
	"github.com/abhisek/scholarly/internal/session"
)

// EnvPrefix is the prefix viper strips from environment variables.
const EnvPrefix = "SCHOLARLY"

// providerKeys maps config keys to the environment names the llm package
// advertises in its errors.
var providerKeys = map[string]string{
	"llm.anthropic.api_key":   "ANTHROPIC_API_KEY",
	"llm.anthropic.model":     "ANTHROPIC_MODEL",
	"llm.openai.api_key":      "OPENAI_API_KEY",
	"llm.openai.model":        "OPENAI_MODEL",
	"llm.openai.base_url":     "OPENAI_BASE_URL",
	"llm.gemini.api_key":      "GEMINI_API_KEY",
	"llm.gemini.model":        "GEMINI_MODEL",
	"llm.openrouter.api_key":  "OPENROUTER_API_KEY",
	"llm.openrouter.model":    "OPENROUTER_MODEL",
	"llm.openrouter.base_url": "OPENROUTER_BASE_URL",
}

// Load reads configuration. Values come from, in rising precedence:
// defaults, the config file and SCHOLARLY_* environment variables. When
// path is empty, config.{yaml,toml,json} is looked up in the user config
// directory and its absence is not an error.
//
// A .env file in the working directory is loaded first; it never overrides
// variables already set. When no LLM provider is configured anywhere, the
// vendors' own API key variables are checked with llm.DiscoverConfig.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range providerKeys {
		if err := v.BindEnv(key, EnvPrefix+"_"+env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}
	if err := v.BindEnv("llm.provider"); err != nil {
		return nil, fmt.Errorf("bind llm.provider: %w", err)
	}

	if err := readFile(v, path); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.LLM.Provider == "" {
		if found, ok := llm.DiscoverConfig(); ok {
			cfg.LLM.Provider = found.Provider
			adoptKey(&cfg.LLM, found)
		} else {
			cfg.LLM.Provider = llm.ProviderAnthropic
		}
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db", "")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")

	lc := llm.DefaultConfig()
	v.SetDefault("llm.anthropic.model", lc.Anthropic.Model)
	v.SetDefault("llm.openai.model", lc.OpenAI.Model)
	v.SetDefault("llm.gemini.model", lc.Gemini.Model)
	v.SetDefault("llm.openrouter.model", lc.OpenRouter.Model)
	v.SetDefault("llm.retry.max_attempts", lc.Retry.MaxAttempts)
	v.SetDefault("llm.retry.initial_wait", lc.Retry.InitialWait)
	v.SetDefault("llm.retry.max_wait", lc.Retry.MaxWait)
	v.SetDefault("llm.retry.multiplier", lc.Retry.Multiplier)
	v.SetDefault("llm.timeout", lc.Timeout)

	sc := session.DefaultConfig()
	v.SetDefault("session.max_questions", sc.MaxQuestions)
	v.SetDefault("session.prefetch_pacing", sc.PrefetchPacing)
	v.SetDefault("session.backoff_base", sc.BackoffBase)
	v.SetDefault("session.max_prefetch_failures", sc.MaxPrefetchFailures)
	v.SetDefault("session.lesson_timeout", sc.LessonTimeout)

	v.SetDefault("server.addr", "127.0.0.1:8765")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})
}

func readFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return nil
	}
	v.SetConfigName("config")
	v.AddConfigPath(filepath.Join(dir, "scholarly"))
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// adoptKey copies the discovered provider's key unless one is configured.
func adoptKey(dst *llm.Config, found llm.Config) {
	switch found.Provider {
	case llm.ProviderAnthropic:
		if dst.Anthropic.APIKey == "" {
			dst.Anthropic.APIKey = found.Anthropic.APIKey
		}
	case llm.ProviderOpenAI:
		if dst.OpenAI.APIKey == "" {
			dst.OpenAI.APIKey = found.OpenAI.APIKey
		}
	case llm.ProviderGemini:
		if dst.Gemini.APIKey == "" {
			dst.Gemini.APIKey = found.Gemini.APIKey
		}
	case llm.ProviderOpenRouter:
		if dst.OpenRouter.APIKey == "" {
			dst.OpenRouter.APIKey = found.OpenRouter.APIKey
		}
	}
}
