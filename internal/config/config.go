// Package config loads scholarly settings from defaults, an optional config
// file and SCHOLARLY_* environment variables.
package config

import (
	"time"

	"github.com/abhisek/scholarly/internal/llm"
	"github.com/abhisek/scholarly/internal/session"
)

// Config holds all application configuration.
type Config struct {
	// DBPath is the SQLite file. Empty selects the XDG data directory.
	DBPath string `mapstructure:"db"`

	Log     LogConfig     `mapstructure:"log"`
	LLM     llm.Config    `mapstructure:"llm"`
	Session SessionConfig `mapstructure:"session"`
	Server  ServerConfig  `mapstructure:"server"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=text json"`
}

// SessionConfig tunes question pacing.
type SessionConfig struct {
	MaxQuestions        int           `mapstructure:"max_questions" validate:"gte=1,lte=50"`
	PrefetchPacing      time.Duration `mapstructure:"prefetch_pacing" validate:"gte=0"`
	BackoffBase         time.Duration `mapstructure:"backoff_base" validate:"gt=0"`
	MaxPrefetchFailures int           `mapstructure:"max_prefetch_failures" validate:"gte=1"`
	LessonTimeout       time.Duration `mapstructure:"lesson_timeout" validate:"gt=0"`
}

// ServerConfig configures the read-only HTTP API.
type ServerConfig struct {
	Addr           string   `mapstructure:"addr" validate:"required,hostname_port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SessionSettings converts the session section for the orchestrator.
func (c *Config) SessionSettings() session.Config {
	return session.Config{
		MaxQuestions:        c.Session.MaxQuestions,
		PrefetchPacing:      c.Session.PrefetchPacing,
		BackoffBase:         c.Session.BackoffBase,
		MaxPrefetchFailures: c.Session.MaxPrefetchFailures,
		LessonTimeout:       c.Session.LessonTimeout,
	}
}
