// Package app wires the store, LLM provider, content generator, reward
// engine and session orchestrator from a loaded configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/abhisek/scholarly/internal/config"
	"github.com/abhisek/scholarly/internal/content"
	"github.com/abhisek/scholarly/internal/gamification"
	"github.com/abhisek/scholarly/internal/llm"
	"github.com/abhisek/scholarly/internal/session"
	"github.com/abhisek/scholarly/internal/store"
)

// ErrNoProvider is returned by RequireGenerator when no LLM is configured.
var ErrNoProvider = errors.New("LLM provider not configured")

// App holds the long-lived dependencies of one command invocation.
type App struct {
	Config *config.Config
	Store  *store.Store
	Engine *gamification.Engine
	Logger *slog.Logger

	// Generator is nil when the provider could not be built, and so is
	// Orchestrator unless Options.Offline was set.
	Generator    content.Generator
	Orchestrator *session.Orchestrator
	ProviderErr  error
}

// Options overrides parts of the wiring, mostly for tests.
type Options struct {
	// Generator replaces the LLM-backed generator.
	Generator content.Generator
	// Observer receives session events.
	Observer session.Observer
	// Offline builds the orchestrator even without a provider, over a
	// generator that fails every call. Review sessions need nothing else.
	Offline bool
}

// New opens the database at dbPath and builds the dependencies. A missing
// or invalid provider is recorded in ProviderErr rather than failing.
func New(ctx context.Context, cfg *config.Config, dbPath string, logger *slog.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	a := &App{
		Config: cfg,
		Store:  st,
		Engine: gamification.New(st.Profile(), st.Stats(), gamification.WithLogger(logger)),
		Logger: logger,
	}

	a.Generator = opts.Generator
	if a.Generator == nil {
		provider, err := llm.NewProvider(ctx, cfg.LLM, st.EventRepo(), logger)
		if err != nil {
			a.ProviderErr = err
			logger.Debug("LLM provider unavailable", "error", err)
		} else {
			a.Generator = content.New(provider, content.DefaultConfig(), logger)
		}
	}

	gen := a.Generator
	if gen == nil && opts.Offline {
		gen = content.Unavailable{Err: a.RequireGenerator()}
	}
	if gen != nil {
		a.Orchestrator = session.New(session.Deps{
			Store:     st,
			Generator: gen,
			Engine:    a.Engine,
			Logger:    logger,
			Observer:  opts.Observer,
		}, cfg.SessionSettings())
	}
	return a, nil
}

// RequireGenerator returns an error explaining why content cannot be
// generated, or nil when it can.
func (a *App) RequireGenerator() error {
	if a.Generator != nil {
		return nil
	}
	if a.ProviderErr != nil {
		return fmt.Errorf("%w: %v", ErrNoProvider, a.ProviderErr)
	}
	return ErrNoProvider
}

// Close ends any running session, waits for background lesson writes and
// closes the store.
func (a *App) Close(ctx context.Context) error {
	if a.Orchestrator != nil {
		a.Orchestrator.Close(ctx)
	}
	return a.Store.Close()
}
