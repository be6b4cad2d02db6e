// Package api serves a read-only JSON view of learner progress.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/abhisek/scholarly/internal/gamification"
	"github.com/abhisek/scholarly/internal/mastery"
	"github.com/abhisek/scholarly/internal/spacedrep"
	"github.com/abhisek/scholarly/internal/store"
)

// Handler serves the API endpoints.
type Handler struct {
	store     *store.Store
	engine    *gamification.Engine
	tracker   *mastery.Tracker
	scheduler *spacedrep.Scheduler
	logger    *slog.Logger
	now       func() time.Time
}

// NewHandler creates a Handler over s. engine supplies ranks, streaks and
// the daily goal.
func NewHandler(s *store.Store, engine *gamification.Engine, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:     s,
		engine:    engine,
		tracker:   mastery.NewTracker(s.Progress()),
		scheduler: spacedrep.NewScheduler(s.Reviews()),
		logger:    logger.With("component", "api"),
		now:       time.Now,
	}
}

// NewRouter wires the routes. allowedOrigins feeds the CORS policy; an
// empty list rejects cross-origin requests.
func NewRouter(h *Handler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", h.health)

	r.Route("/topics", func(r chi.Router) {
		r.Get("/", h.listTopics)
		r.Get("/{id}", h.getTopic)
		r.Get("/{id}/path", h.topicPath)
	})
	r.Get("/reviews/due", h.dueReviews)
	r.Get("/profile", h.profile)
	r.Get("/achievements", h.achievements)
	r.Get("/xp", h.xpLedger)

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(r)
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", chimiddleware.GetReqID(r.Context()))
	})
}
