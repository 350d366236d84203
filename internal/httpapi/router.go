package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"queryquest/internal/auth"
)

type RouterOptions struct {
	// QueryRateLimit caps POST /api/query per client IP per minute. Zero or
	// less disables limiting.
	QueryRateLimit int
	// Metrics is mounted at /metrics when non-nil.
	Metrics     http.Handler
	MaxLogBytes int
}

func NewRouter(service QuestService, tokens *auth.Tokens, opts RouterOptions) http.Handler {
	api := NewAPI(service)
	requireAuth := tokens.Middleware(writeAuthError)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(opts.MaxLogBytes))
	r.Use(middleware.Recoverer)
	r.NotFound(writeNotFound)
	r.MethodNotAllowed(writeMethodNotAllowed)

	r.Get("/health", api.HandleHealth)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if limiter := queryRateLimiter(opts.QueryRateLimit); limiter != nil {
				r.Use(limiter)
			}
			r.Use(requireAuth)
			r.Post("/query", api.HandleQuery)
			r.Post("/query/", api.HandleQuery)
		})

		r.Get("/missions", api.HandleMissions)
		r.Get("/missions/{id}", api.HandleMission)
		r.Get("/rankings", api.HandleRankings)

		r.Route("/help", func(r chi.Router) {
			r.Get("/examples", api.HandleExamples)
			r.Get("/hints", api.HandleHints)
			r.Get("/template/{missionId}", api.HandleTemplate)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/progress", api.HandleProgress)
			r.Post("/progress/reset", api.HandleResetProgress)
			r.Get("/progress/history", api.HandleHistory)
			r.Get("/auth/profile", api.HandleProfile)
		})
	})

	return r
}

func queryRateLimiter(limit int) func(http.Handler) http.Handler {
	if limit <= 0 {
		return nil
	}
	return httprate.Limit(
		limit,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusTooManyRequests, feedbackResponse{
				Feedback: "Too many queries. Please wait a minute before trying again.",
			})
		}),
	)
}
