package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/wolfman30/patient-search-assistant/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/patient-search-assistant/internal/http/middleware"
	"github.com/wolfman30/patient-search-assistant/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Chat               *handlers.ChatHandler
	Search             *handlers.SearchHandler
	Health             *handlers.HealthHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// RateLimiter throttles the endpoints that reach the LLM or the record
	// store. Nil disables throttling.
	RateLimiter *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	if cfg.Chat == nil {
		panic("router: chat handler cannot be nil")
	}
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/", cfg.Chat.Index)
	if cfg.Health != nil {
		r.Get("/health", cfg.Health.Health)
	}
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Group(func(api chi.Router) {
		api.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
		api.Post("/chat", cfg.Chat.Chat)
		if cfg.Search != nil {
			api.Post("/search", cfg.Search.Search)
			api.Post("/extract", cfg.Search.Extract)
			api.Get("/patients/{id}", cfg.Search.GetPatient)
		}
	})

	return r
}
