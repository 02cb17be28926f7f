// Package router assembles the chi router from configured handlers.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/duneview/booking-assistant/internal/http/handlers"
	httpmiddleware "github.com/duneview/booking-assistant/internal/http/middleware"
	"github.com/duneview/booking-assistant/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger              *logging.Logger
	CalendarHandler     *handlers.CalendarHandler
	AvailabilityHandler *handlers.AvailabilityHandler
	NarrowHandler       *handlers.NarrowHandler
	ChatHandler         *handlers.ChatHandler
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", cfg.CalendarHandler.HealthCheck)
	r.Post("/calendar/refresh", cfg.CalendarHandler.Refresh)

	r.Route("/availability", func(r chi.Router) {
		r.Get("/", cfg.AvailabilityHandler.CheckExact)
		r.Get("/alternatives", cfg.AvailabilityHandler.Alternatives)
		r.Get("/month", cfg.AvailabilityHandler.Month)
	})

	r.Post("/narrow", cfg.NarrowHandler.Narrow)
	r.Post("/chat", cfg.ChatHandler.Chat)

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}
