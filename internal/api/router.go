package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Dependencies are the collaborators the router wires into handlers.
type Dependencies struct {
	Newsletter NewsletterService
	Limiter    RateLimiter
	Posts      PostSource
	Contact    ContactMailer
	Backends   map[string]Pinger
	BaseURL    string
	Logger     *slog.Logger
}

// NewRouter creates and configures the HTTP router.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	r.Use(corsMiddleware)

	newsletterHandler := NewNewsletterHandler(deps.Newsletter, deps.Limiter, deps.Posts, deps.BaseURL, deps.Logger)
	contactHandler := NewContactHandler(deps.Contact, deps.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", HealthHandler(Version, deps.Backends))

		r.Route("/newsletter", func(r chi.Router) {
			r.Post("/subscribe", newsletterHandler.Subscribe)
			r.Get("/confirm", newsletterHandler.Confirm)
			r.Get("/unsubscribe", newsletterHandler.Unsubscribe)
			r.Post("/send", newsletterHandler.Send)
		})

		r.Post("/contact", contactHandler.Send)
	})

	r.Get("/{lang}/newsletter/status", StatusPageHandler(deps.Logger))

	return r
}

// corsMiddleware lets the site's frontend call the API from another origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
