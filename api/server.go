/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend
  5. requireUser: Resolves the caller from the X-User-ID header
  6. throttle:   Per-user rate limiting on mutating requests

ROUTE GROUPS:
  /api/credentials/*    Credential management + bulk submission
  /api/activities/*     Learning activity management
  /api/links/*          Per-link submission state
  /api/health           Liveness probe

RATE LIMITING:
  The limiter is injected (ratelimit.Limiter), keyed by user. Only
  mutating methods are throttled; reads stay cheap. A rejected request
  gets 429 without reaching the handler.

SEE ALSO:
  - handlers.go: Handler implementations
  - ratelimit: The limiter abstraction
  - cmd/server/main.go: Server startup
*/
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/credtrack/cpd-engine/engine"
	"github.com/credtrack/cpd-engine/ratelimit"
)

// userIDHeader carries the authenticated caller's identity, set by the
// reverse proxy in front of this service.
const userIDHeader = "X-User-ID"

type contextKey string

const userIDKey contextKey = "userID"

// callerID returns the authenticated user for a request. requireUser
// guarantees it is set on every /api route.
func callerID(r *http.Request) engine.UserID {
	id, _ := r.Context().Value(userIDKey).(engine.UserID)
	return id
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, limiter ratelimit.Limiter) *chi.Mux {
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", userIDHeader},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Group(func(r chi.Router) {
			r.Use(requireUser)
			r.Use(throttle(limiter))

			// Credential routes
			r.Route("/credentials", func(r chi.Router) {
				r.Get("/", h.ListCredentials)
				r.Post("/", h.CreateCredential)
				r.Get("/{id}", h.GetCredential)
				r.Put("/{id}", h.UpdateCredential)
				r.Delete("/{id}", h.DeleteCredential)
				r.Post("/{id}/submissions/bulk", h.BulkSubmit)
			})

			// Activity routes
			r.Route("/activities", func(r chi.Router) {
				r.Get("/", h.ListActivities)
				r.Post("/", h.LogActivity)
				r.Get("/{id}", h.GetActivity)
				r.Put("/{id}", h.UpdateActivity)
				r.Delete("/{id}", h.DeleteActivity)
			})

			// Link submission routes
			r.Route("/links", func(r chi.Router) {
				r.Put("/{id}/submission", h.SetSubmission)
			})
		})
	})

	return r
}

// requireUser resolves the caller from the X-User-ID header and stores
// it on the request context. Requests without an identity are rejected.
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(userIDHeader)
		if id == "" {
			writeError(w, http.StatusUnauthorized, "Missing "+userIDHeader+" header", nil)
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, engine.UserID(id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// throttle consults the injected limiter for mutating requests, keyed
// by the caller. Reads pass through unthrottled.
func throttle(limiter ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodDelete:
				if !limiter.Allow(string(callerID(r))) {
					writeError(w, http.StatusTooManyRequests, "Rate limit exceeded", engine.ErrRateLimited)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
