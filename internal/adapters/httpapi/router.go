package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

type RouterOptions struct {
	// AuthMiddleware binds a user identity to the request context.
	AuthMiddleware func(http.Handler) http.Handler

	// RateLimit, when set, runs before auth. See NewRateLimitMiddleware.
	RateLimit func(http.Handler) http.Handler

	// AllowedOrigins feeds the CORS layer; empty means all origins, which
	// is only sensible for local development.
	AllowedOrigins []string

	Log *logrus.Logger
}

// NewRouterWithOptions constructs the API HTTP router: baseline chi
// middleware, CORS, optional rate limiting, auth, then the planner routes.
func NewRouterWithOptions(s *Server, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if opts.Log != nil {
		r.Use(newRequestLogger(opts.Log))
	}

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOriginsOrAll(opts.AllowedOrigins),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "Idempotency-Key", "X-Planner-User"},
		MaxAge:         300,
	})
	r.Use(c.Handler)

	if opts.RateLimit != nil {
		r.Use(opts.RateLimit)
	}
	if opts.AuthMiddleware != nil {
		r.Use(opts.AuthMiddleware)
	}

	// Health endpoint stays outside auth (the middleware skips it too).
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/trips", func(r chi.Router) {
		r.Get("/", s.handleListTrips)
		r.Route("/{tripID}", func(r chi.Router) {
			r.Get("/", s.handleGetTrip)
			r.Route("/activities", func(r chi.Router) {
				r.Get("/", s.handleListActivities)
				r.Post("/", s.handleCreateActivity)
				r.Route("/{activityID}", func(r chi.Router) {
					r.Delete("/", s.handleDeleteActivity)
					r.Put("/rsvp", s.handleSetRSVP)
				})
			})
		})
	})

	return r
}

func allowedOriginsOrAll(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func newRequestLogger(log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.WithFields(logrus.Fields{
				"method":    r.Method,
				"path":      r.URL.Path,
				"status":    ww.Status(),
				"duration":  time.Since(start).String(),
				"requestId": middleware.GetReqID(r.Context()),
			}).Info("request")
		})
	}
}
