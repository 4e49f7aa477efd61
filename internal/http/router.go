package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"gitea.jw6.us/james/calplanner/internal/config"
	"gitea.jw6.us/james/calplanner/internal/http/csrf"
	"gitea.jw6.us/james/calplanner/internal/http/ratelimit"
	"gitea.jw6.us/james/calplanner/internal/http/session"
	"gitea.jw6.us/james/calplanner/internal/metrics"
	"gitea.jw6.us/james/calplanner/internal/ui"
)

// HealthChecker reports whether the database is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// NewRouter wires all HTTP routes for the calendar UI.
func NewRouter(cfg *config.Config, db HealthChecker, gw ui.EventGateway, sessions *session.Manager) http.Handler {
	r := chi.NewRouter()

	// Writes: 10 requests per second, burst of 30
	writeRateLimiter := ratelimit.NewIPRateLimiter(rate.Limit(10), 30, 5*time.Minute, cfg.TrustedProxies)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(limitBody(ui.MaxUploadSize))
	r.Use(overrideMethod)
	r.Use(metrics.Middleware())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			http.Error(w, "unready", http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.PrometheusEnabled {
		r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			metrics.Handler().ServeHTTP(w, r)
		})
	}

	uiHandler := ui.NewHandler(cfg, gw, sessions)

	r.Group(func(r chi.Router) {
		r.Use(sessions.Middleware)
		r.Use(csrf.Middleware(cfg))

		r.Get("/", uiHandler.Index)
		r.Get("/events/new", uiHandler.NewEventForm)
		r.Get("/events/{id}", uiHandler.ShowEvent)
		r.Get("/events/{id}/edit", uiHandler.EditEventForm)
		r.Get("/events.ics", uiHandler.ExportICS)
		r.Get("/api/events", uiHandler.EventsJSON)

		// Panel and navigation state only lives in memory, so these skip the limiter.
		r.Post("/view", uiHandler.SetView)
		r.Post("/date", uiHandler.SetDate)
		r.Post("/month", uiHandler.SetMonth)
		r.Post("/sidebar/toggle", uiHandler.ToggleSidebar)
		r.Post("/events/summary/close", uiHandler.CloseSummary)
		r.Post("/events/form/close", uiHandler.CloseForm)

		r.Group(func(r chi.Router) {
			r.Use(writeRateLimiter.Middleware())

			r.Post("/events", uiHandler.CreateEvent)
			r.Put("/events/{id}", uiHandler.UpdateEvent)
			r.Delete("/events/{id}", uiHandler.DeleteEvent)
			r.Post("/events/{id}/delete", uiHandler.DeleteEvent) // HTML form fallback
			r.Post("/events/import", uiHandler.ImportICS)
		})
	})

	return r
}

// limitBody caps request bodies at n bytes. It runs before anything parses a
// form so the cap also holds for the _method and CSRF lookups.
func limitBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > n {
				http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func overrideMethod(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := r.Method
		if r.Method == http.MethodPost {
			if m := strings.TrimSpace(r.PostFormValue("_method")); m != "" {
				method = m
			} else if m := strings.TrimSpace(r.URL.Query().Get("_method")); m != "" {
				method = m
			}
		}
		switch strings.ToUpper(method) {
		case http.MethodPut, http.MethodDelete:
			r.Method = strings.ToUpper(method)
		}
		next.ServeHTTP(w, r)
	})
}
