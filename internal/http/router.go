// Package http exposes the operational HTTP surface: health probes,
// Prometheus metrics, and a read-only view of the session state.
package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"meet-notes-recorder/internal/observability/logging"
	"meet-notes-recorder/internal/recorder"
	"meet-notes-recorder/internal/store"
	"meet-notes-recorder/internal/version"
)

// NewRouter constructs the HTTP router. sessions may be nil when no
// session database is configured; /v1/sessions then returns an empty
// list.
func NewRouter(coordinator *recorder.Coordinator, sessions *store.Store) http.Handler {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", statusHandler(coordinator))
		r.Get("/sessions", sessionsHandler(sessions))
	})

	return r
}

type statusResponse struct {
	Service string                  `json:"service"`
	Version string                  `json:"version"`
	Active  bool                    `json:"active"`
	Session *recorder.SessionStatus `json:"session,omitempty"`
}

func statusHandler(coordinator *recorder.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := statusResponse{
			Service: "meet-notes-recorder",
			Version: version.Version,
		}
		if status, ok := coordinator.Status(); ok {
			resp.Active = true
			resp.Session = &status
		}
		writeJSON(w, resp)
	}
}

func sessionsHandler(sessions *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}

		list := []store.Session{}
		if sessions != nil {
			recent, err := sessions.ListRecent(r.Context(), limit)
			if err != nil {
				httpLog := logging.WithComponent("http")
				httpLog.Error().Err(err).Msg("Listing sessions failed")
				http.Error(w, `{"error": "session lookup failed"}`, http.StatusInternalServerError)
				return
			}
			if recent != nil {
				list = recent
			}
		}
		writeJSON(w, list)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}
