package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"meet-notes-recorder/internal/config"
	"meet-notes-recorder/internal/host/mock"
	"meet-notes-recorder/internal/observability/metrics"
	"meet-notes-recorder/internal/recorder"
)

func testRouter() http.Handler {
	coordinator := recorder.NewCoordinator(
		mock.New(), nil, nil, nil,
		config.RecordingConfig{},
		metrics.DefaultMetrics,
		nil,
	)
	return NewRouter(coordinator, nil)
}

func TestRouter_Health(t *testing.T) {
	r := testRouter()

	for _, path := range []string{"/v1/liveness", "/v1/readiness"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestRouter_Metrics(t *testing.T) {
	r := testRouter()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 from /metrics, got %d", rec.Code)
	}
}

func TestRouter_StatusIdle(t *testing.T) {
	r := testRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/status", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Service string          `json:"service"`
		Active  bool            `json:"active"`
		Session json.RawMessage `json:"session"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding status: %v", err)
	}
	if resp.Service != "meet-notes-recorder" {
		t.Errorf("unexpected service name %q", resp.Service)
	}
	if resp.Active {
		t.Error("expected no active session")
	}
	if len(resp.Session) != 0 {
		t.Errorf("expected session to be omitted, got %s", resp.Session)
	}
}

func TestRouter_SessionsWithoutStore(t *testing.T) {
	r := testRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var sessions []json.RawMessage
	if err := json.NewDecoder(rec.Body).Decode(&sessions); err != nil {
		t.Fatalf("decoding sessions: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("expected empty list, got %d entries", len(sessions))
	}
}
