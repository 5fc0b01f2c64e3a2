package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareCountsByRoute(t *testing.T) {
	m := New()
	r := mux.NewRouter()
	r.Use(m.Middleware)
	r.HandleFunc("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", m.Handler())

	for _, p := range []string{"/items/1", "/items/2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	got := testutil.ToFloat64(m.RequestTotal.WithLabelValues(http.MethodGet, "/items/{id}", "404"))
	if got != 2 {
		t.Fatalf("expected 2 requests, got %v", got)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "http_request_duration_seconds") {
		t.Fatalf("histogram missing from exposition:\n%s", rec.Body.String())
	}
}

func TestStatusRecorder(t *testing.T) {
	base := httptest.NewRecorder()
	rec := NewStatusRecorder(base)
	if rec.Status != http.StatusOK {
		t.Fatalf("expected default 200, got %d", rec.Status)
	}
	if NewStatusRecorder(rec) != rec {
		t.Fatal("wrapping a recorder should reuse it")
	}
	rec.WriteHeader(http.StatusTeapot)
	if rec.Status != http.StatusTeapot || base.Code != http.StatusTeapot {
		t.Fatalf("status not recorded: %d / %d", rec.Status, base.Code)
	}
}
