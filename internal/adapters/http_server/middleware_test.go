package httpserver

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

func TestLogger_ScopesRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	m := chi.NewRouter()
	m.Use(chimw.RequestID)
	m.Use(Logger(base))
	m.Get("/v1/things/{id}", func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Info().Msg("inside")
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/things/7", nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %q", buf.String())
	}
	if !strings.Contains(lines[0], `"request_id"`) || !strings.Contains(lines[0], `"inside"`) {
		t.Fatalf("handler log lacks request id: %s", lines[0])
	}
	if !strings.Contains(lines[1], `"route":"/v1/things/{id}"`) || !strings.Contains(lines[1], `"status":418`) {
		t.Fatalf("unexpected access log: %s", lines[1])
	}
}

func TestTimeout_ProblemBody(t *testing.T) {
	h := Timeout(10 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), `"title":"Timeout"`) {
		t.Fatalf("unexpected %d %q", rec.Code, rec.Body.String())
	}
}

func TestRemoteIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
	if got := remoteIP(r); got != "10.0.0.1" {
		t.Fatalf("got %s", got)
	}
}
