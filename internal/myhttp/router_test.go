package myhttp_test

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"screenshot-verifier/internal/myhttp"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/metric/noop"
)

func newRouter(t *testing.T, output io.Writer) *myhttp.Router {
	t.Helper()
	histogram, err := noop.NewMeterProvider().Meter("test").Int64Histogram("http_requests_duration_micro_seconds")
	if err != nil {
		t.Fatalf("Failed to create histogram: %v", err)
	}
	return myhttp.NewRouter(slog.New(slog.NewJSONHandler(output, nil)), histogram)
}

func TestRouter_Middleware(t *testing.T) {
	var logs bytes.Buffer
	router := newRouter(t, &logs)
	router.HandleFuncWithMiddleware("GET /hello", func(w http.ResponseWriter, r *http.Request) {
		myhttp.Logger(r.Context()).Info("hello")
		_, _ = w.Write([]byte("world"))
	})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/hello", nil))

	if recorder.Code != http.StatusOK || recorder.Body.String() != "world" {
		t.Errorf("Unexpected response %d %q", recorder.Code, recorder.Body.String())
	}
	if !strings.Contains(logs.String(), `"traceid"`) {
		t.Errorf("Expected request log to carry a trace id, got %s", logs.String())
	}
}

func TestRouter_Recover(t *testing.T) {
	var logs bytes.Buffer
	router := newRouter(t, &logs)
	router.HandleFuncWithMiddleware("GET /panic", func(w http.ResponseWriter, r *http.Request) {
		panic(io.ErrUnexpectedEOF)
	})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/panic", nil))

	if recorder.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", recorder.Code)
	}
	if !strings.Contains(logs.String(), io.ErrUnexpectedEOF.Error()) {
		t.Errorf("Expected panic to be logged, got %s", logs.String())
	}
}
