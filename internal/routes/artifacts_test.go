package routes_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"screenshot-verifier/internal/routes"
	"screenshot-verifier/internal/storage"
	"testing"
)

func TestGetArtifact(t *testing.T) {
	ctx := context.Background()
	s, err := storage.NewFileStorage(ctx, storage.FileConfig{Directory: t.TempDir()})
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	if _, err := s.Put(ctx, "Reference/home.png", []byte("\x89PNG\r\n\x1a\n")); err != nil {
		t.Fatalf("Failed to put artifact: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /artifacts/{key...}", routes.GetArtifact(s))

	t.Run("Found", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		mux.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/artifacts/Reference/home.png", nil))

		if recorder.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", recorder.Code)
		}
		if got := recorder.Header().Get("Content-Type"); got != "image/png" {
			t.Errorf("Expected image/png, got %s", got)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		mux.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/artifacts/Reference/missing.png", nil))

		if recorder.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", recorder.Code)
		}
	})
}
