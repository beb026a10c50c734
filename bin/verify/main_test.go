package main

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	diffimage "screenshot-verifier/internal/diff/image"
	"screenshot-verifier/internal/source"
	"screenshot-verifier/internal/storage"
	"screenshot-verifier/internal/verify"
	"testing"

	"github.com/go-logr/logr"
	"github.com/google/go-cmp/cmp"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		in   string
		want Target
	}{
		{"home=/tmp/shots/home.png", Target{Name: "home", Location: "/tmp/shots/home.png"}},
		{"/tmp/shots/settings.png", Target{Name: "settings", Location: "/tmp/shots/settings.png"}},
		{"https://example.com/shots/home.png", Target{Name: "home", Location: "https://example.com/shots/home.png"}},
		{"Home/en=https://example.com/home.png?size=2", Target{Name: "Home/en", Location: "https://example.com/home.png?size=2"}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, parseTarget(tt.in)); diff != "" {
			t.Errorf("%s (-want +got):\n%s", tt.in, diff)
		}
	}
}

func writeScreenshot(t *testing.T, dir string, name string, img *image.NRGBA) string {
	t.Helper()
	var buffer bytes.Buffer
	if err := png.Encode(&buffer, img); err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	path := filepath.Join(dir, name+".png")
	if err := os.WriteFile(path, buffer.Bytes(), 0644); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}
	return path
}

func TestRunner_Run(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := storage.NewFileStorage(ctx, storage.FileConfig{Directory: filepath.Join(dir, "artifacts")})
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	white := diffimage.NewUniformBuffer(diffimage.White, 4, 4).Image()
	changed := diffimage.NewUniformBuffer(diffimage.White, 4, 4).Image()
	changed.Set(0, 0, diffimage.Black)

	targets := []Target{
		{Name: "home", Location: writeScreenshot(t, dir, "home", white)},
		{Name: "settings", Location: writeScreenshot(t, dir, "settings", white)},
	}

	runner := &Runner{
		Verifier: &verify.Verifier{
			Storage:    s,
			Log:        logr.Discard(),
			Strategy:   diffimage.Strict{},
			Threshold:  verify.DefaultThreshold,
			RecordMode: true,
		},
		Loader: source.NewLoader(),
		Log:    logr.Discard(),
	}

	if _, err := runner.Run(ctx, targets); !errors.Is(err, verify.ErrRecordMode) {
		t.Fatalf("Expected ErrRecordMode, got %v", err)
	}

	runner.Verifier.RecordMode = false
	targets[1].Location = writeScreenshot(t, dir, "settings-changed", changed)

	reports, err := runner.Run(ctx, targets)
	if !errors.Is(err, verify.ErrNoMatch) {
		t.Fatalf("Expected ErrNoMatch, got %v", err)
	}
	if !reports[0].Passed || reports[1].Passed {
		t.Errorf("Expected only home to pass, got %+v and %+v", reports[0], reports[1])
	}
	if reports[1].DiffAmount != 1.0/16.0 {
		t.Errorf("Expected settings to differ by 1/16, got %f", reports[1].DiffAmount)
	}
}
