package runnable

import (
	"log/slog"
	"testing"
	"time"
)

func TestEnvOrDefaultValue(t *testing.T) {
	t.Setenv("TEST_THRESHOLD", "0.05")
	t.Setenv("TEST_RECORD_MODE", "true")
	t.Setenv("TEST_LAMEDUCK", "3s")
	t.Setenv("TEST_MAX_CONNECTIONS", "not a number")

	if got := EnvOrDefaultValue("TEST_THRESHOLD", 0.01); got != 0.05 {
		t.Errorf("Expected 0.05, got %f", got)
	}
	if got := EnvOrDefaultValue("TEST_RECORD_MODE", false); !got {
		t.Errorf("Expected true, got %v", got)
	}
	if got := EnvOrDefaultValue("TEST_LAMEDUCK", time.Second); got != 3*time.Second {
		t.Errorf("Expected 3s, got %s", got)
	}
	if got := EnvOrDefaultValue("TEST_MAX_CONNECTIONS", 10); got != 10 {
		t.Errorf("Expected default on unparsable value, got %d", got)
	}
	if got := EnvOrDefaultValue("TEST_UNSET", "strict"); got != "strict" {
		t.Errorf("Expected default, got %s", got)
	}
}

func TestNewLogger(t *testing.T) {
	t.Setenv("GO_LOG", "debug")
	logger, err := NewLogger(false)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !logger.Handler().Enabled(t.Context(), slog.LevelDebug) {
		t.Errorf("Expected debug level to be enabled")
	}

	t.Setenv("GO_LOG", "loud")
	if _, err := NewLogger(false); err == nil {
		t.Errorf("Expected error for unknown level")
	}
}
