package services_test

import (
	"errors"
	"testing"

	"scribe/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("ffmpeg exited 1")
	err := services.Wrap(services.ErrExternalTool, "extract", "ffmpeg", "audio extraction failed", base)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected wrapped error to match marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to retain cause, got %v", err)
	}
}

func TestIsFatal(t *testing.T) {
	if services.IsFatal(services.Wrap(services.ErrExternalTool, "transcribe", "", "", nil)) {
		t.Fatal("external tool errors should be retryable")
	}
	if !services.IsFatal(services.Wrap(services.ErrConfiguration, "startup", "", "bot token missing", nil)) {
		t.Fatal("configuration errors should be fatal")
	}
}
