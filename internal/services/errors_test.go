package services

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	cause := errors.New("exit status 1")
	err := Wrap(ErrExternalTool, "encode", "run ffmpeg", "encoder exited abnormally", cause)

	if !errors.Is(err, ErrExternalTool) {
		t.Fatal("marker not preserved")
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause not preserved")
	}
	if !strings.Contains(err.Error(), "encode: run ffmpeg: encoder exited abnormally") {
		t.Fatalf("detail missing: %v", err)
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "scan", "", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestWrapEmptyDetail(t *testing.T) {
	err := Wrap(ErrValidation, "", "", "", nil)
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %v", err)
	}
}

func TestIsFatal(t *testing.T) {
	if !IsFatal(Wrap(ErrConfiguration, "capacity", "", "insufficient space", nil)) {
		t.Fatal("configuration errors are fatal")
	}
	if !IsFatal(Wrap(ErrNotFound, "deps", "", "ffmpeg missing", nil)) {
		t.Fatal("not-found errors are fatal")
	}
	if IsFatal(Wrap(ErrExternalTool, "encode", "", "", nil)) {
		t.Fatal("encoder failures are per-job, not fatal")
	}
}
