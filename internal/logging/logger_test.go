package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewConsoleFormat(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "run.log")

	logger, err := New(Options{Level: "debug", Format: "console", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("scan complete", String("source", "/music"), Int("jobs", 12))
	logger.Debug("detail line")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if !strings.Contains(out, "INFO scan complete") {
		t.Fatalf("missing info line: %q", out)
	}
	if !strings.Contains(out, "source=/music") || !strings.Contains(out, "jobs=12") {
		t.Fatalf("missing attrs: %q", out)
	}
	if !strings.Contains(out, "DEBUG detail line") {
		t.Fatalf("debug level not honored: %q", out)
	}
}

func TestNewComponentPrefix(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "run.log")

	logger, err := New(Options{Format: "console", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	NewComponentLogger(logger, "dispatcher").Info("pool started")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "dispatcher: pool started") {
		t.Fatalf("component prefix missing: %q", data)
	}
}

func TestNewJSONFormat(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "run.log")

	logger, err := New(Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Warn("lock contention", String("path", "/tmp/x.lock"))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	for _, want := range []string{`"level":"warn"`, `"msg":"lock contention"`, `"path":"/tmp/x.lock"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %s in %q", want, out)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestParseLevelFallsBackToInfo(t *testing.T) {
	if got := parseLevel("noisy"); got != slog.LevelInfo {
		t.Fatalf("parseLevel = %v, want info", got)
	}
}
