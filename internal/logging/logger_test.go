package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestConsoleHandlerHeadlineAndFields(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, levelVar))
	logger = NewComponentLogger(logger, "archive")

	logger.Info("archived day", Args(Int("moved", 3), String("date", "2026-08-28"))...)

	out := buf.String()
	if !strings.Contains(out, "[archive]") {
		t.Fatalf("component missing from headline: %q", out)
	}
	if !strings.Contains(out, "archived day") {
		t.Fatalf("message missing: %q", out)
	}
	if !strings.Contains(out, "- moved: 3") || !strings.Contains(out, "- date: 2026-08-28") {
		t.Fatalf("fields missing: %q", out)
	}
}

func TestWarnInjectsStandardFields(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, levelVar))

	Warn(logger, "calendar export unavailable", "source_unavailable")

	out := buf.String()
	for _, key := range []string{FieldEventType, FieldErrorHint, FieldImpact} {
		if !strings.Contains(out, key) {
			t.Fatalf("missing %s in %q", key, out)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelWarn)
	logger := slog.New(newConsoleHandler(&buf, levelVar))

	logger.Info("quiet")
	if buf.Len() != 0 {
		t.Fatalf("info logged below level: %q", buf.String())
	}
	logger.Warn("loud")
	if !strings.Contains(buf.String(), "loud") {
		t.Fatalf("warn suppressed: %q", buf.String())
	}
}
