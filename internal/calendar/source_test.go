package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"daybook/internal/logging"
	"daybook/internal/services"
)

var (
	dayStart = time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	dayEnd   = dayStart.AddDate(0, 0, 1)
)

func writeSnapshot(t *testing.T, path string, events []Event) {
	t.Helper()
	data, err := json.Marshal(snapshot{GeneratedAt: time.Now(), Events: events})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func sampleEvents() []Event {
	return []Event{
		{
			ID:    "evt-2",
			Title: "Acme sync",
			Start: dayStart.Add(14 * time.Hour),
			End:   dayStart.Add(15 * time.Hour),
			Attendees: []Attendee{
				{Email: "operator@internal.test"},
				{Email: "pat@acme.com"},
			},
		},
		{
			ID:    "evt-1",
			Title: "Focus block",
			Start: dayStart.Add(9 * time.Hour),
			End:   dayStart.Add(10 * time.Hour),
		},
		{
			ID:    "evt-3",
			Title: "Out of window",
			Start: dayEnd.Add(2 * time.Hour),
			End:   dayEnd.Add(3 * time.Hour),
		},
	}
}

func TestFileSourceFiltersAndSorts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calendar.json")
	writeSnapshot(t, path, sampleEvents())

	events, err := NewFileSource(path).Events(context.Background(), dayStart, dayEnd)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d", len(events))
	}
	if events[0].ID != "evt-1" || events[1].ID != "evt-2" {
		t.Fatalf("order: %s, %s", events[0].ID, events[1].ID)
	}
}

func TestFileSourceMissingIsSourceUnavailable(t *testing.T) {
	_, err := NewFileSource(filepath.Join(t.TempDir(), "gone.json")).
		Events(context.Background(), dayStart, dayEnd)
	if !errors.Is(err, services.ErrSourceUnavailable) {
		t.Fatalf("expected degraded-source error, got %v", err)
	}
}

func TestCachedSourceFallsBack(t *testing.T) {
	cacheDir := t.TempDir()
	exportPath := filepath.Join(t.TempDir(), "calendar.json")
	writeSnapshot(t, exportPath, sampleEvents())

	src := NewCachedSource(NewFileSource(exportPath), cacheDir, logging.NewNop())
	if _, err := src.Events(context.Background(), dayStart, dayEnd); err != nil {
		t.Fatalf("priming read: %v", err)
	}

	// Export disappears; cache keeps the run alive.
	if err := os.Remove(exportPath); err != nil {
		t.Fatal(err)
	}
	events, err := src.Events(context.Background(), dayStart, dayEnd)
	if err != nil {
		t.Fatalf("cached read: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("cached events = %d", len(events))
	}
}

func TestCachedSourceBothFailing(t *testing.T) {
	src := NewCachedSource(NewFileSource(""), t.TempDir(), logging.NewNop())
	_, err := src.Events(context.Background(), dayStart, dayEnd)
	if !errors.Is(err, services.ErrSourceUnavailable) {
		t.Fatalf("expected degraded-source error, got %v", err)
	}
}

func TestEventHelpers(t *testing.T) {
	event := sampleEvents()[0]
	domains := event.ExternalDomains([]string{"internal.test"}, "operator@internal.test")
	if len(domains) != 1 || domains[0] != "acme.com" {
		t.Fatalf("external domains: %v", domains)
	}
	if event.OnlyOperator("operator@internal.test") {
		t.Fatal("meeting with external attendee marked operator-only")
	}
	solo := sampleEvents()[1]
	if !solo.OnlyOperator("operator@internal.test") {
		t.Fatal("attendee-less event not operator-only")
	}
	if !event.Ended(dayEnd) || event.Ended(dayStart) {
		t.Fatal("Ended comparison wrong")
	}
}
