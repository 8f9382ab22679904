package directive

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"daybook/internal/services"
)

func sample() *Directive {
	return &Directive{
		Schema:      SchemaVersion,
		RunID:       uuid.NewString(),
		Date:        "2026-08-28",
		GeneratedAt: time.Date(2026, time.August, 28, 7, 0, 0, 0, time.UTC),
		Meetings: []Meeting{{
			ID:         "evt-1",
			Title:      "Acme renewal sync",
			Start:      time.Date(2026, time.August, 28, 14, 0, 0, 0, time.UTC),
			End:        time.Date(2026, time.August, 28, 15, 0, 0, 0, time.UTC),
			Category:   "customer",
			Entity:     "acme",
			PrepStatus: "needs_agenda",
		}},
		Actions: []Action{{Title: "Send renewal deck", Due: "2026-08-28"}},
		EnrichmentTasks: []EnrichmentTask{
			{ID: "task-1", Type: TaskMeetingPrep, Input: map[string]any{"meeting_id": "evt-1"}},
			{ID: "task-2", Type: TaskDailyBrief},
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "directive.json")
	d := sample()
	if err := Save(path, d); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.RunID != d.RunID || len(loaded.EnrichmentTasks) != 2 {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
	if _, ok := loaded.Task("task-2"); !ok {
		t.Fatal("Task lookup failed")
	}
	if _, ok := loaded.MeetingByID("evt-1"); !ok {
		t.Fatal("MeetingByID lookup failed")
	}
}

func TestLoadMissingIsNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "directive.json"))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestValidateRejectsBadTask(t *testing.T) {
	d := sample()
	d.EnrichmentTasks = append(d.EnrichmentTasks, EnrichmentTask{ID: "task-3", Type: "make_coffee"})
	if err := d.Validate(); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	d = sample()
	d.EnrichmentTasks = append(d.EnrichmentTasks, EnrichmentTask{ID: "task-1", Type: TaskDraftAgenda})
	if err := d.Validate(); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("duplicate task id must fail, got %v", err)
	}
}

func TestLoadRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "directive.json")
	d := sample()
	d.Schema = 99
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestRetireMovesIntoArchive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "directive.json")
	archive := filepath.Join(dir, "archive", "2026-08-28")
	if err := Save(path, sample()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := Retire(path, archive, true); err != nil {
		t.Fatalf("Retire keep: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatal("keep must leave the directive in place")
	}

	if err := Retire(path, archive, false); err != nil {
		t.Fatalf("Retire: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("directive should be moved away")
	}
	if _, err := os.Stat(filepath.Join(archive, "directive.json")); err != nil {
		t.Fatalf("archived directive missing: %v", err)
	}

	// Retiring again with no directive is a no-op.
	if err := Retire(path, archive, false); err != nil {
		t.Fatalf("second Retire: %v", err)
	}
}
