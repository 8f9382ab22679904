package overview

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"daybook/internal/prep"
)

func TestLoadMissingFileReturnsEmptyTable(t *testing.T) {
	table, err := Load(filepath.Join(t.TempDir(), "week-35-overview.md"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(table.Rows()) != 0 {
		t.Fatalf("expected no rows, got %d", len(table.Rows()))
	}
}

func TestUpsertAndSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "week-35-overview.md")
	table := New(path, 35)
	table.Upsert(Row{Day: "Mon", Meeting: "Acme sync", Time: "14:00", Category: "customer", Status: prep.StatusPrepNeeded.Icon(), Type: "sync"})
	table.Upsert(Row{Day: "Tue", Meeting: "Planning", Time: "09:00", Category: "internal", Status: prep.StatusDone.Icon(), Type: "recurring"})
	if err := table.Save(); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	rows := reloaded.Rows()
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Meeting != "Acme sync" || rows[0].Category != "customer" {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
}

func TestUpsertReplacesExistingRowByKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "week-35-overview.md")
	table := New(path, 35)
	table.Upsert(Row{Day: "Mon", Meeting: "Acme sync", Time: "14:00", Category: "customer"})
	table.Upsert(Row{Day: "mon", Meeting: "acme sync", Time: "15:00", Category: "customer"})
	rows := table.Rows()
	if len(rows) != 1 {
		t.Fatalf("expected upsert to replace, got %d rows", len(rows))
	}
	if rows[0].Time != "15:00" {
		t.Fatalf("expected updated time, got %q", rows[0].Time)
	}
}

func TestManualEditsSurviveUnrelatedUpdates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "week-35-overview.md")
	manual := "| Mon | Acme sync | 14:00 | customer | 📖 | sync — bring the renewal doc |"
	content := strings.Join([]string{
		"# Week 35 Overview",
		"",
		"Notes typed by hand stay put.",
		"",
		"| Day | Meeting | Time | Category | Prep | Type |",
		"| --- | --- | --- | --- | --- | --- |",
		manual,
		"| Tue | Planning | 09:00 | internal | 📝 | recurring |",
		"",
		"Trailing free-form section.",
	}, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("seed overview: %v", err)
	}

	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !table.SetStatus("Tue", "Planning", prep.StatusDone) {
		t.Fatal("expected SetStatus to find the row")
	}
	if err := table.Save(); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved overview: %v", err)
	}
	saved := string(data)
	if !strings.Contains(saved, manual) {
		t.Fatalf("manual row was rewritten:\n%s", saved)
	}
	if !strings.Contains(saved, "Notes typed by hand stay put.") {
		t.Fatal("preamble lost")
	}
	if !strings.Contains(saved, "Trailing free-form section.") {
		t.Fatal("trailer lost")
	}
	if !strings.Contains(saved, "| Tue | Planning | 09:00 | internal | "+prep.StatusDone.Icon()+" | recurring |") {
		t.Fatalf("status update missing:\n%s", saved)
	}
}

func TestSetStatusMissingRow(t *testing.T) {
	table := New(filepath.Join(t.TempDir(), "week-01-overview.md"), 1)
	if table.SetStatus("Fri", "Nope", prep.StatusDone) {
		t.Fatal("expected SetStatus to report missing row")
	}
}
