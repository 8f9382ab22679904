package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"daybook/internal/logging"
	"daybook/internal/testsupport"
	"daybook/internal/workspace"
)

var refDay = time.Date(2026, 8, 28, 7, 0, 0, 0, time.UTC)

func newManager(t *testing.T) (*Manager, *workspace.Workspace) {
	t.Helper()
	ws := workspace.New(testsupport.NewConfig(t))
	if err := ws.EnsureLayout(); err != nil {
		t.Fatal(err)
	}
	return NewManager(ws, logging.NewNop()), ws
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestArchiveDayMovesEphemeralOnly(t *testing.T) {
	m, ws := newManager(t)
	write(t, filepath.Join(ws.TodayDir(), "brief.md"), "brief")
	write(t, filepath.Join(ws.TodayDir(), "agendas", "acme.md"), "agenda")
	write(t, filepath.Join(ws.TasksDir(), "actions.md"), "tasks")
	write(t, ws.WeekPlanPath(35), "plan")

	res, err := m.ArchiveDay(context.Background(), refDay)
	if err != nil {
		t.Fatalf("ArchiveDay: %v", err)
	}
	if res.Archived != 2 {
		t.Fatalf("archived = %d", res.Archived)
	}

	// Sub-path preserved.
	archived := filepath.Join(ws.ArchiveDayDir(refDay), "agendas", "acme.md")
	if _, err := os.Stat(archived); err != nil {
		t.Fatalf("agenda not archived: %v", err)
	}
	// Persistent artifacts untouched.
	if _, err := os.Stat(filepath.Join(ws.TasksDir(), "actions.md")); err != nil {
		t.Fatal("task list moved by daily archival")
	}
	if _, err := os.Stat(ws.WeekPlanPath(35)); err != nil {
		t.Fatal("week plan moved by daily archival")
	}
	// Working directory contains no ephemeral-daily leftovers.
	daily, err := ws.ListDaily()
	if err != nil {
		t.Fatal(err)
	}
	if len(daily) != 0 {
		t.Fatalf("leftover daily artifacts: %v", daily)
	}
}

func TestArchiveDayEmptyIsNoOp(t *testing.T) {
	m, _ := newManager(t)
	res, err := m.ArchiveDay(context.Background(), refDay)
	if err != nil {
		t.Fatalf("ArchiveDay on empty workspace: %v", err)
	}
	if !res.NothingToArchive() {
		t.Fatalf("expected nothing to archive, got %+v", res)
	}
}

func TestArchiveDayIdempotent(t *testing.T) {
	m, ws := newManager(t)
	write(t, filepath.Join(ws.TodayDir(), "brief.md"), "brief")

	if _, err := m.ArchiveDay(context.Background(), refDay); err != nil {
		t.Fatal(err)
	}
	before := readTree(t, ws.ArchiveDayDir(refDay))

	res, err := m.ArchiveDay(context.Background(), refDay)
	if err != nil {
		t.Fatal(err)
	}
	if !res.NothingToArchive() {
		t.Fatalf("second run not a no-op: %+v", res)
	}
	after := readTree(t, ws.ArchiveDayDir(refDay))
	if len(before) != len(after) {
		t.Fatalf("archive changed on re-run: %v vs %v", before, after)
	}
}

func TestArchiveDayMergesPartialRun(t *testing.T) {
	m, ws := newManager(t)
	// Simulate an interrupted run: archive already holds one file, the
	// working directory still holds another plus a same-named duplicate.
	write(t, filepath.Join(ws.ArchiveDayDir(refDay), "brief.md"), "brief")
	write(t, filepath.Join(ws.TodayDir(), "brief.md"), "brief")
	write(t, filepath.Join(ws.TodayDir(), "prep-acme.md"), "prep")

	res, err := m.ArchiveDay(context.Background(), refDay)
	if err != nil {
		t.Fatal(err)
	}
	if res.Archived != 1 || res.Merged != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	tree := readTree(t, ws.ArchiveDayDir(refDay))
	if len(tree) != 2 {
		t.Fatalf("duplicate not merged: %v", tree)
	}
}

func TestArchiveDayKeepsBothVersionsOnConflict(t *testing.T) {
	m, ws := newManager(t)
	write(t, filepath.Join(ws.ArchiveDayDir(refDay), "brief.md"), "old version")
	write(t, filepath.Join(ws.TodayDir(), "brief.md"), "new version")

	if _, err := m.ArchiveDay(context.Background(), refDay); err != nil {
		t.Fatal(err)
	}
	tree := readTree(t, ws.ArchiveDayDir(refDay))
	if len(tree) != 2 {
		t.Fatalf("conflicting version lost: %v", tree)
	}
}

func TestArchiveWeekIngestsDailyArchives(t *testing.T) {
	m, ws := newManager(t)
	write(t, ws.WeekPlanPath(35), "plan")
	write(t, ws.WeekOverviewPath(35), "overview")
	write(t, filepath.Join(ws.ArchiveDayDir(refDay), "brief.md"), "brief")
	write(t, filepath.Join(ws.ArchiveDayDir(refDay.AddDate(0, 0, -1)), "brief.md"), "older")

	res, err := m.ArchiveWeek(context.Background(), 35)
	if err != nil {
		t.Fatalf("ArchiveWeek: %v", err)
	}
	if res.Archived != 2 {
		t.Fatalf("weekly archived = %d", res.Archived)
	}
	if res.Ingested != 2 {
		t.Fatalf("ingested = %d", res.Ingested)
	}

	if _, err := os.Stat(filepath.Join(ws.ArchiveWeekDir(35), "week-35-plan.md")); err != nil {
		t.Fatalf("week plan not archived: %v", err)
	}
	if _, err := os.Stat(filepath.Join(ws.InboxDayDir("2026-08-28"), "brief.md")); err != nil {
		t.Fatalf("daily archive not ingested: %v", err)
	}
	// Consumed daily archive directory is gone.
	if _, err := os.Stat(ws.ArchiveDayDir(refDay)); !os.IsNotExist(err) {
		t.Fatal("daily archive still present after ingestion")
	}
	// Week archive itself is not ingested.
	if _, err := os.Stat(ws.ArchiveWeekDir(35)); err != nil {
		t.Fatal("week archive removed by ingestion")
	}
}

func readTree(t *testing.T, root string) []string {
	t.Helper()
	var out []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return out
}
