package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"daybook/internal/services"
	"daybook/internal/testsupport"
)

func TestClassify(t *testing.T) {
	ws := New(testsupport.NewConfig(t))

	cases := []struct {
		rel  string
		want Category
	}{
		{"today/brief.md", EphemeralDaily},
		{"today/agendas/acme-2026-08-28.md", EphemeralDaily},
		{"week-35-plan.md", EphemeralWeekly},
		{"week-35-overview.md", EphemeralWeekly},
		{"tasks/actions.md", Persistent},
		{"tasks/acme.md", Persistent},
		{"state/run.json", Persistent},
		{"archive/2026-08-27/brief.md", Archived},
		{"inbox/2026-08-20/brief.md", Archived},
		{"notes.md", Persistent},
		{"tasks-backup/week-01.md", Persistent},
	}
	for _, tc := range cases {
		if got := ws.Classify(tc.rel); got != tc.want {
			t.Fatalf("Classify(%q) = %q, want %q", tc.rel, got, tc.want)
		}
	}
}

func TestListDailyAndWeekly(t *testing.T) {
	ws := New(testsupport.NewConfig(t))
	if err := ws.EnsureLayout(); err != nil {
		t.Fatal(err)
	}

	mustWrite(t, filepath.Join(ws.TodayDir(), "brief.md"))
	mustWrite(t, filepath.Join(ws.TodayDir(), "agendas", "acme.md"))
	mustWrite(t, ws.WeekPlanPath(35))
	mustWrite(t, filepath.Join(ws.TasksDir(), "actions.md"))

	daily, err := ws.ListDaily()
	if err != nil {
		t.Fatal(err)
	}
	if len(daily) != 2 {
		t.Fatalf("daily artifacts: %v", daily)
	}

	weekly, err := ws.ListWeekly(35)
	if err != nil {
		t.Fatal(err)
	}
	if len(weekly) != 1 || weekly[0] != "week-35-plan.md" {
		t.Fatalf("weekly artifacts: %v", weekly)
	}

	// Another week's files stay out of scope.
	weekly, err = ws.ListWeekly(36)
	if err != nil {
		t.Fatal(err)
	}
	if len(weekly) != 0 {
		t.Fatalf("unexpected weekly artifacts: %v", weekly)
	}
}

func TestArchivePathKeys(t *testing.T) {
	ws := New(testsupport.NewConfig(t))
	ref := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	if got := filepath.Base(ws.ArchiveDayDir(ref)); got != "2026-08-28" {
		t.Fatalf("day key: %q", got)
	}
	if got := filepath.Base(ws.ArchiveWeekDir(5)); got != "W05" {
		t.Fatalf("week key: %q", got)
	}
}

func TestLockContention(t *testing.T) {
	ws := New(testsupport.NewConfig(t))
	if err := ws.EnsureLayout(); err != nil {
		t.Fatal(err)
	}

	first := ws.NewLock()
	if err := first.Acquire(); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	defer first.Release()

	second := ws.NewLock()
	err := second.Acquire()
	if err == nil {
		second.Release()
		t.Fatal("second acquire succeeded while first held")
	}
	if !errors.Is(err, services.ErrReentrant) {
		t.Fatalf("expected re-entrancy error, got %v", err)
	}

	if err := first.Release(); err != nil {
		t.Fatal(err)
	}
	if err := second.Acquire(); err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	second.Release()
}

func mustWrite(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatal(err)
	}
}
