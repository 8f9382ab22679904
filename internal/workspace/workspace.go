package workspace

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"daybook/internal/config"
)

// Category tags a workspace artifact for lifecycle purposes.
type Category string

const (
	// EphemeralDaily artifacts are archived before each new day's run.
	EphemeralDaily Category = "ephemeral-daily"
	// EphemeralWeekly artifacts are archived by the weekly cycle.
	EphemeralWeekly Category = "ephemeral-weekly"
	// Persistent artifacts are never moved by archival.
	Persistent Category = "persistent"
	// Archived artifacts already live under archive/ or inbox/.
	Archived Category = "archived"
)

// Workspace resolves the layout contract against a loaded config.
type Workspace struct {
	cfg *config.Config
}

// New wraps a config in layout helpers.
func New(cfg *config.Config) *Workspace {
	return &Workspace{cfg: cfg}
}

// Root returns the workspace root directory.
func (w *Workspace) Root() string { return w.cfg.Paths.Root }

// TodayDir returns the daily working directory.
func (w *Workspace) TodayDir() string { return w.cfg.TodayDir() }

// TasksDir returns the persistent action file directory.
func (w *Workspace) TasksDir() string { return w.cfg.TasksDir() }

// ArchiveDayDir returns the archive entry for a calendar date.
func (w *Workspace) ArchiveDayDir(ref time.Time) string {
	return filepath.Join(w.cfg.ArchiveDir(), ref.Format("2006-01-02"))
}

// ArchiveWeekDir returns the archive entry for an ISO week number.
func (w *Workspace) ArchiveWeekDir(week int) string {
	return filepath.Join(w.cfg.ArchiveDir(), fmt.Sprintf("W%02d", week))
}

// InboxDayDir returns the long-term inbox slot for a daily archive key.
func (w *Workspace) InboxDayDir(dateKey string) string {
	return filepath.Join(w.cfg.Paths.InboxDir, dateKey)
}

// WeekPlanPath returns the in-progress weekly plan artifact.
func (w *Workspace) WeekPlanPath(week int) string {
	return filepath.Join(w.cfg.Paths.Root, fmt.Sprintf("week-%02d-plan.md", week))
}

// WeekOverviewPath returns the in-progress week overview artifact.
func (w *Workspace) WeekOverviewPath(week int) string {
	return filepath.Join(w.cfg.Paths.Root, fmt.Sprintf("week-%02d-overview.md", week))
}

// DirectivePath returns the default directive artifact location.
func (w *Workspace) DirectivePath() string {
	return filepath.Join(w.cfg.TodayDir(), "directive.json")
}

// RunStatePath returns the persisted pipeline run state file.
func (w *Workspace) RunStatePath() string {
	return filepath.Join(w.cfg.Paths.StateDir, "run.json")
}

// ClassifyDBPath returns the classification cache database location.
func (w *Workspace) ClassifyDBPath() string {
	return filepath.Join(w.cfg.Paths.StateDir, "classify.db")
}

// EnsureLayout creates every directory the layout requires.
func (w *Workspace) EnsureLayout() error {
	return w.cfg.EnsureDirectories()
}

// Classify tags a path relative to the workspace root with its lifecycle
// category. Unknown root-level files are treated as persistent: archival
// only ever moves what it positively recognizes as ephemeral.
func (w *Workspace) Classify(rel string) Category {
	rel = filepath.ToSlash(strings.TrimPrefix(rel, "./"))
	switch {
	case rel == "today" || strings.HasPrefix(rel, "today/"):
		return EphemeralDaily
	case strings.HasPrefix(rel, "archive/"), strings.HasPrefix(rel, "inbox/"):
		return Archived
	case strings.HasPrefix(rel, "tasks/"), strings.HasPrefix(rel, "state/"):
		return Persistent
	case isWeekArtifact(rel):
		return EphemeralWeekly
	default:
		return Persistent
	}
}

func isWeekArtifact(rel string) bool {
	if strings.Contains(rel, "/") {
		return false
	}
	return strings.HasPrefix(rel, "week-")
}

// ListDaily returns workspace-relative paths of every ephemeral-daily file
// currently present, in lexical order.
func (w *Workspace) ListDaily() ([]string, error) {
	return w.listUnder(w.TodayDir())
}

// ListWeekly returns workspace-relative paths of every ephemeral-weekly
// artifact for the given week. Week files for other weeks are in progress
// and stay put.
func (w *Workspace) ListWeekly(week int) ([]string, error) {
	var out []string
	for _, path := range []string{w.WeekPlanPath(week), w.WeekOverviewPath(week)} {
		if _, err := os.Stat(path); err == nil {
			rel, err := filepath.Rel(w.Root(), path)
			if err != nil {
				return nil, err
			}
			out = append(out, filepath.ToSlash(rel))
		}
	}
	return out, nil
}

func (w *Workspace) listUnder(dir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(w.Root(), path)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	return out, nil
}
