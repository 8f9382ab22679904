package archive

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"daybook/internal/fileutil"
	"daybook/internal/logging"
	"daybook/internal/workspace"
)

// Manager performs daily and weekly archival against a workspace.
type Manager struct {
	ws     *workspace.Workspace
	logger *slog.Logger
}

// Result summarizes an archival operation.
type Result struct {
	Archived int
	Merged   int
	Ingested int
}

// NothingToArchive reports whether the operation found no eligible artifacts.
func (r Result) NothingToArchive() bool {
	return r.Archived == 0 && r.Merged == 0 && r.Ingested == 0
}

// NewManager constructs an archival manager.
func NewManager(ws *workspace.Workspace, logger *slog.Logger) *Manager {
	return &Manager{ws: ws, logger: logging.NewComponentLogger(logger, "archive")}
}

// ArchiveDay moves every ephemeral-daily artifact into archive/<ref date>/,
// preserving sub-paths below today/. An empty working directory is a no-op,
// not an error. Re-running against an already-populated archive directory
// merges instead of overwriting or duplicating.
func (m *Manager) ArchiveDay(ctx context.Context, ref time.Time) (Result, error) {
	var res Result

	files, err := m.ws.ListDaily()
	if err != nil {
		return res, fmt.Errorf("list daily artifacts: %w", err)
	}
	if len(files) == 0 {
		m.logger.Info("nothing to archive", logging.String("date", ref.Format("2006-01-02")))
		return res, nil
	}

	destRoot := m.ws.ArchiveDayDir(ref)
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		sub := strings.TrimPrefix(rel, "today/")
		src := filepath.Join(m.ws.Root(), filepath.FromSlash(rel))
		dst := filepath.Join(destRoot, filepath.FromSlash(sub))
		merged, err := moveMerging(src, dst)
		if err != nil {
			return res, fmt.Errorf("archive %s: %w", rel, err)
		}
		if merged {
			res.Merged++
		} else {
			res.Archived++
		}
	}

	m.cleanupEmptyDirs(m.ws.TodayDir())

	m.logger.Info("archived day",
		logging.String("date", ref.Format("2006-01-02")),
		logging.Int("archived", res.Archived),
		logging.Int("merged", res.Merged))
	return res, nil
}

// ArchiveWeek moves the week's ephemeral-weekly artifacts into
// archive/W<NN>/ and then ingests every existing daily archive entry into
// the long-term inbox, keyed by date, closing the loop between fast 7-day
// access and permanent storage.
func (m *Manager) ArchiveWeek(ctx context.Context, week int) (Result, error) {
	var res Result

	files, err := m.ws.ListWeekly(week)
	if err != nil {
		return res, fmt.Errorf("list weekly artifacts: %w", err)
	}

	destRoot := m.ws.ArchiveWeekDir(week)
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		src := filepath.Join(m.ws.Root(), filepath.FromSlash(rel))
		dst := filepath.Join(destRoot, filepath.Base(rel))
		merged, err := moveMerging(src, dst)
		if err != nil {
			return res, fmt.Errorf("archive %s: %w", rel, err)
		}
		if merged {
			res.Merged++
		} else {
			res.Archived++
		}
	}

	ingested, err := m.ingestDailyArchives(ctx)
	if err != nil {
		return res, err
	}
	res.Ingested = ingested

	if res.NothingToArchive() {
		m.logger.Info("nothing to archive", logging.Int("week", week))
		return res, nil
	}
	m.logger.Info("archived week",
		logging.Int("week", week),
		logging.Int("archived", res.Archived),
		logging.Int("ingested", res.Ingested))
	return res, nil
}

var dayKeyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func (m *Manager) ingestDailyArchives(ctx context.Context) (int, error) {
	archiveRoot := filepath.Dir(m.ws.ArchiveDayDir(time.Now()))
	entries, err := os.ReadDir(archiveRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read archive directory: %w", err)
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() && dayKeyPattern.MatchString(entry.Name()) {
			keys = append(keys, entry.Name())
		}
	}
	sort.Strings(keys)

	ingested := 0
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return ingested, err
		}
		src := filepath.Join(archiveRoot, key)
		dst := m.ws.InboxDayDir(key)
		if err := moveTreeMerging(src, dst); err != nil {
			return ingested, fmt.Errorf("ingest %s: %w", key, err)
		}
		ingested++
		m.logger.Debug("ingested daily archive", logging.String("date", key))
	}
	return ingested, nil
}

// moveMerging moves src to dst. When dst already exists the move merges:
// identical content drops the duplicate source, differing content lands
// under a collision-suffixed name so neither copy is lost. The bool reports
// whether a merge (rather than a plain move) happened.
func moveMerging(src, dst string) (bool, error) {
	if !fileutil.Exists(dst) {
		return false, fileutil.MoveFile(src, dst)
	}
	same, err := sameContent(src, dst)
	if err != nil {
		return false, err
	}
	if same {
		return true, os.Remove(src)
	}
	for attempt := 1; ; attempt++ {
		alt := fileutil.CollisionName(dst, attempt)
		if !fileutil.Exists(alt) {
			return true, fileutil.MoveFile(src, alt)
		}
		same, err := sameContent(src, alt)
		if err != nil {
			return false, err
		}
		if same {
			return true, os.Remove(src)
		}
	}
}

func moveTreeMerging(srcDir, dstDir string) error {
	err := filepath.WalkDir(srcDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		_, err = moveMerging(path, filepath.Join(dstDir, rel))
		return err
	})
	if err != nil {
		return err
	}
	return os.RemoveAll(srcDir)
}

func sameContent(a, b string) (bool, error) {
	infoA, err := os.Stat(a)
	if err != nil {
		return false, err
	}
	infoB, err := os.Stat(b)
	if err != nil {
		return false, err
	}
	if infoA.Size() != infoB.Size() {
		return false, nil
	}
	dataA, err := os.ReadFile(a)
	if err != nil {
		return false, err
	}
	dataB, err := os.ReadFile(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(dataA, dataB), nil
}

func (m *Manager) cleanupEmptyDirs(root string) {
	// Remove now-empty subfolders below today/ but keep today/ itself.
	var dirs []string
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))
	for _, dir := range dirs {
		_ = fileutil.RemoveDirIfEmpty(dir)
	}
}
