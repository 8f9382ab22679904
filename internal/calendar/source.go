package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"daybook/internal/fileutil"
	"daybook/internal/logging"
	"daybook/internal/services"
)

// Source supplies calendar events for a time window.
type Source interface {
	Events(ctx context.Context, from, to time.Time) ([]Event, error)
}

// snapshot is the on-disk export format: a generation timestamp plus the
// flat event list. Window filtering happens at read time.
type snapshot struct {
	GeneratedAt time.Time `json:"generated_at"`
	Events      []Event   `json:"events"`
}

// FileSource reads events from an exported JSON snapshot.
type FileSource struct {
	path string
}

// NewFileSource creates a snapshot-backed source. An empty path is allowed
// and behaves as a permanently unavailable source.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Events returns the snapshot's events overlapping [from, to), sorted by
// start time.
func (s *FileSource) Events(ctx context.Context, from, to time.Time) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.path == "" {
		return nil, services.Wrap(services.ErrSourceUnavailable, "calendar", "load snapshot",
			"no calendar export configured", nil)
	}
	snap, err := readSnapshot(s.path)
	if err != nil {
		return nil, services.Wrap(services.ErrSourceUnavailable, "calendar", "load snapshot", s.path, err)
	}
	return filterWindow(snap.Events, from, to), nil
}

func readSnapshot(path string) (snapshot, error) {
	var snap snapshot
	data, err := os.ReadFile(path)
	if err != nil {
		return snap, err
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("parse snapshot: %w", err)
	}
	return snap, nil
}

func filterWindow(events []Event, from, to time.Time) []Event {
	out := make([]Event, 0, len(events))
	for _, event := range events {
		if !event.End.After(from) || !event.Start.Before(to) {
			continue
		}
		out = append(out, event)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// CachedSource wraps a primary source with a snapshot cache under the state
// directory. A successful read refreshes the cache; a failed read serves the
// cached copy with a degraded-source warning instead of failing the run.
type CachedSource struct {
	primary   Source
	cachePath string
	logger    *slog.Logger
}

// NewCachedSource builds the degraded-mode wrapper.
func NewCachedSource(primary Source, cacheDir string, logger *slog.Logger) *CachedSource {
	return &CachedSource{
		primary:   primary,
		cachePath: filepath.Join(cacheDir, "calendar.json"),
		logger:    logging.NewComponentLogger(logger, "calendar"),
	}
}

// Events fetches from the primary source, falling back to the cached copy.
// Both failing returns a degraded-source error; callers treat that as an
// empty calendar plus a warning, never a fatal failure.
func (s *CachedSource) Events(ctx context.Context, from, to time.Time) ([]Event, error) {
	events, err := s.primary.Events(ctx, from, to)
	if err == nil {
		s.refreshCache(events, from, to)
		return events, nil
	}

	logging.Warn(s.logger, "calendar source unavailable, using cached snapshot",
		"source_unavailable",
		logging.Error(err),
		logging.String(logging.FieldImpact, "today's meetings may be incomplete"))

	snap, cacheErr := readSnapshot(s.cachePath)
	if cacheErr != nil {
		return nil, services.Wrap(services.ErrSourceUnavailable, "calendar", "load cache",
			"no usable calendar data", err)
	}
	return filterWindow(snap.Events, from, to), nil
}

func (s *CachedSource) refreshCache(events []Event, from, to time.Time) {
	data, err := json.MarshalIndent(snapshot{GeneratedAt: time.Now().UTC(), Events: events}, "", "  ")
	if err != nil {
		return
	}
	if err := fileutil.WriteFileAtomic(s.cachePath, data, 0o644); err != nil {
		logging.Warn(s.logger, "failed to refresh calendar cache", "cache_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "degraded runs will use an older snapshot"))
	}
}
