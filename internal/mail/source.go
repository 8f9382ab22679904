package mail

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

// Message is a triage-relevant inbox entry from the export snapshot.
type Message struct {
	ID       string    `json:"id"`
	From     string    `json:"from"`
	Subject  string    `json:"subject"`
	Received time.Time `json:"received"`
	Snippet  string    `json:"snippet,omitempty"`
	Unread   bool      `json:"unread"`
	Flagged  bool      `json:"flagged"`
}

// Source supplies inbox messages for triage.
type Source interface {
	Messages(ctx context.Context) ([]Message, error)
}

type snapshot struct {
	GeneratedAt time.Time `json:"generated_at"`
	Messages    []Message `json:"messages"`
}

// FileSource reads messages from an exported JSON snapshot.
type FileSource struct {
	path string
}

// NewFileSource creates a snapshot-backed source. An empty path behaves as a
// permanently unavailable source.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Messages returns the snapshot's messages, newest first.
func (s *FileSource) Messages(ctx context.Context) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.path == "" {
		return nil, services.Wrap(services.ErrSourceUnavailable, "mail", "load snapshot",
			"no mail export configured", nil)
	}
	snap, err := readSnapshot(s.path)
	if err != nil {
		return nil, services.Wrap(services.ErrSourceUnavailable, "mail", "load snapshot", s.path, err)
	}
	messages := snap.Messages
	sort.Slice(messages, func(i, j int) bool { return messages[i].Received.After(messages[j].Received) })
	return messages, nil
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

// CachedSource wraps a primary source with a degraded-mode cache, mirroring
// the calendar source behavior.
type CachedSource struct {
	primary   Source
	cachePath string
	logger    *slog.Logger
}

// NewCachedSource builds the degraded-mode wrapper.
func NewCachedSource(primary Source, cacheDir string, logger *slog.Logger) *CachedSource {
	return &CachedSource{
		primary:   primary,
		cachePath: filepath.Join(cacheDir, "mail.json"),
		logger:    logging.NewComponentLogger(logger, "mail"),
	}
}

// Messages fetches from the primary source, falling back to the cached copy.
func (s *CachedSource) Messages(ctx context.Context) ([]Message, error) {
	messages, err := s.primary.Messages(ctx)
	if err == nil {
		s.refreshCache(messages)
		return messages, nil
	}

	logging.Warn(s.logger, "mail source unavailable, using cached snapshot",
		"source_unavailable",
		logging.Error(err),
		logging.String(logging.FieldImpact, "inbox triage section may be outdated"))

	snap, cacheErr := readSnapshot(s.cachePath)
	if cacheErr != nil {
		return nil, services.Wrap(services.ErrSourceUnavailable, "mail", "load cache",
			"no usable mail data", err)
	}
	return snap.Messages, nil
}

func (s *CachedSource) refreshCache(messages []Message) {
	data, err := json.MarshalIndent(snapshot{GeneratedAt: time.Now().UTC(), Messages: messages}, "", "  ")
	if err != nil {
		return
	}
	if err := fileutil.WriteFileAtomic(s.cachePath, data, 0o644); err != nil {
		logging.Warn(s.logger, "failed to refresh mail cache", "cache_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "degraded runs will use an older snapshot"))
	}
}
