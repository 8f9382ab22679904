package classify

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Confidence tags how a cache entry was produced.
type Confidence string

const (
	// ConfidenceUserConfirmed marks answers a live operator gave.
	ConfidenceUserConfirmed Confidence = "user-confirmed"
	// ConfidenceInferred marks batch-mode defaults pending review.
	ConfidenceInferred Confidence = "inferred"
)

// Entry is a persisted resolution of an ambiguous domain. Specificity rises
// from a bare domain default to a title pattern to an exact attendee
// pattern; lookups honor that order.
type Entry struct {
	Domain          string
	AttendeePattern string
	TitlePattern    string
	Entity          string
	Confidence      Confidence
	CreatedAt       time.Time
}

// UnresolvedDomain records an external domain seen with no entity mapping,
// kept for later manual registry additions.
type UnresolvedDomain struct {
	Domain    string
	FirstSeen time.Time
	LastSeen  time.Time
	Hits      int
}

// Cache is the classification learning cache backed by SQLite.
type Cache struct {
	db   *sql.DB
	path string
}

const cacheSchema = `
CREATE TABLE IF NOT EXISTS classification_entries (
    domain           TEXT NOT NULL,
    attendee_pattern TEXT NOT NULL DEFAULT '',
    title_pattern    TEXT NOT NULL DEFAULT '',
    entity           TEXT NOT NULL,
    confidence       TEXT NOT NULL,
    created_at       TEXT NOT NULL,
    PRIMARY KEY (domain, attendee_pattern, title_pattern)
);
CREATE TABLE IF NOT EXISTS unresolved_domains (
    domain     TEXT PRIMARY KEY,
    first_seen TEXT NOT NULL,
    last_seen  TEXT NOT NULL,
    hits       INTEGER NOT NULL DEFAULT 1
);
`

// OpenCache initializes or connects to the classification cache database.
func OpenCache(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure cache directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(cacheSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply cache schema: %w", err)
	}

	return &Cache{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Path returns the database file location for diagnostics.
func (c *Cache) Path() string { return c.path }

// Lookup resolves an ambiguous domain against the cache. Attendee patterns
// are tried in order, then the title, then the bare domain default. The
// invariant is that a more specific match always beats a less specific one.
func (c *Cache) Lookup(ctx context.Context, domain string, attendees []string, title string) (Entry, bool, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	for _, attendee := range attendees {
		attendee = strings.ToLower(strings.TrimSpace(attendee))
		if attendee == "" {
			continue
		}
		entry, found, err := c.query(ctx,
			`SELECT domain, attendee_pattern, title_pattern, entity, confidence, created_at
             FROM classification_entries
             WHERE domain = ? AND attendee_pattern = ?
             ORDER BY CASE confidence WHEN 'user-confirmed' THEN 0 ELSE 1 END
             LIMIT 1`, domain, attendee)
		if err != nil || found {
			return entry, found, err
		}
	}

	title = strings.ToLower(strings.TrimSpace(title))
	if title != "" {
		entry, found, err := c.query(ctx,
			`SELECT domain, attendee_pattern, title_pattern, entity, confidence, created_at
             FROM classification_entries
             WHERE domain = ? AND attendee_pattern = '' AND title_pattern <> ''
               AND instr(?, title_pattern) > 0
             ORDER BY length(title_pattern) DESC
             LIMIT 1`, domain, title)
		if err != nil || found {
			return entry, found, err
		}
	}

	return c.query(ctx,
		`SELECT domain, attendee_pattern, title_pattern, entity, confidence, created_at
         FROM classification_entries
         WHERE domain = ? AND attendee_pattern = '' AND title_pattern = ''
         LIMIT 1`, domain)
}

func (c *Cache) query(ctx context.Context, stmt string, args ...any) (Entry, bool, error) {
	var entry Entry
	var created string
	row := c.db.QueryRowContext(ctx, stmt, args...)
	err := row.Scan(&entry.Domain, &entry.AttendeePattern, &entry.TitlePattern,
		&entry.Entity, (*string)(&entry.Confidence), &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("query cache: %w", err)
	}
	entry.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return entry, true, nil
}

// Store persists a resolution. A user-confirmed answer replaces whatever is
// there; an inferred answer never downgrades a user-confirmed entry for the
// same pattern.
func (c *Cache) Store(ctx context.Context, entry Entry) error {
	entry.Domain = strings.ToLower(strings.TrimSpace(entry.Domain))
	if entry.Domain == "" {
		return errors.New("cache entry requires a domain")
	}
	if entry.Entity == "" {
		return errors.New("cache entry requires an entity")
	}
	entry.AttendeePattern = strings.ToLower(strings.TrimSpace(entry.AttendeePattern))
	entry.TitlePattern = strings.ToLower(strings.TrimSpace(entry.TitlePattern))
	if entry.Confidence == "" {
		entry.Confidence = ConfidenceInferred
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	if entry.Confidence == ConfidenceInferred {
		existing, found, err := c.query(ctx,
			`SELECT domain, attendee_pattern, title_pattern, entity, confidence, created_at
             FROM classification_entries
             WHERE domain = ? AND attendee_pattern = ? AND title_pattern = ?`,
			entry.Domain, entry.AttendeePattern, entry.TitlePattern)
		if err != nil {
			return err
		}
		if found && existing.Confidence == ConfidenceUserConfirmed {
			return nil
		}
	}

	_, err := c.db.ExecContext(ctx,
		`INSERT INTO classification_entries
            (domain, attendee_pattern, title_pattern, entity, confidence, created_at)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(domain, attendee_pattern, title_pattern)
         DO UPDATE SET entity = excluded.entity, confidence = excluded.confidence,
                       created_at = excluded.created_at`,
		entry.Domain, entry.AttendeePattern, entry.TitlePattern,
		string(entry.Entity), string(entry.Confidence),
		entry.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("store cache entry: %w", err)
	}
	return nil
}

// LogUnresolved records an external domain with no entity mapping.
func (c *Cache) LogUnresolved(ctx context.Context, domain string, seen time.Time) error {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return nil
	}
	timestamp := seen.UTC().Format(time.RFC3339Nano)
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO unresolved_domains (domain, first_seen, last_seen, hits)
         VALUES (?, ?, ?, 1)
         ON CONFLICT(domain)
         DO UPDATE SET last_seen = excluded.last_seen, hits = hits + 1`,
		domain, timestamp, timestamp)
	if err != nil {
		return fmt.Errorf("log unresolved domain: %w", err)
	}
	return nil
}

// Entries lists all cache entries, most specific and newest first.
func (c *Cache) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT domain, attendee_pattern, title_pattern, entity, confidence, created_at
         FROM classification_entries
         ORDER BY domain, attendee_pattern DESC, title_pattern DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list cache entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var entry Entry
		var created string
		if err := rows.Scan(&entry.Domain, &entry.AttendeePattern, &entry.TitlePattern,
			&entry.Entity, (*string)(&entry.Confidence), &created); err != nil {
			return nil, fmt.Errorf("scan cache entry: %w", err)
		}
		entry.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, entry)
	}
	return out, rows.Err()
}

// Unresolved lists logged domains with no entity mapping, newest first.
func (c *Cache) Unresolved(ctx context.Context) ([]UnresolvedDomain, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT domain, first_seen, last_seen, hits
         FROM unresolved_domains ORDER BY last_seen DESC`)
	if err != nil {
		return nil, fmt.Errorf("list unresolved domains: %w", err)
	}
	defer rows.Close()

	var out []UnresolvedDomain
	for rows.Next() {
		var rec UnresolvedDomain
		var first, last string
		if err := rows.Scan(&rec.Domain, &first, &last, &rec.Hits); err != nil {
			return nil, fmt.Errorf("scan unresolved domain: %w", err)
		}
		rec.FirstSeen, _ = time.Parse(time.RFC3339Nano, first)
		rec.LastSeen, _ = time.Parse(time.RFC3339Nano, last)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Clear removes every cache entry and unresolved-domain record. Manual
// reset only; nothing in the pipeline calls this.
func (c *Cache) Clear(ctx context.Context) error {
	for _, stmt := range []string{
		`DELETE FROM classification_entries`,
		`DELETE FROM unresolved_domains`,
	} {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
	}
	return nil
}
