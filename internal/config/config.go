package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the workspace root and derived directory overrides.
// Everything except Root is optional; empty fields default to locations
// under the root during normalization.
type Paths struct {
	Root     string `toml:"root"`
	LogDir   string `toml:"log_dir"`
	StateDir string `toml:"state_dir"`
	InboxDir string `toml:"inbox_dir"`
}

// Operator identifies the single user the workspace serves.
type Operator struct {
	Name            string   `toml:"name"`
	Email           string   `toml:"email"`
	InternalDomains []string `toml:"internal_domains"`
}

// Sources points at the exported snapshots the preparation phase reads.
type Sources struct {
	CalendarExport string `toml:"calendar_export"`
	MailExport     string `toml:"mail_export"`
	EntitiesFile   string `toml:"entities_file"`
}

// Rules points at the YAML rule tables for classification and prep-status
// assignment. Empty paths fall back to built-in defaults.
type Rules struct {
	ClassifyFile string `toml:"classify_file"`
	PrepFile     string `toml:"prep_file"`
}

// LookAhead controls the agenda-gap scan window.
type LookAhead struct {
	BusinessDays        int `toml:"business_days"`
	MinDescriptionChars int `toml:"min_description_chars"`
}

// Actions controls the action reconciliation engine.
type Actions struct {
	MasterFile     string `toml:"master_file"`
	StaleAfterDays int    `toml:"stale_after_days"`
}

// Enrichment contains connection settings for the external enrichment
// service. An empty APIKey means no inline provider is configured and the
// pipeline suspends at the directive handoff instead.
type Enrichment struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for daybook.
//
// Sections by subsystem:
//   - Paths: workspace root plus log/state/inbox overrides
//   - Operator: identity and internal mail domains
//   - Sources: calendar/mail/entity export locations
//   - Rules: classification and prep rule table locations
//   - LookAhead: agenda-gap scan window
//   - Actions: master list location and staleness threshold
//   - Enrichment: external enrichment service connection
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Operator   Operator   `toml:"operator"`
	Sources    Sources    `toml:"sources"`
	Rules      Rules      `toml:"rules"`
	LookAhead  LookAhead  `toml:"look_ahead"`
	Actions    Actions    `toml:"actions"`
	Enrichment Enrichment `toml:"enrichment"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/daybook/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a config file was found at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(defaultPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return defaultPath, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	return defaultPath, true, nil
}

// WriteSample writes the embedded commented sample configuration to path,
// creating parent directories. It refuses to overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config already exists at %s", expanded)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

// EnsureDirectories creates every directory the workspace layout requires.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.Root,
		c.TodayDir(),
		c.AgendasDir(),
		c.TasksDir(),
		c.ArchiveDir(),
		c.Paths.InboxDir,
		c.Paths.StateDir,
		c.Paths.LogDir,
		c.CacheDir(),
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// TodayDir is the working directory populated each morning.
func (c *Config) TodayDir() string { return filepath.Join(c.Paths.Root, "today") }

// AgendasDir holds look-ahead agenda drafts under today/.
func (c *Config) AgendasDir() string { return filepath.Join(c.TodayDir(), "agendas") }

// TasksDir holds the master action list and satellite entity files.
func (c *Config) TasksDir() string { return filepath.Join(c.Paths.Root, "tasks") }

// ArchiveDir is the parent of all date- and week-keyed archive entries.
func (c *Config) ArchiveDir() string { return filepath.Join(c.Paths.Root, "archive") }

// CacheDir holds cached source snapshots for degraded-mode fallback.
func (c *Config) CacheDir() string { return filepath.Join(c.Paths.StateDir, "cache") }

// MasterActionsPath resolves the master action list file.
func (c *Config) MasterActionsPath() string {
	if filepath.IsAbs(c.Actions.MasterFile) {
		return c.Actions.MasterFile
	}
	return filepath.Join(c.TasksDir(), c.Actions.MasterFile)
}

// ExpandPath resolves ~ and relative segments in a user-supplied path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if path == "~" {
			return home, nil
		}
		path = filepath.Join(home, path[2:])
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path %q: %w", path, err)
	}
	return abs, nil
}
