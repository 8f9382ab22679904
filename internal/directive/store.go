package directive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"daybook/internal/fileutil"
	"daybook/internal/services"
)

// Save writes the directive atomically after validating it.
func Save(path string, d *Directive) error {
	if err := d.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("encode directive: %w", err)
	}
	data = append(data, '\n')
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write directive: %w", err)
	}
	return nil
}

// Load reads and validates a persisted directive. A missing file returns
// services.ErrNotFound so callers can treat it as "no pending run".
func Load(path string) (*Directive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrNotFound, "directive", "load", "no directive at "+path, nil)
		}
		return nil, fmt.Errorf("read directive: %w", err)
	}
	var d Directive
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, services.Wrap(services.ErrValidation, "directive", "load", "malformed directive", err)
	}
	if d.Schema != SchemaVersion {
		return nil, services.Wrap(services.ErrValidation, "directive", "load",
			fmt.Sprintf("unsupported schema %d", d.Schema), nil)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Retire moves a consumed directive into the given archive directory. With
// keep set the file stays where it is, for debugging a run after the fact.
func Retire(path, archiveDir string, keep bool) error {
	if keep {
		return nil
	}
	if !fileutil.Exists(path) {
		return nil
	}
	dst := filepath.Join(archiveDir, filepath.Base(path))
	for attempt := 1; fileutil.Exists(dst); attempt++ {
		dst = fileutil.CollisionName(filepath.Join(archiveDir, filepath.Base(path)), attempt)
	}
	if err := fileutil.MoveFile(path, dst); err != nil {
		return fmt.Errorf("retire directive: %w", err)
	}
	return nil
}
