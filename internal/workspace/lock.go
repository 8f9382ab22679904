package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"daybook/internal/services"
)

// Lock is the advisory lock guarding a workspace against overlapping runs.
type Lock struct {
	path string
	lock *flock.Flock
}

// NewLock prepares (but does not acquire) the workspace lock.
func (w *Workspace) NewLock() *Lock {
	path := filepath.Join(w.cfg.Paths.StateDir, "daybook.lock")
	return &Lock{path: path, lock: flock.New(path)}
}

// Acquire takes the lock without blocking. Contention returns ErrReentrant
// so callers can surface "already running" instead of corrupting state.
func (l *Lock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	locked, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire workspace lock: %w", err)
	}
	if !locked {
		return services.Wrap(services.ErrReentrant, "workspace", "lock",
			fmt.Sprintf("another daybook run holds %s", l.path), nil)
	}
	return nil
}

// Release drops the lock. Safe to call when never acquired.
func (l *Lock) Release() error {
	return l.lock.Unlock()
}

// Path returns the lock file location for diagnostics.
func (l *Lock) Path() string { return l.path }
