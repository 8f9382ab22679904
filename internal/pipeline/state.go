// Package pipeline orchestrates the three-phase run: deterministic
// preparation, out-of-process enrichment, deterministic delivery. Run state
// is persisted so a run can be resumed after an arbitrarily long gap.
package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"daybook/internal/fileutil"
)

// Phase is the controller's position in a run.
type Phase string

const (
	PhasePreparing          Phase = "preparing"
	PhaseAwaitingEnrichment Phase = "awaiting_enrichment"
	PhaseDelivering         Phase = "delivering"
	PhaseComplete           Phase = "complete"
)

// RunState is the persisted controller state under state/run.json.
type RunState struct {
	RunID         string    `json:"run_id"`
	Date          string    `json:"date"`
	Phase         Phase     `json:"phase"`
	DirectivePath string    `json:"directive_path"`
	StartedAt     time.Time `json:"started_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Pending reports whether the state describes an unfinished run.
func (s *RunState) Pending() bool {
	return s != nil && s.Phase != PhaseComplete && s.Phase != ""
}

// LoadState reads the persisted run state; a missing file returns nil.
func LoadState(path string) (*RunState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read run state: %w", err)
	}
	var state RunState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse run state: %w", err)
	}
	return &state, nil
}

// SaveState writes the run state atomically.
func SaveState(path string, state *RunState) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode run state: %w", err)
	}
	data = append(data, '\n')
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write run state: %w", err)
	}
	return nil
}
