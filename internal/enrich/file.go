package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"daybook/internal/directive"
	"daybook/internal/fileutil"
	"daybook/internal/services"
)

// FileProvider reads enrichment results produced out-of-process. This is the
// suspension-point path: the collaborator consumes the directive on its own
// schedule and leaves a results file keyed by task id.
type FileProvider struct {
	Path string
}

// NewFileProvider points at a results JSON file.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{Path: path}
}

// Available reports whether the results file exists.
func (p *FileProvider) Available() bool {
	return p != nil && p.Path != "" && fileutil.Exists(p.Path)
}

// Enrich loads the results file. Task ids with no entry are simply absent
// from the returned map.
func (p *FileProvider) Enrich(ctx context.Context, tasks []directive.EnrichmentTask) (map[string]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrNotFound, "enrich", "load results",
				"no results file at "+p.Path, nil)
		}
		return nil, fmt.Errorf("read results: %w", err)
	}
	results := make(map[string]Result)
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, services.Wrap(services.ErrValidation, "enrich", "load results",
			"malformed results file", err)
	}
	return results, nil
}
