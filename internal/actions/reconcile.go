package actions

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"daybook/internal/logging"
	"daybook/internal/resolver"
	"daybook/internal/services"
	"daybook/internal/textutil"
)

// titleMatchWords is the minimum word overlap for the title-prefix
// completion heuristic.
const titleMatchWords = 3

// Engine merges the master list with the satellite files, keeping completion
// state in sync and folding in items discovered by enrichment.
type Engine struct {
	operator   string
	staleAfter time.Duration
	resolver   resolver.Interactive
	logger     *slog.Logger
}

// Options configures the reconciliation engine.
type Options struct {
	Operator   string
	StaleAfter time.Duration
	Resolver   resolver.Interactive
	Logger     *slog.Logger
}

// NewEngine builds a reconciliation engine.
func NewEngine(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	res := opts.Resolver
	if res == nil {
		res = resolver.Batch{}
	}
	return &Engine{
		operator:   opts.Operator,
		staleAfter: opts.StaleAfter,
		resolver:   res,
		logger:     logging.NewComponentLogger(logger, "actions"),
	}
}

// Input is one reconciliation pass over the loaded lists.
type Input struct {
	Master     *List
	Satellites []*List
	// Discovered holds items extracted by enrichment output; they carry a
	// source reference but no id yet.
	Discovered []Item
	Now        time.Time
}

// Result summarizes a reconciliation pass.
type Result struct {
	DueToday  []Item
	Overdue   []Item
	WaitingOn []Item
	Added     []Item
	Synced    int
	Warnings  []error
}

// Reconcile runs the full pass: staleness checks, bidirectional completion
// sync, enrichment-item ingestion, ambiguity resolution, then saves every
// touched file.
func (e *Engine) Reconcile(ctx context.Context, in Input) (*Result, error) {
	if in.Master == nil {
		return nil, services.Wrap(services.ErrValidation, "actions", "reconcile", "master list is required", nil)
	}
	result := &Result{}

	e.checkStaleness(in, result)
	result.Synced = e.syncCompletions(in.Master, in.Satellites)
	e.ingestDiscovered(in, result)
	if err := e.resolveAmbiguities(ctx, in); err != nil {
		return nil, err
	}
	e.collect(in, result)

	for _, list := range append([]*List{in.Master}, in.Satellites...) {
		if err := list.Save(); err != nil {
			return nil, services.Wrap(services.ErrValidation, "actions", "reconcile",
				fmt.Sprintf("save %s", list.Path), err)
		}
	}
	return result, nil
}

func (e *Engine) checkStaleness(in Input, result *Result) {
	if e.staleAfter <= 0 {
		return
	}
	for _, list := range append([]*List{in.Master}, in.Satellites...) {
		mod := list.ModTime()
		if mod.IsZero() || in.Now.Sub(mod) <= e.staleAfter {
			continue
		}
		warn := services.Wrap(services.ErrStale, "actions", "reconcile",
			fmt.Sprintf("%s not updated since %s", list.Path, mod.Format(DateLayout)), nil)
		result.Warnings = append(result.Warnings, warn)
		logging.Warn(e.logger, "action file is stale", "stale_actions",
			logging.String("path", list.Path),
			logging.Time("modified", mod),
			logging.String(logging.FieldImpact, "items may no longer reflect reality"))
	}
}

// syncCompletions propagates completion marks both ways. A checked box in
// any file wins; matching is by id first, title prefix second, and the whole
// thing is best-effort.
func (e *Engine) syncCompletions(master *List, satellites []*List) int {
	synced := 0
	for _, satellite := range satellites {
		for _, item := range satellite.Items() {
			if item.Completed() {
				if target := matchIn(master, item); target != nil && !target.Completed() {
					target.Status = StatusCompleted
					master.MarkDirty(target)
					synced++
				}
			}
		}
	}
	for _, item := range master.Items() {
		if !item.Completed() {
			continue
		}
		for _, satellite := range satellites {
			if target := matchIn(satellite, item); target != nil && !target.Completed() {
				target.Status = StatusCompleted
				satellite.MarkDirty(target)
				synced++
			}
		}
	}
	return synced
}

func matchIn(list *List, needle *Item) *Item {
	if needle.ID != "" {
		if found := list.Find(func(candidate *Item) bool { return candidate.ID == needle.ID }); found != nil {
			return found
		}
	}
	return list.Find(func(candidate *Item) bool {
		return candidate != needle &&
			textutil.TitlePrefixMatch(candidate.Title, needle.Title, titleMatchWords)
	})
}

// ingestDiscovered appends enrichment-discovered items to the master list,
// skipping anything already tracked by id or title prefix.
func (e *Engine) ingestDiscovered(in Input, result *Result) {
	for _, discovered := range in.Discovered {
		if discovered.Title == "" {
			continue
		}
		probe := discovered
		if existing := matchIn(in.Master, &probe); existing != nil {
			continue
		}
		item := discovered
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		if item.Status == "" {
			item.Status = StatusOpen
		}
		if item.Created.IsZero() {
			item.Created = in.Now
		}
		added := item
		in.Master.Append(&item)
		result.Added = append(result.Added, added)
		e.logger.Info("action discovered",
			logging.String("title", item.Title),
			logging.String("source", item.Source))
	}
}

// resolveAmbiguities asks the operator about due-today items whose state the
// files disagree on. Completed marks are taken at face value and never
// re-asked.
func (e *Engine) resolveAmbiguities(ctx context.Context, in Input) error {
	for _, item := range in.Master.Items() {
		if item.Completed() || !item.DueOn(in.Now) {
			continue
		}
		conflict := conflictingStatus(item, in.Satellites)
		if conflict == nil {
			continue
		}
		answer, err := e.resolver.Resolve(ctx, resolver.Question{
			Prompt:  fmt.Sprintf("Status for %q (due today)?", item.Title),
			Options: []string{string(item.Status), string(conflict.Status), string(StatusCompleted), string(StatusDeferred)},
			Default: string(item.Status),
			Context: fmt.Sprintf("master says %s, %s says %s", item.Status, conflict.Owner, conflict.Status),
		})
		if err != nil {
			return services.Wrap(services.ErrAmbiguous, "actions", "reconcile",
				fmt.Sprintf("resolve status for %q", item.Title), err)
		}
		status, ok := ParseStatus(answer.Value)
		if !ok {
			continue
		}
		item.Status = status
		in.Master.MarkDirty(item)
		for _, satellite := range in.Satellites {
			if target := matchIn(satellite, item); target != nil && target.Status != status {
				target.Status = status
				satellite.MarkDirty(target)
			}
		}
	}
	return nil
}

// conflictingStatus returns a satellite copy of the item whose non-completed
// status disagrees with the master's.
func conflictingStatus(item *Item, satellites []*List) *Item {
	for _, satellite := range satellites {
		target := matchIn(satellite, item)
		if target == nil || target.Completed() {
			continue
		}
		if target.Status != item.Status {
			return target
		}
	}
	return nil
}

func (e *Engine) collect(in Input, result *Result) {
	seen := make(map[string]bool)
	lists := append([]*List{in.Master}, in.Satellites...)
	for _, list := range lists {
		for _, item := range list.Items() {
			key := item.ID
			if key == "" {
				key = textutil.NormalizeTitle(item.Title)
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			if item.Completed() {
				continue
			}
			if item.Delegated || !item.SurfacedFor(e.operator) {
				result.WaitingOn = append(result.WaitingOn, *item)
				continue
			}
			switch {
			case item.DueOn(in.Now):
				result.DueToday = append(result.DueToday, *item)
			case item.Overdue(in.Now):
				result.Overdue = append(result.Overdue, *item)
			}
		}
	}
}
