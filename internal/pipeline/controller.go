package pipeline

import (
	"context"
	"log/slog"
	"time"

	"daybook/internal/actions"
	"daybook/internal/archive"
	"daybook/internal/calendar"
	"daybook/internal/classify"
	"daybook/internal/config"
	"daybook/internal/enrich"
	"daybook/internal/logging"
	"daybook/internal/lookahead"
	"daybook/internal/mail"
	"daybook/internal/prep"
	"daybook/internal/resolver"
	"daybook/internal/workspace"
)

// Controller drives the daily, weekly, and closing cycles against one
// workspace. It is not safe for concurrent use; the workspace lock keeps
// overlapping invocations out.
type Controller struct {
	cfg      *config.Config
	ws       *workspace.Workspace
	logger   *slog.Logger
	ask      resolver.Interactive
	provider enrich.Provider

	calendarSource calendar.Source
	mailSource     mail.Source
	classifier     *classify.Classifier
	cache          *classify.Cache
	archiver       *archive.Manager
	engine         *actions.Engine
	scanner        *lookahead.Scanner

	now func() time.Time
}

// Deps carries the controller's collaborators. Zero fields get the
// config-derived defaults; tests inject file-backed fakes.
type Deps struct {
	Config   *config.Config
	Logger   *slog.Logger
	Resolver resolver.Interactive
	Provider enrich.Provider

	CalendarSource calendar.Source
	MailSource     mail.Source
	Registry       *classify.Registry
	Cache          *classify.Cache
	Now            func() time.Time
}

// New wires a controller from its dependencies.
func New(deps Deps) (*Controller, error) {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	ask := deps.Resolver
	if ask == nil {
		ask = resolver.Batch{}
	}
	provider := deps.Provider
	if provider == nil {
		if cfg.Enrichment.APIKey != "" {
			provider = enrich.NewLLM(cfg.Enrichment, enrich.WithLogger(logger))
		} else {
			provider = enrich.Manual{}
		}
	}

	ws := workspace.New(cfg)
	if err := ws.EnsureLayout(); err != nil {
		return nil, err
	}

	registry := deps.Registry
	if registry == nil {
		loaded, err := classify.LoadRegistry(cfg.Sources.EntitiesFile)
		if err != nil {
			return nil, err
		}
		registry = loaded
	}
	cache := deps.Cache
	if cache == nil {
		opened, err := classify.OpenCache(ws.ClassifyDBPath())
		if err != nil {
			return nil, err
		}
		cache = opened
	}

	rules, err := prep.LoadRules(cfg.Rules.PrepFile)
	if err != nil {
		return nil, err
	}
	table, err := classify.LoadRuleTable(cfg.Rules.ClassifyFile)
	if err != nil {
		return nil, err
	}

	calendarSource := deps.CalendarSource
	if calendarSource == nil {
		calendarSource = calendar.NewCachedSource(
			calendar.NewFileSource(cfg.Sources.CalendarExport), cfg.CacheDir(), logger)
	}
	mailSource := deps.MailSource
	if mailSource == nil {
		mailSource = mail.NewCachedSource(
			mail.NewFileSource(cfg.Sources.MailExport), cfg.CacheDir(), logger)
	}

	now := deps.Now
	if now == nil {
		now = time.Now
	}

	c := &Controller{
		cfg:            cfg,
		ws:             ws,
		logger:         logging.NewComponentLogger(logger, "pipeline"),
		ask:            ask,
		provider:       provider,
		calendarSource: calendarSource,
		mailSource:     mailSource,
		cache:          cache,
		archiver:       archive.NewManager(ws, logger),
		now:            now,
	}
	c.classifier = classify.New(classify.Options{
		Registry:        registry,
		Cache:           cache,
		Resolver:        ask,
		Rules:           table,
		PrepRules:       rules,
		InternalDomains: cfg.Operator.InternalDomains,
		OperatorEmail:   cfg.Operator.Email,
		Logger:          logger,
	})
	c.engine = actions.NewEngine(actions.Options{
		Operator:   cfg.Operator.Email,
		StaleAfter: time.Duration(cfg.Actions.StaleAfterDays) * 24 * time.Hour,
		Resolver:   ask,
		Logger:     logger,
	})
	c.scanner = lookahead.New(lookahead.Options{
		BusinessDays:        cfg.LookAhead.BusinessDays,
		MinDescriptionChars: cfg.LookAhead.MinDescriptionChars,
		AgendaDirs:          []string{cfg.AgendasDir(), c.ws.Root()},
		Logger:              logger,
	})
	return c, nil
}

// Close releases the classification cache handle.
func (c *Controller) Close() error {
	if c.cache != nil {
		return c.cache.Close()
	}
	return nil
}

// Cache exposes the classification cache for the cache subcommands.
func (c *Controller) Cache() *classify.Cache { return c.cache }

// Workspace exposes the workspace for the status command.
func (c *Controller) Workspace() *workspace.Workspace { return c.ws }

// lock acquires the single-instance workspace lock; callers release it.
func (c *Controller) lock() (*workspace.Lock, error) {
	lock := c.ws.NewLock()
	if err := lock.Acquire(); err != nil {
		return nil, err
	}
	return lock, nil
}

// classifyAll maps calendar events through the classifier.
func (c *Controller) classifyAll(ctx context.Context, events []calendar.Event) ([]classify.MeetingRecord, error) {
	records := make([]classify.MeetingRecord, 0, len(events))
	for _, event := range events {
		record, err := c.classifier.Classify(ctx, event)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}
