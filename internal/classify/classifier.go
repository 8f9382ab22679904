package classify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"daybook/internal/calendar"
	"daybook/internal/logging"
	"daybook/internal/prep"
	"daybook/internal/resolver"
)

// Classifier assigns categories, entities, and initial prep states.
type Classifier struct {
	registry        *Registry
	cache           *Cache
	ask             resolver.Interactive
	table           RuleTable
	rules           prep.Rules
	internalDomains []string
	operatorEmail   string
	logger          *slog.Logger
}

// Options collects classifier dependencies.
type Options struct {
	Registry        *Registry
	Cache           *Cache
	Resolver        resolver.Interactive
	Rules           RuleTable
	PrepRules       prep.Rules
	InternalDomains []string
	OperatorEmail   string
	Logger          *slog.Logger
}

// New constructs a classifier.
func New(opts Options) *Classifier {
	ask := opts.Resolver
	if ask == nil {
		ask = resolver.Batch{}
	}
	registry := opts.Registry
	if registry == nil {
		registry = &Registry{}
		registry.index()
	}
	return &Classifier{
		registry:        registry,
		cache:           opts.Cache,
		ask:             ask,
		table:           opts.Rules,
		rules:           opts.PrepRules,
		internalDomains: opts.InternalDomains,
		operatorEmail:   strings.ToLower(strings.TrimSpace(opts.OperatorEmail)),
		logger:          logging.NewComponentLogger(opts.Logger, "classify"),
	}
}

// Classify derives the meeting record for a calendar event. Priority order:
// rule-table overrides, project keywords, personal, internal, then
// attendee-domain mapping with the cache-then-ask-then-learn path for
// multi-entity domains.
func (c *Classifier) Classify(ctx context.Context, event calendar.Event) (MeetingRecord, error) {
	record := MeetingRecord{Event: event}

	switch {
	case c.matchOverride(&record):
	case c.matchProject(&record):
	case event.OnlyOperator(c.operatorEmail):
		record.Category = CategoryPersonal
	default:
		domains := event.ExternalDomains(c.internalDomains, c.operatorEmail)
		if len(domains) == 0 {
			record.Category = CategoryInternal
		} else if err := c.resolveExternal(ctx, &record, domains); err != nil {
			return record, err
		}
	}

	if entity, ok := c.registry.Entity(record.Entity); ok {
		record.Stage = entity.Stage
	}
	record.Prep = c.rules.Initial(string(record.Category), record.Stage, event.Title)
	record.AgendaOwner = prep.OwnerFor(record.Prep)
	return record, nil
}

func (c *Classifier) matchOverride(record *MeetingRecord) bool {
	category, ok := c.table.Match(record.Event.Title)
	if !ok {
		return false
	}
	record.Category = category
	return true
}

func (c *Classifier) matchProject(record *MeetingRecord) bool {
	project, ok := c.registry.MatchProject(record.Event.Title)
	if !ok {
		return false
	}
	record.Category = CategoryProject
	record.Entity = project.Name
	return true
}

func (c *Classifier) resolveExternal(ctx context.Context, record *MeetingRecord, domains []string) error {
	for _, domain := range domains {
		entity, err := c.resolveDomain(ctx, record.Event, domain)
		if err != nil {
			return err
		}
		if entity != "" {
			record.Category = CategoryCustomer
			record.Entity = entity
			return nil
		}
	}

	// External attendees, none mapped: log domains for later registry work.
	record.Category = CategoryExternal
	for _, domain := range domains {
		if c.cache != nil {
			if err := c.cache.LogUnresolved(ctx, domain, record.Event.Start); err != nil {
				return err
			}
		}
		c.logger.Debug("unmapped external domain",
			logging.String("domain", domain),
			logging.String("event", record.Event.ID))
	}
	return nil
}

func (c *Classifier) resolveDomain(ctx context.Context, event calendar.Event, domain string) (string, error) {
	candidates := c.registry.EntitiesForDomain(domain)
	switch len(candidates) {
	case 0:
		return "", nil
	case 1:
		return candidates[0], nil
	}

	attendees := attendeesOnDomain(event, domain)
	if c.cache != nil {
		entry, found, err := c.cache.Lookup(ctx, domain, attendees, event.Title)
		if err != nil {
			return "", err
		}
		if found {
			return entry.Entity, nil
		}
	}

	answer, err := c.ask.Resolve(ctx, resolver.Question{
		Prompt:  fmt.Sprintf("Which entity does %s belong to for %q?", domain, event.Title),
		Options: candidates,
		Default: candidates[0],
		Context: fmt.Sprintf("Domain %s maps to %d entities.", domain, len(candidates)),
	})
	if err != nil {
		return "", fmt.Errorf("resolve domain %s: %w", domain, err)
	}

	confidence := ConfidenceUserConfirmed
	if !answer.Confirmed {
		confidence = ConfidenceInferred
		logging.Warn(c.logger, "ambiguous domain resolved without confirmation",
			"ambiguous_domain_inferred",
			logging.String("domain", domain),
			logging.String("entity", answer.Value),
			logging.String(logging.FieldErrorHint, "review with 'daybook cache list'"),
			logging.String(logging.FieldImpact, "classification may be wrong until confirmed"))
	}

	if c.cache != nil {
		entry := Entry{
			Domain:     domain,
			Entity:     answer.Value,
			Confidence: confidence,
			CreatedAt:  time.Now().UTC(),
		}
		// Key by the exact attendee when we have one, so the learned answer
		// stays scoped to the people it was learned from; fall back to the
		// title, then to a domain default.
		switch {
		case len(attendees) > 0:
			entry.AttendeePattern = attendees[0]
		case strings.TrimSpace(event.Title) != "":
			entry.TitlePattern = strings.ToLower(strings.TrimSpace(event.Title))
		}
		if err := c.cache.Store(ctx, entry); err != nil {
			return "", err
		}
	}
	return answer.Value, nil
}

func attendeesOnDomain(event calendar.Event, domain string) []string {
	var out []string
	for _, attendee := range event.Attendees {
		if attendee.Domain() == domain {
			out = append(out, strings.ToLower(strings.TrimSpace(attendee.Email)))
		}
	}
	return out
}
