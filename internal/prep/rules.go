package prep

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// AgendaOwner identifies which party produces a meeting's agenda.
type AgendaOwner string

const (
	OwnerSelf        AgendaOwner = "self"
	OwnerCounterpart AgendaOwner = "counterpart"
	OwnerShared      AgendaOwner = "shared"
	OwnerNone        AgendaOwner = "none"
)

// Rules is the explicit, testable table that assigns initial prep states:
// a default per meeting category, relationship stages that upgrade a
// customer meeting to operator-owned agenda, and title keywords that upgrade
// any meeting regardless of default ownership.
type Rules struct {
	Defaults        map[string]Status `yaml:"defaults"`
	UpgradeStages   []string          `yaml:"upgrade_stages"`
	UpgradeKeywords []string          `yaml:"upgrade_keywords"`
}

// DefaultRules returns the built-in rule table.
func DefaultRules() Rules {
	return Rules{
		Defaults: map[string]Status{
			"customer": StatusPrepNeeded,
			"internal": StatusContextNeeded,
			"project":  StatusBringUpdates,
			"personal": StatusContextNeeded,
			"external": StatusPrepNeeded,
			"unknown":  StatusPrepNeeded,
		},
		UpgradeStages:   []string{"new", "early"},
		UpgradeKeywords: []string{"renewal", "quarterly review", "kickoff"},
	}
}

// LoadRules reads a YAML rule table, falling back to the defaults for an
// empty path. Unknown statuses in the table are rejected.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if strings.TrimSpace(path) == "" {
		return rules, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return rules, fmt.Errorf("read prep rules: %w", err)
	}
	var loaded Rules
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return rules, fmt.Errorf("parse prep rules: %w", err)
	}
	if len(loaded.Defaults) > 0 {
		for category, status := range loaded.Defaults {
			if _, ok := Parse(string(status)); !ok {
				return rules, fmt.Errorf("prep rules: unknown status %q for category %q", status, category)
			}
		}
		rules.Defaults = loaded.Defaults
	}
	if loaded.UpgradeStages != nil {
		rules.UpgradeStages = loaded.UpgradeStages
	}
	if loaded.UpgradeKeywords != nil {
		rules.UpgradeKeywords = loaded.UpgradeKeywords
	}
	return rules, nil
}

// Initial assigns the entry state for a meeting: the category default,
// upgraded to NeedsAgenda when the relationship stage or a title keyword
// says the operator owns the agenda. Personal meetings never upgrade.
func (r Rules) Initial(category, relationshipStage, title string) Status {
	status, ok := r.Defaults[strings.ToLower(strings.TrimSpace(category))]
	if !ok {
		status = StatusPrepNeeded
	}
	if category == "personal" {
		return status
	}
	if r.keywordUpgrade(title) {
		return StatusNeedsAgenda
	}
	if category == "customer" && r.stageUpgrade(relationshipStage) {
		return StatusNeedsAgenda
	}
	return status
}

// OwnerFor derives the agenda owner from an initial prep state.
func OwnerFor(status Status) AgendaOwner {
	switch status {
	case StatusNeedsAgenda:
		return OwnerSelf
	case StatusPrepNeeded:
		return OwnerCounterpart
	case StatusBringUpdates:
		return OwnerShared
	default:
		return OwnerNone
	}
}

func (r Rules) keywordUpgrade(title string) bool {
	lowered := strings.ToLower(title)
	for _, keyword := range r.UpgradeKeywords {
		if keyword != "" && strings.Contains(lowered, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

func (r Rules) stageUpgrade(stage string) bool {
	stage = strings.ToLower(strings.TrimSpace(stage))
	for _, candidate := range r.UpgradeStages {
		if stage == strings.ToLower(candidate) {
			return true
		}
	}
	return false
}
