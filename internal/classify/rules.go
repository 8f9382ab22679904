package classify

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Override pins a category for any meeting whose title contains the
// keyword, ahead of project and attendee-domain matching.
type Override struct {
	Keyword  string `yaml:"keyword"`
	Category string `yaml:"category"`
}

// RuleTable is the operator-maintained classification table. A configured
// file replaces the built-in table wholesale.
type RuleTable struct {
	Overrides []Override `yaml:"overrides"`
}

// DefaultRuleTable returns the built-in overrides: calendar holds that
// carry no prep work regardless of who is invited.
func DefaultRuleTable() RuleTable {
	return RuleTable{
		Overrides: []Override{
			{Keyword: "focus time", Category: string(CategoryPersonal)},
			{Keyword: "out of office", Category: string(CategoryPersonal)},
		},
	}
}

// LoadRuleTable reads a YAML rule table, falling back to the defaults for
// an empty path. Unknown categories in the table are rejected.
func LoadRuleTable(path string) (RuleTable, error) {
	table := DefaultRuleTable()
	if strings.TrimSpace(path) == "" {
		return table, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return table, fmt.Errorf("read classify rules: %w", err)
	}
	var loaded RuleTable
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return table, fmt.Errorf("parse classify rules: %w", err)
	}
	for _, override := range loaded.Overrides {
		if strings.TrimSpace(override.Keyword) == "" {
			return table, fmt.Errorf("classify rules: override with empty keyword")
		}
		if _, ok := ParseCategory(override.Category); !ok {
			return table, fmt.Errorf("classify rules: unknown category %q", override.Category)
		}
	}
	return loaded, nil
}

// Match returns the category pinned for a title, if any. The first
// matching override wins.
func (t RuleTable) Match(title string) (Category, bool) {
	lowered := strings.ToLower(title)
	for _, override := range t.Overrides {
		if strings.Contains(lowered, strings.ToLower(override.Keyword)) {
			category, ok := ParseCategory(override.Category)
			if ok {
				return category, true
			}
		}
	}
	return "", false
}
