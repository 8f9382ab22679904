package classify

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"daybook/internal/logging"
	"daybook/internal/prep"
	"daybook/internal/resolver"
)

func TestRuleTableOverrideBeatsAttendees(t *testing.T) {
	c := New(Options{
		Registry: testRegistry(),
		Cache:    openTestCache(t),
		Resolver: resolver.Batch{},
		Rules: RuleTable{Overrides: []Override{
			{Keyword: "board prep", Category: string(CategoryInternal)},
		}},
		PrepRules:       prep.DefaultRules(),
		InternalDomains: []string{"internal.test"},
		OperatorEmail:   operator,
		Logger:          logging.NewNop(),
	})

	record, err := c.Classify(context.Background(),
		event("Board prep with Acme", operator, "pat@acme.com"))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if record.Category != CategoryInternal {
		t.Fatalf("category = %s, want %s", record.Category, CategoryInternal)
	}
	if record.Entity != "" {
		t.Fatalf("override should not assign an entity, got %q", record.Entity)
	}
}

func TestRuleTableZeroValueMatchesNothing(t *testing.T) {
	var table RuleTable
	if _, ok := table.Match("Focus time"); ok {
		t.Fatal("empty table should not match")
	}
}

func TestLoadRuleTable(t *testing.T) {
	if _, err := LoadRuleTable(""); err != nil {
		t.Fatalf("empty path should fall back to defaults: %v", err)
	}
	builtin := DefaultRuleTable()
	if category, ok := builtin.Match("Deep Focus Time"); !ok || category != CategoryPersonal {
		t.Fatalf("built-in table: got (%s, %v)", category, ok)
	}

	path := filepath.Join(t.TempDir(), "classify.yaml")
	content := "overrides:\n  - keyword: standup\n    category: internal\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write rules: %v", err)
	}
	table, err := LoadRuleTable(path)
	if err != nil {
		t.Fatalf("LoadRuleTable: %v", err)
	}
	if category, ok := table.Match("Team Standup"); !ok || category != CategoryInternal {
		t.Fatalf("loaded table: got (%s, %v)", category, ok)
	}
	// Loaded tables replace the defaults wholesale.
	if _, ok := table.Match("Focus time"); ok {
		t.Fatal("loaded table should not carry built-in overrides")
	}
}

func TestLoadRuleTableRejectsUnknownCategory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "classify.yaml")
	content := "overrides:\n  - keyword: standup\n    category: bogus\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write rules: %v", err)
	}
	if _, err := LoadRuleTable(path); err == nil {
		t.Fatal("expected unknown category to be rejected")
	}
}
