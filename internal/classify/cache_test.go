package classify

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	cache, err := OpenCache(filepath.Join(t.TempDir(), "classify.db"))
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestLookupSpecificityPrecedence(t *testing.T) {
	cache := openTestCache(t)
	ctx := context.Background()

	entries := []Entry{
		{Domain: "conglomerate.com", Entity: "cg-default", Confidence: ConfidenceInferred},
		{Domain: "conglomerate.com", TitlePattern: "logistics", Entity: "cg-logistics", Confidence: ConfidenceUserConfirmed},
		{Domain: "conglomerate.com", AttendeePattern: "kim@conglomerate.com", Entity: "cg-retail", Confidence: ConfidenceUserConfirmed},
	}
	for _, entry := range entries {
		if err := cache.Store(ctx, entry); err != nil {
			t.Fatalf("Store: %v", err)
		}
	}

	// Attendee pattern beats everything.
	entry, found, err := cache.Lookup(ctx, "conglomerate.com",
		[]string{"kim@conglomerate.com"}, "Logistics planning")
	if err != nil || !found {
		t.Fatalf("lookup: found=%v err=%v", found, err)
	}
	if entry.Entity != "cg-retail" {
		t.Fatalf("attendee precedence: got %q", entry.Entity)
	}

	// Title pattern beats the domain default.
	entry, found, err = cache.Lookup(ctx, "conglomerate.com",
		[]string{"sam@conglomerate.com"}, "Logistics planning")
	if err != nil || !found {
		t.Fatalf("lookup: found=%v err=%v", found, err)
	}
	if entry.Entity != "cg-logistics" {
		t.Fatalf("title precedence: got %q", entry.Entity)
	}

	// Domain default is the last resort.
	entry, found, err = cache.Lookup(ctx, "conglomerate.com", nil, "Unrelated")
	if err != nil || !found {
		t.Fatalf("lookup: found=%v err=%v", found, err)
	}
	if entry.Entity != "cg-default" {
		t.Fatalf("domain default: got %q", entry.Entity)
	}
}

func TestLookupMiss(t *testing.T) {
	cache := openTestCache(t)
	_, found, err := cache.Lookup(context.Background(), "nowhere.com", nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Fatal("phantom cache hit")
	}
}

func TestInferredNeverDowngradesConfirmed(t *testing.T) {
	cache := openTestCache(t)
	ctx := context.Background()

	confirmed := Entry{
		Domain:          "conglomerate.com",
		AttendeePattern: "kim@conglomerate.com",
		Entity:          "cg-retail",
		Confidence:      ConfidenceUserConfirmed,
	}
	if err := cache.Store(ctx, confirmed); err != nil {
		t.Fatal(err)
	}

	inferred := confirmed
	inferred.Entity = "cg-labs"
	inferred.Confidence = ConfidenceInferred
	if err := cache.Store(ctx, inferred); err != nil {
		t.Fatal(err)
	}

	entry, found, err := cache.Lookup(ctx, "conglomerate.com", []string{"kim@conglomerate.com"}, "")
	if err != nil || !found {
		t.Fatalf("lookup: found=%v err=%v", found, err)
	}
	if entry.Entity != "cg-retail" || entry.Confidence != ConfidenceUserConfirmed {
		t.Fatalf("confirmed entry downgraded: %+v", entry)
	}

	// A confirmed answer does replace an inferred one.
	confirmed.Entity = "cg-northeast"
	if err := cache.Store(ctx, confirmed); err != nil {
		t.Fatal(err)
	}
	entry, _, err = cache.Lookup(ctx, "conglomerate.com", []string{"kim@conglomerate.com"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if entry.Entity != "cg-northeast" {
		t.Fatalf("confirmed update lost: %+v", entry)
	}
}

func TestUnresolvedDomainAccumulates(t *testing.T) {
	cache := openTestCache(t)
	ctx := context.Background()
	now := time.Now()

	if err := cache.LogUnresolved(ctx, "mystery.io", now.Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := cache.LogUnresolved(ctx, "mystery.io", now); err != nil {
		t.Fatal(err)
	}

	unresolved, err := cache.Unresolved(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(unresolved) != 1 {
		t.Fatalf("unresolved rows: %d", len(unresolved))
	}
	if unresolved[0].Hits != 2 {
		t.Fatalf("hits = %d", unresolved[0].Hits)
	}
	if !unresolved[0].LastSeen.After(unresolved[0].FirstSeen) {
		t.Fatalf("timestamps not tracked: %+v", unresolved[0])
	}
}

func TestClearResetsEverything(t *testing.T) {
	cache := openTestCache(t)
	ctx := context.Background()
	if err := cache.Store(ctx, Entry{Domain: "a.com", Entity: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := cache.LogUnresolved(ctx, "b.com", time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := cache.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	entries, err := cache.Entries(ctx)
	if err != nil || len(entries) != 0 {
		t.Fatalf("entries after clear: %v err=%v", entries, err)
	}
	unresolved, err := cache.Unresolved(ctx)
	if err != nil || len(unresolved) != 0 {
		t.Fatalf("unresolved after clear: %v err=%v", unresolved, err)
	}
}
