package enrich

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"daybook/internal/config"
	"daybook/internal/directive"
)

func chatBody(content string) string {
	payload := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	data, _ := json.Marshal(payload)
	return string(data)
}

func newLLMAgainst(t *testing.T, server *httptest.Server, opts ...Option) *LLM {
	t.Helper()
	cfg := config.Enrichment{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test/model",
	}
	opts = append(opts, WithSleeper(func(time.Duration) {}))
	return NewLLM(cfg, opts...)
}

func TestLLMEnrichParsesTaskResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization header = %q", got)
		}
		result := Result{
			Content: "## Prep\n- bring the renewal numbers",
			Actions: []ActionSuggestion{{Title: "Send renewal deck", Due: "2026-08-28"}},
		}
		inner, _ := json.Marshal(result)
		if _, err := w.Write([]byte(chatBody(string(inner)))); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	defer server.Close()

	llm := newLLMAgainst(t, server)
	tasks := []directive.EnrichmentTask{{ID: "task-1", Type: directive.TaskMeetingPrep}}
	results, err := llm.Enrich(context.Background(), tasks)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	result, ok := results["task-1"]
	if !ok {
		t.Fatal("missing result for task-1")
	}
	if len(result.Actions) != 1 || result.Actions[0].Title != "Send renewal deck" {
		t.Fatalf("unexpected actions: %+v", result.Actions)
	}
}

func TestLLMRetriesOnTooManyRequests(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		inner, _ := json.Marshal(Result{Content: "ok"})
		if _, err := w.Write([]byte(chatBody(string(inner)))); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	defer server.Close()

	llm := newLLMAgainst(t, server, WithRetryMaxAttempts(3), WithRetryBackoff(time.Millisecond, time.Millisecond))
	results, err := llm.Enrich(context.Background(), []directive.EnrichmentTask{{ID: "task-1", Type: directive.TaskDailyBrief}})
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
	if results["task-1"].Content != "ok" {
		t.Fatalf("unexpected result: %+v", results["task-1"])
	}
}

func TestLLMPartialFailureOmitsTask(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		// The draft_agenda task always fails with a client error.
		if len(req.Messages) == 2 && strings.Contains(req.Messages[1].Content, directive.TaskDraftAgenda) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		inner, _ := json.Marshal(Result{Content: "brief"})
		if _, err := w.Write([]byte(chatBody(string(inner)))); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	defer server.Close()

	llm := newLLMAgainst(t, server, WithRetryMaxAttempts(1))
	results, err := llm.Enrich(context.Background(), []directive.EnrichmentTask{
		{ID: "task-1", Type: directive.TaskDraftAgenda},
		{ID: "task-2", Type: directive.TaskDailyBrief},
	})
	if err != nil {
		t.Fatalf("partial failure must not error: %v", err)
	}
	if _, ok := results["task-1"]; ok {
		t.Fatal("failed task must be omitted")
	}
	if results["task-2"].Content != "brief" {
		t.Fatalf("unexpected result: %+v", results["task-2"])
	}
}

func TestLLMUnavailableWithoutKey(t *testing.T) {
	llm := NewLLM(config.Enrichment{})
	if llm.Available() {
		t.Fatal("no key means unavailable")
	}
}

func TestDecodeModelJSONStripsFences(t *testing.T) {
	var result Result
	fenced := "```json\n{\"content\": \"hi\"}\n```"
	if err := decodeModelJSON(fenced, &result); err != nil {
		t.Fatalf("decodeModelJSON: %v", err)
	}
	if result.Content != "hi" {
		t.Fatalf("content = %q", result.Content)
	}
}

func TestFileProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	provider := NewFileProvider(path)
	if provider.Available() {
		t.Fatal("missing file must report unavailable")
	}

	payload := map[string]Result{"task-1": {Content: "notes"}}
	data, _ := json.Marshal(payload)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write results: %v", err)
	}
	if !provider.Available() {
		t.Fatal("expected available")
	}
	results, err := provider.Enrich(context.Background(), nil)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if results["task-1"].Content != "notes" {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestManualProviderIsEmpty(t *testing.T) {
	var provider Manual
	if provider.Available() {
		t.Fatal("manual provider must report unavailable")
	}
	results, err := provider.Enrich(context.Background(), nil)
	if err != nil || len(results) != 0 {
		t.Fatalf("manual provider: %v %v", results, err)
	}
}
