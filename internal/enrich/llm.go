package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"daybook/internal/config"
	"daybook/internal/directive"
	"daybook/internal/logging"
	"daybook/internal/services"
)

const (
	defaultHTTPTimeout    = 30 * time.Second
	defaultRetryAttempts  = 4
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
)

const systemPrompt = `You prepare concise working notes for a single operator's day.
For every request respond with JSON only, shaped as
{"content": "...markdown...", "actions": [{"title": "...", "due": "YYYY-MM-DD", "owner": "..."}]}.
The actions array holds follow-ups you found in the material; omit it when there are none.`

// LLM is the inline enrichment provider: an OpenRouter-style chat
// completions client with retry and backoff. Each task becomes one request;
// a task that keeps failing is dropped from the result map rather than
// failing the run.
type LLM struct {
	cfg        config.Enrichment
	httpClient *http.Client
	logger     *slog.Logger

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
}

// Option customizes the LLM provider.
type Option func(*LLM)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(l *LLM) {
		if client != nil {
			l.httpClient = client
		}
	}
}

// WithRetryMaxAttempts overrides the default retry count.
func WithRetryMaxAttempts(attempts int) Option {
	return func(l *LLM) { l.retryMaxAttempts = attempts }
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(l *LLM) {
		l.retryBaseDelay = baseDelay
		l.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(l *LLM) { l.sleeper = sleeper }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *LLM) {
		if logger != nil {
			l.logger = logging.NewComponentLogger(logger, "enrich")
		}
	}
}

// NewLLM builds the inline provider from the enrichment config section.
func NewLLM(cfg config.Enrichment, opts ...Option) *LLM {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	llm := &LLM{
		cfg:              cfg,
		httpClient:       &http.Client{Timeout: timeout},
		logger:           logging.NewNop(),
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(llm)
	}
	return llm
}

// Available reports whether an API key is configured.
func (l *LLM) Available() bool {
	return l != nil && strings.TrimSpace(l.cfg.APIKey) != ""
}

// Enrich runs every task through the completion endpoint. Partial success is
// normal: failed tasks are logged and omitted, and only a total failure
// (every task errored) returns an error.
func (l *LLM) Enrich(ctx context.Context, tasks []directive.EnrichmentTask) (map[string]Result, error) {
	if !l.Available() {
		return nil, services.Wrap(services.ErrConfiguration, "enrich", "llm", "api key not configured", nil)
	}
	results := make(map[string]Result, len(tasks))
	var lastErr error
	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result, err := l.enrichOne(ctx, task)
		if err != nil {
			lastErr = err
			logging.Warn(l.logger, "enrichment task failed", "enrich_task_failed",
				logging.String("task_id", task.ID),
				logging.String("task_type", task.Type),
				logging.Error(err),
				logging.String(logging.FieldImpact, "delivery will use a placeholder"))
			continue
		}
		results[task.ID] = result
	}
	if len(results) == 0 && lastErr != nil {
		return nil, services.Wrap(services.ErrPartialEnrichment, "enrich", "llm", "all tasks failed", lastErr)
	}
	return results, nil
}

func (l *LLM) enrichOne(ctx context.Context, task directive.EnrichmentTask) (Result, error) {
	input, err := json.Marshal(task.Input)
	if err != nil {
		return Result{}, fmt.Errorf("encode task input: %w", err)
	}
	userPrompt := fmt.Sprintf("Task type: %s\nPayload:\n%s", task.Type, input)
	content, err := l.completeWithRetry(ctx, userPrompt)
	if err != nil {
		return Result{}, err
	}
	var result Result
	if err := decodeModelJSON(content, &result); err != nil {
		return Result{}, fmt.Errorf("parse enrichment payload: %w", err)
	}
	if strings.TrimSpace(result.Content) == "" {
		return Result{}, errors.New("enrichment returned empty content")
	}
	return result, nil
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type httpStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("enrich request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

func (l *LLM) completeWithRetry(ctx context.Context, userPrompt string) (string, error) {
	payload := chatRequest{
		Model: l.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature:    0,
		ResponseFormat: map[string]string{"type": "json_object"},
	}
	attempts := l.retryMaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		content, err := l.sendOnce(ctx, payload)
		if err == nil {
			return content, nil
		}
		lastErr = err
		delay, retry := l.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			return "", err
		}
		if err := l.sleep(ctx, delay); err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}

func (l *LLM) sendOnce(ctx context.Context, payload chatRequest) (string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("enrich request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("enrich request: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(l.cfg.APIKey))
	req.Header.Set("Content-Type", "application/json")
	if l.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", l.cfg.Referer)
		req.Header.Set("Referer", l.cfg.Referer)
	}
	if l.cfg.Title != "" {
		req.Header.Set("X-Title", l.cfg.Title)
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("enrich request: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("enrich request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		return "", &httpStatusError{StatusCode: resp.StatusCode, Body: string(body), RetryAfter: retryAfter}
	}
	var completion chatResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("enrich request: decode response: %w", err)
	}
	if completion.Error != nil {
		return "", fmt.Errorf("enrich request: api error: %s", strings.TrimSpace(completion.Error.Message))
	}
	for _, choice := range completion.Choices {
		if content := strings.TrimSpace(choice.Message.Content); content != "" {
			return content, nil
		}
	}
	return "", errors.New("enrich request: empty content")
}

func (l *LLM) retryDelay(ctx context.Context, err error, attempt, attempts int) (time.Duration, bool) {
	if attempt >= attempts || ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			if statusErr.RetryAfter > 0 {
				return l.capDelay(statusErr.RetryAfter), true
			}
			return l.backoffDelay(attempt), true
		default:
			return 0, false
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return l.backoffDelay(attempt), true
	}
	return 0, false
}

// backoffDelay doubles per attempt: base, base*2, base*4, capped at the max.
func (l *LLM) backoffDelay(attempt int) time.Duration {
	delay := l.retryBaseDelay
	for i := 1; i < attempt; i++ {
		if delay > l.retryMaxDelay/2 {
			return l.retryMaxDelay
		}
		delay *= 2
	}
	return l.capDelay(delay)
}

func (l *LLM) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if l.retryMaxDelay > 0 && delay > l.retryMaxDelay {
		return l.retryMaxDelay
	}
	return delay
}

func (l *LLM) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if l.sleeper != nil {
		l.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(value); err == nil {
		if d := time.Until(when); d > 0 {
			return d
		}
	}
	return 0
}

// decodeModelJSON tolerates markdown fences around the model's JSON payload.
func decodeModelJSON(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
		trimmed = strings.TrimSpace(trimmed)
	}
	return json.Unmarshal([]byte(trimmed), target)
}
