package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1/chat/completions"
	defaultTimeout = 20 * time.Second
	// maxResponseBytes bounds how much of a completion body is read.
	maxResponseBytes = 1 << 20
)

// ErrNotConfigured is returned when a request is attempted without an API key.
var ErrNotConfigured = errors.New("llm: api key not configured")

// Config holds the endpoint settings from the [llm] config section.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// Client talks to an OpenAI-compatible chat completion endpoint.
type Client struct {
	cfg   Config
	http  *http.Client
	retry retryPolicy
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithRetryMaxAttempts sets the total number of attempts per request.
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) { c.retry.attempts = attempts }
}

// WithRetryBackoff sets the first retry delay and the ceiling it doubles up to.
func WithRetryBackoff(base, ceiling time.Duration) Option {
	return func(c *Client) { c.retry.base, c.retry.ceiling = base, ceiling }
}

// WithSleeper replaces the retry wait, for tests.
func WithSleeper(sleep func(time.Duration)) Option {
	return func(c *Client) { c.retry.sleeper = sleep }
}

// NewClient builds a client. An empty BaseURL selects OpenRouter.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.Referer = strings.TrimSpace(cfg.Referer)
	cfg.Title = strings.TrimSpace(cfg.Title)
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	c := &Client{cfg: cfg, http: &http.Client{Timeout: timeout}, retry: defaultRetryPolicy()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c != nil && c.cfg.APIKey != ""
}

// Complete sends one system and one user message and returns the reply text.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	req, err := c.newRequest("llm complete", system, user)
	if err != nil {
		return "", err
	}
	return c.send(ctx, "llm complete", req)
}

// CompleteJSON is Complete with the provider asked for a JSON object reply.
func (c *Client) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	req, err := c.newRequest("llm complete json", system, user)
	if err != nil {
		return "", err
	}
	req.ResponseFormat = &responseFormat{Type: "json_object"}
	return c.send(ctx, "llm complete json", req)
}

// HealthCheck verifies the key and model with a minimal JSON round trip.
func (c *Client) HealthCheck(ctx context.Context) error {
	reply, err := c.CompleteJSON(ctx, "Reply with JSON only.", `Respond with {"ok":true}`)
	if err != nil {
		return fmt.Errorf("llm health: %w", err)
	}
	var health struct {
		OK bool `json:"ok"`
	}
	if err := DecodeJSON(reply, &health); err != nil {
		return fmt.Errorf("llm health: %w", err)
	}
	if !health.OK {
		return fmt.Errorf("llm health: unexpected reply %s", snippet(reply))
	}
	return nil
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			Refusal   string `json:"refusal"`
			ToolCalls []struct {
				Function struct {
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// text returns the first non-empty content, falling back to tool-call
// arguments, along with the finish reason and any refusal.
func (r chatResponse) text() (content, finish, refusal string) {
	for _, choice := range r.Choices {
		if finish == "" {
			finish = choice.FinishReason
		}
		if refusal == "" {
			refusal = strings.TrimSpace(choice.Message.Refusal)
		}
		if s := strings.TrimSpace(choice.Message.Content); s != "" {
			return s, finish, refusal
		}
		for _, call := range choice.Message.ToolCalls {
			if s := strings.TrimSpace(call.Function.Arguments); s != "" {
				return s, finish, refusal
			}
		}
	}
	return "", finish, refusal
}

func (c *Client) newRequest(op, system, user string) (*chatRequest, error) {
	system, user = strings.TrimSpace(system), strings.TrimSpace(user)
	switch {
	case !c.Configured():
		return nil, fmt.Errorf("%s: %w", op, ErrNotConfigured)
	case system == "" || user == "":
		return nil, fmt.Errorf("%s: system and user prompts are required", op)
	}
	return &chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}, nil
}

func (c *Client) send(ctx context.Context, op string, req *chatRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("%s: encode request: %w", op, err)
	}

	attempts := c.retry.maxAttempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		content, err := c.post(ctx, body)
		if err == nil {
			return content, nil
		}
		lastErr = err
		wait, transient := c.retry.next(ctx, err, attempt)
		if !transient {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		if attempt == attempts {
			break
		}
		if err := c.retry.wait(ctx, wait); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
	}
	return "", fmt.Errorf("%s: failed after %d attempts: %w", op, attempts, lastErr)
}

func (c *Client) post(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", &statusError{
			code:       resp.StatusCode,
			body:       string(raw),
			retryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("api error: %s", strings.TrimSpace(parsed.Error.Message))
	}
	content, finish, refusal := parsed.text()
	if content == "" {
		return "", &emptyReplyError{finish: finish, refusal: refusal, body: string(raw)}
	}
	return content, nil
}

type statusError struct {
	code       int
	body       string
	retryAfter time.Duration
}

func (e *statusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.code, snippet(e.body))
}

type emptyReplyError struct {
	finish  string
	refusal string
	body    string
}

func (e *emptyReplyError) Error() string {
	return fmt.Sprintf("empty reply (finish_reason=%q refusal=%q body=%s)", e.finish, e.refusal, snippet(e.body))
}
