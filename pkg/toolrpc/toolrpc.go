// Package toolrpc is the HTTP client for the local tool-execution service.
// Transient failures are masked from callers: every call retries with
// exponential backoff and, on exhaustion, returns a textual error result
// instead of an error value.
package toolrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const maxResponseSizeBytes = 2 << 20

type Config struct {
	URL         string        `split_words:"true" required:"true"`
	Timeout     time.Duration `split_words:"true" default:"15s"`
	MaxAttempts int           `split_words:"true" default:"3"`
	BackoffBase time.Duration `split_words:"true" default:"1s"`
}

// Option customizes a Client.
type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

type Client struct {
	baseURL     string
	httpClient  *http.Client
	timeout     time.Duration
	maxAttempts int
	backoffBase time.Duration

	sleep func(time.Duration)
}

type invokeRequest struct {
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
}

type invokeResponse struct {
	Content []contentPart `json:"content"`
	Error   string        `json:"error,omitempty"`
}

type contentPart struct {
	Type string `json:"type,omitempty"`
	Text string `json:"text"`
}

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("tool service url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid tool service url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	backoffBase := cfg.BackoffBase
	if backoffBase <= 0 {
		backoffBase = time.Second
	}

	c := &Client{
		baseURL:     baseURL,
		httpClient:  &http.Client{},
		timeout:     timeout,
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
		sleep:       time.Sleep,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c, nil
}

func MustNew(cfg Config, opts ...Option) *Client {
	client, err := NewClient(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return client
}

// CallTool performs up to maxAttempts round trips for one named-tool
// invocation and returns the first text payload of the response. Backoff
// doubles between attempts (base, 2x, 4x, ...) and is not applied after
// the final one. On exhaustion the last failure is embedded in a textual
// error result; CallTool never returns an error value.
func (c *Client) CallTool(ctx context.Context, tool string, args map[string]any) string {
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		text, err := c.invoke(ctx, tool, args)
		if err == nil {
			log.Debug().Str("tool", tool).Int("attempt", attempt).Msg("tool call succeeded")
			return text
		}

		lastErr = err
		log.Warn().
			Str("tool", tool).
			Int("attempt", attempt).
			Int("max_attempts", c.maxAttempts).
			Err(err).
			Msg("tool call attempt failed")

		if attempt < c.maxAttempts {
			c.sleep(c.backoffBase << (attempt - 1))
		}
	}

	msg := fmt.Sprintf("Error: failed to call tool '%s' after %d attempts. Last error: %v", tool, c.maxAttempts, lastErr)
	log.Error().Str("tool", tool).Msg(msg)
	return msg
}

func (c *Client) invoke(ctx context.Context, tool string, args map[string]any) (string, error) {
	body, err := json.Marshal(invokeRequest{Tool: tool, Arguments: args})
	if err != nil {
		return "", fmt.Errorf("marshal tool request: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build tool request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("timeout after %s", c.timeout)
		}
		return "", fmt.Errorf("connection error: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return "", fmt.Errorf("read tool response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("tool service status=%d body=%s", resp.StatusCode, string(raw))
	}

	var parsed invokeResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode tool response: %w", err)
	}
	if parsed.Error != "" {
		return "", errors.New(parsed.Error)
	}

	for _, part := range parsed.Content {
		if part.Text != "" {
			return part.Text, nil
		}
	}
	return "", errors.New("empty response from server")
}

// IsSuccess reports whether a tool result text looks successful. The
// backend phrases results loosely, so the contract is a case-insensitive
// substring check.
func IsSuccess(result string) bool {
	return strings.Contains(strings.ToLower(result), "success")
}

// IsError reports whether a tool result text carries the failure marker
// produced on retry exhaustion or by the tool itself.
func IsError(result string) bool {
	return strings.HasPrefix(result, "Error:") || strings.Contains(strings.ToLower(result), `"error"`)
}
