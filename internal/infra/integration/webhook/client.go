package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/xavierca1/immo-leads/internal/entity"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "Immo-Reso/1.0"
	maxResponseBytes = 1 << 20
)

var ErrTimeout = errors.New("webhook: no response before deadline")

// StatusError is returned for non-2xx answers. Body is for server-side logs
// only.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook: status %d", e.StatusCode)
}

// Client posts leads to an automation webhook (Make.com scenario in
// production). It never retries.
type Client struct {
	http      *http.Client
	timeout   time.Duration
	userAgent string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		http:      &http.Client{},
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Forward sends lead as JSON and decodes the answer: JSON when it parses,
// otherwise {"message": body}.
func (c *Client) Forward(ctx context.Context, url string, lead entity.Lead) (any, error) {
	body, err := json.Marshal(lead)
	if err != nil {
		return nil, fmt.Errorf("webhook: marshal lead: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("webhook: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("webhook: request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("webhook: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return map[string]any{"message": string(raw)}, nil
	}
	return decoded, nil
}
