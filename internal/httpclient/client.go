// Package httpclient provides the HTTP client used for registry operations.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultTimeout is the default per-request timeout.
	DefaultTimeout = 10 * time.Second

	// UserAgent is the user agent string for outbound requests.
	UserAgent = "nmos-node/1.0"
)

// Client is the interface for outbound registry operations. Methods return
// the HTTP status code; an error is returned only for transport-level
// failures (the caller interprets status codes, which carry protocol
// meaning during registration).
type Client interface {
	// PostJSON sends a JSON body and returns the response status.
	PostJSON(ctx context.Context, url string, body any) (int, error)

	// Post sends an empty-bodied POST and returns the response status.
	Post(ctx context.Context, url string) (int, error)

	// Delete sends a DELETE and returns the response status.
	Delete(ctx context.Context, url string) (int, error)
}

// DefaultClient is the production Client implementation.
type DefaultClient struct {
	client *http.Client
}

// NewDefaultClient creates a client with the given per-request timeout.
// A zero timeout selects DefaultTimeout.
func NewDefaultClient(timeout time.Duration) *DefaultClient {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &DefaultClient{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// PostJSON sends body as JSON to url.
func (c *DefaultClient) PostJSON(ctx context.Context, url string, body any) (int, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

// Post sends an empty POST to url.
func (c *DefaultClient) Post(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req)
}

// Delete sends a DELETE to url.
func (c *DefaultClient) Delete(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req)
}

func (c *DefaultClient) do(req *http.Request) (int, error) {
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	return resp.StatusCode, nil
}
