// Package api is the forum backend's REST surface as consumed by the
// client: notification queries and mutations, plus comment lookup for
// deep-link resolution.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TokenSource supplies the current bearer token for outbound requests.
// An empty token means no session; requests are then sent without an
// Authorization header and the backend answers 401.
type TokenSource interface {
	Token() string
}

// Client is a thin HTTP client for the forum REST API. It handles
// Bearer token authentication, JSON (de)serialization, and classifies
// every non-2xx response as either an expired credential (401/403) or
// a generic API error.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

// envelope is the backend's uniform response wrapper.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// NewClient creates a forum API client. The baseURL is the root of the
// REST API (e.g. https://api.forum.example.com/forum).
func NewClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// get performs an HTTP GET and unmarshals the envelope's data field.
func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	return c.do(ctx, http.MethodGet, path, result)
}

// put performs an HTTP PUT with no request body.
func (c *Client) put(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodPut, path, nil)
}

// delete performs an HTTP DELETE.
func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil)
}

// do builds the request, attaches the bearer token, executes it, and
// classifies the response. A nil result skips body decoding.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	result interface{},
) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request %s %s: %w", method, path, err)
	}

	body, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return fmt.Errorf("reading response body: %w", readErr)
	}

	if resp.StatusCode == http.StatusUnauthorized ||
		resp.StatusCode == http.StatusForbidden {
		return &CredentialError{Status: resp.StatusCode}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(body)),
		}
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	// Most endpoints wrap their payload in the response envelope; a few
	// return it bare.
	raw := json.RawMessage(body)
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Data != nil {
		raw = env.Data
	}

	if err := json.Unmarshal(raw, result); err != nil {
		return fmt.Errorf("unmarshaling payload from %s %s: %w", method, path, err)
	}

	return nil
}
