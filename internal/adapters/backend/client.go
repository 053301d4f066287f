package backend

// Package backend talks to the FiberQ REST API on behalf of signed-in users.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fiberq/fiberq-web/internal/ports"
)

const (
	// DefaultBaseURL is the in-cluster API address used when none is configured.
	DefaultBaseURL = "http://api:8000"

	recordLoginPath = "/auth/record-login"
	maxErrorBody    = 4 << 10
)

var _ ports.LoginRecorder = (*Client)(nil)

// StatusError reports a non-2xx backend response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Body)
}

// Config configures the backend client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Client  *http.Client
}

// Client is a bearer-authenticated HTTP client for the backend API.
type Client struct {
	baseURL *url.URL
	client  *http.Client
}

// NewClient builds a backend client. An empty BaseURL falls back to DefaultBaseURL.
func NewClient(cfg Config) (*Client, error) {
	raw := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if raw == "" {
		raw = DefaultBaseURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.New("backend url must be absolute")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: u, client: hc}, nil
}

// BaseURL returns a copy of the backend base URL.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// RecordLogin notifies the backend that the bearer of accessToken just signed in.
func (c *Client) RecordLogin(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return errors.New("access token is required")
	}
	resp, err := c.Do(ctx, http.MethodPost, recordLoginPath, accessToken, nil)
	if err != nil {
		return err
	}
	return drain(resp)
}

// Do sends a request to path on the backend with the bearer token attached.
// Non-2xx responses are returned as *StatusError with the body consumed.
func (c *Client) Do(ctx context.Context, method, path, accessToken string, body io.Reader) (*http.Response, error) {
	target := c.baseURL.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create backend request: %w", err)
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return resp, nil
}

func drain(resp *http.Response) error {
	defer resp.Body.Close()
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("read backend response: %w", err)
	}
	return nil
}
