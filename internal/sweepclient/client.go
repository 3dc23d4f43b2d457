// Package sweepclient triggers re-evaluation sweeps on a running service.
package sweepclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/placementcell/eligibility/internal/domain/sweep"
	"github.com/placementcell/eligibility/pkg/logger"
)

// DefaultBaseURL is the address the service listens on by default.
const DefaultBaseURL = "http://localhost:9080"

// ErrUnhealthy is returned when the health probe does not answer 200.
var ErrUnhealthy = errors.New("service unhealthy")

// APIError is a non-2xx answer carrying the service's error body.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// Client talks to the service's HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger.Named("sweepclient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Health probes /healthz.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/healthz")
	if err != nil {
		return err
	}
	defer c.closeBody(ctx, resp)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

// Sweep runs one re-evaluation sweep and returns its manifest.
func (c *Client) Sweep(ctx context.Context) (sweep.Manifest, error) {
	var m sweep.Manifest

	resp, err := c.do(ctx, http.MethodPost, "/sweeps")
	if err != nil {
		return m, err
	}
	defer c.closeBody(ctx, resp)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return m, fmt.Errorf("read sweep response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return m, decodeAPIError(resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, &m); err != nil {
		return m, fmt.Errorf("decode manifest: %w", err)
	}

	c.logger.Info(ctx, "sweep finished",
		logger.Int("items", len(m.Items)),
		logger.Int("updated", m.Updated),
		logger.Int("failed", m.Failed),
		logger.Int("skipped", m.Skipped))
	return m, nil
}

func (c *Client) do(ctx context.Context, method, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func (c *Client) closeBody(ctx context.Context, resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		c.logger.Warn(ctx, "failed to close response body", logger.Error(err))
	}
}

func decodeAPIError(status int, body []byte) error {
	apiErr := &APIError{StatusCode: status}
	_ = json.Unmarshal(body, apiErr)
	return apiErr
}
