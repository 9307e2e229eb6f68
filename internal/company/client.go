package company

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/qargo/dashboard/pkg/logging"
)

// DefaultEndpoint is the mock company API used when none is configured.
const DefaultEndpoint = "https://ss-company.free.beeceptor.com/company"

// maxResponseSize bounds how much of a response body is read.
const maxResponseSize = 1 << 20

// Config configures a Client.
type Config struct {
	// Endpoint is the URL the payload is POSTed to.
	Endpoint string

	// Timeout bounds a single request. Zero leaves the transport default.
	Timeout time.Duration
}

// Client posts company registrations. It never retries.
type Client struct {
	endpoint string
	http     *http.Client
	logger   logging.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a client for cfg.
func NewClient(cfg Config, opts ...ClientOption) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: cfg.Timeout},
		logger:   logging.NopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the configured endpoint.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Submit posts p and normalizes the answer. Transport failures, unreadable
// bodies and unknown status tags all become an error result carrying
// UnexpectedErrorMessage; Submit itself never fails.
func (c *Client) Submit(ctx context.Context, p Payload) Result {
	res, err := c.submit(ctx, p)
	if err != nil {
		c.logger.Warn("company submission failed",
			logging.String("endpoint", c.endpoint),
			logging.Err(err),
		)
		return Failure("")
	}

	c.logger.Info("company submission answered",
		logging.String("status", string(res.Status)),
		logging.String("name", p.Name),
	)
	return res
}

func (c *Client) submit(ctx context.Context, p Payload) (Result, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return Result{}, fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return Result{}, fmt.Errorf("read response: %w", err)
	}

	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return Result{}, fmt.Errorf("decode response (HTTP %d): %w", resp.StatusCode, err)
	}

	switch {
	case res.Status == StatusOK:
		return res, nil
	case res.Status == StatusError, res.Message != "":
		return Failure(res.Message), nil
	default:
		return Result{}, fmt.Errorf("unknown response status %q (HTTP %d)", res.Status, resp.StatusCode)
	}
}
