// Package api implements the delivery client that posts chat messages to
// the backend endpoint.
package api

import (
	"context"
	"fmt"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/diogo/finking/internal/models"
)

// HTTPDoer is the transport used for every request.
// tls_client.HttpClient satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// RetryFunc is called before waiting for the next attempt
type RetryFunc func(attempt int, delay time.Duration)

// Client delivers messages to a chat endpoint
type Client struct {
	httpClient HTTPDoer
	endpoint   string
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
	sleep      SleepFunc
	onRetry    RetryFunc
	logger     zerolog.Logger
}

// ClientOption is a function that configures the client
type ClientOption func(*Client)

// WithTimeout sets the per-attempt deadline
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxRetries sets how many times a warm-up answer is retried
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithRetryDelay sets the pause between warm-up retries
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		if d >= 0 {
			c.retryDelay = d
		}
	}
}

// WithHTTPClient replaces the default TLS client
func WithHTTPClient(doer HTTPDoer) ClientOption {
	return func(c *Client) {
		c.httpClient = doer
	}
}

// WithSleep replaces the wait between retries (used by tests)
func WithSleep(fn SleepFunc) ClientOption {
	return func(c *Client) {
		c.sleep = fn
	}
}

// WithOnRetry registers a callback fired before each retry wait
func WithOnRetry(fn RetryFunc) ClientOption {
	return func(c *Client) {
		c.onRetry = fn
	}
}

// WithLogger sets the logger used for delivery events
func WithLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a Client for endpoint
func NewClient(endpoint string, opts ...ClientOption) (*Client, error) {
	if endpoint == "" {
		endpoint = models.DefaultEndpoint
	}

	client := &Client{
		endpoint:   endpoint,
		timeout:    models.DefaultTimeout,
		maxRetries: models.DefaultMaxRetries,
		retryDelay: models.DefaultRetryDelay,
		sleep:      sleepContext,
		logger:     log.Logger,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.httpClient == nil {
		httpClient, err := NewHTTPClient(client.timeout)
		if err != nil {
			return nil, err
		}
		client.httpClient = httpClient
	}

	return client, nil
}

// NewHTTPClient creates the TLS client shared by the delivery client and the
// upstream completer. The transport timeout is a backstop; attempts carry
// their own context deadline.
func NewHTTPClient(timeout time.Duration) (tls_client.HttpClient, error) {
	seconds := int(timeout/time.Second) + 5
	options := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(seconds),
		tls_client.WithClientProfile(profiles.Chrome_120),
		tls_client.WithNotFollowRedirects(),
	}

	httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	return httpClient, nil
}

// Endpoint returns the URL messages are posted to
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Timeout returns the per-attempt deadline
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
