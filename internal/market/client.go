package market

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/farmiq/farmiq/pkg/metrics"
)

const (
	// DefaultBaseURL is the data.gov.in API root.
	DefaultBaseURL = "https://api.data.gov.in"
	// DefaultResourceID identifies the daily mandi price dataset.
	DefaultResourceID = "9ef84268-d588-465a-a308-a864a43d0070"
	// DefaultTimeout bounds a single upstream call.
	DefaultTimeout = 15 * time.Second

	maxBodyBytes = 16 << 20
	redacted     = "[REDACTED]"
)

// Fetcher retrieves the raw upstream body for a query.
type Fetcher interface {
	Fetch(ctx context.Context, q Query) ([]byte, error)
}

// ClientConfig configures the upstream pricing API client.
type ClientConfig struct {
	BaseURL    string
	ResourceID string
	APIKey     string
	Timeout    time.Duration
}

// Client calls the upstream pricing API. It never retries.
type Client struct {
	http     *http.Client
	endpoint string
	apiKey   string
	log      *zap.Logger
	clock    clockwork.Clock
}

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its Timeout is left as provided.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithClientLogger sets the logger used for upstream request logs.
func WithClientLogger(log *zap.Logger) ClientOption {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithClientClock sets the clock used to measure latency and resolve Retry-After dates.
func WithClientClock(clock clockwork.Clock) ClientOption {
	return func(c *Client) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// NewClient constructs a Client, applying defaults for empty configuration values.
func NewClient(cfg ClientConfig, opts ...ClientOption) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	resourceID := strings.TrimSpace(cfg.ResourceID)
	if resourceID == "" {
		resourceID = DefaultResourceID
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := &Client{
		http:     &http.Client{Timeout: timeout},
		endpoint: fmt.Sprintf("%s/resource/%s", baseURL, resourceID),
		apiKey:   cfg.APIKey,
		log:      zap.NewNop(),
		clock:    clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Fetch issues a single GET for q and returns the raw body of a 2xx response.
// Failures are returned as *UpstreamError.
func (c *Client) Fetch(ctx context.Context, q Query) ([]byte, error) {
	target := c.endpoint + "?" + q.UpstreamValues(c.apiKey).Encode()
	c.log.Info("fetching upstream market prices", zap.String("url", c.redactedURL(q)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &UpstreamError{Kind: KindInternal, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	start := c.clock.Now()
	resp, err := c.http.Do(req)
	elapsed := c.clock.Since(start)
	metrics.MarketUpstreamLatency.Observe(elapsed.Seconds())
	if err != nil {
		upstreamErr := transportError(err)
		metrics.MarketUpstreamRequests.WithLabelValues(string(upstreamErr.Kind)).Inc()
		return nil, upstreamErr
	}
	defer resp.Body.Close()

	c.log.Info("upstream responded",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", elapsed),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		upstreamErr := statusError(resp, c.clock.Now())
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		metrics.MarketUpstreamRequests.WithLabelValues(string(upstreamErr.Kind)).Inc()
		return nil, upstreamErr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		upstreamErr := transportError(err)
		metrics.MarketUpstreamRequests.WithLabelValues(string(upstreamErr.Kind)).Inc()
		return nil, upstreamErr
	}

	metrics.MarketUpstreamRequests.WithLabelValues("ok").Inc()
	return body, nil
}

func (c *Client) redactedURL(q Query) string {
	values := q.UpstreamValues(redacted)
	return c.endpoint + "?" + values.Encode()
}

func transportError(err error) *UpstreamError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &UpstreamError{Kind: KindTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &UpstreamError{Kind: KindTimeout, Err: err}
	}
	return &UpstreamError{Kind: KindInternal, Err: err}
}
