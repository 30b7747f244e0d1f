// Package client provides the Flare explorer GraphQL transport: it sends a
// query and classifies the outcome as data, a transport failure, a bad
// response code or a query error.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/flare-explorer-client/pkg/logging"
)

// DefaultEndpoint is the production Flare explorer GraphQL endpoint.
const DefaultEndpoint = "https://flare-explorer.flare.network/api/v1/graphql"

// Prometheus metrics for explorer queries.
var (
	explorerRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "explorer_requests_total",
		Help: "Total explorer HTTP requests by status",
	}, []string{"status"})

	explorerRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "explorer_request_duration_seconds",
		Help:    "Explorer query duration in seconds, retries included",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	explorerErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "explorer_errors_total",
		Help: "Total explorer query failures by class",
	}, []string{"class"})
)

// RateLimiter gates requests and learns from response headers.
// *ratelimit.Tracker implements it.
type RateLimiter interface {
	ShouldAllowRequest(ctx context.Context) (bool, error)
	UpdateFromHeaders(ctx context.Context, headers http.Header) error
}

// Config holds the client configuration.
type Config struct {
	// Endpoint is the GraphQL URL queries are POSTed to.
	Endpoint string

	// UserAgent header sent with every request.
	UserAgent string

	// Timeout is applied to the HTTP client when it has none.
	Timeout time.Duration

	// Retry (transport failures only). MaxRetries counts the attempts made
	// after the first one; 0 disables retrying.
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// HTTPClient replaces the default client. Its redirect policy is overridden.
	HTTPClient *http.Client

	// RateLimiter is optional.
	RateLimiter RateLimiter

	// Logger defaults to the global zerolog logger.
	Logger *zerolog.Logger
}

// DefaultConfig returns a configuration pointing at the production endpoint.
func DefaultConfig() Config {
	return Config{
		Endpoint:       DefaultEndpoint,
		UserAgent:      "flare-explorer-client/0.1.0",
		Timeout:        30 * time.Second,
		MaxRetries:     3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
	}
}

// Client is the explorer GraphQL client. It holds only immutable
// configuration, so one instance may serve independent callers.
type Client struct {
	httpClient *http.Client
	endpoint   string
	userAgent  string
	retry      RetryConfig
	limiter    RateLimiter
	logger     zerolog.Logger
}

// New creates a new explorer client.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}

	endpoint, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if (endpoint.Scheme != "http" && endpoint.Scheme != "https") || endpoint.Host == "" {
		return nil, fmt.Errorf("endpoint must be an absolute http(s) URL (got %q)", cfg.Endpoint)
	}

	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max_retries must be >= 0 (got %d)", cfg.MaxRetries)
	}

	logger := logging.ForEndpoint("explorer-client", endpoint.String())
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str(logging.FieldEndpoint, endpoint.String()).Logger()
	}

	// Copy so the caller's client keeps its own redirect policy.
	httpClient := &http.Client{Timeout: cfg.Timeout}
	if cfg.HTTPClient != nil {
		copied := *cfg.HTTPClient
		httpClient = &copied
		if httpClient.Timeout == 0 {
			httpClient.Timeout = cfg.Timeout
		}
	}
	// A redirect is a completed request with a non-2xx status, not something to follow.
	httpClient.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	retry := DefaultRetryConfig()
	retry.MaxAttempts = cfg.MaxRetries + 1
	if cfg.InitialBackoff > 0 {
		retry.InitialBackoff = cfg.InitialBackoff
	}
	if cfg.MaxBackoff > 0 {
		retry.MaxBackoff = cfg.MaxBackoff
	}

	return &Client{
		httpClient: httpClient,
		endpoint:   endpoint.String(),
		userAgent:  cfg.UserAgent,
		retry:      retry,
		limiter:    cfg.RateLimiter,
		logger:     logger,
	}, nil
}

// Endpoint returns the URL queries are sent to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Query sends query to the explorer and returns the data payload.
//
// Failures are one of *TransportError, *BadResponseCodeError or *QueryError
// (see Classify). Transport failures are retried within the configured
// budget; everything else is returned on the first occurrence.
func (c *Client) Query(ctx context.Context, query string) (Data, error) {
	startTime := time.Now()
	defer func() {
		explorerRequestDuration.Observe(time.Since(startTime).Seconds())
	}()

	payload, err := json.Marshal(request{Query: query})
	if err != nil {
		return nil, c.fail(&TransportError{Op: "encode request", Err: err})
	}

	c.logger.Debug().
		Int("query_bytes", len(query)).
		Msg("Executing explorer query")

	var env *envelope
	err = retryWithBackoff(ctx, c.retry, c.logger, func() error {
		resp, sendErr := c.send(ctx, payload)
		if sendErr != nil {
			return sendErr
		}

		explorerRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

		if c.limiter != nil {
			if err := c.limiter.UpdateFromHeaders(ctx, resp.Header); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
			}
		}

		var decodeErr error
		env, decodeErr = decodeEnvelope(resp)
		return decodeErr
	})
	if err != nil {
		return nil, c.fail(err)
	}

	c.logger.Debug().Stringer("envelope", env).Msg("Explorer response received")

	data, err := env.result()
	if err != nil {
		return nil, c.fail(err)
	}

	return data, nil
}

// send performs one HTTP round trip. Every error it returns is a *TransportError.
func (c *Client) send(ctx context.Context, payload []byte) (*http.Response, error) {
	if c.limiter != nil {
		allowed, err := c.limiter.ShouldAllowRequest(ctx)
		if err != nil {
			return nil, &TransportError{Op: "rate limit check", Err: err}
		}
		if !allowed {
			explorerRequestsTotal.WithLabelValues("rate_limited").Inc()
			return nil, &TransportError{Op: "rate limit", Err: ErrRateLimited}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &TransportError{Op: "create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		explorerRequestsTotal.WithLabelValues("network_error").Inc()
		return nil, &TransportError{Op: "post query", Err: err, retryable: ctx.Err() == nil}
	}

	return resp, nil
}

// fail records the failure class and returns err unchanged.
func (c *Client) fail(err error) error {
	class := Classify(err)
	explorerErrorsTotal.WithLabelValues(string(class)).Inc()

	event := c.logger.Warn()
	if class == ErrorClassTransport {
		event = c.logger.Error()
	}
	event.Err(err).
		Str(logging.FieldErrorClass, string(class)).
		Msg("Explorer query failed")

	return err
}
