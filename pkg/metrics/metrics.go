// Package metrics provides the Prometheus registry reference for the explorer client.
// All metrics are defined in their respective packages (client, explorer,
// checkpoint, ratelimit) to maintain modularity and avoid circular dependencies.
//
// This package provides documentation, the scrape handler and a reference
// list of all available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the explorer client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Names lists every metric family exported by this module.
var Names = []string{
	// pkg/client
	"explorer_requests_total",
	"explorer_request_duration_seconds",
	"explorer_errors_total",
	"explorer_retries_total",
	"explorer_retry_backoff_seconds",
	"explorer_retry_exhausted_total",
	// pkg/explorer
	"explorer_pages_fetched_total",
	// pkg/checkpoint
	"explorer_checkpoint_hits_total",
	"explorer_checkpoint_misses_total",
	"explorer_checkpoint_saves_total",
	"explorer_checkpoint_errors_total",
	// pkg/ratelimit
	"explorer_rate_limit_remaining",
	"explorer_rate_limit_blocks_total",
	"explorer_rate_limit_throttles_total",
}

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - explorer_requests_total{status} (Counter): Queries by outcome (HTTP status or error class)
//   - explorer_request_duration_seconds (Histogram): Query duration including retries
//   - explorer_errors_total{class} (Counter): Failed queries by class (transport, bad_response_code, query, precondition)
//
// Retry Metrics (pkg/client):
//   - explorer_retries_total (Counter): Transport retry attempts
//   - explorer_retry_backoff_seconds (Histogram): Backoff duration before a retry
//   - explorer_retry_exhausted_total (Counter): Queries that exhausted their retry budget
//
// Pagination Metrics (pkg/explorer):
//   - explorer_pages_fetched_total{resource} (Counter): Pages fetched per collection
//
// Checkpoint Metrics (pkg/checkpoint):
//   - explorer_checkpoint_hits_total (Counter): Walk checkpoints found
//   - explorer_checkpoint_misses_total (Counter): Lookups without a stored checkpoint
//   - explorer_checkpoint_saves_total (Counter): Checkpoints saved
//   - explorer_checkpoint_errors_total{operation} (Counter): Store errors by operation
//
// Rate Limit Metrics (pkg/ratelimit):
//   - explorer_rate_limit_remaining (Gauge): Requests remaining in the current window
//   - explorer_rate_limit_blocks_total (Counter): Requests blocked on an exhausted budget
//   - explorer_rate_limit_throttles_total (Counter): Requests delayed on a low budget
//
// Example Prometheus Queries:
//
//   # Query error rate by class
//   sum by (class) (rate(explorer_errors_total[5m]))
//
//   # Rate limit budget
//   explorer_rate_limit_remaining < 10
//
//   # P95 query latency
//   histogram_quantile(0.95, rate(explorer_request_duration_seconds_bucket[5m]))
//
//   # Token transfer pages per minute
//   rate(explorer_pages_fetched_total{resource="token_transfers"}[1m]) * 60
