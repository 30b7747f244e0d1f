package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for rate limit tracking.
var (
	rateLimitRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "explorer_rate_limit_remaining",
		Help: "Requests remaining in the current explorer rate limit window",
	})

	rateLimitBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "explorer_rate_limit_blocks_total",
		Help: "Total number of requests blocked because the rate limit budget was exhausted",
	})

	rateLimitThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "explorer_rate_limit_throttles_total",
		Help: "Total number of requests delayed because the rate limit budget was low",
	})
)

// Config holds tracker configuration.
type Config struct {
	// KeyPrefix namespaces the Redis keys (default "flare:rate_limit").
	KeyPrefix string

	// ThrottleDelay is how long a request waits when the budget is low (default 1s).
	ThrottleDelay time.Duration

	// StateGrace keeps state in Redis this long past the window reset (default 1m).
	StateGrace time.Duration
}

// DefaultConfig returns the default tracker configuration.
func DefaultConfig() Config {
	return Config{
		KeyPrefix:     "flare:rate_limit",
		ThrottleDelay: time.Second,
		StateGrace:    time.Minute,
	}
}

// Tracker monitors the explorer's rate limit and gates requests.
// It satisfies client.RateLimiter.
type Tracker struct {
	redis  *redis.Client
	logger zerolog.Logger
	config Config
}

// NewTracker creates a new rate limit tracker. Zero fields in cfg take their defaults.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger, cfg Config) *Tracker {
	def := DefaultConfig()
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = def.KeyPrefix
	}
	if cfg.ThrottleDelay <= 0 {
		cfg.ThrottleDelay = def.ThrottleDelay
	}
	if cfg.StateGrace <= 0 {
		cfg.StateGrace = def.StateGrace
	}

	return &Tracker{
		redis:  redisClient,
		logger: logger,
		config: cfg,
	}
}

func (t *Tracker) key(suffix string) string {
	return t.config.KeyPrefix + ":" + suffix
}

// GetState retrieves the current rate limit state from Redis.
// Returns a default healthy state if no data exists in Redis.
func (t *Tracker) GetState(ctx context.Context) (*RateLimitState, error) {
	values, err := t.redis.MGet(ctx,
		t.key(keyLimit),
		t.key(keyRemaining),
		t.key(keyResetAt),
		t.key(keyLastUpdate),
	).Result()
	if err != nil {
		return nil, fmt.Errorf("get rate limit state: %w", err)
	}

	if values[1] == nil {
		t.logger.Debug().Msg("No rate limit state in Redis, returning default healthy state")
		state := &RateLimitState{
			Remaining:  defaultRemaining,
			LastUpdate: time.Now(),
		}
		state.UpdateHealth()
		return state, nil
	}

	limit, err := redisInt(values[0])
	if err != nil {
		return nil, fmt.Errorf("parse limit: %w", err)
	}
	remaining, err := redisInt(values[1])
	if err != nil {
		return nil, fmt.Errorf("parse remaining: %w", err)
	}
	resetAtMs, err := redisInt(values[2])
	if err != nil {
		return nil, fmt.Errorf("parse reset timestamp: %w", err)
	}

	var lastUpdate time.Time
	if s, ok := values[3].(string); ok && s != "" {
		if err := json.Unmarshal([]byte(s), &lastUpdate); err != nil {
			return nil, fmt.Errorf("parse last update: %w", err)
		}
	}

	state := &RateLimitState{
		Limit:      int(limit),
		Remaining:  int(remaining),
		ResetAt:    time.UnixMilli(resetAtMs),
		LastUpdate: lastUpdate,
	}
	state.UpdateHealth()

	return state, nil
}

// UpdateFromHeaders parses the explorer's rate limit headers and updates Redis state.
// Responses without X-RateLimit-Remaining leave the state untouched.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, headers http.Header) error {
	remainStr := headers.Get(HeaderRemaining)
	if remainStr == "" {
		return nil
	}

	remain, err := strconv.Atoi(remainStr)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderRemaining, err)
	}

	resetStr := headers.Get(HeaderReset)
	if resetStr == "" {
		return fmt.Errorf("%s header missing", HeaderReset)
	}

	resetMs, err := strconv.ParseInt(resetStr, 10, 64)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderReset, err)
	}

	limit := 0
	if limitStr := headers.Get(HeaderLimit); limitStr != "" {
		if limit, err = strconv.Atoi(limitStr); err != nil {
			return fmt.Errorf("parse %s header: %w", HeaderLimit, err)
		}
	}

	now := time.Now()
	state := &RateLimitState{
		Limit:      limit,
		Remaining:  remain,
		ResetAt:    now.Add(time.Duration(resetMs) * time.Millisecond),
		LastUpdate: now,
	}
	state.UpdateHealth()

	lastUpdateJSON, err := json.Marshal(state.LastUpdate)
	if err != nil {
		return fmt.Errorf("marshal last update: %w", err)
	}

	// State outlives its window only by the grace period
	expiry := state.TimeUntilReset() + t.config.StateGrace

	pipe := t.redis.TxPipeline()
	pipe.Set(ctx, t.key(keyLimit), limit, expiry)
	pipe.Set(ctx, t.key(keyRemaining), remain, expiry)
	pipe.Set(ctx, t.key(keyResetAt), state.ResetAt.UnixMilli(), expiry)
	pipe.Set(ctx, t.key(keyLastUpdate), lastUpdateJSON, expiry)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store rate limit state in redis: %w", err)
	}

	rateLimitRemaining.Set(float64(remain))

	switch {
	case state.NeedsCriticalBlock():
		t.logger.Error().
			Int("remaining", remain).
			Time("reset_at", state.ResetAt).
			Msg("Explorer rate limit CRITICAL - requests will be blocked")
	case state.NeedsThrottling():
		t.logger.Warn().
			Int("remaining", remain).
			Time("reset_at", state.ResetAt).
			Msg("Explorer rate limit WARNING - requests will be throttled")
	default:
		t.logger.Debug().
			Int("limit", limit).
			Int("remaining", remain).
			Time("reset_at", state.ResetAt).
			Bool("is_healthy", state.IsHealthy).
			Msg("Explorer rate limit state updated")
	}

	return nil
}

// ShouldAllowRequest checks if a request should be allowed based on current rate limit state.
// Returns false if the budget is exhausted and the window has not reset.
// Returns true but may wait for throttling if the budget is low; the wait
// ends early with the context's error if ctx is done.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, fmt.Errorf("get rate limit state: %w", err)
	}

	if state.NeedsCriticalBlock() {
		t.logger.Error().
			Int("remaining", state.Remaining).
			Dur("wait_duration", state.TimeUntilReset()).
			Msg("Explorer rate limit exhausted - blocking request")

		rateLimitBlocksTotal.Inc()
		return false, nil
	}

	if state.NeedsThrottling() {
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Dur("delay", t.config.ThrottleDelay).
			Msg("Explorer rate limit low - throttling request")

		rateLimitThrottlesTotal.Inc()

		timer := time.NewTimer(t.config.ThrottleDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-timer.C:
		}
	}

	return true, nil
}

// redisInt converts an MGET value to an integer; nil counts as 0.
func redisInt(v any) (int64, error) {
	switch val := v.(type) {
	case nil:
		return 0, nil
	case string:
		return strconv.ParseInt(val, 10, 64)
	default:
		return 0, errors.New("unexpected redis value type")
	}
}
