// Package ratelimit tracks the remote inventory service's request quota and
// gates outgoing calls. It monitors the X-RateLimit-Remaining and
// X-RateLimit-Reset response headers so the client backs off before the
// service starts rejecting requests.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for rate limit tracking.
var (
	rateLimitRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "inflow_rate_limit_remaining",
		Help: "Number of requests remaining in the current rate limit window",
	})

	rateLimitBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inflow_rate_limit_blocks_total",
		Help: "Total number of requests blocked because the quota was exhausted",
	})

	rateLimitThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inflow_rate_limit_throttles_total",
		Help: "Total number of requests throttled near the quota limit",
	})
)

// Thresholds for rate limit decisions.
const (
	// RemainingCritical blocks requests until the window resets.
	RemainingCritical = 2

	// RemainingWarning applies a short throttle delay before each request.
	RemainingWarning = 10
)

// throttleDelay is the pause applied per request in the warning band.
const throttleDelay = 500 * time.Millisecond

// State is the last observed rate limit window.
type State struct {
	// Remaining is the number of requests left in the window, from the
	// X-RateLimit-Remaining header.
	Remaining int `json:"remaining"`

	// ResetAt is when the window resets, from the X-RateLimit-Reset header
	// (seconds until reset).
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when this state was last refreshed from headers.
	LastUpdate time.Time `json:"last_update"`
}

// TimeUntilReset returns the duration until the window resets, or 0 if the
// reset time has passed.
func (s *State) TimeUntilReset() time.Duration {
	d := time.Until(s.ResetAt)
	if d < 0 {
		return 0
	}
	return d
}

// Tracker monitors the remote quota and gates requests. State is
// process-local; a fresh tracker assumes a healthy window until the first
// response arrives.
type Tracker struct {
	mu     sync.Mutex
	state  State
	logger zerolog.Logger
}

// NewTracker creates a rate limit tracker in the healthy state.
func NewTracker(logger zerolog.Logger) *Tracker {
	return &Tracker{
		state: State{
			Remaining:  100,
			ResetAt:    time.Now().Add(60 * time.Second),
			LastUpdate: time.Now(),
		},
		logger: logger,
	}
}

// State returns a copy of the last observed state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// UpdateFromHeaders parses rate limit headers and updates the tracker.
// Responses without the headers leave the state untouched.
func (t *Tracker) UpdateFromHeaders(headers http.Header) error {
	remainStr := headers.Get("X-RateLimit-Remaining")
	if remainStr == "" {
		return nil
	}

	remain, err := strconv.Atoi(remainStr)
	if err != nil {
		return err
	}

	resetAt := time.Now().Add(60 * time.Second)
	if resetStr := headers.Get("X-RateLimit-Reset"); resetStr != "" {
		if resetSeconds, err := strconv.Atoi(resetStr); err == nil {
			resetAt = time.Now().Add(time.Duration(resetSeconds) * time.Second)
		}
	}

	t.mu.Lock()
	t.state = State{
		Remaining:  remain,
		ResetAt:    resetAt,
		LastUpdate: time.Now(),
	}
	t.mu.Unlock()

	rateLimitRemaining.Set(float64(remain))

	switch {
	case remain < RemainingCritical:
		t.logger.Error().
			Int("remaining", remain).
			Time("reset_at", resetAt).
			Msg("Rate limit exhausted - requests will be blocked")
	case remain < RemainingWarning:
		t.logger.Warn().
			Int("remaining", remain).
			Time("reset_at", resetAt).
			Msg("Rate limit low - requests will be throttled")
	default:
		t.logger.Debug().
			Int("remaining", remain).
			Msg("Rate limit state updated")
	}

	return nil
}

// ShouldAllowRequest reports whether a request may proceed. It returns false
// while the quota is exhausted and the window has not reset. In the warning
// band it sleeps briefly before allowing the request.
func (t *Tracker) ShouldAllowRequest() bool {
	state := t.State()

	if state.Remaining < RemainingCritical && state.TimeUntilReset() > 0 {
		t.logger.Error().
			Int("remaining", state.Remaining).
			Dur("wait", state.TimeUntilReset()).
			Msg("Rate limit exhausted - blocking request")
		rateLimitBlocksTotal.Inc()
		return false
	}

	if state.Remaining < RemainingWarning {
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Msg("Rate limit low - throttling request")
		rateLimitThrottlesTotal.Inc()
		time.Sleep(throttleDelay)
	}

	return true
}
