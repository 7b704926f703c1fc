package http

import (
	"context"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Backoff tuning applied after a host rate limits us.
const (
	InitialBackoff        = 1 * time.Second
	MaxBackoff            = 60 * time.Second
	BackoffMultiplier     = 2.0
	BackoffCooldownPeriod = 5 * time.Minute
	// MinRPSMultiplier is the floor for rate reduction (0.25 = 25% of original).
	MinRPSMultiplier = 0.25
)

// RateLimiterConfig defines rate limiting behavior.
type RateLimiterConfig struct {
	// DefaultRPS applies to hosts without a custom rate. 0 disables limiting.
	DefaultRPS float64
	// CustomRates maps host names to RPS values.
	CustomRates map[string]float64
	// EnableDynamicBackoff reduces a host's rate after rate-limit responses.
	EnableDynamicBackoff bool
}

// DefaultRateLimiterConfig returns conservative defaults for YouTube hosts.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		DefaultRPS: 2.5,
		CustomRates: map[string]float64{
			"www.googleapis.com":     1.0,
			"youtube.googleapis.com": 1.0,
		},
		EnableDynamicBackoff: true,
	}
}

// RateLimiter manages per-host token buckets and backoff after 429/503.
type RateLimiter struct {
	mu           sync.Mutex
	limiters     map[string]*rate.Limiter
	backoffState map[string]*BackoffState
	config       RateLimiterConfig
}

// BackoffState tracks rate limit backoff for a host.
type BackoffState struct {
	CurrentBackoff    time.Duration
	LastError         time.Time
	ConsecutiveErrors int
	OriginalRPS       float64
	ReducedRPS        float64
}

// NewRateLimiter creates a new rate limiter with the given configuration.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.CustomRates == nil {
		cfg.CustomRates = make(map[string]float64)
	}
	return &RateLimiter{
		limiters:     make(map[string]*rate.Limiter),
		backoffState: make(map[string]*BackoffState),
		config:       cfg,
	}
}

// Wait blocks until the host of urlStr has a token available.
func (rl *RateLimiter) Wait(ctx context.Context, urlStr string) error {
	if rl == nil {
		return nil
	}
	limiter := rl.getLimiter(extractDomain(urlStr))
	if limiter == nil {
		return nil
	}
	return limiter.Wait(ctx)
}

func (rl *RateLimiter) getLimiter(domain string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, ok := rl.limiters[domain]; ok {
		return limiter
	}
	rps := rl.rpsLocked(domain)
	if rps <= 0 {
		return nil
	}
	limiter := rate.NewLimiter(rate.Limit(rps), 1)
	rl.limiters[domain] = limiter
	return limiter
}

func (rl *RateLimiter) rpsLocked(domain string) float64 {
	if rps, ok := rl.config.CustomRates[domain]; ok {
		return rps
	}
	return rl.config.DefaultRPS
}

// RecordRateLimitError records a rate limit response for the host and returns
// the recommended backoff before the next attempt.
func (rl *RateLimiter) RecordRateLimitError(urlStr string, retryAfter time.Duration) time.Duration {
	if rl == nil || !rl.config.EnableDynamicBackoff {
		if retryAfter > 0 {
			return retryAfter
		}
		return InitialBackoff
	}

	domain := extractDomain(urlStr)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	state, ok := rl.backoffState[domain]
	if !ok {
		state = &BackoffState{
			CurrentBackoff: InitialBackoff,
			OriginalRPS:    rl.rpsLocked(domain),
		}
		rl.backoffState[domain] = state
	}

	state.LastError = time.Now()
	state.ConsecutiveErrors++
	if state.ConsecutiveErrors > 1 {
		state.CurrentBackoff = time.Duration(float64(state.CurrentBackoff) * BackoffMultiplier)
		if state.CurrentBackoff > MaxBackoff {
			state.CurrentBackoff = MaxBackoff
		}
	}
	if retryAfter > state.CurrentBackoff {
		state.CurrentBackoff = retryAfter
	}

	factor := 0.75
	switch {
	case state.ConsecutiveErrors >= 3:
		factor = MinRPSMultiplier
	case state.ConsecutiveErrors == 2:
		factor = 0.5
	}
	state.ReducedRPS = state.OriginalRPS * factor
	if limiter, ok := rl.limiters[domain]; ok && state.ReducedRPS > 0 {
		limiter.SetLimit(rate.Limit(state.ReducedRPS))
	}

	return state.CurrentBackoff
}

// RecordSuccess restores the host's rate once the cooldown has elapsed.
func (rl *RateLimiter) RecordSuccess(urlStr string) {
	if rl == nil || !rl.config.EnableDynamicBackoff {
		return
	}

	domain := extractDomain(urlStr)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	state, ok := rl.backoffState[domain]
	if !ok {
		return
	}

	if time.Since(state.LastError) > BackoffCooldownPeriod {
		if limiter, ok := rl.limiters[domain]; ok && state.OriginalRPS > 0 {
			limiter.SetLimit(rate.Limit(state.OriginalRPS))
		}
		delete(rl.backoffState, domain)
		return
	}

	if state.ConsecutiveErrors > 0 {
		state.ConsecutiveErrors--
	}
}

// GetBackoffState returns a copy of the backoff state for the host of urlStr,
// or nil if the host is not backed off.
func (rl *RateLimiter) GetBackoffState(urlStr string) *BackoffState {
	if rl == nil {
		return nil
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	state, ok := rl.backoffState[extractDomain(urlStr)]
	if !ok {
		return nil
	}
	cp := *state
	return &cp
}

// WaitForBackoff waits for the current backoff period of the host to expire.
func (rl *RateLimiter) WaitForBackoff(ctx context.Context, urlStr string) error {
	state := rl.GetBackoffState(urlStr)
	if state == nil {
		return nil
	}

	remaining := state.CurrentBackoff - time.Since(state.LastError)
	if remaining <= 0 {
		return nil
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// extractDomain returns the host of urlStr without port.
func extractDomain(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return u.Hostname()
}
