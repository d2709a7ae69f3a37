// Package ratelimit provides per-key token bucket rate limiting for the
// seatsim MCP tools. Batch requests are charged by size so that a single
// million-run request consumes the same budget as many small ones.
package ratelimit

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
)

// ErrRateLimited is wrapped by every error CheckLimit and CheckCost return.
var ErrRateLimited = errors.New("rate limit exceeded")

// RunsPerToken is how many batch runs one token pays for.
const RunsPerToken = 100_000

// Limiter implements a per-key token bucket rate limiter.
// Each key gets its own bucket with the configured rate and burst.
// It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64          // tokens per second
	burst   float64          // bucket capacity, also the initial token count
	nowFunc func() time.Time // injectable clock for testing
}

type bucket struct {
	tokens    float64
	lastCheck time.Time
}

// NewLimiter creates a rate limiter with the given rate (tokens/sec) and burst size.
func NewLimiter(rate float64, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   float64(burst),
		nowFunc: time.Now,
	}
}

// Allow reports whether a single-token request for key may proceed.
func (l *Limiter) Allow(key string) bool {
	return l.AllowN(key, 1)
}

// AllowN reports whether a request costing n tokens may proceed, and
// deducts the tokens if so. A rejected request consumes nothing.
// Requests costing more than the burst are never allowed.
func (l *Limiter) AllowN(key string, n float64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.burst, lastCheck: now}
		l.buckets[key] = b
	}

	if elapsed := now.Sub(b.lastCheck).Seconds(); elapsed > 0 {
		b.tokens = math.Min(b.tokens+l.rate*elapsed, l.burst)
		b.lastCheck = now
	}

	if b.tokens < n {
		return false
	}
	b.tokens -= n
	return true
}

// Tokens returns the tokens currently available to key without consuming any.
func (l *Limiter) Tokens(key string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		return l.burst
	}
	elapsed := l.nowFunc().Sub(b.lastCheck).Seconds()
	return math.Min(b.tokens+l.rate*math.Max(elapsed, 0), l.burst)
}

// ToolLimiters maps tool names to their rate limiters.
type ToolLimiters map[string]*Limiter

// NewToolLimiters creates the default set of per-tool rate limiters.
func NewToolLimiters() ToolLimiters {
	return ToolLimiters{
		"seatsim_run":   NewLimiter(1.0, 10),       // 60/minute, burst 10
		"seatsim_batch": NewLimiter(10.0/60.0, 10), // 1M runs/minute, burst 1M runs
	}
}

// BatchCost converts a batch size into tokens. Every batch costs at least
// one token.
func BatchCost(runs int) float64 {
	return math.Max(1, float64(runs)/RunsPerToken)
}

// CheckLimit checks the rate limit for a single call of toolName.
// Tools without a configured limiter are always allowed.
func CheckLimit(limiters ToolLimiters, toolName string) error {
	return CheckCost(limiters, toolName, 1)
}

// CheckCost checks the rate limit for a call of toolName costing cost tokens.
func CheckCost(limiters ToolLimiters, toolName string, cost float64) error {
	limiter, ok := limiters[toolName]
	if !ok {
		return nil
	}

	if !limiter.AllowN(toolName, cost) {
		return fmt.Errorf("%w for %s, please try again shortly", ErrRateLimited, toolName)
	}

	return nil
}
