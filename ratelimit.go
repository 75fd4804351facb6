package livelang

import (
	"context"
	"sync"
	"time"
)

// RateLimiter controls the rate of requests using a token bucket algorithm.
type RateLimiter struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

// RateLimitConfig configures the rate limiter.
type RateLimitConfig struct {
	RequestsPerMinute int // Maximum requests per minute
	BurstSize         int // Maximum burst size (default: same as RPM)
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	rpm := float64(cfg.RequestsPerMinute)
	if rpm <= 0 {
		rpm = 60 // Default: 60 RPM
	}

	burst := float64(cfg.BurstSize)
	if burst <= 0 {
		burst = rpm // Default burst = RPM
	}

	return &RateLimiter{
		tokens:     burst, // Start with full bucket
		maxTokens:  burst,
		refillRate: rpm / 60.0, // Convert to tokens per second
		lastRefill: time.Now(),
	}
}

// Wait blocks until a token is available or context is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		if r.TryAcquire() {
			return nil
		}

		// Calculate wait time for next token
		r.mu.Lock()
		waitTime := time.Duration(float64(time.Second) / r.refillRate)
		r.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
			// Try again
		}
	}
}

// TryAcquire attempts to acquire a token without blocking.
// Returns true if a token was acquired, false otherwise.
func (r *RateLimiter) TryAcquire() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refill()

	if r.tokens >= 1 {
		r.tokens--
		return true
	}

	return false
}

// refill adds tokens based on elapsed time (must be called with lock held).
func (r *RateLimiter) refill() {
	now := time.Now()
	elapsed := now.Sub(r.lastRefill).Seconds()
	r.lastRefill = now

	r.tokens += elapsed * r.refillRate
	if r.tokens > r.maxTokens {
		r.tokens = r.maxTokens
	}
}

// Available returns the current number of available tokens.
func (r *RateLimiter) Available() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refill()
	return r.tokens
}

// KeyedRateLimiter keeps one token bucket per key, such as a client address.
type KeyedRateLimiter struct {
	cfg      RateLimitConfig
	limiters map[string]*keyedLimiter
	mu       sync.Mutex
}

type keyedLimiter struct {
	limiter  *RateLimiter
	lastSeen time.Time
}

// NewKeyedRateLimiter creates a limiter applying cfg to every key separately.
func NewKeyedRateLimiter(cfg RateLimitConfig) *KeyedRateLimiter {
	return &KeyedRateLimiter{
		cfg:      cfg,
		limiters: make(map[string]*keyedLimiter),
	}
}

// Allow takes a token from the bucket of key.
func (k *KeyedRateLimiter) Allow(key string) bool {
	k.mu.Lock()
	entry, ok := k.limiters[key]
	if !ok {
		entry = &keyedLimiter{limiter: NewRateLimiter(k.cfg)}
		k.limiters[key] = entry
	}
	entry.lastSeen = time.Now()
	k.mu.Unlock()

	return entry.limiter.TryAcquire()
}

// Prune forgets keys idle for longer than idle and returns how many were removed.
func (k *KeyedRateLimiter) Prune(idle time.Duration) int {
	k.mu.Lock()
	defer k.mu.Unlock()

	cutoff := time.Now().Add(-idle)
	removed := 0
	for key, entry := range k.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(k.limiters, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (k *KeyedRateLimiter) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.limiters)
}
