package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Default cleanup interval and TTL for rate limiter entries
const (
	defaultCleanupInterval = 5 * time.Minute
	defaultCleanupTTL      = 10 * time.Minute
)

// limiterEntry stores a rate limiter with its last access time for TTL-based cleanup
type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter limits requests per client IP. Idle entries are evicted so
// the map does not grow without bound.
type RateLimiter struct {
	limiters   map[string]*limiterEntry
	mu         sync.Mutex
	rate       rate.Limit
	burst      int
	cleanupTTL time.Duration
	stopOnce   sync.Once
	stopCh     chan struct{}
}

// NewRateLimiter creates a per-IP rate limiter. requestsPerMinute is
// clamped to at least 1.
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	return NewRateLimiterWithTTL(requestsPerMinute, defaultCleanupTTL)
}

// NewRateLimiterWithTTL creates a rate limiter with custom cleanup TTL
func NewRateLimiterWithTTL(requestsPerMinute int, cleanupTTL time.Duration) *RateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 1
	}
	if cleanupTTL <= 0 {
		cleanupTTL = defaultCleanupTTL
	}

	rl := &RateLimiter{
		limiters:   make(map[string]*limiterEntry),
		rate:       rate.Every(time.Minute / time.Duration(requestsPerMinute)),
		burst:      requestsPerMinute,
		cleanupTTL: cleanupTTL,
		stopCh:     make(chan struct{}),
	}

	go rl.cleanupLoop(defaultCleanupInterval)

	return rl
}

func (rl *RateLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup removes entries that haven't been accessed within the TTL
func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for key, entry := range rl.limiters {
		if now.Sub(entry.lastSeen) > rl.cleanupTTL {
			delete(rl.limiters, key)
		}
	}
}

// Stop stops the background cleanup goroutine
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if entry, exists := rl.limiters[key]; exists {
		entry.lastSeen = now
		return entry.limiter
	}

	limiter := rate.NewLimiter(rl.rate, rl.burst)
	rl.limiters[key] = &limiterEntry{
		limiter:  limiter,
		lastSeen: now,
	}
	return limiter
}

// Limit returns middleware that rate limits by IP. c.ClientIP only
// trusts forwarding headers from the proxies configured on the engine.
func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.getLimiter(c.ClientIP()).Allow() {
			c.Header("Retry-After", "60")
			abortWithError(c, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Too many requests. Please try again later.")
			return
		}
		c.Next()
	}
}

// Size returns the current number of entries in the limiter map
func (rl *RateLimiter) Size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}
