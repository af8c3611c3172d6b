package interceptor

import (
	"context"
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/stijnvanbael/redstone/dispatch"
	rserrors "github.com/stijnvanbael/redstone/errors"
)

// RateLimiter decides whether a request identified by key may proceed.
type RateLimiter interface {
	Allow(key string) bool
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	// Rate is the sustained number of requests per second per key.
	Rate int

	// Burst is the maximum burst size per key.
	Burst int

	// KeyFunc extracts the limiting key from the request.
	// Optional. Defaults to the client IP.
	KeyFunc func(c *dispatch.Ctx) string

	// Store is the rate limiter implementation.
	// Optional. Defaults to an in-memory token-bucket store.
	Store RateLimiter
}

// DefaultRateLimitConfig returns a default rate limit configuration.
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		Rate:  10,
		Burst: 20,
	}
}

// RateLimit returns an interceptor that aborts with 429 when the client's
// token bucket is empty.
func RateLimit(requestsPerSecond, burst int) dispatch.InterceptorFunc {
	cfg := DefaultRateLimitConfig()
	cfg.Rate = requestsPerSecond
	cfg.Burst = burst
	return RateLimitWithConfig(cfg)
}

// RateLimitWithConfig returns a rate limit interceptor with config.
func RateLimitWithConfig(config *RateLimitConfig) dispatch.InterceptorFunc {
	if config == nil {
		config = DefaultRateLimitConfig()
	}
	if config.KeyFunc == nil {
		config.KeyFunc = clientIP
	}
	if config.Store == nil {
		config.Store = NewMemoryStore(config.Rate, config.Burst)
	}

	return func(ctx context.Context, ch *dispatch.Chain) error {
		c := dispatch.MustFromContext(ctx)
		if !config.Store.Allow(config.KeyFunc(c)) {
			return rserrors.TooManyRequests("rate limit exceeded")
		}
		return ch.Next()
	}
}

func clientIP(c *dispatch.Ctx) string {
	if ip := c.Header("X-Real-Ip"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(c.Request().RemoteAddr)
	if err != nil {
		return c.Request().RemoteAddr
	}
	return host
}

// limiterEntry holds a rate limiter and its last access time.
type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// MemoryStore is an in-memory per-key token bucket store. Idle entries are
// dropped by a background cleanup loop.
type MemoryStore struct {
	rate     rate.Limit
	burst    int
	mu       sync.Mutex
	limiters map[string]*limiterEntry

	ttl      time.Duration
	cleanup  *time.Ticker
	stopped  chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore creates an in-memory store allowing r requests per second
// with bursts up to b per key.
func NewMemoryStore(r, b int) *MemoryStore {
	store := &MemoryStore{
		rate:     rate.Limit(r),
		burst:    b,
		limiters: make(map[string]*limiterEntry),
		ttl:      10 * time.Minute,
		cleanup:  time.NewTicker(time.Minute),
		stopped:  make(chan struct{}),
	}
	go store.cleanupLoop()
	return store
}

// Allow reports whether the key may make a request now.
func (s *MemoryStore) Allow(key string) bool {
	s.mu.Lock()
	entry, ok := s.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(s.rate, s.burst)}
		s.limiters[key] = entry
	}
	entry.lastAccess = time.Now()
	s.mu.Unlock()
	return entry.limiter.Allow()
}

// Stop terminates the cleanup loop.
func (s *MemoryStore) Stop() {
	s.stopOnce.Do(func() {
		s.cleanup.Stop()
		close(s.stopped)
	})
}

func (s *MemoryStore) cleanupLoop() {
	for {
		select {
		case <-s.stopped:
			return
		case <-s.cleanup.C:
			cutoff := time.Now().Add(-s.ttl)
			s.mu.Lock()
			for key, entry := range s.limiters {
				if entry.lastAccess.Before(cutoff) {
					delete(s.limiters, key)
				}
			}
			s.mu.Unlock()
		}
	}
}
