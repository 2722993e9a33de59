// Package ratelimit limits requests per client and endpoint with fixed
// windows counted in a pluggable Store.
package ratelimit

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Info contains information about rate limit status.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Limiter decides whether a request may proceed.
type Limiter struct {
	store         Store
	config        *Config
	logger        *zap.Logger
	now           func() time.Time
	cleanupTicker *time.Ticker
	cleanupStop   chan struct{}
}

// NewLimiter creates a rate limiter counting in store. A nil config uses
// DefaultConfig and a nil store an in-memory one.
func NewLimiter(config *Config, store Store, logger *zap.Logger) *Limiter {
	if config == nil {
		config = DefaultConfig()
	}
	if store == nil {
		store = NewMemoryStore()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	limiter := &Limiter{
		store:  store,
		config: config,
		logger: logger.Named("ratelimit"),
		now:    time.Now,
	}

	// Start cleanup goroutine if enabled
	if config.Enabled && config.CleanupInterval > 0 {
		limiter.cleanupTicker = time.NewTicker(config.CleanupInterval)
		limiter.cleanupStop = make(chan struct{})
		go limiter.cleanup()
	}

	return limiter
}

// Allow checks if a request from the given client is allowed for the specified endpoint.
// Returns true if allowed, false if rate limited, along with rate limit information.
// Store failures let the request through.
func (l *Limiter) Allow(ctx context.Context, clientID string, endpoint string, method string) (bool, Info) {
	if !l.config.Enabled || l.config.Whitelist[clientID] {
		return true, Info{Allowed: true}
	}
	if l.config.Blacklist[clientID] {
		return false, Info{Allowed: false}
	}

	// Find matching endpoint configuration
	endpointConfig := MatchEndpoint(endpoint, method, l.config.EndpointConfigs)
	if endpointConfig == nil {
		endpointConfig = &EndpointConfig{
			Limit:  l.config.DefaultLimit,
			Window: l.config.DefaultWindow,
		}
	}

	// Unlimited endpoint (e.g., health check)
	if endpointConfig.Limit <= 0 {
		return true, Info{Allowed: true}
	}

	// Prefix configs share one counter across the paths they cover.
	scope := endpoint
	if strings.HasSuffix(endpointConfig.Path, "/") {
		scope = endpointConfig.Path
	}
	key := clientID + ":" + method + ":" + scope
	counter, err := l.store.Hit(ctx, key, endpointConfig.Window)
	if err != nil {
		l.logger.Warn("rate limit store unavailable, allowing request",
			zap.String("key", key), zap.Error(err))
		return true, Info{Allowed: true, Limit: endpointConfig.Limit, Remaining: endpointConfig.Limit}
	}

	resetTime := counter.WindowStart.Add(endpointConfig.Window)
	allowed := counter.Count <= endpointConfig.Limit
	info := Info{
		Allowed:   allowed,
		Limit:     endpointConfig.Limit,
		Remaining: max(endpointConfig.Limit-counter.Count, 0),
		ResetTime: resetTime,
	}
	if !allowed {
		info.RetryAfter = max(resetTime.Sub(l.now()), 0)
	}
	return allowed, info
}

// cleanup sweeps expired windows until Stop is called.
func (l *Limiter) cleanup() {
	for {
		select {
		case <-l.cleanupTicker.C:
			l.store.Sweep(l.now())
		case <-l.cleanupStop:
			return
		}
	}
}

// Stop stops the cleanup goroutine.
func (l *Limiter) Stop() {
	if l.cleanupTicker != nil {
		l.cleanupTicker.Stop()
	}
	if l.cleanupStop != nil {
		close(l.cleanupStop)
	}
}
