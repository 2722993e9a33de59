package ratelimit

import (
	"net/http"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// DefaultConfig returns an enabled configuration with the default endpoint tiers.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		Whitelist:       make(map[string]bool),
		Blacklist:       make(map[string]bool),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	write := func(path, method string) EndpointConfig {
		return EndpointConfig{Path: path, Method: method, Limit: 100, Window: time.Minute}
	}
	return []EndpointConfig{
		// Tier 1: credential endpoints (strictest limits)
		{Path: "/auth/login", Method: http.MethodPost, Limit: 10, Window: time.Minute},
		{Path: "/auth/register", Method: http.MethodPost, Limit: 5, Window: time.Hour},
		{Path: "/auth/password", Method: http.MethodPut, Limit: 5, Window: time.Hour},

		// Tier 2: CV uploads and interviews
		{Path: "/candidates/", Method: http.MethodPost, Limit: 30, Window: time.Minute},

		// Tier 3: write operations (moderate limits)
		write("/employees", http.MethodPost),
		write("/employees/", http.MethodPut),
		write("/employees/", http.MethodDelete),
		write("/departments", http.MethodPost),
		write("/departments/", http.MethodPut),
		write("/departments/", http.MethodDelete),
		write("/candidates", http.MethodPost),
		write("/candidates/", http.MethodPut),
		write("/candidates/", http.MethodDelete),
		write("/onboarding/", http.MethodPost),
		write("/onboarding/", http.MethodPut),
		write("/onboarding/", http.MethodDelete),

		// Tier 4: reads use the default limit
		// Tier 5: /health and /metrics are unlimited, handled in the matcher
	}
}

// ipSet turns a list of client IPs into a lookup set.
func ipSet(ips []string) map[string]bool {
	set := make(map[string]bool, len(ips))
	for _, ip := range ips {
		if ip != "" {
			set[ip] = true
		}
	}
	return set
}

// NewConfig builds a Config from loaded settings with the default endpoint tiers.
func NewConfig(enabled bool, defaultLimit int, defaultWindow, cleanupInterval time.Duration, whitelist, blacklist []string) *Config {
	return &Config{
		Enabled:         enabled,
		DefaultLimit:    defaultLimit,
		DefaultWindow:   defaultWindow,
		CleanupInterval: cleanupInterval,
		Whitelist:       ipSet(whitelist),
		Blacklist:       ipSet(blacklist),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}
