package ratelimit

import (
	"net/http"
	"strings"
)

// unlimited is returned for endpoints that are never limited.
var unlimited = EndpointConfig{}

// MatchEndpoint matches a request path and method to an endpoint configuration.
// Returns the matching EndpointConfig or nil if no match is found.
// Path matching supports prefix matching (e.g., "/candidates/" matches "/candidates/{id}").
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	// Probes and scrapes are unlimited
	if method == http.MethodGet && (path == "/health" || path == "/metrics") {
		cfg := unlimited
		return &cfg
	}

	// Try exact match first
	for i := range configs {
		config := &configs[i]
		if config.Path == path && config.Method == method {
			return config
		}
	}

	// Longest prefix wins (for paths ending with "/")
	var best *EndpointConfig
	for i := range configs {
		config := &configs[i]
		if config.Method != method || !strings.HasSuffix(config.Path, "/") {
			continue
		}
		if strings.HasPrefix(path, config.Path) && (best == nil || len(config.Path) > len(best.Path)) {
			best = config
		}
	}
	return best
}
