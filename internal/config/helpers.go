package config

import (
	"fmt"
	"net/url"
	"strings"
)

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Logging.Level == "debug" && c.Logging.Format == "console"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Logging.Level == "info" && c.Logging.Format == "json"
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.HTTPPort)
}

// QueryURL returns the absolute backend query endpoint
func (c *BackendConfig) QueryURL() string {
	return joinURL(c.BaseURL, c.QueryPath)
}

// RecommendURL returns the absolute backend recommendation endpoint
func (c *BackendConfig) RecommendURL() string {
	return joinURL(c.BaseURL, c.RecommendPath)
}

// RedactedURL hides credentials in a URL for logging
func RedactedURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}

func joinURL(base, path string) string {
	base = strings.TrimRight(base, "/")
	if path == "" {
		return base
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}
