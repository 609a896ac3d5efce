package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", cfg.Server.Port)
	}
	if cfg.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be > 0")
	}

	if cfg.Resolver.Timeout <= 0 {
		return fmt.Errorf("resolver.timeout must be > 0")
	}
	if cfg.Resolver.MaxRedirects < 1 {
		return fmt.Errorf("resolver.max_redirects must be >= 1, got %d", cfg.Resolver.MaxRedirects)
	}

	if cfg.Fetcher.RequestTimeout <= 0 {
		return fmt.Errorf("fetcher.request_timeout must be > 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("fetcher.max_redirects must be >= 0")
	}
	if cfg.Fetcher.DomainRPS < 0 {
		return fmt.Errorf("fetcher.domain_rps must be >= 0")
	}
	if cfg.Fetcher.DomainRPS > 0 && cfg.Fetcher.DomainBurst < 1 {
		return fmt.Errorf("fetcher.domain_burst must be >= 1 when domain_rps is set, got %d", cfg.Fetcher.DomainBurst)
	}

	if cfg.Proxy.Enabled {
		if cfg.Proxy.Rotation != "round_robin" && cfg.Proxy.Rotation != "random" {
			return fmt.Errorf("proxy.rotation must be 'round_robin' or 'random', got %q", cfg.Proxy.Rotation)
		}
		for _, proxyURL := range cfg.Proxy.URLs {
			if _, err := url.Parse(proxyURL); err != nil {
				return fmt.Errorf("invalid proxy URL %q: %w", proxyURL, err)
			}
		}
	}

	if cfg.Browser.Enabled && cfg.Browser.MaxPages < 1 {
		return fmt.Errorf("browser.max_pages must be >= 1, got %d", cfg.Browser.MaxPages)
	}

	if cfg.Pipeline.Timeout < 0 {
		return fmt.Errorf("pipeline.timeout must be >= 0")
	}

	if cfg.Bulk.BatchSize < 1 {
		return fmt.Errorf("bulk.batch_size must be >= 1, got %d", cfg.Bulk.BatchSize)
	}
	if cfg.Bulk.BatchDelay < 0 {
		return fmt.Errorf("bulk.batch_delay must be >= 0")
	}
	if cfg.Bulk.MaxURLs < 1 {
		return fmt.Errorf("bulk.max_urls must be >= 1, got %d", cfg.Bulk.MaxURLs)
	}

	validBackends := map[string]bool{
		"file": true, "postgres": true, "mongodb": true,
	}
	for _, b := range cfg.Storage.Backends {
		if !validBackends[b] {
			return fmt.Errorf("storage backend %q is not supported (valid: file, postgres, mongodb)", b)
		}
		if b == "postgres" && cfg.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn is required for the postgres backend")
		}
		if b == "mongodb" && cfg.Storage.MongoURI == "" {
			return fmt.Errorf("storage.mongo_uri is required for the mongodb backend")
		}
	}

	switch cfg.Status.Backend {
	case "memory":
	case "redis":
		if cfg.Status.RedisURL == "" {
			return fmt.Errorf("status.redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("status.backend must be 'memory' or 'redis', got %q", cfg.Status.Backend)
	}

	if cfg.Schedule.Enabled {
		if _, err := cron.ParseStandard(cfg.Schedule.Spec); err != nil {
			return fmt.Errorf("invalid schedule.spec %q: %w", cfg.Schedule.Spec, err)
		}
		if len(cfg.Schedule.URLs) == 0 {
			return fmt.Errorf("schedule.urls must not be empty when the schedule is enabled")
		}
	}

	if cfg.MCP.Enabled && !strings.HasPrefix(cfg.MCP.Path, "/") {
		return fmt.Errorf("mcp.path must start with '/', got %q", cfg.MCP.Path)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	return nil
}

// ValidateURL checks if a URL string is a fetchable http(s) URL.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
