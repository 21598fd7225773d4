package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Crawler.Concurrency < 1 {
		return fmt.Errorf("crawler.concurrency must be >= 1, got %d", cfg.Crawler.Concurrency)
	}
	if cfg.Crawler.Concurrency > 1000 {
		return fmt.Errorf("crawler.concurrency must be <= 1000, got %d", cfg.Crawler.Concurrency)
	}
	if cfg.Crawler.MaxDepth < 0 {
		return fmt.Errorf("crawler.max_depth must be >= 0, got %d", cfg.Crawler.MaxDepth)
	}
	if cfg.Crawler.RequestTimeout <= 0 {
		return fmt.Errorf("crawler.request_timeout must be > 0")
	}
	if cfg.Crawler.PolitenessDelay < 0 {
		return fmt.Errorf("crawler.politeness_delay must be >= 0")
	}
	if cfg.Crawler.MaxRetries < 0 {
		return fmt.Errorf("crawler.max_retries must be >= 0, got %d", cfg.Crawler.MaxRetries)
	}

	if cfg.ProxyGateway.MaxBodySize <= 0 {
		return fmt.Errorf("proxy_gateway.max_body_size must be > 0")
	}
	if cfg.ProxyGateway.MaxRedirects < 0 {
		return fmt.Errorf("proxy_gateway.max_redirects must be >= 0")
	}

	validObjectStoreBackends := map[string]bool{"filesystem": true}
	if !validObjectStoreBackends[cfg.ObjectStore.Backend] {
		return fmt.Errorf("object_store.backend %q is not supported", cfg.ObjectStore.Backend)
	}

	validCacheBackends := map[string]bool{"memory": true, "redis": true}
	if !validCacheBackends[cfg.Cache.Backend] {
		return fmt.Errorf("cache.backend must be 'memory' or 'redis', got %q", cfg.Cache.Backend)
	}
	if cfg.Cache.Backend == "redis" && cfg.Cache.RedisURL == "" {
		return fmt.Errorf("cache.redis_url is required when cache.backend is 'redis'")
	}

	validVectorBackends := map[string]bool{"qdrant": true, "chromem": true}
	if !validVectorBackends[cfg.VectorStore.Backend] {
		return fmt.Errorf("vector_store.backend must be 'qdrant' or 'chromem', got %q", cfg.VectorStore.Backend)
	}
	if cfg.VectorStore.Dimensions <= 0 {
		return fmt.Errorf("vector_store.dimensions must be > 0")
	}

	validLLMProviders := map[string]bool{"ollama": true, "openai": true, "custom": true}
	if !validLLMProviders[cfg.LLM.Provider] {
		return fmt.Errorf("llm.provider must be ollama/openai/custom, got %q", cfg.LLM.Provider)
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

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// ValidateURL checks if a URL string is valid for crawling.
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
