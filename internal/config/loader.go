package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Load reads configuration from defaults, the config file, and
// CRAWLCHAT_-prefixed environment variables.
// Priority (highest to lowest): env vars > config file > defaults. No CLI
// flags are bound here.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("CRAWLCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("crawlchat")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".crawlchat"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	return Load(path)
}

// WatchReload re-reads the config file whenever it changes on disk and
// invokes onChange with the freshly parsed Config.
func WatchReload(configPath string, onChange func(*Config)) error {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		cfg := DefaultConfig()
		if err := v.Unmarshal(cfg); err == nil {
			onChange(cfg)
		}
	})
	v.WatchConfig()
	return nil
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("crawler.concurrency", cfg.Crawler.Concurrency)
	v.SetDefault("crawler.max_depth", cfg.Crawler.MaxDepth)
	v.SetDefault("crawler.max_pages", cfg.Crawler.MaxPages)
	v.SetDefault("crawler.max_documents", cfg.Crawler.MaxDocuments)
	v.SetDefault("crawler.request_timeout", cfg.Crawler.RequestTimeout)
	v.SetDefault("crawler.politeness_delay", cfg.Crawler.PolitenessDelay)
	v.SetDefault("crawler.respect_robots_txt", cfg.Crawler.RespectRobotsTxt)
	v.SetDefault("crawler.max_retries", cfg.Crawler.MaxRetries)
	v.SetDefault("crawler.retry_delay", cfg.Crawler.RetryDelay)
	v.SetDefault("crawler.checkpoint_interval", cfg.Crawler.CheckpointInterval)
	v.SetDefault("crawler.user_agents", cfg.Crawler.UserAgents)

	v.SetDefault("proxy_gateway.follow_redirects", cfg.ProxyGateway.FollowRedirects)
	v.SetDefault("proxy_gateway.max_redirects", cfg.ProxyGateway.MaxRedirects)
	v.SetDefault("proxy_gateway.max_body_size", cfg.ProxyGateway.MaxBodySize)
	v.SetDefault("proxy_gateway.idle_conn_timeout", cfg.ProxyGateway.IdleConnTimeout)
	v.SetDefault("proxy_gateway.max_idle_conns", cfg.ProxyGateway.MaxIdleConns)
	v.SetDefault("proxy_gateway.browser_pool_size", cfg.ProxyGateway.BrowserPoolSize)
	v.SetDefault("proxy_gateway.captcha_provider", cfg.ProxyGateway.CaptchaProvider)
	v.SetDefault("proxy_gateway.standard_retries", cfg.ProxyGateway.StandardRetries)
	v.SetDefault("proxy_gateway.stealth_retries", cfg.ProxyGateway.StealthRetries)
	v.SetDefault("proxy_gateway.retry_backoff", cfg.ProxyGateway.RetryBackoff)

	v.SetDefault("object_store.backend", cfg.ObjectStore.Backend)
	v.SetDefault("object_store.root_dir", cfg.ObjectStore.RootDir)

	v.SetDefault("meta_store.uri", cfg.MetaStore.URI)
	v.SetDefault("meta_store.database", cfg.MetaStore.Database)

	v.SetDefault("cache.backend", cfg.Cache.Backend)
	v.SetDefault("cache.redis_url", cfg.Cache.RedisURL)

	v.SetDefault("mq.url", cfg.MQ.URL)
	v.SetDefault("mq.stream_name", cfg.MQ.StreamName)

	v.SetDefault("vector_store.backend", cfg.VectorStore.Backend)
	v.SetDefault("vector_store.collection_name", cfg.VectorStore.CollectionName)
	v.SetDefault("vector_store.embedding_model", cfg.VectorStore.EmbeddingModel)
	v.SetDefault("vector_store.dimensions", cfg.VectorStore.Dimensions)

	v.SetDefault("chunker.size", cfg.Chunker.Size)
	v.SetDefault("chunker.overlap", cfg.Chunker.Overlap)

	v.SetDefault("ocr.provider", cfg.OCR.Provider)

	v.SetDefault("llm.provider", cfg.LLM.Provider)
	v.SetDefault("llm.endpoint", cfg.LLM.Endpoint)
	v.SetDefault("llm.model", cfg.LLM.Model)
	v.SetDefault("llm.max_tokens", cfg.LLM.MaxTokens)
	v.SetDefault("llm.temperature", cfg.LLM.Temperature)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.output", cfg.Logging.Output)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
