package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for crawlchat.
type Config struct {
	Crawler      CrawlerConfig      `mapstructure:"crawler"       yaml:"crawler"`
	ProxyGateway ProxyGatewayConfig `mapstructure:"proxy_gateway" yaml:"proxy_gateway"`
	ObjectStore  ObjectStoreConfig  `mapstructure:"object_store"  yaml:"object_store"`
	MetaStore    MetaStoreConfig    `mapstructure:"meta_store"    yaml:"meta_store"`
	Cache        CacheConfig        `mapstructure:"cache"         yaml:"cache"`
	MQ           MQConfig           `mapstructure:"mq"            yaml:"mq"`
	VectorStore  VectorStoreConfig  `mapstructure:"vector_store"  yaml:"vector_store"`
	Chunker      ChunkerConfig      `mapstructure:"chunker"       yaml:"chunker"`
	OCR          OCRConfig          `mapstructure:"ocr"           yaml:"ocr"`
	LLM          LLMConfig          `mapstructure:"llm"           yaml:"llm"`
	Logging      LoggingConfig      `mapstructure:"logging"       yaml:"logging"`
	Metrics      MetricsConfig      `mapstructure:"metrics"       yaml:"metrics"`
}

// CrawlerConfig controls the core crawl engine.
type CrawlerConfig struct {
	Concurrency        int           `mapstructure:"concurrency"          yaml:"concurrency"`
	MaxDepth           int           `mapstructure:"max_depth"            yaml:"max_depth"`
	MaxPages           int           `mapstructure:"max_pages"            yaml:"max_pages"`
	MaxDocuments       int           `mapstructure:"max_documents"        yaml:"max_documents"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"      yaml:"request_timeout"`
	PolitenessDelay    time.Duration `mapstructure:"politeness_delay"     yaml:"politeness_delay"`
	RespectRobotsTxt   bool          `mapstructure:"respect_robots_txt"   yaml:"respect_robots_txt"`
	MaxRetries         int           `mapstructure:"max_retries"          yaml:"max_retries"`
	RetryDelay         time.Duration `mapstructure:"retry_delay"          yaml:"retry_delay"`
	CheckpointInterval time.Duration `mapstructure:"checkpoint_interval"  yaml:"checkpoint_interval"`
	UserAgents         []string      `mapstructure:"user_agents"          yaml:"user_agents"`
	AllowedDomains     []string      `mapstructure:"allowed_domains"      yaml:"allowed_domains"`
	DisallowedDomains  []string      `mapstructure:"disallowed_domains"   yaml:"disallowed_domains"`
}

// ProxyGatewayConfig controls the fetch escalation ladder.
type ProxyGatewayConfig struct {
	FollowRedirects bool          `mapstructure:"follow_redirects"  yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
	BrowserPoolSize int           `mapstructure:"browser_pool_size" yaml:"browser_pool_size"`
	CaptchaProvider string        `mapstructure:"captcha_provider"  yaml:"captcha_provider"`
	CaptchaAPIKey   string        `mapstructure:"captcha_api_key"   yaml:"captcha_api_key"`

	// StandardRetries bounds retry attempts per tier for ModeStandard and
	// ModePremium before escalating further; StealthRetries bounds them
	// for ModeStealth, the most expensive tier.
	StandardRetries int           `mapstructure:"standard_retries" yaml:"standard_retries"`
	StealthRetries  int           `mapstructure:"stealth_retries"  yaml:"stealth_retries"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"    yaml:"retry_backoff"`
}

// ObjectStoreConfig controls raw-document blob storage.
type ObjectStoreConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend"` // "filesystem"
	RootDir string `mapstructure:"root_dir" yaml:"root_dir"`
}

// MetaStoreConfig controls the Mongo-backed entity store.
type MetaStoreConfig struct {
	URI      string `mapstructure:"uri"      yaml:"uri"`
	Database string `mapstructure:"database" yaml:"database"`
}

// CacheConfig controls the TTL key-value cache.
type CacheConfig struct {
	Backend  string `mapstructure:"backend"  yaml:"backend"` // "memory" or "redis"
	RedisURL string `mapstructure:"redis_url" yaml:"redis_url"`
}

// MQConfig controls the crawl-task worker dispatch queue.
type MQConfig struct {
	URL        string `mapstructure:"url"         yaml:"url"`
	StreamName string `mapstructure:"stream_name" yaml:"stream_name"`
}

// VectorStoreConfig controls the embedding index.
type VectorStoreConfig struct {
	Backend        string `mapstructure:"backend"         yaml:"backend"` // "qdrant" or "chromem"
	QdrantAddr     string `mapstructure:"qdrant_addr"     yaml:"qdrant_addr"`
	ChromemPath    string `mapstructure:"chromem_path"    yaml:"chromem_path"`
	CollectionName string `mapstructure:"collection_name" yaml:"collection_name"`
	EmbeddingModel string `mapstructure:"embedding_model" yaml:"embedding_model"`
	Dimensions     int    `mapstructure:"dimensions"      yaml:"dimensions"`
	Nodes          []string `mapstructure:"nodes"         yaml:"nodes"`
}

// ChunkerConfig controls how extracted text is split for embedding.
type ChunkerConfig struct {
	Size    int `mapstructure:"size"    yaml:"size"`    // target characters per chunk
	Overlap int `mapstructure:"overlap" yaml:"overlap"` // characters shared with the previous chunk
}

// OCRConfig controls the text-extraction tier chain's managed-OCR tier.
type OCRConfig struct {
	Provider string `mapstructure:"provider" yaml:"provider"`
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	APIKey   string `mapstructure:"api_key"  yaml:"api_key"`
}

// LLMConfig controls the answerer's completion endpoint.
type LLMConfig struct {
	Provider    string  `mapstructure:"provider"    yaml:"provider"`
	Endpoint    string  `mapstructure:"endpoint"    yaml:"endpoint"`
	Model       string  `mapstructure:"model"       yaml:"model"`
	APIKey      string  `mapstructure:"api_key"     yaml:"api_key"`
	MaxTokens   int     `mapstructure:"max_tokens"  yaml:"max_tokens"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Crawler: CrawlerConfig{
			Concurrency:        10,
			MaxDepth:           5,
			MaxPages:           1000,
			MaxDocuments:       200,
			RequestTimeout:     30 * time.Second,
			PolitenessDelay:    3 * time.Second,
			RespectRobotsTxt:   true,
			MaxRetries:         3,
			RetryDelay:         2 * time.Second,
			CheckpointInterval: 60 * time.Second,
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			},
		},
		ProxyGateway: ProxyGatewayConfig{
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024,
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    100,
			BrowserPoolSize: 4,
			CaptchaProvider: "2captcha",
			StandardRetries: 2,
			StealthRetries:  1,
			RetryBackoff:    time.Second,
		},
		ObjectStore: ObjectStoreConfig{
			Backend: "filesystem",
			RootDir: "./data/objects",
		},
		MetaStore: MetaStoreConfig{
			URI:      "mongodb://localhost:27017",
			Database: "crawlchat",
		},
		Cache: CacheConfig{
			Backend: "memory",
		},
		MQ: MQConfig{
			URL:        "nats://localhost:4222",
			StreamName: "CRAWL_TASKS",
		},
		VectorStore: VectorStoreConfig{
			Backend:        "chromem",
			ChromemPath:    "./data/vectors",
			CollectionName: "documents",
			EmbeddingModel: "BAAI/bge-small-en-v1.5",
			Dimensions:     384,
		},
		Chunker: ChunkerConfig{
			Size:    1000,
			Overlap: 150,
		},
		OCR: OCRConfig{
			Provider: "none",
		},
		LLM: LLMConfig{
			Provider:    "ollama",
			Endpoint:    "http://localhost:11434",
			Model:       "llama3",
			MaxTokens:   4000,
			Temperature: 0.1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
