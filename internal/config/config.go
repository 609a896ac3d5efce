package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for dealcard.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    yaml:"server"`
	Resolver  ResolverConfig  `mapstructure:"resolver"  yaml:"resolver"`
	Fetcher   FetcherConfig   `mapstructure:"fetcher"   yaml:"fetcher"`
	Proxy     ProxyConfig     `mapstructure:"proxy"     yaml:"proxy"`
	Browser   BrowserConfig   `mapstructure:"browser"   yaml:"browser"`
	Affiliate AffiliateConfig `mapstructure:"affiliate" yaml:"affiliate"`
	Card      CardConfig      `mapstructure:"card"      yaml:"card"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"  yaml:"pipeline"`
	Bulk      BulkConfig      `mapstructure:"bulk"      yaml:"bulk"`
	Storage   StorageConfig   `mapstructure:"storage"   yaml:"storage"`
	Status    StatusConfig    `mapstructure:"status"    yaml:"status"`
	Schedule  ScheduleConfig  `mapstructure:"schedule"  yaml:"schedule"`
	MCP       MCPConfig       `mapstructure:"mcp"       yaml:"mcp"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"   yaml:"metrics"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Port         int           `mapstructure:"port"           yaml:"port"`
	AdminKey     string        `mapstructure:"admin_key"      yaml:"admin_key"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"   yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"  yaml:"write_timeout"`
}

// ResolverConfig controls shortened-link resolution.
type ResolverConfig struct {
	Timeout         time.Duration `mapstructure:"timeout"          yaml:"timeout"`
	MaxRedirects    int           `mapstructure:"max_redirects"    yaml:"max_redirects"`
	ExtraShorteners []string      `mapstructure:"extra_shorteners" yaml:"extra_shorteners"`
}

// FetcherConfig controls product page fetching.
type FetcherConfig struct {
	RequestTimeout   time.Duration `mapstructure:"request_timeout"    yaml:"request_timeout"`
	MaxRedirects     int           `mapstructure:"max_redirects"      yaml:"max_redirects"`
	MaxBodySize      int64         `mapstructure:"max_body_size"      yaml:"max_body_size"`
	TLSInsecure      bool          `mapstructure:"tls_insecure"       yaml:"tls_insecure"`
	IdleConnTimeout  time.Duration `mapstructure:"idle_conn_timeout"  yaml:"idle_conn_timeout"`
	MaxIdleConns     int           `mapstructure:"max_idle_conns"     yaml:"max_idle_conns"`
	DomainRPS        float64       `mapstructure:"domain_rps"         yaml:"domain_rps"` // 0 disables the per-domain limiter
	DomainBurst      int           `mapstructure:"domain_burst"       yaml:"domain_burst"`
	RespectRobotsTxt bool          `mapstructure:"respect_robots_txt" yaml:"respect_robots_txt"`
	UserAgents       []string      `mapstructure:"user_agents"        yaml:"user_agents"`
}

// ProxyConfig controls proxy rotation for page fetches.
type ProxyConfig struct {
	Enabled  bool     `mapstructure:"enabled"  yaml:"enabled"`
	Rotation string   `mapstructure:"rotation" yaml:"rotation"`
	URLs     []string `mapstructure:"urls"     yaml:"urls"`
}

// BrowserConfig controls the headless renderer used for JS-heavy platforms.
type BrowserConfig struct {
	Enabled  bool          `mapstructure:"enabled"   yaml:"enabled"`
	Stealth  bool          `mapstructure:"stealth"   yaml:"stealth"`
	MaxPages int           `mapstructure:"max_pages" yaml:"max_pages"`
	Timeout  time.Duration `mapstructure:"timeout"   yaml:"timeout"`
}

// AffiliateConfig holds network IDs and tracking parameters.
type AffiliateConfig struct {
	AmazonTag         string   `mapstructure:"amazon_tag"         yaml:"amazon_tag"`
	FlipkartID        string   `mapstructure:"flipkart_id"        yaml:"flipkart_id"`
	CuelinksID        string   `mapstructure:"cuelinks_id"        yaml:"cuelinks_id"`
	EarnKaroID        string   `mapstructure:"earnkaro_id"        yaml:"earnkaro_id"`
	EarnKaroPlatforms []string `mapstructure:"earnkaro_platforms" yaml:"earnkaro_platforms"`
	DeodapTag         string   `mapstructure:"deodap_tag"         yaml:"deodap_tag"`
	UTMSource         string   `mapstructure:"utm_source"         yaml:"utm_source"`
	UTMMedium         string   `mapstructure:"utm_medium"         yaml:"utm_medium"`
	UTMCampaign       string   `mapstructure:"utm_campaign"       yaml:"utm_campaign"`
}

// CardConfig controls product card defaults.
type CardConfig struct {
	DefaultPage     string `mapstructure:"default_page"      yaml:"default_page"`
	DefaultImageURL string `mapstructure:"default_image_url" yaml:"default_image_url"`
}

// PipelineConfig controls a single URL run.
type PipelineConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"         yaml:"timeout"` // 0 = per-stage timeouts only
	MaxNameLength int           `mapstructure:"max_name_length" yaml:"max_name_length"`
}

// BulkConfig controls the bulk orchestrator.
type BulkConfig struct {
	BatchSize  int           `mapstructure:"batch_size"  yaml:"batch_size"`
	BatchDelay time.Duration `mapstructure:"batch_delay" yaml:"batch_delay"`
	MaxURLs    int           `mapstructure:"max_urls"    yaml:"max_urls"`
}

// StorageConfig controls the content store.
type StorageConfig struct {
	Backends        []string `mapstructure:"backends"         yaml:"backends"` // file, postgres, mongodb
	OutputPath      string   `mapstructure:"output_path"      yaml:"output_path"`
	PostgresDSN     string   `mapstructure:"postgres_dsn"     yaml:"postgres_dsn"`
	PostgresTable   string   `mapstructure:"postgres_table"   yaml:"postgres_table"`
	MongoURI        string   `mapstructure:"mongo_uri"        yaml:"mongo_uri"`
	MongoDatabase   string   `mapstructure:"mongo_database"   yaml:"mongo_database"`
	MongoCollection string   `mapstructure:"mongo_collection" yaml:"mongo_collection"`
}

// StatusConfig controls the processing status store.
type StatusConfig struct {
	Backend   string        `mapstructure:"backend"    yaml:"backend"` // memory, redis
	RedisURL  string        `mapstructure:"redis_url"  yaml:"redis_url"`
	KeyPrefix string        `mapstructure:"key_prefix" yaml:"key_prefix"`
	TTL       time.Duration `mapstructure:"ttl"        yaml:"ttl"`
}

// ScheduleConfig controls periodic bulk runs over a watch list.
type ScheduleConfig struct {
	Enabled    bool     `mapstructure:"enabled"     yaml:"enabled"`
	Spec       string   `mapstructure:"spec"        yaml:"spec"`
	URLs       []string `mapstructure:"urls"        yaml:"urls"`
	TargetPage string   `mapstructure:"target_page" yaml:"target_page"`
	Save       bool     `mapstructure:"save"        yaml:"save"`
}

// MCPConfig controls the MCP tool endpoint mounted on the API server.
type MCPConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path"    yaml:"path"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls the Prometheus text endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			MaxBodyBytes: 1 << 20,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute,
		},
		Resolver: ResolverConfig{
			Timeout:      10 * time.Second,
			MaxRedirects: 10,
		},
		Fetcher: FetcherConfig{
			RequestTimeout:  30 * time.Second,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    100,
			DomainRPS:       2,
			DomainBurst:     3,
		},
		Proxy: ProxyConfig{
			Rotation: "round_robin",
		},
		Browser: BrowserConfig{
			Stealth:  true,
			MaxPages: 3,
			Timeout:  30 * time.Second,
		},
		Affiliate: AffiliateConfig{
			AmazonTag:         "pickntrust-21",
			EarnKaroPlatforms: []string{},
			UTMSource:         "pickntrust",
			UTMMedium:         "affiliate",
			UTMCampaign:       "product_link",
		},
		Card: CardConfig{
			DefaultPage: "prime-picks",
		},
		Pipeline: PipelineConfig{
			MaxNameLength: 300,
		},
		Bulk: BulkConfig{
			BatchSize:  3,
			BatchDelay: 2 * time.Second,
			MaxURLs:    50,
		},
		Storage: StorageConfig{
			Backends:        []string{"file"},
			OutputPath:      "./output/cards.jsonl",
			PostgresTable:   "unified_content",
			MongoDatabase:   "dealcard",
			MongoCollection: "unified_content",
		},
		Status: StatusConfig{
			Backend:   "memory",
			KeyPrefix: "dealcard",
			TTL:       24 * time.Hour,
		},
		Schedule: ScheduleConfig{
			Spec:       "@every 6h",
			TargetPage: "prime-picks",
		},
		MCP: MCPConfig{
			Path: "/mcp",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}
