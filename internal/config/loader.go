package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from file, environment, and defaults.
// Priority (highest to lowest): env vars > config file > defaults.
// A .env file in the working directory is loaded into the environment first.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("DEALCARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("dealcard")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".dealcard"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper so that every key can be
// overridden from the environment.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.admin_key", cfg.Server.AdminKey)
	v.SetDefault("server.max_body_bytes", cfg.Server.MaxBodyBytes)
	v.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", cfg.Server.WriteTimeout)

	v.SetDefault("resolver.timeout", cfg.Resolver.Timeout)
	v.SetDefault("resolver.max_redirects", cfg.Resolver.MaxRedirects)
	v.SetDefault("resolver.extra_shorteners", cfg.Resolver.ExtraShorteners)

	v.SetDefault("fetcher.request_timeout", cfg.Fetcher.RequestTimeout)
	v.SetDefault("fetcher.max_redirects", cfg.Fetcher.MaxRedirects)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)
	v.SetDefault("fetcher.tls_insecure", cfg.Fetcher.TLSInsecure)
	v.SetDefault("fetcher.idle_conn_timeout", cfg.Fetcher.IdleConnTimeout)
	v.SetDefault("fetcher.max_idle_conns", cfg.Fetcher.MaxIdleConns)
	v.SetDefault("fetcher.domain_rps", cfg.Fetcher.DomainRPS)
	v.SetDefault("fetcher.domain_burst", cfg.Fetcher.DomainBurst)
	v.SetDefault("fetcher.respect_robots_txt", cfg.Fetcher.RespectRobotsTxt)
	v.SetDefault("fetcher.user_agents", cfg.Fetcher.UserAgents)

	v.SetDefault("proxy.enabled", cfg.Proxy.Enabled)
	v.SetDefault("proxy.rotation", cfg.Proxy.Rotation)
	v.SetDefault("proxy.urls", cfg.Proxy.URLs)

	v.SetDefault("browser.enabled", cfg.Browser.Enabled)
	v.SetDefault("browser.stealth", cfg.Browser.Stealth)
	v.SetDefault("browser.max_pages", cfg.Browser.MaxPages)
	v.SetDefault("browser.timeout", cfg.Browser.Timeout)

	v.SetDefault("affiliate.amazon_tag", cfg.Affiliate.AmazonTag)
	v.SetDefault("affiliate.flipkart_id", cfg.Affiliate.FlipkartID)
	v.SetDefault("affiliate.cuelinks_id", cfg.Affiliate.CuelinksID)
	v.SetDefault("affiliate.earnkaro_id", cfg.Affiliate.EarnKaroID)
	v.SetDefault("affiliate.earnkaro_platforms", cfg.Affiliate.EarnKaroPlatforms)
	v.SetDefault("affiliate.deodap_tag", cfg.Affiliate.DeodapTag)
	v.SetDefault("affiliate.utm_source", cfg.Affiliate.UTMSource)
	v.SetDefault("affiliate.utm_medium", cfg.Affiliate.UTMMedium)
	v.SetDefault("affiliate.utm_campaign", cfg.Affiliate.UTMCampaign)

	v.SetDefault("card.default_page", cfg.Card.DefaultPage)
	v.SetDefault("card.default_image_url", cfg.Card.DefaultImageURL)

	v.SetDefault("pipeline.timeout", cfg.Pipeline.Timeout)
	v.SetDefault("pipeline.max_name_length", cfg.Pipeline.MaxNameLength)

	v.SetDefault("bulk.batch_size", cfg.Bulk.BatchSize)
	v.SetDefault("bulk.batch_delay", cfg.Bulk.BatchDelay)
	v.SetDefault("bulk.max_urls", cfg.Bulk.MaxURLs)

	v.SetDefault("storage.backends", cfg.Storage.Backends)
	v.SetDefault("storage.output_path", cfg.Storage.OutputPath)
	v.SetDefault("storage.postgres_dsn", cfg.Storage.PostgresDSN)
	v.SetDefault("storage.postgres_table", cfg.Storage.PostgresTable)
	v.SetDefault("storage.mongo_uri", cfg.Storage.MongoURI)
	v.SetDefault("storage.mongo_database", cfg.Storage.MongoDatabase)
	v.SetDefault("storage.mongo_collection", cfg.Storage.MongoCollection)

	v.SetDefault("status.backend", cfg.Status.Backend)
	v.SetDefault("status.redis_url", cfg.Status.RedisURL)
	v.SetDefault("status.key_prefix", cfg.Status.KeyPrefix)
	v.SetDefault("status.ttl", cfg.Status.TTL)

	v.SetDefault("schedule.enabled", cfg.Schedule.Enabled)
	v.SetDefault("schedule.spec", cfg.Schedule.Spec)
	v.SetDefault("schedule.urls", cfg.Schedule.URLs)
	v.SetDefault("schedule.target_page", cfg.Schedule.TargetPage)
	v.SetDefault("schedule.save", cfg.Schedule.Save)

	v.SetDefault("mcp.enabled", cfg.MCP.Enabled)
	v.SetDefault("mcp.path", cfg.MCP.Path)
	v.SetDefault("mcp.api_key", cfg.MCP.APIKey)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
