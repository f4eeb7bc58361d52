package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName     string `mapstructure:"app_name"`
	Env         string `mapstructure:"app_env"`
	LogLevel    string `mapstructure:"log_level"`
	ListenAddr  string `mapstructure:"listen_addr"`
	SourcesFile string `mapstructure:"sources_file"`

	CacheType         string        `mapstructure:"cache_type"`
	BBoltPath         string        `mapstructure:"bbolt_path"`
	DynamoTableName   string        `mapstructure:"dynamodb_table_name"`
	DynamoEndpointURL string        `mapstructure:"dynamodb_endpoint_url"`
	DynamoRegion      string        `mapstructure:"dynamodb_region"`
	CacheTTLSeconds   int64         `mapstructure:"cache_ttl_seconds"`
	CacheTTL          time.Duration `mapstructure:"-"`
	CacheMaxItems     int           `mapstructure:"cache_max_items_per_source"`

	FetchWorkers     int    `mapstructure:"fetch_workers"`
	FetchEndpointURL string `mapstructure:"fetch_endpoint_url"`

	SessionType      string `mapstructure:"session_type"`
	SessionBBoltPath string `mapstructure:"session_bbolt_path"`

	NotifiersFile string `mapstructure:"notifiers_file"`

	QiitaAccessToken  string `mapstructure:"qiita_access_token"`
	GitHubAccessToken string `mapstructure:"github_access_token"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "bytesip-news-curator")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("sources_file", "./configs/sources.yaml")
	v.SetDefault("cache_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/cache.db")
	v.SetDefault("dynamodb_table_name", "")
	v.SetDefault("dynamodb_endpoint_url", "")
	v.SetDefault("dynamodb_region", "")
	v.SetDefault("cache_ttl_seconds", int64((24*time.Hour)/time.Second))
	v.SetDefault("cache_max_items_per_source", 30)
	v.SetDefault("fetch_workers", 3)
	v.SetDefault("fetch_endpoint_url", "")
	v.SetDefault("session_type", "memory")
	v.SetDefault("session_bbolt_path", "./data/sessions.db")
	v.SetDefault("notifiers_file", "")
	v.SetDefault("qiita_access_token", "")
	v.SetDefault("github_access_token", "")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CacheTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid cache_ttl_seconds (must be positive seconds)")
	}
	cfg.CacheTTL = time.Duration(cfg.CacheTTLSeconds) * time.Second

	if cfg.CacheMaxItems <= 0 {
		return nil, fmt.Errorf("invalid cache_max_items_per_source (must be positive)")
	}
	if cfg.FetchWorkers <= 0 {
		return nil, fmt.Errorf("invalid fetch_workers (must be positive)")
	}

	return &cfg, nil
}
