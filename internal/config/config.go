// Package config loads and validates harvester configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Crawler CrawlerConfig `mapstructure:"crawler"`
	Input   InputConfig   `mapstructure:"input"`
	Output  OutputConfig  `mapstructure:"output"`
	Storage StorageConfig `mapstructure:"storage"`
	Index   IndexConfig   `mapstructure:"index"`
	Server  ServerConfig  `mapstructure:"server"`
	Auth    AuthConfig    `mapstructure:"auth"`
	PubSub  PubSubConfig  `mapstructure:"pubsub"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// CrawlerConfig governs fetch, retry and concurrency behavior.
type CrawlerConfig struct {
	Concurrency    int           `mapstructure:"concurrency"`
	Retries        int           `mapstructure:"retries"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	VerifyTLS      bool          `mapstructure:"verify_tls"`
	UserAgent      string        `mapstructure:"user_agent"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
}

// InputConfig names the local CSV files read by the commands.
type InputConfig struct {
	DomainsFile string `mapstructure:"domains_file"`
	NamesFile   string `mapstructure:"names_file"`
}

// OutputConfig places artifacts inside the blob store.
type OutputConfig struct {
	Prefix     string `mapstructure:"prefix"`
	MergedFile string `mapstructure:"merged_file"`
}

// StorageConfig selects the blob store backend.
type StorageConfig struct {
	Backend   string `mapstructure:"backend"`
	LocalDir  string `mapstructure:"local_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
}

// IndexConfig selects the profile document store.
type IndexConfig struct {
	Backend    string `mapstructure:"backend"`
	DSN        string `mapstructure:"dsn"`
	Collection string `mapstructure:"collection"`
	MaxConns   int32  `mapstructure:"max_conns"`
}

// ServerConfig controls the matching API.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// PubSubConfig holds metadata for run-summary notifications.
type PubSubConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Storage and index backends.
const (
	BackendLocal    = "local"
	BackendGCS      = "gcs"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("HARVESTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("crawler.concurrency", 20)
	v.SetDefault("crawler.retries", 2)
	v.SetDefault("crawler.retry_delay", time.Second)
	v.SetDefault("crawler.request_timeout", 45*time.Second)
	v.SetDefault("crawler.verify_tls", false)
	v.SetDefault("crawler.user_agent", "")
	v.SetDefault("crawler.rate_limit_rps", 0.0)
	v.SetDefault("crawler.rate_limit_burst", 1)
	v.SetDefault("input.domains_file", "data/domains.csv")
	v.SetDefault("input.names_file", "data/company_names.csv")
	v.SetDefault("output.prefix", "")
	v.SetDefault("output.merged_file", "merged_profiles.jsonl")
	v.SetDefault("storage.backend", BackendLocal)
	v.SetDefault("storage.local_dir", "output")
	v.SetDefault("index.backend", BackendMemory)
	v.SetDefault("index.collection", "companies")
	v.SetDefault("index.max_conns", 4)
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("pubsub.topic_name", "crawl-runs")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "info")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Crawler.Concurrency <= 0 {
		return fmt.Errorf("crawler.concurrency must be > 0")
	}
	if c.Crawler.Retries <= 0 {
		return fmt.Errorf("crawler.retries must be > 0")
	}
	if c.Crawler.RetryDelay < 0 {
		return fmt.Errorf("crawler.retry_delay must be >= 0")
	}
	if c.Crawler.RequestTimeout <= 0 {
		return fmt.Errorf("crawler.request_timeout must be > 0")
	}
	switch c.Storage.Backend {
	case BackendLocal:
		if strings.TrimSpace(c.Storage.LocalDir) == "" {
			return fmt.Errorf("storage.local_dir is required for the local backend")
		}
	case BackendGCS:
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket is required for the gcs backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown storage.backend %q", c.Storage.Backend)
	}
	switch c.Index.Backend {
	case BackendPostgres:
		if c.Index.DSN == "" {
			return fmt.Errorf("index.dsn is required for the postgres backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown index.backend %q", c.Index.Backend)
	}
	if c.Index.Collection == "" {
		return fmt.Errorf("index.collection must be set")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	if c.PubSub.Enabled && (c.PubSub.ProjectID == "" || c.PubSub.TopicName == "") {
		return fmt.Errorf("pubsub.project_id and pubsub.topic_name are required when pubsub is enabled")
	}
	return nil
}
