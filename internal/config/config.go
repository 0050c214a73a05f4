// Package config loads worker settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	ScopeShared = "shared"
	ScopeLocal  = "local"
)

// Config holds every worker setting.
type Config struct {
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	QueueKey      string `envconfig:"QUEUE_KEY" default:"url_queue"`
	VisitedKey    string `envconfig:"VISITED_KEY" default:"visited_urls"`

	Concurrency         int           `envconfig:"CONCURRENCY" default:"1"`
	PolitenessInterval  time.Duration `envconfig:"POLITENESS_INTERVAL" default:"1s"`
	PolitenessScope     string        `envconfig:"POLITENESS_SCOPE" default:"shared"`
	PolitenessKeyPrefix string        `envconfig:"POLITENESS_KEY_PREFIX" default:"politeness:"`
	GlobalRPS           float64       `envconfig:"GLOBAL_RPS" default:"0"`

	FetchTimeout   time.Duration `envconfig:"FETCH_TIMEOUT" default:"5s"`
	ConnectTimeout time.Duration `envconfig:"CONNECT_TIMEOUT" default:"3s"`
	MaxBodyBytes   int64         `envconfig:"MAX_BODY_BYTES" default:"2097152"`
	UserAgent      string        `envconfig:"USER_AGENT"`
	ProxyURL       string        `envconfig:"PROXY_URL"`
	ProxyPool      string        `envconfig:"PROXY_POOL"`
	Hostname       string        `envconfig:"HOSTNAME"`

	EmptyBackoff    time.Duration `envconfig:"EMPTY_BACKOFF" default:"10s"`
	StoreRetryDelay time.Duration `envconfig:"STORE_RETRY_DELAY" default:"1s"`
	PublishTimeout  time.Duration `envconfig:"PUBLISH_TIMEOUT" default:"5s"`
	PublishBuffer   int           `envconfig:"PUBLISH_BUFFER" default:"256"`

	SeedURLs []string `envconfig:"SEED_URLS" default:"https://www.google.com,https://www.wikipedia.org,https://www.python.org"`
	SeedFile string   `envconfig:"SEED_FILE"`

	NormalizeURLs        bool `envconfig:"NORMALIZE_URLS" default:"false"`
	ResolveRelativeLinks bool `envconfig:"RESOLVE_RELATIVE_LINKS" default:"false"`
	ClaimOnDequeue       bool `envconfig:"CLAIM_ON_DEQUEUE" default:"false"`
	PublishEdges         bool `envconfig:"PUBLISH_EDGES" default:"true"`

	// KafkaBroker empty means pages are only logged.
	KafkaBroker        string `envconfig:"KAFKA_BROKER"`
	KafkaPagesTopic    string `envconfig:"KAFKA_PAGES_TOPIC" default:"crawl.pages"`
	KafkaEdgesTopic    string `envconfig:"KAFKA_EDGES_TOPIC" default:"crawl.edges"`
	KafkaFailuresTopic string `envconfig:"KAFKA_FAILURES_TOPIC" default:"crawl.failures"`

	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"json"`
}

// Load reads .env if present, then the process environment, and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if _, statErr := os.Stat(".env"); statErr == nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the worker cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.RedisAddr == "" {
		errs = append(errs, errors.New("REDIS_ADDR is required"))
	}
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("CONCURRENCY must be at least 1, got %d", c.Concurrency))
	}
	if c.PolitenessInterval < 0 {
		errs = append(errs, fmt.Errorf("POLITENESS_INTERVAL must not be negative, got %s", c.PolitenessInterval))
	}
	if c.PolitenessScope != ScopeShared && c.PolitenessScope != ScopeLocal {
		errs = append(errs, fmt.Errorf("POLITENESS_SCOPE must be %q or %q, got %q", ScopeShared, ScopeLocal, c.PolitenessScope))
	}
	if c.GlobalRPS < 0 {
		errs = append(errs, fmt.Errorf("GLOBAL_RPS must not be negative, got %v", c.GlobalRPS))
	}
	if c.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("FETCH_TIMEOUT must be positive, got %s", c.FetchTimeout))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("MAX_BODY_BYTES must be positive, got %d", c.MaxBodyBytes))
	}
	if c.EmptyBackoff <= 0 {
		errs = append(errs, fmt.Errorf("EMPTY_BACKOFF must be positive, got %s", c.EmptyBackoff))
	}
	return errors.Join(errs...)
}
