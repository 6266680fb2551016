package app

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/quotebot/core/config"
	coredatabase "github.com/m3rciful/quotebot/core/database"
	"github.com/m3rciful/quotebot/internal/conversation"
)

// State backends.
const (
	StateMemory = "memory"
	StateRedis  = "redis"
)

// QuotesConfig tunes the quote provider and listings.
type QuotesConfig struct {
	ProviderURL       string `yaml:"provider_url" envconfig:"QUOTES_PROVIDER_URL"`
	ProviderTimeoutMS int    `yaml:"provider_timeout_ms" envconfig:"QUOTES_PROVIDER_TIMEOUT_MS"`
	// SearchScope is "chat" (default) or "global".
	SearchScope string `yaml:"search_scope" envconfig:"QUOTES_SEARCH_SCOPE"`
	PageSize    int    `yaml:"page_size" envconfig:"QUOTES_PAGE_SIZE"`
	SearchLimit int    `yaml:"search_limit" envconfig:"QUOTES_SEARCH_LIMIT"`
}

// ProviderTimeout returns the fetch timeout.
func (q QuotesConfig) ProviderTimeout() time.Duration {
	return time.Duration(q.ProviderTimeoutMS) * time.Millisecond
}

// StateConfig selects where pending steps live.
type StateConfig struct {
	Backend       string `yaml:"backend" envconfig:"STATE_BACKEND"`
	RedisAddr     string `yaml:"redis_addr" envconfig:"REDIS_ADDR"`
	RedisPassword string `yaml:"redis_password" envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" envconfig:"REDIS_DB"`
	TTLSeconds    int    `yaml:"ttl_seconds" envconfig:"STATE_TTL_SECONDS"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Listen is host:port for /metrics; empty disables the server.
	Listen string `yaml:"listen" envconfig:"METRICS_LISTEN"`
}

// Config is the full bot configuration: the core sections plus the quote bot's own.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Quotes   QuotesConfig        `yaml:"quotes"`
	State    StateConfig         `yaml:"state"`
	Metrics  MetricsConfig       `yaml:"metrics"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config { return &c.Config }

// LoadConfig reads path (optional) and the environment, then validates.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates every section and fills defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}
	if err := c.Database.Normalize(); err != nil {
		return err
	}

	c.Quotes.ProviderURL = strings.TrimSpace(c.Quotes.ProviderURL)
	if c.Quotes.ProviderTimeoutMS < 0 {
		return fmt.Errorf("quotes.provider_timeout_ms must be >= 0")
	}
	if c.Quotes.ProviderTimeoutMS == 0 {
		c.Quotes.ProviderTimeoutMS = 5000
	}
	switch scope := conversation.Scope(strings.ToLower(strings.TrimSpace(c.Quotes.SearchScope))); scope {
	case "":
		c.Quotes.SearchScope = string(conversation.ScopeChat)
	case conversation.ScopeChat, conversation.ScopeGlobal:
		c.Quotes.SearchScope = string(scope)
	default:
		return fmt.Errorf("invalid quotes.search_scope %q; allowed: chat, global", c.Quotes.SearchScope)
	}
	if c.Quotes.PageSize < 0 || c.Quotes.SearchLimit < 0 {
		return fmt.Errorf("quotes.page_size and quotes.search_limit must be >= 0")
	}

	backend := strings.ToLower(strings.TrimSpace(c.State.Backend))
	switch backend {
	case "", StateMemory:
		backend = StateMemory
	case StateRedis:
		if strings.TrimSpace(c.State.RedisAddr) == "" {
			return fmt.Errorf("state.redis_addr is required when state.backend is 'redis'")
		}
	default:
		return fmt.Errorf("invalid state.backend %q; allowed: memory, redis", c.State.Backend)
	}
	c.State.Backend = backend
	if c.State.TTLSeconds < 0 {
		return fmt.Errorf("state.ttl_seconds must be >= 0")
	}

	c.Metrics.Listen = strings.TrimSpace(c.Metrics.Listen)
	return nil
}

// LoadMigrateConfig reads the same sources as LoadConfig but validates only
// the database and logging sections, so migrations run without a bot token.
func LoadMigrateConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Database.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
