// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Crawler   CrawlerConfig   `mapstructure:"crawler"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	DB        DBConfig        `mapstructure:"db"`
	Selectors SelectorsConfig `mapstructure:"selectors"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// CrawlerConfig governs the crawl loop.
type CrawlerConfig struct {
	Concurrency           int     `mapstructure:"concurrency"`
	MaxDepth              int     `mapstructure:"max_depth"`
	UserAgent             string  `mapstructure:"user_agent"`
	RateRPS               float64 `mapstructure:"rate_rps"`
	RateBurst             int     `mapstructure:"rate_burst"`
	ClaimBackoffInitialMs int     `mapstructure:"claim_backoff_initial_ms"`
	ClaimBackoffMaxMs     int     `mapstructure:"claim_backoff_max_ms"`
	IdlePollMs            int     `mapstructure:"idle_poll_ms"`
}

// HTTPConfig configures the outbound HTTP client.
type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	DSN           string `mapstructure:"dsn"`
	FrontierTable string `mapstructure:"frontier_table"`
	PagesTable    string `mapstructure:"pages_table"`
	MaxConns      int32  `mapstructure:"max_conns"`
	MinConns      int32  `mapstructure:"min_conns"`
}

// SelectorsConfig holds the CSS selector expressions for page metadata.
type SelectorsConfig struct {
	Title       string `mapstructure:"title"`
	Description string `mapstructure:"description"`
}

// ServerConfig controls the optional status/metrics HTTP server.
type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SCOPECRAWL")
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
	v.SetDefault("crawler.concurrency", 4)
	v.SetDefault("crawler.max_depth", 2)
	v.SetDefault("crawler.user_agent", "scopecrawl/0.1")
	v.SetDefault("crawler.rate_rps", 2.0)
	v.SetDefault("crawler.rate_burst", 1)
	v.SetDefault("crawler.claim_backoff_initial_ms", 250)
	v.SetDefault("crawler.claim_backoff_max_ms", 5000)
	v.SetDefault("crawler.idle_poll_ms", 100)
	v.SetDefault("http.timeout_seconds", 15)
	// Every key needs a default (even a zero one): AutomaticEnv only
	// resolves keys viper already knows about, so a default-less key would
	// ignore its SCOPECRAWL_* environment variable.
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.frontier_table", "frontier")
	v.SetDefault("db.pages_table", "pages")
	v.SetDefault("db.max_conns", 8)
	v.SetDefault("db.min_conns", 0)
	v.SetDefault("selectors.title", "title")
	v.SetDefault("selectors.description", `meta[name="description"]`)
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", 9090)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Crawler.Concurrency <= 0 {
		return fmt.Errorf("crawler.concurrency must be > 0")
	}
	if c.Crawler.MaxDepth < 0 {
		return fmt.Errorf("crawler.max_depth must be >= 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Server.Enabled && c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0 when the server is enabled")
	}
	return nil
}

// FetchTimeout returns the outbound HTTP timeout as a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// ClaimBackoffInitial returns the initial claim backoff as a duration.
func (c Config) ClaimBackoffInitial() time.Duration {
	return time.Duration(c.Crawler.ClaimBackoffInitialMs) * time.Millisecond
}

// ClaimBackoffMax returns the maximum claim backoff as a duration.
func (c Config) ClaimBackoffMax() time.Duration {
	return time.Duration(c.Crawler.ClaimBackoffMaxMs) * time.Millisecond
}

// IdlePoll returns the idle worker poll interval as a duration.
func (c Config) IdlePoll() time.Duration {
	return time.Duration(c.Crawler.IdlePollMs) * time.Millisecond
}
