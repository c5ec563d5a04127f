package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`

	// StoreDriver selects the record store backend: "sqlite" or "postgres".
	StoreDriver string `mapstructure:"STORE_DRIVER"`
	DBFile      string `mapstructure:"DB_FILE"`
	PostgresURL string `mapstructure:"POSTGRES_URL"`

	// RedisAddr is optional. When set, Redis backs the known-URL cache and
	// the cross-process crawl lock.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	ListingURL          string `mapstructure:"LISTING_URL"`
	ProfileLinkSelector string `mapstructure:"PROFILE_LINK_SELECTOR"`
	NameSelector        string `mapstructure:"NAME_SELECTOR"`
	PhoneSelector       string `mapstructure:"PHONE_SELECTOR"`
	AboutSelector       string `mapstructure:"ABOUT_SELECTOR"`

	// FetchMode is "browser" (headless chrome) or "http".
	FetchMode       string        `mapstructure:"FETCH_MODE"`
	PageLoadTimeout time.Duration `mapstructure:"PAGE_LOAD_TIMEOUT"`
	CrawlTimeout    time.Duration `mapstructure:"CRAWL_TIMEOUT"`
	PaceMin         time.Duration `mapstructure:"PACE_MIN"`
	PaceMax         time.Duration `mapstructure:"PACE_MAX"`
	ProxyURLs       []string      `mapstructure:"PROXY_URLS"`

	CrawlInterval time.Duration `mapstructure:"CRAWL_INTERVAL"`
	CrawlOnStart  bool          `mapstructure:"CRAWL_ON_START"`

	ExportFile string `mapstructure:"EXPORT_FILE"`
}

// Load reads configuration from an optional .env file and the environment.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// A missing .env is fine; production is configured purely through the environment.
	_ = v.ReadInConfig()

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ProxyURLs = splitList(cfg.ProxyURLs)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_DRIVER", "sqlite")
	v.SetDefault("DB_FILE", "scraper.db")
	v.SetDefault("POSTGRES_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LISTING_URL", "https://www.fgirl.ch/filles/")
	v.SetDefault("PROFILE_LINK_SELECTOR", "a.girl-card")
	v.SetDefault("NAME_SELECTOR", "h1")
	v.SetDefault("PHONE_SELECTOR", "a[href^='tel:']")
	v.SetDefault("ABOUT_SELECTOR", ".about")
	v.SetDefault("FETCH_MODE", "browser")
	v.SetDefault("PAGE_LOAD_TIMEOUT", "60s")
	v.SetDefault("CRAWL_TIMEOUT", "2h")
	v.SetDefault("PACE_MIN", "2s")
	v.SetDefault("PACE_MAX", "5s")
	v.SetDefault("PROXY_URLS", "")
	v.SetDefault("CRAWL_INTERVAL", "0s")
	v.SetDefault("CRAWL_ON_START", false)
	v.SetDefault("EXPORT_FILE", "output.csv")
}

// Validate checks the combinations viper cannot express as defaults.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case "sqlite":
		if c.DBFile == "" {
			return fmt.Errorf("DB_FILE is required for the sqlite store")
		}
	case "postgres":
		if c.PostgresURL == "" {
			return fmt.Errorf("POSTGRES_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.FetchMode {
	case "browser", "http":
	default:
		return fmt.Errorf("unknown FETCH_MODE %q", c.FetchMode)
	}

	if c.PaceMin < 0 || c.PaceMax < c.PaceMin {
		return fmt.Errorf("invalid pacing interval [%s, %s]", c.PaceMin, c.PaceMax)
	}
	if c.ListingURL == "" {
		return fmt.Errorf("LISTING_URL is required")
	}
	if c.CrawlTimeout < 0 {
		return fmt.Errorf("CRAWL_TIMEOUT must not be negative")
	}
	// the redis lock expires CrawlTimeout after it is taken
	if c.RedisAddr != "" && c.CrawlTimeout == 0 {
		return fmt.Errorf("CRAWL_TIMEOUT must be positive when REDIS_ADDR is set")
	}
	return nil
}

// splitList flattens comma separated entries, which is how list values
// arrive from the environment.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
