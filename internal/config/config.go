package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// ErrInvalidConfig marks fatal configuration problems detected before any
// crawl starts.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is assembled once from file, environment and flags, then handed to
// the crawl engine as a fixed value.
type Config struct {
	Crawler CrawlerConfig `mapstructure:"crawler"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// CrawlerConfig holds everything the crawl engine consumes.
type CrawlerConfig struct {
	MaxPages     int           `mapstructure:"max_pages"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Delay        time.Duration `mapstructure:"delay"`
	Workers      int           `mapstructure:"workers"`
	MaxPageBytes int64         `mapstructure:"max_page_bytes"`
	UserAgent    string        `mapstructure:"user_agent"`

	// DefaultRegion interprets phone numbers that lack a country code
	// (ISO 3166-1 alpha-2, e.g. "RU"). Empty means such numbers are
	// rejected.
	DefaultRegion string `mapstructure:"default_region"`

	ValidateEmails           bool `mapstructure:"validate_emails"`
	ValidatePhones           bool `mapstructure:"validate_phones"`
	RejectPlaceholderDomains bool `mapstructure:"reject_placeholder_domains"`
	FollowRobotsTxt          bool `mapstructure:"follow_robots_txt"`
	MaxRetries               int  `mapstructure:"max_retries"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// Load reads configuration from an optional YAML file and the environment.
// Precedence is environment over file over defaults; flag overrides are
// applied by the CLI after Load.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.contactsmith")
	}

	setDefaults(v)

	v.SetEnvPrefix("CONTACTSMITH")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file just means defaults and env. An explicit
		// path that cannot be read is fatal.
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("crawler.max_pages", 50)
	v.SetDefault("crawler.timeout", "15s")
	v.SetDefault("crawler.delay", "200ms")
	v.SetDefault("crawler.workers", 5)
	v.SetDefault("crawler.max_page_bytes", 10*1024*1024)
	v.SetDefault("crawler.user_agent", "contactsmith/1.0")
	v.SetDefault("crawler.default_region", "")
	v.SetDefault("crawler.validate_emails", true)
	v.SetDefault("crawler.validate_phones", true)
	v.SetDefault("crawler.reject_placeholder_domains", true)
	v.SetDefault("crawler.follow_robots_txt", true)
	v.SetDefault("crawler.max_retries", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Validate rejects out-of-range options before a crawl starts.
func (c *Config) Validate() error {
	if c.Crawler.MaxPages <= 0 {
		return fmt.Errorf("%w: crawler.max_pages must be positive", ErrInvalidConfig)
	}
	if c.Crawler.Timeout <= 0 {
		return fmt.Errorf("%w: crawler.timeout must be positive", ErrInvalidConfig)
	}
	if c.Crawler.Delay < 0 {
		return fmt.Errorf("%w: crawler.delay must not be negative", ErrInvalidConfig)
	}
	if c.Crawler.Workers <= 0 {
		return fmt.Errorf("%w: crawler.workers must be positive", ErrInvalidConfig)
	}
	if c.Crawler.MaxPageBytes <= 0 {
		return fmt.Errorf("%w: crawler.max_page_bytes must be positive", ErrInvalidConfig)
	}
	if c.Crawler.MaxRetries < 0 || c.Crawler.MaxRetries > 3 {
		return fmt.Errorf("%w: crawler.max_retries must be between 0 and 3", ErrInvalidConfig)
	}
	return nil
}
