package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"

	EmailProviderPostmark = "postmark"
	EmailProviderDev      = "dev"
)

// Config holds all configuration for the application.
type Config struct {
	Port       string `env:"PORT" envDefault:"8080"`
	Env        string `env:"APP_ENV" envDefault:"development"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	BaseURL    string `env:"BASE_URL"`
	ContentDir string `env:"CONTENT_DIR" envDefault:"content/blogs"`

	Newsletter NewsletterConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Email      EmailConfig
}

type NewsletterConfig struct {
	Backend     string `env:"NEWSLETTER_BACKEND" envDefault:"redis"`
	AdminSecret string `env:"NEWSLETTER_SECRET"`
}

type PostgresConfig struct {
	URL           string        `env:"DATABASE_URL"`
	MaxConns      int32         `env:"DATABASE_MAX_CONNS" envDefault:"10"`
	RetryAttempts int           `env:"DATABASE_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval time.Duration `env:"DATABASE_RETRY_INTERVAL" envDefault:"2s"`
}

type RedisConfig struct {
	URL            string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"2s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"15s"`
}

type EmailConfig struct {
	Provider             string `env:"EMAIL_PROVIDER" envDefault:"dev"`
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	PostmarkBaseURL      string `env:"POSTMARK_BASE_URL"`
	FromEmail            string `env:"EMAIL_FROM" envDefault:"newsletter@localhost"`
	ContactToEmail       string `env:"CONTACT_TO_EMAIL" envDefault:"owner@localhost"`
	DevOutputDir         string `env:"EMAIL_DEV_DIR" envDefault:"tmp/emails"`
	SiteName             string `env:"SITE_NAME" envDefault:"Portfolio"`
	SiteURL              string `env:"SITE_URL" envDefault:"http://localhost:8080"`
}

// Load reads configuration from the environment, after loading a .env file
// from the working directory if one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field requirements that struct tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	switch c.Newsletter.Backend {
	case BackendPostgres:
		if c.Postgres.URL == "" {
			errs = append(errs, fmt.Errorf("DATABASE_URL is required for the %s backend", BackendPostgres))
		}
	case BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("NEWSLETTER_BACKEND must be %q or %q, got %q", BackendPostgres, BackendRedis, c.Newsletter.Backend))
	}

	if c.Redis.URL == "" {
		errs = append(errs, fmt.Errorf("REDIS_URL is required"))
	}

	switch c.Email.Provider {
	case EmailProviderPostmark:
		if c.Email.PostmarkServerToken == "" {
			errs = append(errs, fmt.Errorf("POSTMARK_SERVER_TOKEN is required for the %s provider", EmailProviderPostmark))
		}
	case EmailProviderDev:
	default:
		errs = append(errs, fmt.Errorf("EMAIL_PROVIDER must be %q or %q, got %q", EmailProviderPostmark, EmailProviderDev, c.Email.Provider))
	}

	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
