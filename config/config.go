// Package config loads server settings from an optional YAML file, a .env
// file and the process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"maxscale/models"
)

const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"

	EnvProduction  = "production"
	EnvDevelopment = "development"
)

type Config struct {
	Env           string         `yaml:"env"`
	Port          int            `yaml:"port"`
	StaticDir     string         `yaml:"static_dir"`
	SendGridKey   string         `yaml:"sendgrid_api_key"`
	From          models.Address `yaml:"from"`
	Recipients    []string       `yaml:"recipients"`
	MailTimeout   time.Duration  `yaml:"mail_timeout"`
	RateLimit     string         `yaml:"rate_limit_store"`
	RedisURL      string         `yaml:"redis_url"`
	DatabaseURL   string         `yaml:"database_url"`
	TrustProxy    bool           `yaml:"trust_proxy"`
	NativeCookies bool           `yaml:"native_cookies"`
}

// Default returns the settings used when nothing else is configured.
func Default() Config {
	return Config{
		Env:         EnvDevelopment,
		Port:        8080,
		From:        models.Address{Name: "MaxScale Website", Address: "website@example.com"},
		MailTimeout: 10 * time.Second,
		RateLimit:   StoreMemory,
		TrustProxy:  true,
	}
}

// Load builds the configuration. path may be empty.
func Load(path string) (Config, error) {
	// Load environment variables
	if os.Getenv("APP_ENV") != EnvProduction {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found, continuing")
		}
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = b
		return nil
	}

	str("APP_ENV", &c.Env)
	str("STATIC_DIR", &c.StaticDir)
	str("SENDGRID_API_KEY", &c.SendGridKey)
	str("MAIL_FROM_NAME", &c.From.Name)
	str("MAIL_FROM_ADDRESS", &c.From.Address)
	str("RATE_LIMIT_STORE", &c.RateLimit)
	str("REDIS_URL", &c.RedisURL)
	str("DATABASE_URL", &c.DatabaseURL)

	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.Port = port
	}
	if v, ok := lookup("MAIL_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("MAIL_TIMEOUT: %w", err)
		}
		c.MailTimeout = d
	}
	if v, ok := lookup("CONTACT_RECIPIENTS"); ok && v != "" {
		c.Recipients = splitList(v)
	}
	if err := boolean("TRUST_PROXY", &c.TrustProxy); err != nil {
		return err
	}
	return boolean("NATIVE_COOKIES", &c.NativeCookies)
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Production reports whether internal error details must be hidden.
func (c Config) Production() bool {
	return c.Env == EnvProduction
}

func (c Config) Validate() error {
	var errs []error
	if len(c.Recipients) == 0 {
		errs = append(errs, errors.New("no contact recipients configured (CONTACT_RECIPIENTS)"))
	}
	if c.From.Address == "" {
		errs = append(errs, errors.New("no sender address configured (MAIL_FROM_ADDRESS)"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Port))
	}
	if c.MailTimeout <= 0 {
		errs = append(errs, errors.New("MAIL_TIMEOUT must be positive"))
	}
	switch c.RateLimit {
	case StoreMemory:
	case StoreRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("rate limit store redis requires REDIS_URL"))
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("rate limit store postgres requires DATABASE_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown rate limit store %q", c.RateLimit))
	}
	if c.Production() && c.SendGridKey == "" {
		errs = append(errs, errors.New("SENDGRID_API_KEY is required in production"))
	}
	return errors.Join(errs...)
}
