package config

import (
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

const (
	defaultServerAddress = "localhost:8080"
	defaultBaseURL       = "http://localhost:8080"
	defaultStoreDriver   = DriverMemory
	defaultSQLitePath    = "tmp/linkframe.db"
	defaultProbeTimeout  = 5 * time.Second
	defaultClickAttempts = 8
	defaultRedirectURL   = "http://localhost:8080/auth/callback"
	defaultLogLevel      = "info"
	defaultLogFormat     = "console"

	minStateSecretLen = 32
)

type Config struct {
	ServerAddress string `env:"SERVER_ADDRESS"`
	BaseURL       string `env:"BASE_URL"`

	StoreDriver string `env:"STORE_DRIVER"`
	SQLitePath  string `env:"SQLITE_PATH"`
	DatabaseDSN string `env:"DATABASE_DSN"`
	RedisURL    string `env:"REDIS_URL"`
	NATSURL     string `env:"NATS_URL"` // пусто - события кликов не публикуются

	ProbeTimeout  time.Duration `env:"PROBE_TIMEOUT"`
	ClickAttempts uint          `env:"CLICK_ATTEMPTS"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	OAuthRedirectURL   string `env:"OAUTH_REDIRECT_URL"`
	StateSecret        string `env:"STATE_SECRET"` // Минимум 32 байта для HS256
	SecureCookies      bool   `env:"SECURE_COOKIES"`

	AdminEmails []string `env:"ADMIN_EMAILS" envSeparator:","`
	LogLevel    string   `env:"LOG_LEVEL"`
	LogFormat   string   `env:"LOG_FORMAT"`

	// StateSecretGenerated - секрет не задан и сгенерирован на время процесса
	StateSecretGenerated bool `env:"-"`
}

// NewConfig собирает конфиг: значения по умолчанию, затем флаги, затем
// переменные окружения (в том числе из .env). Окружение побеждает.
func NewConfig(args []string) (*Config, error) {
	cfg := &Config{
		ServerAddress:    defaultServerAddress,
		BaseURL:          defaultBaseURL,
		StoreDriver:      defaultStoreDriver,
		SQLitePath:       defaultSQLitePath,
		ProbeTimeout:     defaultProbeTimeout,
		ClickAttempts:    defaultClickAttempts,
		OAuthRedirectURL: defaultRedirectURL,
		LogLevel:         defaultLogLevel,
		LogFormat:        defaultLogFormat,
	}

	fs := flag.NewFlagSet("linkframe", flag.ContinueOnError)
	fs.StringVar(&cfg.ServerAddress, "a", cfg.ServerAddress, "Server address")
	fs.StringVar(&cfg.BaseURL, "b", cfg.BaseURL, "Base URL of short links")
	fs.StringVar(&cfg.StoreDriver, "store", cfg.StoreDriver, "Store driver: memory|sqlite|postgres|redis")
	fs.StringVar(&cfg.SQLitePath, "sqlite-path", cfg.SQLitePath, "SQLite database file")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "Postgres DSN")
	fs.StringVar(&cfg.RedisURL, "redis-url", cfg.RedisURL, "Redis URL")
	fs.StringVar(&cfg.NATSURL, "nats-url", cfg.NATSURL, "NATS URL for click events")
	fs.DurationVar(&cfg.ProbeTimeout, "probe-timeout", cfg.ProbeTimeout, "Embed probe timeout")
	fs.UintVar(&cfg.ClickAttempts, "click-attempts", cfg.ClickAttempts, "Commit attempts per click")
	fs.StringVar(&cfg.OAuthRedirectURL, "oauth-redirect", cfg.OAuthRedirectURL, "OAuth redirect URL")
	fs.BoolVar(&cfg.SecureCookies, "secure-cookies", cfg.SecureCookies, "Set Secure on cookies")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: console or json")
	fs.Func("admins", "Comma separated admin emails", func(s string) error {
		cfg.AdminEmails = splitList(s)
		return nil
	})
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// .env не обязателен
	_ = godotenv.Load()

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.normalizeServerAddress()

	return cfg, nil
}

func (c *Config) validate() error {
	drivers := []string{DriverMemory, DriverSQLite, DriverPostgres, DriverRedis}
	if !slices.Contains(drivers, c.StoreDriver) {
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	if c.StoreDriver == DriverPostgres && c.DatabaseDSN == "" {
		return errors.New("postgres driver requires DATABASE_DSN")
	}
	if c.StoreDriver == DriverRedis && c.RedisURL == "" {
		return errors.New("redis driver requires REDIS_URL")
	}
	if c.ProbeTimeout <= 0 {
		return errors.New("probe timeout must be positive")
	}
	if c.ClickAttempts == 0 {
		return errors.New("click attempts must be at least 1")
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}

	if c.StateSecret == "" {
		key := make([]byte, minStateSecretLen)
		if _, err := rand.Read(key); err != nil {
			return fmt.Errorf("generate state secret: %w", err)
		}
		c.StateSecret = string(key)
		c.StateSecretGenerated = true
	}
	if len(c.StateSecret) < minStateSecretLen {
		return fmt.Errorf("state secret must be at least %d bytes", minStateSecretLen)
	}

	// env режет только по запятой, пробелы вокруг адресов убираем сами
	c.AdminEmails = splitList(strings.Join(c.AdminEmails, ","))
	return nil
}

// OAuthEnabled - вход через Google настроен
func (c *Config) OAuthEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func (c *Config) normalizeServerAddress() {
	if strings.HasPrefix(c.ServerAddress, ":") {
		c.ServerAddress = "localhost" + c.ServerAddress
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
