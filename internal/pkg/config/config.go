package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ManuelReschke/RentPulse/internal/pkg/billing"
	"github.com/ManuelReschke/RentPulse/internal/pkg/cache"
	"github.com/ManuelReschke/RentPulse/internal/pkg/env"
	"github.com/ManuelReschke/RentPulse/internal/pkg/logging"
	"github.com/ManuelReschke/RentPulse/internal/pkg/mail"
)

type Database struct {
	User     string
	Password string
	Host     string
	Port     string
	Name     string
}

// DSN is the go-sql-driver/mysql data source name.
func (d Database) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// MigrateURL is the golang-migrate database URL.
func (d Database) MigrateURL() string {
	return fmt.Sprintf("mysql://%s:%s@tcp(%s:%s)/%s?multiStatements=true",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type Stripe struct {
	SecretKey     string
	WebhookSecret string
}

// Enabled reports whether a real Stripe account is configured.
func (s Stripe) Enabled() bool {
	return s.SecretKey != ""
}

type Config struct {
	Env     string
	Host    string
	Port    string
	AppURL  string
	Logging logging.Config

	Database Database
	Cache    cache.Config
	// SessionDB is the Redis database used for user sessions.
	SessionDB     int
	SessionTTL    time.Duration
	AdminTokenTTL time.Duration

	Stripe  Stripe
	Billing billing.Config
	SMTP    mail.SMTPConfig

	CronSecret      string
	RateLimitMax    int
	RateLimitWindow time.Duration
}

func (c Config) ListenAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func (c Config) IsDev() bool {
	return c.Env == "dev"
}

// Load assembles the configuration from the environment.
func Load() Config {
	appEnv := env.GetEnv("APP_ENV", "prod")
	appURL := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", "http://localhost:4000"), "/")

	logFormat := "json"
	if appEnv == "dev" {
		logFormat = "console"
	}

	return Config{
		Env:    appEnv,
		Host:   env.GetEnv("APP_HOST", "localhost"),
		Port:   env.GetEnv("APP_PORT", "4000"),
		AppURL: appURL,
		Logging: logging.Config{
			Format: env.GetEnv("LOG_FORMAT", logFormat),
			Level:  env.GetEnv("LOG_LEVEL", "info"),
		},
		Database: Database{
			User:     env.GetEnv("DB_USER", ""),
			Password: env.GetEnv("DB_PASSWORD", ""),
			Host:     env.GetEnv("DB_HOST", "127.0.0.1"),
			Port:     env.GetEnv("DB_PORT", "3306"),
			Name:     env.GetEnv("DB_NAME", ""),
		},
		Cache: cache.Config{
			Host:     env.GetEnv("CACHE_HOST", "localhost"),
			Port:     env.GetEnv("CACHE_PORT", "6379"),
			Password: env.GetEnv("CACHE_PASSWORD", ""),
		},
		SessionDB:     1,
		SessionTTL:    env.GetEnvDuration("SESSION_TTL", 24*time.Hour),
		AdminTokenTTL: env.GetEnvDuration("ADMIN_SESSION_TTL", 24*time.Hour),
		Stripe: Stripe{
			SecretKey:     env.GetEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: env.GetEnv("STRIPE_WEBHOOK_SECRET", ""),
		},
		Billing: billing.Config{
			PriceID:         env.GetEnv("STRIPE_PRICE_ID", ""),
			TrialDays:       env.GetEnvInt("STRIPE_TRIAL_DAYS", 7),
			SuccessURL:      appURL + "/dashboard?checkout=success",
			CancelURL:       appURL + "/pricing?checkout=cancelled",
			PortalReturnURL: appURL + "/dashboard/billing",
			ProviderTimeout: env.GetEnvDuration("STRIPE_TIMEOUT", 20*time.Second),
		},
		SMTP: mail.SMTPConfig{
			Host:     env.GetEnv("SMTP_HOST", "localhost"),
			Port:     env.GetEnv("SMTP_PORT", "587"),
			Username: env.GetEnv("SMTP_USERNAME", ""),
			Password: env.GetEnv("SMTP_PASSWORD", ""),
			From:     env.GetEnv("SMTP_FROM", "no-reply@rentpulse.app"),
		},
		CronSecret:      env.GetEnv("CRON_SECRET", ""),
		RateLimitMax:    env.GetEnvInt("RATE_LIMIT_MAX", 120),
		RateLimitWindow: env.GetEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
	}
}
