package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

type Database struct {
	Driver     string `env:"DB_DRIVER" envDefault:"postgres"`
	DSN        string `env:"DB_DSN"`
	SQLitePath string `env:"DB_SQLITE_PATH" envDefault:"casa.db"`
}

type Log struct {
	Level       string `env:"LOG_LEVEL" envDefault:"info"`
	Development bool   `env:"LOG_DEVELOPMENT" envDefault:"false"`
}

type Telemetry struct {
	Endpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Insecure bool   `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
}

type Site struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	ContentPath     string        `env:"SITE_CONTENT_PATH"`
	WatchContent    bool          `env:"SITE_CONTENT_WATCH" envDefault:"false"`
	ViewportDefault int           `env:"SITE_VIEWPORT_DEFAULT" envDefault:"1280"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	RateLimitPerMinute     int `env:"RATE_LIMIT_PER_MIN" envDefault:"120"`
	RateLimitBurst         int `env:"RATE_LIMIT_BURST" envDefault:"30"`
	FormRateLimitPerMinute int `env:"FORM_RATE_LIMIT_PER_MIN" envDefault:"10"`
	FormRateLimitBurst     int `env:"FORM_RATE_LIMIT_BURST" envDefault:"5"`

	// Peers allowed to set X-Forwarded-For, as addresses or CIDR prefixes.
	TrustedProxies []string `env:"RATE_LIMIT_TRUSTED_PROXIES" envSeparator:","`

	AdminEmail        string        `env:"ADMIN_EMAIL" envDefault:"admin@casaterminal.com"`
	AdminPasswordHash string        `env:"ADMIN_PASSWORD_HASH"`
	SessionTTL        time.Duration `env:"ADMIN_SESSION_TTL" envDefault:"12h"`

	Database  Database
	Log       Log
	Telemetry Telemetry
}

type Notification struct {
	Port         string        `env:"NOTIF_PORT" envDefault:"8082"`
	PollInterval time.Duration `env:"NOTIF_POLL_INTERVAL" envDefault:"5s"`
	BatchSize    int           `env:"NOTIF_BATCH_SIZE" envDefault:"50"`
	MaxAttempts  int           `env:"NOTIF_MAX_ATTEMPTS" envDefault:"3"`

	EmailProvider    string `env:"NOTIF_EMAIL_PROVIDER" envDefault:"log"`
	SMSProvider      string `env:"NOTIF_SMS_PROVIDER" envDefault:"log"`
	WhatsAppProvider string `env:"NOTIF_WA_PROVIDER" envDefault:"log"`

	EmailWebhookURL    string        `env:"NOTIF_EMAIL_WEBHOOK_URL"`
	SMSWebhookURL      string        `env:"NOTIF_SMS_WEBHOOK_URL"`
	WhatsAppWebhookURL string        `env:"NOTIF_WA_WEBHOOK_URL"`
	WebhookToken       string        `env:"NOTIF_WEBHOOK_TOKEN"`
	RetryBackoff       time.Duration `env:"NOTIF_RETRY_BACKOFF" envDefault:"500ms"`

	SalesEmail string `env:"SALES_EMAIL" envDefault:"sales@casaterminal.com"`
	SalesPhone string `env:"SALES_PHONE" envDefault:"+91 98765 43210"`

	Database  Database
	Log       Log
	Telemetry Telemetry
}

type Realtime struct {
	Port           string        `env:"REALTIME_PORT" envDefault:"8085"`
	PollInterval   time.Duration `env:"REALTIME_POLL_INTERVAL" envDefault:"1s"`
	BatchSize      int           `env:"REALTIME_BATCH_SIZE" envDefault:"100"`
	AllowedOrigins []string      `env:"REALTIME_ALLOWED_ORIGINS" envSeparator:","`

	// SockJS polling transports send every frame as a POST, so one bucket
	// covers both.
	RateLimitPerMinute int      `env:"RATE_LIMIT_PER_MIN" envDefault:"600"`
	RateLimitBurst     int      `env:"RATE_LIMIT_BURST" envDefault:"120"`
	TrustedProxies     []string `env:"RATE_LIMIT_TRUSTED_PROXIES" envSeparator:","`

	Database  Database
	Log       Log
	Telemetry Telemetry
}

func LoadSite() (Site, error) {
	var cfg Site
	if err := ParseEnv(&cfg); err != nil {
		return Site{}, err
	}
	return cfg, nil
}

func LoadNotification() (Notification, error) {
	var cfg Notification
	if err := ParseEnv(&cfg); err != nil {
		return Notification{}, err
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.PollInterval <= 0 {
		return Notification{}, fmt.Errorf("NOTIF_POLL_INTERVAL must be positive, got %s", cfg.PollInterval)
	}
	return cfg, nil
}

func LoadRealtime() (Realtime, error) {
	var cfg Realtime
	if err := ParseEnv(&cfg); err != nil {
		return Realtime{}, err
	}
	return cfg, nil
}
