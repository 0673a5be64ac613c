// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token    string `yaml:"token"`
	Username string `yaml:"username"`
	Workers  int    `yaml:"workers"` // polling workers
	AdminID  int64  `yaml:"admin_id"`
	DoctorID int64  `yaml:"doctor_id"`
}

// Privileged reports whether the Telegram id belongs to staff.
func (b *BotConfig) Privileged(tgID int64) bool {
	return (b.AdminID != 0 && tgID == b.AdminID) || (b.DoctorID != 0 && tgID == b.DoctorID)
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	Port int `yaml:"port"` // health/metrics HTTP port
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// PaymentConfig carries the manual-transfer card details, the Telegram
// Payments provider token and per-provider checkout credentials. Every
// credential is optional; an unset provider is skipped by the chain.
type PaymentConfig struct {
	Card       string `yaml:"card"`
	CardHolder string `yaml:"card_holder"`
	Currency   string `yaml:"currency"` // ISO 4217 for invoices

	ProviderToken string `yaml:"provider_token"` // Telegram Payments

	Stripe struct {
		APIKey         string `yaml:"api_key"`
		Currency       string `yaml:"currency"`
		UnitMultiplier int64  `yaml:"unit_multiplier"`
	} `yaml:"stripe"`
	PayPal struct {
		ClientID string `yaml:"client_id"`
		Secret   string `yaml:"secret"`
		BaseURL  string `yaml:"base_url"`
		Currency string `yaml:"currency"`
	} `yaml:"paypal"`
	Qiwi struct {
		APIKey   string `yaml:"api_key"`
		BaseURL  string `yaml:"base_url"`
		Currency string `yaml:"currency"`
	} `yaml:"qiwi"`
}

type BonusConfig struct {
	Referral int64 `yaml:"referral"` // credited when a referred user registers
	Socials  int64 `yaml:"socials"`  // credited on verified channel+group membership
}

type SocialConfig struct {
	Channel string `yaml:"channel"` // @username
	Group   string `yaml:"group"`   // @username
}

type SchedulerConfig struct {
	ReportInterval      time.Duration `yaml:"report_interval"`
	ExpiryInterval      time.Duration `yaml:"expiry_interval"`
	ReconcileInterval   time.Duration `yaml:"reconcile_interval"`
	ReconcileStaleAfter time.Duration `yaml:"reconcile_stale_after"`
}

type Config struct {
	Bot       BotConfig       `yaml:"bot"`
	Log       LogConfig       `yaml:"log"`
	Admin     AdminConfig     `yaml:"admin"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Payment   PaymentConfig   `yaml:"payment"`
	Bonus     BonusConfig     `yaml:"bonus"`
	Social    SocialConfig    `yaml:"social"`
	Scheduler SchedulerConfig `yaml:"scheduler"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Payment.Currency == "" {
		cfg.Payment.Currency = "UZS"
	}
	if cfg.Payment.Stripe.Currency == "" {
		cfg.Payment.Stripe.Currency = "usd"
	}
	if cfg.Payment.Stripe.UnitMultiplier <= 0 {
		cfg.Payment.Stripe.UnitMultiplier = 100
	}
	if cfg.Payment.PayPal.BaseURL == "" {
		cfg.Payment.PayPal.BaseURL = "https://api-m.sandbox.paypal.com"
	}
	if cfg.Payment.PayPal.Currency == "" {
		cfg.Payment.PayPal.Currency = "USD"
	}
	if cfg.Payment.Qiwi.BaseURL == "" {
		cfg.Payment.Qiwi.BaseURL = "https://api.qiwi.com/partner/bill/v1"
	}
	if cfg.Payment.Qiwi.Currency == "" {
		cfg.Payment.Qiwi.Currency = "UZS"
	}
	if cfg.Bonus.Referral <= 0 {
		cfg.Bonus.Referral = 1000
	}
	if cfg.Bonus.Socials <= 0 {
		cfg.Bonus.Socials = 29000
	}
	if cfg.Scheduler.ReportInterval <= 0 {
		cfg.Scheduler.ReportInterval = 24 * time.Hour
	}
	if cfg.Scheduler.ExpiryInterval <= 0 {
		cfg.Scheduler.ExpiryInterval = time.Hour
	}
	if cfg.Scheduler.ReconcileInterval <= 0 {
		cfg.Scheduler.ReconcileInterval = time.Minute
	}
	if cfg.Scheduler.ReconcileStaleAfter <= 0 {
		cfg.Scheduler.ReconcileStaleAfter = 10 * time.Minute
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)

	// Minimal validation
	if cfg.Bot.Token == "" {
		return nil, errors.New("bot.token is required")
	}
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return 15 * time.Minute
	}
	return d
}
