package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/pkg/config"
)

// PaymentConfig is read from PAYMENT_* variables.
type PaymentConfig struct {
	TimeoutSeconds int             `envconfig:"TIMEOUT_SECONDS" default:"300"`
	MaxAmount      decimal.Decimal `envconfig:"MAX_AMOUNT"      default:"50000"`
	MaxRetries     int             `envconfig:"MAX_RETRIES"     default:"3"`
	DeclineEvery   int             `envconfig:"DECLINE_EVERY"   default:"3"`
	SweepInterval  time.Duration   `envconfig:"SWEEP_INTERVAL"  default:"60s"`
}

func (p PaymentConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

func DefaultPayment() PaymentConfig {
	return PaymentConfig{
		TimeoutSeconds: 300,
		MaxAmount:      decimal.NewFromInt(50000),
		MaxRetries:     3,
		DeclineEvery:   3,
		SweepInterval:  time.Minute,
	}
}

func LoadPayment() (PaymentConfig, error) {
	var pc PaymentConfig
	if err := envconfig.Process("PAYMENT", &pc); err != nil {
		return PaymentConfig{}, fmt.Errorf("payment config: %w", err)
	}
	if pc.TimeoutSeconds <= 0 || pc.MaxRetries <= 0 || pc.SweepInterval <= 0 {
		return PaymentConfig{}, fmt.Errorf("payment config: timeout, retries and sweep interval must be positive")
	}
	if !pc.MaxAmount.IsPositive() {
		return PaymentConfig{}, fmt.Errorf("payment config: max amount must be positive")
	}
	return pc, nil
}

// AdminConfig names the admin account created at startup. Leaving
// ADMIN_USERNAME empty skips the bootstrap.
type AdminConfig struct {
	Username string `envconfig:"USERNAME"`
	Email    string `envconfig:"EMAIL"`
	Password string `envconfig:"PASSWORD"`
}

func (a AdminConfig) Enabled() bool {
	return a.Username != ""
}

func LoadAdmin() (AdminConfig, error) {
	var ac AdminConfig
	if err := envconfig.Process("ADMIN", &ac); err != nil {
		return AdminConfig{}, fmt.Errorf("admin config: %w", err)
	}
	if ac.Enabled() && (ac.Email == "" || ac.Password == "") {
		return AdminConfig{}, fmt.Errorf("admin config: ADMIN_EMAIL and ADMIN_PASSWORD are required with ADMIN_USERNAME")
	}
	return ac, nil
}

type ServiceConfig struct {
	config.Config
	Payment PaymentConfig
	Admin   AdminConfig
}

func Load() (ServiceConfig, error) {
	cfg := config.Load()

	config.MustNonEmpty(map[string]string{
		"DATABASE_URL": cfg.DatabaseURL,
		"JWT_SECRET":   string(cfg.JWTAccessSecret),
	})

	pc, err := LoadPayment()
	if err != nil {
		return ServiceConfig{}, err
	}
	ac, err := LoadAdmin()
	if err != nil {
		return ServiceConfig{}, err
	}
	return ServiceConfig{Config: cfg, Payment: pc, Admin: ac}, nil
}
