// Package config содержит логику чтения конфигурации сервиса freshmart.
package config

import (
	"flag"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"

	"github.com/mmeshcher/freshmart/internal/payment"
)

const defaultRunAddress = "localhost:5001"

// Config содержит параметры конфигурации сервиса freshmart.
type Config struct {
	RunAddress  string `env:"RUN_ADDRESS"`
	DatabaseURI string `env:"DATABASE_URI"`
	RedisAddr   string `env:"REDIS_ADDR"`
	AuthSecret  string `env:"AUTH_SECRET"`

	TokenTTL          time.Duration `env:"TOKEN_TTL" envDefault:"168h"`
	RazorpayKeyID     string        `env:"RAZORPAY_KEY_ID"`
	RazorpayKeySecret string        `env:"RAZORPAY_KEY_SECRET"`
	RazorpayBaseURL   string        `env:"RAZORPAY_BASE_URL" envDefault:"https://api.razorpay.com"`
	AdminEmails       []string      `env:"ADMIN_EMAILS" envSeparator:","`
	AppEnv            string        `env:"APP_ENV" envDefault:"development"`
	SaleRetryInterval time.Duration `env:"SALE_RETRY_INTERVAL" envDefault:"30s"`
}

// Parse считывает конфигурацию из файла .env, флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrap(err, "load .env")
	}

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "parse env")
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envRedisAddr := cfg.RedisAddr
	envAuthSecret := cfg.AuthSecret

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.RedisAddr, "r", "", "redis address for checkout de-duplication")
	flag.StringVar(&cfg.AuthSecret, "s", "", "secret for signing auth tokens")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envRedisAddr != "" {
		cfg.RedisAddr = envRedisAddr
	}
	if envAuthSecret != "" {
		cfg.AuthSecret = envAuthSecret
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}

	return cfg, nil
}

// Validate проверяет обязательные параметры.
func (c *Config) Validate() error {
	if c.DatabaseURI == "" {
		return errors.New("database URI is required (DATABASE_URI or -d)")
	}
	if c.SaleRetryInterval <= 0 {
		return errors.New("SALE_RETRY_INTERVAL must be positive")
	}
	return nil
}

// PaymentConfig возвращает настройки платёжного шлюза.
func (c *Config) PaymentConfig() payment.Config {
	return payment.Config{
		KeyID:     c.RazorpayKeyID,
		KeySecret: c.RazorpayKeySecret,
		BaseURL:   c.RazorpayBaseURL,
	}
}
