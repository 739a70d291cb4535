// Package config содержит логику чтения конфигурации сервиса заказов обедов.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры конфигурации сервиса заказов обедов.
type Config struct {
	RunAddress     string `env:"RUN_ADDRESS"`
	DatabaseURI    string `env:"DATABASE_URI"`
	TelegramToken  string `env:"TELEGRAM_TOKEN"`
	TelegramAPIURL string `env:"TELEGRAM_API_URL"`
	WebhookSecret  string `env:"WEBHOOK_SECRET"`
	ReportKey      string `env:"REPORT_KEY"`
	MenuFile       string `env:"MENU_FILE"`
	Timezone       string `env:"TIMEZONE"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envValues := *cfg

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.TelegramToken, "t", "", "telegram bot token")
	flag.StringVar(&cfg.TelegramAPIURL, "r", "https://api.telegram.org", "telegram bot API base URL")
	flag.StringVar(&cfg.WebhookSecret, "s", "", "webhook secret token")
	flag.StringVar(&cfg.ReportKey, "k", "", "report API access key")
	flag.StringVar(&cfg.MenuFile, "m", "menu.yaml", "weekly menu file")
	flag.StringVar(&cfg.Timezone, "z", "Europe/Moscow", "business timezone")

	flag.Parse()

	if envValues.RunAddress != "" {
		cfg.RunAddress = envValues.RunAddress
	}
	if envValues.DatabaseURI != "" {
		cfg.DatabaseURI = envValues.DatabaseURI
	}
	if envValues.TelegramToken != "" {
		cfg.TelegramToken = envValues.TelegramToken
	}
	if envValues.TelegramAPIURL != "" {
		cfg.TelegramAPIURL = envValues.TelegramAPIURL
	}
	if envValues.WebhookSecret != "" {
		cfg.WebhookSecret = envValues.WebhookSecret
	}
	if envValues.ReportKey != "" {
		cfg.ReportKey = envValues.ReportKey
	}
	if envValues.MenuFile != "" {
		cfg.MenuFile = envValues.MenuFile
	}
	if envValues.Timezone != "" {
		cfg.Timezone = envValues.Timezone
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}

	return cfg, nil
}

// Location загружает деловой часовой пояс из конфигурации.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
