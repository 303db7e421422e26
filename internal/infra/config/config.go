package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"

	"specialization_alert_bot/internal/domain/expiry"
)

// AppConfig holds all configuration for the application. It is built once at
// start-up and passed down explicitly; nothing below cmd reads the environment.
type AppConfig struct {
	DatabaseURL        string
	Timezone           string
	AlertDays          string
	AlertHour          int
	CronSpecAlertCheck string
	DispatchTimeout    time.Duration
	CheckConcurrency   int
	UpcomingWindowDays int

	SMTP   SMTPConfig
	Twilio TwilioConfig

	HTTPAddr        string
	TelegramToken   string // bot disabled when empty
	AdminTelegramID int64
	AdminUsername   string
	AdminPassword   string

	LogLevel    string
	Environment string
}

// SMTPConfig holds the email adapter settings. Missing credentials disable sending
// without failing start-up.
type SMTPConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	FromEmail string
}

// TwilioConfig holds the SMS adapter settings.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromPhone  string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.Timezone = getenvDefault("TIMEZONE", "America/Bogota")
	if _, err = time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	cfg.AlertDays = getenvDefault("ALERT_DAYS", expiry.DefaultAlertDays)

	if cfg.AlertHour, err = getenvInt("ALERT_HOUR", 8); err != nil {
		return nil, err
	}
	if cfg.AlertHour < 0 || cfg.AlertHour > 23 {
		return nil, fmt.Errorf("invalid ALERT_HOUR: %d is not between 0 and 23", cfg.AlertHour)
	}
	cfg.CronSpecAlertCheck = os.Getenv("CRON_SPEC_ALERT_CHECK")
	if cfg.CronSpecAlertCheck == "" {
		cfg.CronSpecAlertCheck = fmt.Sprintf("0 %d * * *", cfg.AlertHour) // daily at ALERT_HOUR
	}

	timeoutStr := getenvDefault("DISPATCH_TIMEOUT", "30s")
	cfg.DispatchTimeout, err = time.ParseDuration(timeoutStr)
	if err != nil || cfg.DispatchTimeout <= 0 {
		return nil, fmt.Errorf("invalid DISPATCH_TIMEOUT: %q", timeoutStr)
	}

	if cfg.CheckConcurrency, err = getenvInt("CHECK_CONCURRENCY", 4); err != nil {
		return nil, err
	}
	if cfg.CheckConcurrency < 1 {
		cfg.CheckConcurrency = 1
	}

	if cfg.UpcomingWindowDays, err = getenvInt("UPCOMING_WINDOW_DAYS", 30); err != nil {
		return nil, err
	}

	cfg.SMTP.Host = getenvDefault("SMTP_HOST", "smtp.gmail.com")
	if cfg.SMTP.Port, err = getenvInt("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	cfg.SMTP.User = os.Getenv("SMTP_USER")
	cfg.SMTP.Password = os.Getenv("SMTP_PASSWORD")
	cfg.SMTP.FromEmail = getenvDefault("FROM_EMAIL", cfg.SMTP.User)

	cfg.Twilio.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	cfg.Twilio.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	cfg.Twilio.FromPhone = os.Getenv("TWILIO_FROM_PHONE")

	cfg.HTTPAddr = getenvDefault("HTTP_ADDR", ":8080")

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID"); adminIDStr != "" {
		cfg.AdminTelegramID, err = strconv.ParseInt(adminIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}
	if cfg.TelegramToken != "" && cfg.AdminTelegramID == 0 {
		return nil, fmt.Errorf("ADMIN_TELEGRAM_ID is required when TELEGRAM_TOKEN is set")
	}

	cfg.AdminUsername = os.Getenv("ADMIN_USERNAME")
	cfg.AdminPassword = os.Getenv("ADMIN_PASSWORD")

	cfg.LogLevel = strings.ToLower(getenvDefault("LOG_LEVEL", "info"))
	cfg.Environment = strings.ToLower(getenvDefault("ENVIRONMENT", "development"))

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
