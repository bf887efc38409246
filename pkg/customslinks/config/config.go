// Package config loads server configuration from the environment.
// Every knob has a default so the server boots with no configuration
// at all; a .env file is honoured when present.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Geo       GeoConfig
	Payments  PaymentsConfig
	RateLimit RateLimitConfig
	Telegram  TelegramConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	BaseURL         string
	DefaultDomain   string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds persistence settings
type DatabaseConfig struct {
	Path string
}

// GeoConfig holds geolocation lookup settings
type GeoConfig struct {
	BaseURL string
	Timeout time.Duration
}

// PaymentsConfig holds payment lifecycle settings
type PaymentsConfig struct {
	ExpiryWindow  time.Duration
	SweepInterval time.Duration
}

// RateLimitConfig holds redirect rate limiting settings
type RateLimitConfig struct {
	MaxRequests int
	Window      time.Duration
}

// TelegramConfig holds admin notification settings.
// Notifications are disabled when BotToken is empty.
type TelegramConfig struct {
	BotToken string
	ChatID   string
	Timeout  time.Duration
}

// Load reads configuration from the environment, first loading a .env
// file if one exists in the working directory.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			BaseURL:         getEnv("BASE_URL", "http://localhost:8080"),
			DefaultDomain:   getEnv("DEFAULT_DOMAIN", "customslinks.com"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "customslinks.db"),
		},
		Geo: GeoConfig{
			BaseURL: getEnv("GEO_BASE_URL", "http://ip-api.com"),
			Timeout: getDurationEnv("GEO_TIMEOUT", 2*time.Second),
		},
		Payments: PaymentsConfig{
			ExpiryWindow:  getDurationEnv("PAYMENT_EXPIRY_WINDOW", 15*time.Minute),
			SweepInterval: getDurationEnv("PAYMENT_SWEEP_INTERVAL", time.Minute),
		},
		RateLimit: RateLimitConfig{
			MaxRequests: getIntEnv("RATE_LIMIT_MAX_REQUESTS", 60),
			Window:      getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),
		},
		Telegram: TelegramConfig{
			BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID:   getEnv("TELEGRAM_ADMIN_CHAT_ID", ""),
			Timeout:  getDurationEnv("TELEGRAM_TIMEOUT", 5*time.Second),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
