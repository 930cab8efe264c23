package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"food-storefront/models"
)

type Config struct {
	APIBaseURL     string
	Port           string
	DBPath         string
	RequestTimeout time.Duration
	PollInterval   time.Duration
	DeliveryFee    decimal.Decimal
	LogLevel       string
	LogFile        string
	CORSOrigins    []string
	GinMode        string
}

// Load reads configuration from the environment. A .env file is applied first
// when present; variables already set in the environment win.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Load(f); err != nil {
				return nil, fmt.Errorf("load %s: %w", f, err)
			}
		}
	}

	timeout, err := time.ParseDuration(getEnv("REQUEST_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("REQUEST_TIMEOUT: %w", err)
	}
	poll, err := time.ParseDuration(getEnv("ORDER_POLL_INTERVAL", "15s"))
	if err != nil {
		return nil, fmt.Errorf("ORDER_POLL_INTERVAL: %w", err)
	}
	fee, err := decimal.NewFromString(getEnv("DELIVERY_FEE", "2"))
	if err != nil {
		return nil, fmt.Errorf("DELIVERY_FEE: %w", err)
	}

	cfg := &Config{
		APIBaseURL:     getEnv("STOREFRONT_API_URL", "http://localhost:4000"),
		Port:           getEnv("PORT", "5173"),
		DBPath:         getEnv("STOREFRONT_DB", "storefront.db"),
		RequestTimeout: timeout,
		PollInterval:   poll,
		DeliveryFee:    fee,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFile:        os.Getenv("LOG_FILE"),
		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		GinMode:        os.Getenv("GIN_MODE"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("STOREFRONT_API_URL must not be empty")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be > 0")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("ORDER_POLL_INTERVAL must be > 0")
	}
	if c.DeliveryFee.IsNegative() {
		return fmt.Errorf("DELIVERY_FEE must not be negative")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// InitDB opens the local storage database and migrates its tables.
func InitDB(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open local storage: %w", err)
	}

	err = db.AutoMigrate(
		&models.LocalEntry{},
		&models.SessionEntry{},
	)
	if err != nil {
		return nil, fmt.Errorf("migrate local storage: %w", err)
	}
	return db, nil
}
