package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/MilindPius2005/library-management-system/internal/core/domain"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppMode     string
	Port        string
	Database    DatabaseConfig
	JWT         JWTConfig
	Circulation CirculationConfig
	Sweep       SweepConfig
	Notify      NotifyConfig
	Kafka       KafkaConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// JWTConfig holds the secret used to decode the request layer's access tokens
type JWTConfig struct {
	Secret string
}

// CirculationConfig holds the lending policy
type CirculationConfig struct {
	LoanPeriodDays     int
	FineRatePerDay     float64
	MaxConcurrentLoans int
}

// SweepConfig holds the overdue sweeper schedule (cron spec)
type SweepConfig struct {
	Schedule string
}

// NotifyConfig holds optional webhook delivery settings
type NotifyConfig struct {
	WebhookURL string
}

// KafkaConfig holds optional event publishing settings
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Get APP_MODE (default to "dev") - trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	config := &Config{
		AppMode:     appMode,
		Port:        getEnv("PORT", "3000"),
		Database:    loadDatabaseConfig(appMode),
		JWT:         loadJWTConfig(appMode),
		Circulation: loadCirculationConfig(),
		Sweep: SweepConfig{
			Schedule: getEnv("SWEEP_SCHEDULE", "@hourly"),
		},
		Notify: NotifyConfig{
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
		Kafka: loadKafkaConfig(),
	}

	// Set global config
	AppConfig = config

	log.Printf("✅ Configuration loaded successfully [MODE: %s]", appMode)
	return config, nil
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	return DatabaseConfig{
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", "3306"),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "library_db"),
	}
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	return JWTConfig{
		Secret: getEnv(prefix+"JWT_SECRET", "default_secret"),
	}
}

// loadCirculationConfig loads the lending policy
func loadCirculationConfig() CirculationConfig {
	loanDays, _ := strconv.Atoi(getEnv("LOAN_PERIOD_DAYS", strconv.Itoa(domain.DefaultLoanPeriodDays)))
	maxLoans, _ := strconv.Atoi(getEnv("MAX_CONCURRENT_LOANS", strconv.Itoa(domain.DefaultMaxConcurrentLoans)))
	fineRate, err := strconv.ParseFloat(getEnv("FINE_RATE_PER_DAY", ""), 64)
	if err != nil {
		fineRate = domain.DefaultFineRatePerDay
	}

	if loanDays < 1 {
		loanDays = domain.DefaultLoanPeriodDays
	}
	if maxLoans < 1 {
		maxLoans = domain.DefaultMaxConcurrentLoans
	}
	if fineRate < 0 {
		fineRate = domain.DefaultFineRatePerDay
	}

	return CirculationConfig{
		LoanPeriodDays:     loanDays,
		FineRatePerDay:     fineRate,
		MaxConcurrentLoans: maxLoans,
	}
}

// loadKafkaConfig loads event publishing config; empty brokers disable it
func loadKafkaConfig() KafkaConfig {
	brokers := getEnv("KAFKA_BROKERS", "")
	cfg := KafkaConfig{
		Topic: getEnv("KAFKA_LOAN_EVENTS_TOPIC", "library.loan-events"),
	}
	if brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.Brokers = append(cfg.Brokers, b)
			}
		}
	}
	return cfg
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "https://library.example.org"
	}
	return origins
}
