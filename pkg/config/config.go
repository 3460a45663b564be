package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// All environment variables are read here and nowhere else.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (optional; persistence is skipped when URL is empty)
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External APIs
	FDS       FDSConfig
	Anthropic AnthropicConfig

	// Pipeline parameters
	Pipeline PipelineConfig

	// Artifacts
	OutputDir string

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	URL string

	// Connection pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// FDSConfig holds financialdatasets.ai API configuration.
type FDSConfig struct {
	APIKey      string
	BaseURL     string
	SnapshotDir string  // disk fallback for fetched data
	RateLimit   float64 // requests per second
}

// AnthropicConfig holds the Claude reasoning-capability configuration.
type AnthropicConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// PipelineConfig holds analyst and backtest parameters.
type PipelineConfig struct {
	RSIPeriod          int
	LookbackDays       int     // price history window before the as-of date
	ReportingLagDays   int     // fundamentals publication latency buffer
	ForwardMonths      int     // backtest horizon
	RiskFreeRate       float64 // annual
	MinBacktestAgeDays int     // as-of must be at least this many days old
}

// Load reads configuration from environment variables.
// This is the only function in the repository that calls os.Getenv.
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8091"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		FDS: FDSConfig{
			APIKey:      getEnv("FINANCIAL_DATASETS_API_KEY", ""),
			BaseURL:     getEnv("FDS_BASE_URL", "https://api.financialdatasets.ai"),
			SnapshotDir: getEnv("FDS_SNAPSHOT_DIR", "data"),
			RateLimit:   getEnvAsFloat("FDS_RATE_LIMIT", 5.0),
		},

		Anthropic: AnthropicConfig{
			APIKey:      getEnv("ANTHROPIC_API_KEY", ""),
			Model:       getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
			MaxTokens:   getEnvAsInt("ANTHROPIC_MAX_TOKENS", 4096),
			Temperature: getEnvAsFloat("ANTHROPIC_TEMPERATURE", 0),
			Timeout:     getEnvAsDuration("ANTHROPIC_TIMEOUT", "120s"),
		},

		Pipeline: PipelineConfig{
			RSIPeriod:          getEnvAsInt("RSI_PERIOD", 14),
			LookbackDays:       getEnvAsInt("LOOKBACK_DAYS", 120),
			ReportingLagDays:   getEnvAsInt("REPORTING_LAG_DAYS", 90),
			ForwardMonths:      getEnvAsInt("FORWARD_MONTHS", 3),
			RiskFreeRate:       getEnvAsFloat("RISK_FREE_RATE", 0.05),
			MinBacktestAgeDays: getEnvAsInt("MIN_BACKTEST_AGE_DAYS", 100),
		},

		OutputDir: getEnv("OUTPUT_DIR", "outputs"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set.
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Pipeline.RSIPeriod < 2 {
		return fmt.Errorf("RSI_PERIOD must be at least 2")
	}

	if c.Pipeline.ForwardMonths < 1 {
		return fmt.Errorf("FORWARD_MONTHS must be at least 1")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations.
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
