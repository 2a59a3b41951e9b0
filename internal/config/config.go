package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	App struct {
		Port        string
		Debug       bool
		FrontendURL string
	}
	DB struct {
		URL      string
		Host     string
		Port     string
		User     string
		Password string
		DBName   string
		SSLMode  string
	}
	Redis struct {
		Host     string
		Port     string
		Password string
		DB       int
	}
	NASA struct {
		APIKey  string
		NEOURL  string
		Timeout time.Duration
	}
	Sync struct {
		ChunkDays         int
		PacerDelay        time.Duration
		BackfillStart     string
		BackfillOnStartup bool
	}
	Workers struct {
		NEOEnabled  bool
		NEOInterval time.Duration
		NEOAt       string
	}
	RateLimit struct {
		RequestsPerSecond int
		Burst             int
	}
}

func Load() *Config {
	cfg := &Config{}

	// App
	cfg.App.Port = getEnv("PORT", "8080")
	cfg.App.Debug = getEnvAsBool("DEBUG", false)
	cfg.App.FrontendURL = getEnv("FRONTEND_URL", "http://localhost:3000")

	// DB
	cfg.DB.URL = getEnv("DATABASE_URL", "")
	cfg.DB.Host = getEnv("DB_HOST", "localhost")
	cfg.DB.Port = getEnv("DB_PORT", "5432")
	cfg.DB.User = getEnv("DB_USER", "postgres")
	cfg.DB.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.DB.DBName = getEnv("DB_NAME", "neowatch")
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", "disable")

	// Redis
	cfg.Redis.Host = getEnv("REDIS_HOST", "localhost")
	cfg.Redis.Port = getEnv("REDIS_PORT", "6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", 0)

	// NASA NeoWs
	cfg.NASA.APIKey = getEnv("NASA_API_KEY", "DEMO_KEY")
	cfg.NASA.NEOURL = getEnv("NASA_NEO_URL", "https://api.nasa.gov/neo/rest/v1/feed")
	cfg.NASA.Timeout = getEnvAsDuration("NASA_TIMEOUT", 30*time.Second)

	// Sync
	cfg.Sync.ChunkDays = getEnvAsInt("SYNC_CHUNK_DAYS", 7)
	cfg.Sync.PacerDelay = time.Duration(getEnvAsInt("SYNC_PACER_DELAY_MS", 1000)) * time.Millisecond
	cfg.Sync.BackfillStart = getEnv("SYNC_BACKFILL_START", "2025-12-01")
	cfg.Sync.BackfillOnStartup = getEnvAsBool("SYNC_BACKFILL_ON_STARTUP", true)

	// Workers
	cfg.Workers.NEOEnabled = getEnvAsBool("NEO_WORKER_ENABLED", true)
	cfg.Workers.NEOInterval = getEnvAsDuration("WORKER_NEO_INTERVAL", 24*time.Hour)
	cfg.Workers.NEOAt = getEnv("WORKER_NEO_AT", "00:01")

	// Rate Limit
	cfg.RateLimit.RequestsPerSecond = getEnvAsInt("RATE_LIMIT_RPS", 10)
	cfg.RateLimit.Burst = getEnvAsInt("RATE_LIMIT_BURST", 20)

	return cfg
}

// Validate проверяет значения, с которыми фид или воркеры работать не смогут.
func (c *Config) Validate() error {
	var errs []error

	// NeoWs не отдаёт диапазоны длиннее 7 дней
	if c.Sync.ChunkDays < 1 || c.Sync.ChunkDays > 7 {
		errs = append(errs, fmt.Errorf("SYNC_CHUNK_DAYS must be between 1 and 7, got %d", c.Sync.ChunkDays))
	}
	if c.Sync.PacerDelay < 0 {
		errs = append(errs, fmt.Errorf("SYNC_PACER_DELAY_MS must not be negative, got %v", c.Sync.PacerDelay))
	}
	if _, err := time.Parse("2006-01-02", c.Sync.BackfillStart); err != nil {
		errs = append(errs, fmt.Errorf("SYNC_BACKFILL_START: %w", err))
	}
	if c.Workers.NEOInterval <= 0 {
		errs = append(errs, fmt.Errorf("WORKER_NEO_INTERVAL must be positive, got %v", c.Workers.NEOInterval))
	}
	if _, err := time.Parse("15:04", c.Workers.NEOAt); err != nil {
		errs = append(errs, fmt.Errorf("WORKER_NEO_AT must be HH:MM: %w", err))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if dur, err := time.ParseDuration(value); err == nil {
			return dur
		}
	}
	return defaultValue
}
