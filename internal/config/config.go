package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the AccountPulse server.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Assessment AssessmentConfig
}

type ServerConfig struct {
	Port              int
	Env               string
	RequestsPerMinute int
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

// AssessmentConfig tunes the batch assessment job. BatchSize bounds the unit
// of progress and cancellation; Workers bounds concurrent per-customer
// computation (and therefore concurrent store reads); DormantLookbackDays is
// how far back an order may be and still count as dormancy rather than churn.
type AssessmentConfig struct {
	BatchSize           int
	Workers             int
	Timeout             time.Duration
	DormantLookbackDays int
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:              envInt("PULSE_PORT", 8080),
			Env:               envString("PULSE_ENV", "development"),
			RequestsPerMinute: envInt("PULSE_RATE_LIMIT_PER_MIN", 60),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Assessment: AssessmentConfig{
			BatchSize:           envInt("ASSESSMENT_BATCH_SIZE", 100),
			Workers:             envInt("ASSESSMENT_WORKERS", 8),
			Timeout:             envDuration("ASSESSMENT_TIMEOUT", 10*time.Minute),
			DormantLookbackDays: envInt("ASSESSMENT_DORMANT_LOOKBACK_DAYS", 730),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Assessment.BatchSize < 1 {
		return fmt.Errorf("ASSESSMENT_BATCH_SIZE must be at least 1, got %d", c.Assessment.BatchSize)
	}
	if c.Assessment.Workers < 1 {
		return fmt.Errorf("ASSESSMENT_WORKERS must be at least 1, got %d", c.Assessment.Workers)
	}
	if c.Assessment.DormantLookbackDays < 1 {
		return fmt.Errorf("ASSESSMENT_DORMANT_LOOKBACK_DAYS must be at least 1, got %d", c.Assessment.DormantLookbackDays)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
