package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL      string
	PostgresDB       string
	PostgresUser     string
	PostgresPassword string
	PostgresHost     string
	PostgresPort     string

	// Redis (optional; empty disables the top-N cache)
	RedisURL string

	// Server
	Port string

	// Authentication
	APIKey string

	// Resets and period labels share this zone so a weekly reset and the
	// weekly label never disagree about which week it is.
	ResetTimezone string
}

func Load() *Config {
	return &Config{
		// Environment
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),

		// Database
		DatabaseURL:      getEnvOrDefault("DATABASE_URL", ""),
		PostgresDB:       getEnvOrDefault("POSTGRES_DB", "leaderboard"),
		PostgresUser:     getEnvOrDefault("POSTGRES_USER", "leaderboard_user"),
		PostgresPassword: getEnvOrDefault("POSTGRES_PASSWORD", "leaderboard_password"),
		PostgresHost:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnvOrDefault("POSTGRES_PORT", "5432"),

		// Redis
		RedisURL: getEnvOrDefault("REDIS_URL", ""),

		// Server
		Port: getEnvOrDefault("PORT", "8080"),

		// Authentication
		APIKey: getEnvOrDefault("API_KEY", ""),

		// Scheduling
		ResetTimezone: getEnvOrDefault("RESET_TIMEZONE", "UTC"),
	}
}

func (c *Config) GetDatabaseURL() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.PostgresUser,
		c.PostgresPassword,
		c.PostgresHost,
		c.PostgresPort,
		c.PostgresDB,
	)
}

// Location resolves ResetTimezone, falling back to UTC on an unknown name.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ResetTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
