// File: internal/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort   string
	JWTSecretKey string
	DatabasePath string
	// AdminEmail identifies the bootstrap administrator; an agent registering
	// with this address is approved automatically.
	AdminEmail     string
	PollInterval   time.Duration
	PresenceOnline time.Duration
	PresenceAway   time.Duration
	Environment    string
}

// Load reads configuration from environment variables or .env file.
func Load() *Config {
	env := os.Getenv("ENV")
	if strings.ToLower(env) != "production" {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found; continuing with environment variables")
		}
	}

	cfg := &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		JWTSecretKey:   getEnv("JWT_SECRET_KEY", ""),
		DatabasePath:   getEnv("DATABASE_PATH", "livechat.db"),
		AdminEmail:     getEnv("ADMIN_EMAIL", ""),
		PollInterval:   time.Duration(getEnvAsInt("POLL_INTERVAL_MS", 3000)) * time.Millisecond,
		PresenceOnline: time.Duration(getEnvAsInt("PRESENCE_ONLINE_SECONDS", 90)) * time.Second,
		PresenceAway:   time.Duration(getEnvAsInt("PRESENCE_AWAY_SECONDS", 600)) * time.Second,
		Environment:    env,
	}

	// Validation for production environments
	if strings.ToLower(env) == "production" {
		missing := []string{}
		if cfg.JWTSecretKey == "" {
			missing = append(missing, "JWT_SECRET_KEY")
		}
		if cfg.AdminEmail == "" {
			missing = append(missing, "ADMIN_EMAIL")
		}
		if len(missing) > 0 {
			log.Fatalf("Missing required production environment variables: %v", missing)
		}
	}

	return cfg
}

// IsProduction reports whether the server runs with production settings.
func (c *Config) IsProduction() bool {
	return strings.ToLower(c.Environment) == "production"
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an env var as an integer, with a fallback.
func getEnvAsInt(key string, defaultValue int) int {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(strValue)
	if err != nil {
		log.Printf("Warning: could not parse env var %s as integer. Using default value.", key)
		return defaultValue
	}
	return intValue
}
