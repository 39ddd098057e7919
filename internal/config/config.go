// Package config loads the process configuration from environment variables.
// Values are read once at startup; there is no reload.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultJWTSecret is only meant for local development.
const DefaultJWTSecret = "fallback-secret-key"

// Config holds all application configuration.
type Config struct {
	Port          string
	Env           string
	JWTSecret     string
	CORSOrigins   []string
	MaxFileSize   int64 // bytes, per uploaded file
	UploadDir     string
	PublicBaseURL string // used for absolute links in the export
	Database      DatabaseConfig
	Admin         AdminConfig
}

// DatabaseConfig selects the SQL driver and its DSN.
type DatabaseConfig struct {
	Driver string // "mysql" or "sqlite3"
	DSN    string
}

// AdminConfig is the bootstrap administrator account.
type AdminConfig struct {
	Email    string
	Password string
	Name     string
}

// Load reads configuration from environment variables.
// It uses sensible defaults for local development.
func Load() *Config {
	port := getEnv("PORT", "4000")
	driver := getEnv("DB_DRIVER", "mysql")

	return &Config{
		Port:      port,
		Env:       getEnv("APP_ENV", "development"),
		JWTSecret: getEnv("JWT_SECRET", DefaultJWTSecret),
		CORSOrigins: getEnvList("CORS_ORIGINS", []string{
			"http://localhost:5173",
			"http://localhost:3000",
		}),
		MaxFileSize:   getEnvInt64("MAX_FILE_SIZE", 10*1024*1024),
		UploadDir:     getEnv("UPLOAD_DIR", "./uploads"),
		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", fmt.Sprintf("http://localhost:%s", port)), "/"),
		Database: DatabaseConfig{
			Driver: driver,
			DSN:    getEnv("DB_DSN_PRIMARY", defaultDSN(driver)),
		},
		Admin: AdminConfig{
			Email:    getEnv("ADMIN_EMAIL", "admin@logistics.com"),
			Password: os.Getenv("ADMIN_PASSWORD"),
			Name:     getEnv("ADMIN_NAME", "Admin"),
		},
	}
}

// IsProduction reports whether APP_ENV is "production".
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func defaultDSN(driver string) string {
	if driver == "sqlite3" {
		return "file:logistics.db?_foreign_keys=on"
	}
	return "root:@tcp(127.0.0.1:3306)/workshop_logistics?parseTime=true"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil && i > 0 {
			return i
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping blank entries.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
