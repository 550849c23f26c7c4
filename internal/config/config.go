// Package config provides application configuration loaded from environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultAPIBaseURL is the production backend used when no override is set.
const DefaultAPIBaseURL = "https://api.sapi-procurement.id/api"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Security SecurityConfig
	Storage  StorageConfig
	Client   ClientConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           string
	ReadTimeout    int // seconds
	WriteTimeout   int // seconds
	IdleTimeout    int // seconds
	AllowedOrigins []string
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver   string // postgres | sqlite
	RawDSN   string // DATABASE_DSN, takes precedence over the discrete fields
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	Debug    bool
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev        bool
	Migrations bool
	Seed       bool
}

// SecurityConfig holds token secrets.
type SecurityConfig struct {
	JWTSecret     string
	PIDSecret     string
	TokenTTL      time.Duration
	AdminPassword string // password of the seeded admin account
}

// StorageConfig holds upload settings.
type StorageConfig struct {
	UploadDir   string
	MaxUploadMB int
}

// ClientConfig holds settings for the API client side (procurectl).
type ClientConfig struct {
	BaseURL    string
	TokenFile  string
	RedisAddr  string
	CacheTTL   time.Duration
	Timeout    time.Duration
	DemoOnFail bool
}

// DSN returns the connection string for the configured driver.
func (d DatabaseConfig) DSN() string {
	if d.RawDSN != "" {
		return d.RawDSN
	}
	if d.Driver == "sqlite" {
		return d.DBName
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// URL returns the PostgreSQL connection string in URL format.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Load reads configuration from environment variables.
// It uses sensible defaults for local development.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			ReadTimeout:    getEnvInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout:   getEnvInt("SERVER_WRITE_TIMEOUT", 30),
			IdleTimeout:    getEnvInt("SERVER_IDLE_TIMEOUT", 60),
			AllowedOrigins: getEnvList("CORS_ORIGINS"),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			RawDSN:   os.Getenv("DATABASE_DSN"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "sapi"),
			Password: getEnv("DB_PASSWORD", "sapi123"),
			DBName:   getEnv("DB_NAME", "sapi"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			Debug:    getEnvBool("DB_DEBUG", false),
		},
		App: AppConfig{
			Dev:        getEnvBool("DEV", true),
			Migrations: getEnvBool("MIGRATIONS", false),
			Seed:       getEnvBool("DB_SEED", false),
		},
		Security: SecurityConfig{
			JWTSecret:     getEnv("JWT_SECRET", "devjwtsecret"),
			PIDSecret:     getEnv("PID_SECRET", "devpidsecret"),
			TokenTTL:      time.Duration(getEnvInt("TOKEN_TTL_HOURS", 12)) * time.Hour,
			AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),
		},
		Storage: StorageConfig{
			UploadDir:   getEnv("UPLOAD_DIR", "uploads"),
			MaxUploadMB: getEnvInt("MAX_UPLOAD_MB", 10),
		},
		Client: ClientConfig{
			BaseURL:    APIBaseURL(),
			TokenFile:  getEnv("API_TOKEN_FILE", defaultTokenFile()),
			RedisAddr:  os.Getenv("CACHE_REDIS_ADDR"),
			CacheTTL:   time.Duration(getEnvInt("CACHE_TTL_SECONDS", 0)) * time.Second,
			Timeout:    time.Duration(getEnvInt("API_TIMEOUT_SECONDS", 30)) * time.Second,
			DemoOnFail: getEnvBool("DEMO_FALLBACK", false),
		},
	}
}

// APIBaseURL returns the backend origin: API_BASE_URL, then the legacy
// REACT_APP_API_BASE_URL, then the production default.
func APIBaseURL() string {
	if v := os.Getenv("API_BASE_URL"); v != "" {
		return v
	}
	return getEnv("REACT_APP_API_BASE_URL", DefaultAPIBaseURL)
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".procurectl-token"
	}
	return filepath.Join(dir, "procurectl", "token")
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default.
// Accepts "1", "true", "yes" as true; everything else is false.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "1" || value == "true" || value == "yes"
}

// getEnvList splits a comma-separated variable, dropping empty items.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
