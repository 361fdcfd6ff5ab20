package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port string

	// Database configuration
	DBType            string // mysql, postgres, sqlite, sqlserver, etc.
	DBHost            string
	DBPort            string
	DBDatabase        string
	DBUser            string
	DBPassword        string
	DBConnectionLimit int

	// Blob storage configuration (planet textures, user avatars)
	StorageType string // local or s3
	StorageDir  string // local backend root directory
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3UseSSL    bool

	// Extra reserved names, beyond the embedded defaults
	ReservedNames []string

	// Session configuration
	SessionExpirationHours int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:                   getEnv("PORT", "3000"),
		DBType:                 getEnv("DB_TYPE", "mysql"),
		DBHost:                 getEnv("DB_HOST", "localhost"),
		DBPort:                 getEnv("DB_PORT", "3306"),
		DBDatabase:             getEnv("DB_DATABASE", ""),
		DBUser:                 getEnv("DB_USER", ""),
		DBPassword:             getEnv("DB_PASSWORD", ""),
		DBConnectionLimit:      getEnvAsInt("DB_CONNECTION_LIMIT", 5),
		StorageType:            getEnv("STORAGE_TYPE", "local"),
		StorageDir:             getEnv("STORAGE_DIR", "./blobs"),
		S3Endpoint:             getEnv("S3_ENDPOINT", ""),
		S3AccessKey:            getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:            getEnv("S3_SECRET_KEY", ""),
		S3Bucket:               getEnv("S3_BUCKET", "wadtheplanet"),
		S3UseSSL:               getEnvAsBool("S3_USE_SSL", false),
		ReservedNames:          getEnvAsList("RESERVED_NAMES"),
		SessionExpirationHours: getEnvAsInt("SESSION_EXPIRATION_HOURS", 24),
	}

	// Validate required fields
	if cfg.DBDatabase == "" {
		return nil, fmt.Errorf("DB_DATABASE is required")
	}
	if cfg.DBType != "sqlite" && cfg.DBUser == "" {
		return nil, fmt.Errorf("DB_USER is required for %s", cfg.DBType)
	}
	switch cfg.StorageType {
	case "local":
		if cfg.StorageDir == "" {
			return nil, fmt.Errorf("STORAGE_DIR is required for local storage")
		}
	case "s3":
		if cfg.S3Endpoint == "" {
			return nil, fmt.Errorf("S3_ENDPOINT is required for s3 storage")
		}
		if cfg.S3AccessKey == "" || cfg.S3SecretKey == "" {
			return nil, fmt.Errorf("S3_ACCESS_KEY and S3_SECRET_KEY are required for s3 storage")
		}
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.StorageType)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
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

// getEnvAsBool gets an environment variable as a boolean or returns a default value
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

// getEnvAsList gets a comma-separated environment variable as a string slice
func getEnvAsList(key string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return nil
	}
	parts := strings.Split(valueStr, ",")
	list := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			list = append(list, p)
		}
	}
	return list
}
