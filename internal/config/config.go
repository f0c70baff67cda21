// Package config loads corpgraph settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// App
	Env      string
	LogLevel string

	// Storage
	StorageDriver string
	SQLitePath    string
	PostgresDSN   string

	// Blob medium
	BlobDriver string
	BlobFSRoot string
	BlobKey    string

	// S3
	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3SessionToken    string
	S3PathStyle       bool
}

var (
	storageDrivers = []string{"memory", "sqlite", "postgres", "blob"}
	blobDrivers    = []string{"fs", "s3", "memory"}
	logLevels      = []string{"debug", "info", "warn", "error"}
)

// Load reads configuration from environment variables. Files default to
// ".env"; a missing file is not an error.
func Load(files ...string) (*Config, error) {
	_ = godotenv.Load(files...)

	cfg := &Config{
		Env:               getEnv("CORPGRAPH_ENV", "development"),
		LogLevel:          strings.ToLower(getEnv("CORPGRAPH_LOG_LEVEL", "")),
		StorageDriver:     strings.ToLower(getEnv("CORPGRAPH_STORAGE_DRIVER", "sqlite")),
		SQLitePath:        getEnv("CORPGRAPH_SQLITE_PATH", "corpgraph.db"),
		PostgresDSN:       getEnv("CORPGRAPH_POSTGRES_DSN", ""),
		BlobDriver:        strings.ToLower(getEnv("CORPGRAPH_BLOB_DRIVER", "fs")),
		BlobFSRoot:        getEnv("CORPGRAPH_BLOB_FS_ROOT", "./corpgraph-data"),
		BlobKey:           getEnv("CORPGRAPH_BLOB_KEY", "corpgraph/state.json"),
		S3Bucket:          getEnv("CORPGRAPH_BLOB_S3_BUCKET", ""),
		S3Region:          getEnv("CORPGRAPH_BLOB_S3_REGION", "us-east-1"),
		S3Endpoint:        getEnv("CORPGRAPH_BLOB_S3_ENDPOINT", ""),
		S3AccessKeyID:     getEnv("CORPGRAPH_BLOB_S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: getEnv("CORPGRAPH_BLOB_S3_SECRET_ACCESS_KEY", ""),
		S3SessionToken:    getEnv("CORPGRAPH_BLOB_S3_SESSION_TOKEN", ""),
		S3PathStyle:       getEnvBool("CORPGRAPH_BLOB_S3_PATH_STYLE", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks driver names and the settings each driver requires.
func (c *Config) Validate() error {
	if !oneOf(c.StorageDriver, storageDrivers) {
		return fmt.Errorf("CORPGRAPH_STORAGE_DRIVER %q must be one of %s", c.StorageDriver, strings.Join(storageDrivers, "|"))
	}
	if c.LogLevel != "" && !oneOf(c.LogLevel, logLevels) {
		return fmt.Errorf("CORPGRAPH_LOG_LEVEL %q must be one of %s", c.LogLevel, strings.Join(logLevels, "|"))
	}
	if c.StorageDriver != "blob" {
		return nil
	}
	if !oneOf(c.BlobDriver, blobDrivers) {
		return fmt.Errorf("CORPGRAPH_BLOB_DRIVER %q must be one of %s", c.BlobDriver, strings.Join(blobDrivers, "|"))
	}
	if c.BlobDriver == "s3" && c.S3Bucket == "" {
		return fmt.Errorf("CORPGRAPH_BLOB_S3_BUCKET is required for the s3 blob driver")
	}
	return nil
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
