package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cesargomez89/photodex/internal/constants"
)

// Config holds all application configuration
type Config struct {
	Port              string
	DBPath            string
	LibraryRoot       string
	ManagedRoot       string
	MaxDepth          int
	BatchSize         int
	ParallelThreshold int
	MaxWorkers        int
	Extractor         string
	LogLevel          string
	LogFormat         string
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port:              getEnv("PORT", constants.DefaultPort),
		DBPath:            getEnv("DB_PATH", constants.DefaultDBPath),
		LibraryRoot:       getEnv("LIBRARY_ROOT", ""),
		ManagedRoot:       getEnv("MANAGED_ROOT", ""),
		MaxDepth:          getEnvInt("MAX_DEPTH", constants.DefaultMaxDepth),
		BatchSize:         getEnvInt("BATCH_SIZE", constants.DefaultBatchSize),
		ParallelThreshold: getEnvInt("PARALLEL_THRESHOLD", constants.DefaultParallelThreshold),
		MaxWorkers:        getEnvInt("MAX_WORKERS", constants.DefaultMaxWorkers),
		Extractor:         getEnv("EXTRACTOR", constants.DefaultExtractor),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "text"),
	}
}

// Validate validates the configuration and returns detailed errors
func (c *Config) Validate() error {
	var errors []string

	// Validate Port
	if c.Port == "" {
		errors = append(errors, "PORT cannot be empty")
	} else {
		port, err := strconv.Atoi(c.Port)
		if err != nil {
			errors = append(errors, fmt.Sprintf("PORT must be a valid number, got: %s", c.Port))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("PORT must be between 1 and 65535, got: %d", port))
		}
	}

	// Validate DBPath
	if c.DBPath == "" {
		errors = append(errors, "DB_PATH cannot be empty")
	}

	if c.MaxDepth < 0 {
		errors = append(errors, fmt.Sprintf("MAX_DEPTH cannot be negative, got: %d", c.MaxDepth))
	}
	if c.BatchSize < 1 {
		errors = append(errors, fmt.Sprintf("BATCH_SIZE must be at least 1, got: %d", c.BatchSize))
	}
	if c.ParallelThreshold < 1 {
		errors = append(errors, fmt.Sprintf("PARALLEL_THRESHOLD must be at least 1, got: %d", c.ParallelThreshold))
	}
	if c.MaxWorkers < 1 {
		errors = append(errors, fmt.Sprintf("MAX_WORKERS must be at least 1, got: %d", c.MaxWorkers))
	}

	// Validate Extractor
	validExtractors := map[string]bool{
		constants.ExtractorExif:     true,
		constants.ExtractorExiftool: true,
	}
	if !validExtractors[c.Extractor] {
		errors = append(errors, fmt.Sprintf("EXTRACTOR must be one of: exif, exiftool, got: %s", c.Extractor))
	}

	// Validate LogLevel
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: debug, info, warn, error, got: %s", c.LogLevel))
	}

	// Validate LogFormat
	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[c.LogFormat] {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: text, json, got: %s", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// getEnvInt is getEnv for integers. Unparseable values fall back to -1 so
// Validate reports them.
func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return -1
	}
	return n
}
