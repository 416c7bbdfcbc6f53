package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"dutree/internal/application/analysis"
)

func init() {
	// Load .env file if it exists (ignores error if not found)
	godotenv.Load()
}

type Config struct {
	Port         string
	MetricsAddr  string // separate listener for /metrics; empty serves it on Port
	DatabasePath string
	LogLevel     string
	LogFormat    string

	// Query constants
	SizeThreshold  int64
	DeviceCapacity int64
	RequiredFree   int64

	MaxTranscriptSize int64
	MaxLineBytes      int

	AllowedOrigins []string
	APIKeyHash     string // bcrypt hash; empty disables auth
	ScanExclude    []string
	AutoSave       bool
}

func Load() *Config {
	return &Config{
		Port:              getEnv("PORT", "8085"),
		MetricsAddr:       getEnv("METRICS_ADDR", ""),
		DatabasePath:      getEnv("DATABASE_PATH", "./data/dutree.db"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "console"),
		SizeThreshold:     getEnvAsInt64("SIZE_THRESHOLD", analysis.DefaultThreshold),
		DeviceCapacity:    getEnvAsInt64("DEVICE_CAPACITY", analysis.DefaultCapacity),
		RequiredFree:      getEnvAsInt64("REQUIRED_FREE", analysis.DefaultRequired),
		MaxTranscriptSize: getEnvAsInt64("MAX_TRANSCRIPT_SIZE", 10<<20), // 10MB default
		MaxLineBytes:      int(getEnvAsInt64("MAX_LINE_BYTES", 1<<20)),
		AllowedOrigins:    getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		APIKeyHash:        getEnv("API_KEY_HASH", ""),
		ScanExclude:       getEnvAsList("SCAN_EXCLUDE", []string{".git"}),
		AutoSave:          getEnvAsBool("AUTO_SAVE", true),
	}
}

// Params returns the query constants
func (c *Config) Params() analysis.Params {
	return analysis.Params{
		Threshold: c.SizeThreshold,
		Capacity:  c.DeviceCapacity,
		Required:  c.RequiredFree,
	}
}

// Validate rejects settings no command can run with
func (c *Config) Validate() error {
	if err := c.Params().Validate(); err != nil {
		return err
	}
	if c.MaxTranscriptSize <= 0 {
		return fmt.Errorf("MAX_TRANSCRIPT_SIZE must be positive, got %d", c.MaxTranscriptSize)
	}
	if c.MaxLineBytes <= 0 {
		return fmt.Errorf("MAX_LINE_BYTES must be positive, got %d", c.MaxLineBytes)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping empty items
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
