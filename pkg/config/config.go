// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// FinalFileName is the workbook written by the last cleaning stage
const FinalFileName = "Formulaire_FINAL_OPTIMISE.xlsx"

// Config represents the application configuration
type Config struct {
	// Pipeline
	InputPath   string
	OutputDir   string
	PhoneRegion string  // Default region for numbers without a country code
	MinFillRate float64 // Percent below which a column is dropped in stage 2, in (0, 100]

	// Report and dashboard
	TopCountries   int
	DashboardAddr  string
	DashboardData  string // Cleaned workbook served by the dashboard
	AllowedOrigins []string

	// Optional sinks and sources
	Audit     *AuditConfig     // nil disables the cleaning audit trail
	Publish   *PublishConfig   // nil disables publishing to Postgres
	Snowflake *SnowflakeConfig // nil when no warehouse source is configured
	Postgres  *PostgresConfig  // nil when no Postgres target is configured

	// Logging
	LogLevel  string
	LogFormat string
}

// AuditConfig selects the database receiving cleaning operations
type AuditConfig struct {
	Driver string // postgres or sqlite
	DSN    string
}

// PublishConfig names the Postgres table receiving the final responses
type PublishConfig struct {
	Schema string
	Table  string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		InputPath:      getEnv("INPUT_PATH", "Formulaire.xlsx"),
		OutputDir:      getEnv("OUTPUT_DIR", "output"),
		PhoneRegion:    strings.ToUpper(getEnv("DEFAULT_PHONE_REGION", "FR")),
		MinFillRate:    getEnvAsFloat("MIN_FILL_RATE", 5),
		TopCountries:   getEnvAsInt("TOP_COUNTRIES", 10),
		DashboardAddr:  getEnv("DASHBOARD_ADDR", "127.0.0.1:8050"),
		AllowedOrigins: getEnvAsStringSlice("ALLOWED_ORIGINS", []string{"http://localhost:8050", "http://127.0.0.1:8050"}),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "console"),
	}
	cfg.DashboardData = getEnv("DASHBOARD_DATA", filepath.Join(cfg.OutputDir, FinalFileName))

	if driver := getEnv("AUDIT_DRIVER", ""); driver != "" {
		cfg.Audit = &AuditConfig{
			Driver: strings.ToLower(driver),
			DSN:    getEnv("AUDIT_DSN", filepath.Join(cfg.OutputDir, "audit.sqlite")),
		}
	}

	// Database blocks are optional; once started they must be complete
	snowConfig, err := LoadSnowflakeConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load Snowflake configuration: %w", err)
	}
	cfg.Snowflake = snowConfig

	pgConfig, err := LoadPostgresConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load PostgreSQL configuration: %w", err)
	}
	cfg.Postgres = pgConfig

	if table := getEnv("PUBLISH_TABLE", ""); table != "" {
		cfg.Publish = &PublishConfig{
			Schema: getEnv("PUBLISH_SCHEMA", "public"),
			Table:  table,
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory is required")
	}

	if len(c.PhoneRegion) != 2 {
		return fmt.Errorf("phone region must be a two-letter code, got %q", c.PhoneRegion)
	}

	if c.MinFillRate <= 0 || c.MinFillRate > 100 {
		return fmt.Errorf("minimum fill rate must be above 0 and at most 100, got %v", c.MinFillRate)
	}

	if c.TopCountries <= 0 {
		return errors.New("top countries must be positive")
	}

	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("unsupported log format %q", c.LogFormat)
	}

	if c.Audit != nil {
		switch c.Audit.Driver {
		case "postgres", "sqlite":
		default:
			return fmt.Errorf("unsupported audit driver %q", c.Audit.Driver)
		}
		if c.Audit.DSN == "" {
			return errors.New("audit DSN is required")
		}
	}

	if c.Publish != nil && c.Postgres == nil {
		return errors.New("postgreSQL configuration is required to publish")
	}

	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsStringSlice parses a comma-separated variable; quoted items may contain commas
func getEnvAsStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result []string
	for _, v := range splitCommaDelimited(value) {
		if v != "" {
			result = append(result, v)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}

func splitCommaDelimited(s string) []string {
	var result []string
	var current strings.Builder
	inQuotes := false

	for _, char := range s {
		switch {
		case char == '"':
			inQuotes = !inQuotes
		case char == ',' && !inQuotes:
			result = append(result, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(char)
		}
	}
	if current.Len() > 0 {
		result = append(result, strings.TrimSpace(current.String()))
	}

	return result
}
