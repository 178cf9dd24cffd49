// pkg/config/database.go
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/snowflakedb/gosnowflake"
)

// SnowflakeConfig holds the connection parameters of the warehouse holding raw responses
type SnowflakeConfig struct {
	User          string
	Password      string
	Account       string
	Warehouse     string
	Database      string
	Schema        string // Default: PUBLIC
	Role          string
	Authenticator gosnowflake.AuthType
	SourceTable   string // Table read by "formclean clean --source snowflake"

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// Query timeout
	QueryTimeout time.Duration
}

// PostgresConfig describes the database receiving published tables
type PostgresConfig struct {
	URL string // postgres:// URL; when set the discrete fields below are ignored

	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	// Sent as runtime parameters so every pooled connection carries them
	ApplicationName  string
	StatementTimeout time.Duration

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// snowflakeAuthenticators maps SNOWFLAKE_AUTHENTICATOR values to driver types
var snowflakeAuthenticators = map[string]gosnowflake.AuthType{
	"snowflake":             gosnowflake.AuthTypeSnowflake,
	"oauth":                 gosnowflake.AuthTypeOAuth,
	"externalbrowser":       gosnowflake.AuthTypeExternalBrowser,
	"username_password_mfa": gosnowflake.AuthTypeUsernamePasswordMFA,
	"jwt":                   gosnowflake.AuthTypeJwt,
	"token":                 gosnowflake.AuthTypeTokenAccessor,
	"okta":                  gosnowflake.AuthTypeOkta,
}

// LoadSnowflakeConfig loads Snowflake configuration from environment variables.
// It returns nil when SNOWFLAKE_ACCOUNT is unset.
func LoadSnowflakeConfig() (*SnowflakeConfig, error) {
	account := os.Getenv("SNOWFLAKE_ACCOUNT")
	if account == "" {
		return nil, nil
	}

	user := os.Getenv("SNOWFLAKE_USER")
	if user == "" {
		return nil, errors.New("SNOWFLAKE_USER environment variable is required")
	}

	password := os.Getenv("SNOWFLAKE_PASSWORD")
	if password == "" {
		return nil, errors.New("SNOWFLAKE_PASSWORD environment variable is required")
	}

	warehouse := os.Getenv("SNOWFLAKE_WAREHOUSE")
	if warehouse == "" {
		return nil, errors.New("SNOWFLAKE_WAREHOUSE environment variable is required")
	}

	database := os.Getenv("SNOWFLAKE_DATABASE")
	if database == "" {
		return nil, errors.New("SNOWFLAKE_DATABASE environment variable is required")
	}

	name := strings.ToLower(getEnv("SNOWFLAKE_AUTHENTICATOR", "snowflake"))
	authenticator, ok := snowflakeAuthenticators[name]
	if !ok {
		return nil, fmt.Errorf("unsupported SNOWFLAKE_AUTHENTICATOR %q", name)
	}

	cfg := &SnowflakeConfig{
		User:          user,
		Password:      password,
		Account:       account,
		Warehouse:     warehouse,
		Database:      database,
		Schema:        getEnv("SNOWFLAKE_SCHEMA", "PUBLIC"),
		Role:          getEnv("SNOWFLAKE_ROLE", ""),
		Authenticator: authenticator,
		SourceTable:   getEnv("SNOWFLAKE_SOURCE_TABLE", "FORMULAIRE"),

		MaxOpenConns:    getEnvAsInt("SNOWFLAKE_MAX_OPEN_CONNS", 4),
		MaxIdleConns:    getEnvAsInt("SNOWFLAKE_MAX_IDLE_CONNS", 2),
		ConnMaxLifetime: time.Duration(getEnvAsInt("SNOWFLAKE_CONN_MAX_LIFETIME_SECONDS", 600)) * time.Second,
		ConnMaxIdleTime: time.Duration(getEnvAsInt("SNOWFLAKE_CONN_MAX_IDLE_TIME_SECONDS", 300)) * time.Second,
		QueryTimeout:    time.Duration(getEnvAsInt("SNOWFLAKE_QUERY_TIMEOUT_SECONDS", 300)) * time.Second,
	}

	return cfg, nil
}

// LoadPostgresConfig reads the publish target. POSTGRES_URL takes precedence
// over the POSTGRES_HOST/PORT/USER/PASSWORD/DB set. It returns nil when
// neither POSTGRES_URL nor POSTGRES_DB is set.
func LoadPostgresConfig() (*PostgresConfig, error) {
	cfg := &PostgresConfig{
		URL:      os.Getenv("POSTGRES_URL"),
		Host:     getEnv("POSTGRES_HOST", "localhost"),
		Port:     getEnvAsInt("POSTGRES_PORT", 5432),
		User:     os.Getenv("POSTGRES_USER"),
		Password: os.Getenv("POSTGRES_PASSWORD"),
		Database: os.Getenv("POSTGRES_DB"),
		SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		ApplicationName:  getEnv("POSTGRES_APPLICATION_NAME", "formclean"),
		StatementTimeout: time.Duration(getEnvAsInt("POSTGRES_STATEMENT_TIMEOUT_SECONDS", 300)) * time.Second,

		MaxOpenConns:    getEnvAsInt("POSTGRES_MAX_OPEN_CONNS", 4),
		MaxIdleConns:    getEnvAsInt("POSTGRES_MAX_IDLE_CONNS", 2),
		ConnMaxLifetime: time.Duration(getEnvAsInt("POSTGRES_CONN_MAX_LIFETIME_SECONDS", 1800)) * time.Second,
		ConnMaxIdleTime: time.Duration(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_TIME_SECONDS", 600)) * time.Second,
	}
	if cfg.URL == "" && cfg.Database == "" {
		return nil, nil
	}

	if cfg.URL == "" {
		if cfg.User == "" {
			return nil, errors.New("POSTGRES_USER environment variable is required")
		}
		if cfg.Password == "" {
			return nil, errors.New("POSTGRES_PASSWORD environment variable is required")
		}
	}
	if _, err := pgx.ParseConfig(cfg.ConnectionString()); err != nil {
		return nil, fmt.Errorf("invalid PostgreSQL connection settings: %w", err)
	}
	return cfg, nil
}

// ConnectionString returns a Snowflake DSN
func (c *SnowflakeConfig) ConnectionString() (string, error) {
	dsn, err := gosnowflake.DSN(&gosnowflake.Config{
		Account:       c.Account,
		User:          c.User,
		Password:      c.Password,
		Database:      c.Database,
		Schema:        c.Schema,
		Warehouse:     c.Warehouse,
		Role:          c.Role,
		Authenticator: c.Authenticator,
	})
	if err != nil {
		return "", fmt.Errorf("failed to build Snowflake DSN: %w", err)
	}
	return dsn, nil
}

// ConnectionString returns a postgres:// URL with the runtime parameters in
// its query. Parameters already present in URL are kept.
func (c *PostgresConfig) ConnectionString() string {
	u := c.baseURL()
	if u == nil {
		return c.URL
	}

	q := u.Query()
	if c.URL == "" && c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	if c.ApplicationName != "" && q.Get("application_name") == "" {
		q.Set("application_name", c.ApplicationName)
	}
	if c.StatementTimeout > 0 && q.Get("statement_timeout") == "" {
		q.Set("statement_timeout", strconv.FormatInt(c.StatementTimeout.Milliseconds(), 10))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Target describes the server and database without credentials, for logs
func (c *PostgresConfig) Target() string {
	u := c.baseURL()
	if u == nil {
		return "invalid URL"
	}
	return u.Host + u.Path
}

func (c *PostgresConfig) baseURL() *url.URL {
	if c.URL != "" {
		u, err := url.Parse(c.URL)
		if err != nil {
			return nil
		}
		return u
	}
	return &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Database,
	}
}
