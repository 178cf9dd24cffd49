// pkg/connector/snowflake.go
package connector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/snowflakedb/gosnowflake"
	"go.uber.org/zap"

	"github.com/David-Botos/form-ingress/pkg/config"
	"github.com/David-Botos/form-ingress/pkg/model"
)

// SnowflakeConnector reads raw responses from a Snowflake table
type SnowflakeConnector struct {
	db     *sql.DB
	logger *zap.Logger
	cfg    *config.SnowflakeConfig
}

// NewSnowflakeConnector creates a new Snowflake connection
func NewSnowflakeConnector(ctx context.Context, cfg *config.SnowflakeConfig, logger *zap.Logger) (*SnowflakeConnector, error) {
	if cfg == nil {
		return nil, errors.New("snowflake configuration is required")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	logger = logger.Named("snowflake-connector")

	// Log connection attempt (without credentials)
	logger.Info("Connecting to Snowflake",
		zap.String("account", cfg.Account),
		zap.String("user", cfg.User),
		zap.String("database", cfg.Database),
		zap.String("schema", cfg.Schema),
		zap.String("warehouse", cfg.Warehouse))

	dsn, err := cfg.ConnectionString()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Snowflake connection: %w", err)
	}

	ApplyConnectionSettings(
		db,
		cfg.MaxOpenConns,
		cfg.MaxIdleConns,
		cfg.ConnMaxLifetime,
		cfg.ConnMaxIdleTime,
	)

	if err := PingWithTimeout(ctx, db, 10*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to Snowflake: %w", err)
	}

	if cfg.QueryTimeout > 0 {
		_, err = db.ExecContext(
			ctx,
			fmt.Sprintf("ALTER SESSION SET STATEMENT_TIMEOUT_IN_SECONDS = %d",
				int(cfg.QueryTimeout.Seconds())),
		)
		if err != nil {
			logger.Warn("Failed to set statement timeout", zap.Error(err))
		}
	}

	LogConnectionStats(logger, cfg.Database, db)
	return &SnowflakeConnector{db: db, logger: logger, cfg: cfg}, nil
}

// DB returns the underlying database connection
func (c *SnowflakeConnector) DB() *sql.DB {
	return c.db
}

// Validate verifies the session points at the configured database
func (c *SnowflakeConnector) Validate(ctx context.Context) error {
	var role, database, warehouse sql.NullString
	err := c.db.QueryRowContext(ctx, "SELECT CURRENT_ROLE(), CURRENT_DATABASE(), CURRENT_WAREHOUSE()").Scan(
		&role, &database, &warehouse)
	if err != nil {
		return fmt.Errorf("failed to verify Snowflake access: %w", err)
	}

	c.logger.Info("Connected to Snowflake",
		zap.String("role", role.String),
		zap.String("database", database.String),
		zap.String("warehouse", warehouse.String))

	if !strings.EqualFold(database.String, c.cfg.Database) {
		return fmt.Errorf("connected to wrong database: %s (expected: %s)",
			database.String, c.cfg.Database)
	}
	return nil
}

// Close closes the database connection
func (c *SnowflakeConnector) Close() error {
	c.logger.Info("Closing Snowflake connection")
	LogConnectionStats(c.logger, c.cfg.Database, c.db)
	return c.db.Close()
}

// LoadResponses reads every row of a table in the configured schema as text
// cells, in the same shape a spreadsheet export would give.
func (c *SnowflakeConnector) LoadResponses(ctx context.Context, table string) ([]string, [][]string, error) {
	if table == "" {
		table = c.cfg.SourceTable
	}
	query := fmt.Sprintf("SELECT * FROM %s.%s", quoteSnowflake(c.cfg.Schema), quoteSnowflake(table))

	queryCtx := ctx
	if c.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		queryCtx, cancel = context.WithTimeout(ctx, c.cfg.QueryTimeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := c.db.QueryContext(queryCtx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	headers, cells, err := scanText(rows)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", table, err)
	}

	c.logger.Info("Loaded responses from Snowflake",
		zap.String("table", table),
		zap.Int("rows", len(cells)),
		zap.Int("columns", len(headers)),
		zap.Duration("duration", time.Since(start)))
	return headers, cells, nil
}

// scanText reads a result set into header names and string cells; NULL is "".
// DATE and TIMESTAMP values are rendered in model.CanonicalDateLayout so they
// parse like spreadsheet dates.
func scanText(rows *sql.Rows) ([]string, [][]string, error) {
	headers, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var cells [][]string
	values := make([]interface{}, len(headers))
	dest := make([]interface{}, len(headers))
	for i := range values {
		dest[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, nil, fmt.Errorf("failed to scan row %d: %w", len(cells)+1, err)
		}
		line := make([]string, len(headers))
		for i, v := range values {
			line[i] = model.String(v)
		}
		cells = append(cells, line)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return headers, cells, nil
}

// quoteSnowflake quotes an identifier; unquoted names are upper-cased by Snowflake
func quoteSnowflake(name string) string {
	return `"` + strings.ReplaceAll(strings.ToUpper(name), `"`, `""`) + `"`
}
