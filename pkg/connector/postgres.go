// pkg/connector/postgres.go
package connector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/David-Botos/form-ingress/pkg/config"
	"github.com/David-Botos/form-ingress/pkg/model"
)

const (
	defaultBatchSize = 500
	maxBindParams    = 65535 // PostgreSQL wire protocol limit per statement
)

// PostgresConnector publishes cleaned tables to PostgreSQL
type PostgresConnector struct {
	db     *sql.DB
	logger *zap.Logger
	cfg    *config.PostgresConfig
}

// NewPostgresConnector creates and initializes a new PostgreSQL connector
func NewPostgresConnector(ctx context.Context, cfg *config.PostgresConfig, logger *zap.Logger) (*PostgresConnector, error) {
	if cfg == nil {
		return nil, errors.New("postgreSQL configuration is required")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	logger = logger.Named("postgres-connector")

	logger.Info("Connecting to PostgreSQL",
		zap.String("target", cfg.Target()),
		zap.Duration("statementTimeout", cfg.StatementTimeout))

	db, err := sql.Open("pgx", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL connection: %w", err)
	}

	ApplyConnectionSettings(
		db,
		cfg.MaxOpenConns,
		cfg.MaxIdleConns,
		cfg.ConnMaxLifetime,
		cfg.ConnMaxIdleTime,
	)

	if err := PingWithTimeout(ctx, db, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	LogConnectionStats(logger, cfg.Target(), db)
	return &PostgresConnector{db: db, logger: logger, cfg: cfg}, nil
}

// DB returns the underlying database connection
func (c *PostgresConnector) DB() *sql.DB {
	return c.db
}

// Validate checks the server version and that tables can be created
func (c *PostgresConnector) Validate(ctx context.Context) error {
	var version string
	if err := c.db.QueryRowContext(ctx, "SELECT version()").Scan(&version); err != nil {
		return fmt.Errorf("failed to query PostgreSQL version: %w", err)
	}
	c.logger.Info("Connected to PostgreSQL", zap.String("version", version))

	_, err := c.db.ExecContext(ctx, `
		DO $$
		BEGIN
			CREATE TEMP TABLE _permission_check (id serial, test text);
			INSERT INTO _permission_check (test) VALUES ('test');
			DROP TABLE _permission_check;
		EXCEPTION WHEN OTHERS THEN
			RAISE EXCEPTION 'Permission check failed: %', SQLERRM;
		END $$;
	`)
	if err != nil {
		return fmt.Errorf("permission validation failed: %w", err)
	}
	return nil
}

// Close closes the database connection
func (c *PostgresConnector) Close() error {
	c.logger.Info("Closing PostgreSQL connection")
	LogConnectionStats(c.logger, c.cfg.Target(), c.db)
	return c.db.Close()
}

// PublishTable replaces the content of schema.name with the rows of table.
// The target is created from the inferred column types when missing.
func (c *PostgresConnector) PublishTable(ctx context.Context, schema, name string, table *model.Table) (n int64, err error) {
	types := make([]string, len(table.Columns))
	defs := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		types[i] = ColumnType(table, col)
		defs[i] = pq.QuoteIdentifier(col) + " " + types[i]
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				c.logger.Error("Failed to rollback transaction", zap.Error(rbErr), zap.NamedError("cause", err))
			}
		}
	}()

	target := qualifiedName(schema, name)
	var statements []string
	if schema != "" {
		statements = append(statements, "CREATE SCHEMA IF NOT EXISTS "+pq.QuoteIdentifier(schema))
	}
	statements = append(statements,
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", target, strings.Join(defs, ",\n\t")),
		"DELETE FROM "+target,
	)
	for _, stmt := range statements {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return 0, fmt.Errorf("failed to prepare %s: %w", target, err)
		}
	}

	values := make([][]interface{}, len(table.Rows))
	for r, row := range table.Rows {
		values[r] = make([]interface{}, len(table.Columns))
		for i, col := range table.Columns {
			values[r][i] = SQLValue(row[col], types[i])
		}
	}

	for _, batch := range insertStatements(target, table.Columns, values, defaultBatchSize) {
		res, execErr := tx.ExecContext(ctx, batch.query, batch.args...)
		if execErr != nil {
			err = fmt.Errorf("batch insert failed: %w", execErr)
			return n, err
		}
		if affected, raErr := res.RowsAffected(); raErr == nil {
			n += affected
		} else {
			c.logger.Warn("Couldn't get rows affected", zap.Error(raErr))
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	c.logger.Info("Published table",
		zap.String("table", target),
		zap.Int64("rows", n),
		zap.Int("columns", len(table.Columns)))
	return n, nil
}

type statement struct {
	query string
	args  []interface{}
}

// insertStatements splits rows into multi-row INSERT statements with $n
// placeholders. Batches shrink so no statement binds more than maxBindParams.
func insertStatements(target string, columns []string, rows [][]interface{}, batchSize int) []statement {
	if len(rows) == 0 || len(columns) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if limit := maxBindParams / len(columns); batchSize > limit {
		batchSize = limit
	}

	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = pq.QuoteIdentifier(col)
	}
	columnStr := strings.Join(quoted, ", ")

	var out []statement
	for i := 0; i < len(rows); i += batchSize {
		end := i + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[i:end]

		placeholders := make([]string, len(batch))
		args := make([]interface{}, 0, len(batch)*len(columns))
		for j, row := range batch {
			rowPlaceholders := make([]string, len(columns))
			for k := range columns {
				rowPlaceholders[k] = fmt.Sprintf("$%d", j*len(columns)+k+1)
				args = append(args, row[k])
			}
			placeholders[j] = "(" + strings.Join(rowPlaceholders, ", ") + ")"
		}

		out = append(out, statement{
			query: fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", target, columnStr, strings.Join(placeholders, ", ")),
			args:  args,
		})
	}
	return out
}

func qualifiedName(schema, name string) string {
	if schema == "" {
		return pq.QuoteIdentifier(name)
	}
	return pq.QuoteIdentifier(schema) + "." + pq.QuoteIdentifier(name)
}
