// Package audit persists the cleaning operations performed on each response
// into the cleaned_on_ingress table of a SQL database (Postgres or SQLite).
package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/David-Botos/form-ingress/pkg/model"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	// batchSize keeps multi-row inserts under SQLite's bound-variable limit
	batchSize = 500
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

var schemas = map[string]string{
	DriverPostgres: `
		CREATE TABLE IF NOT EXISTS cleaned_on_ingress (
			id SERIAL PRIMARY KEY,
			table_name TEXT NOT NULL,
			column_name TEXT NOT NULL,
			original_value TEXT,
			new_value TEXT NOT NULL,
			row_identifier TEXT NOT NULL,
			cleaning_operation TEXT NOT NULL,
			cleaning_reason TEXT NOT NULL,
			cleaned_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)`,
	DriverSQLite: `
		CREATE TABLE IF NOT EXISTS cleaned_on_ingress (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			table_name TEXT NOT NULL,
			column_name TEXT NOT NULL,
			original_value TEXT,
			new_value TEXT NOT NULL,
			row_identifier TEXT NOT NULL,
			cleaning_operation TEXT NOT NULL,
			cleaning_reason TEXT NOT NULL,
			cleaned_at TEXT NOT NULL
		)`,
}

// sqlDrivers maps configured driver names to registered database/sql drivers
var sqlDrivers = map[string]string{
	DriverPostgres: "pgx",
	DriverSQLite:   "sqlite",
}

const insertOperation = `
	INSERT INTO cleaned_on_ingress
	(table_name, column_name, original_value, new_value,
	 row_identifier, cleaning_operation, cleaning_reason, cleaned_at)
	VALUES (:table_name, :column_name, :original_value, :new_value,
	 :row_identifier, :cleaning_operation, :cleaning_reason, :cleaned_at)`

// operationRow is the stored shape of a model.CleaningOperation
type operationRow struct {
	TableName         string  `db:"table_name"`
	ColumnName        string  `db:"column_name"`
	OriginalValue     *string `db:"original_value"`
	NewValue          string  `db:"new_value"`
	RowIdentifier     string  `db:"row_identifier"`
	CleaningOperation string  `db:"cleaning_operation"`
	CleaningReason    string  `db:"cleaning_reason"`
	CleanedAt         string  `db:"cleaned_at"`
}

// Store records cleaning operations
type Store struct {
	db     *sqlx.DB
	driver string
	logger *zap.Logger
}

// Open connects to the audit database and ensures the tracking table exists
func Open(ctx context.Context, driver, dsn string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	sqlDriver, ok := sqlDrivers[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported audit driver %q", driver)
	}

	db, err := sqlx.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	if driver == DriverSQLite {
		// One writer avoids "database is locked" between pooled connections
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping audit database: %w", err)
	}

	s := &Store{db: db, driver: driver, logger: logger.Named("audit")}
	if err := s.setupTable(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) setupTable(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, schemas[s.driver]); err != nil {
		return fmt.Errorf("failed to create tracking table: %w", err)
	}
	s.logger.Info("Ensured cleaned_on_ingress table exists", zap.String("driver", s.driver))
	return nil
}

// RecordCleaningOperations stores operations in one transaction
func (s *Store) RecordCleaningOperations(ctx context.Context, operations []model.CleaningOperation) (err error) {
	if len(operations) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("Failed to rollback transaction",
					zap.Error(rbErr),
					zap.NamedError("cause", err))
			}
		}
	}()

	rows := make([]operationRow, len(operations))
	for i, op := range operations {
		cleanedAt := op.CleanedAt
		if cleanedAt.IsZero() {
			cleanedAt = time.Now()
		}
		rows[i] = operationRow{
			TableName:         op.TableName,
			ColumnName:        op.ColumnName,
			OriginalValue:     op.OriginalText(),
			NewValue:          op.NewValue,
			RowIdentifier:     op.RowIdentifier,
			CleaningOperation: op.CleaningOperation,
			CleaningReason:    op.CleaningReason,
			CleanedAt:         cleanedAt.UTC().Format(time.RFC3339),
		}
	}

	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if _, err = tx.NamedExecContext(ctx, insertOperation, rows[start:end]); err != nil {
			return fmt.Errorf("failed to insert cleaning operations: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Recorded cleaning operations", zap.Int("count", len(operations)))
	return nil
}

// OperationCount is the number of stored operations of one kind
type OperationCount struct {
	Operation string `db:"cleaning_operation"`
	Count     int    `db:"total"`
}

// CountByOperation summarizes the stored operations of a source table
func (s *Store) CountByOperation(ctx context.Context, table string) ([]OperationCount, error) {
	query := s.db.Rebind(`
		SELECT cleaning_operation, COUNT(*) AS total
		FROM cleaned_on_ingress
		WHERE table_name = ?
		GROUP BY cleaning_operation
		ORDER BY cleaning_operation`)

	var counts []OperationCount
	if err := s.db.SelectContext(ctx, &counts, query, table); err != nil {
		return nil, fmt.Errorf("failed to count cleaning operations: %w", err)
	}
	return counts, nil
}

// Close releases the database connection
func (s *Store) Close() error {
	return s.db.Close()
}
