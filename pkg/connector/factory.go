// pkg/connector/factory.go
package connector

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/form-ingress/pkg/config"
)

// ConnectorFactory creates the optional warehouse connectors named in the configuration
type ConnectorFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewConnectorFactory creates a new connector factory
func NewConnectorFactory(cfg *config.Config, logger *zap.Logger) *ConnectorFactory {
	return &ConnectorFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateSnowflakeConnector connects and validates the response source
func (f *ConnectorFactory) CreateSnowflakeConnector(ctx context.Context) (*SnowflakeConnector, error) {
	if f.cfg.Snowflake == nil {
		return nil, fmt.Errorf("failed to create Snowflake connector: SNOWFLAKE_ACCOUNT is not set")
	}
	f.logger.Info("Creating Snowflake connector")

	conn, err := NewSnowflakeConnector(ctx, f.cfg.Snowflake, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Snowflake connector: %w", err)
	}
	if err := conn.Validate(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// CreatePostgresConnector connects and validates the publish target
func (f *ConnectorFactory) CreatePostgresConnector(ctx context.Context) (*PostgresConnector, error) {
	if f.cfg.Postgres == nil {
		return nil, fmt.Errorf("failed to create PostgreSQL connector: POSTGRES_DB is not set")
	}
	f.logger.Info("Creating PostgreSQL connector")

	conn, err := NewPostgresConnector(ctx, f.cfg.Postgres, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create PostgreSQL connector: %w", err)
	}
	if err := conn.Validate(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}
