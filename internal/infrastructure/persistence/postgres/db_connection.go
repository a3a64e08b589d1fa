// Package postgres provides the PostgreSQL-backed repositories for sessions,
// history, tokens, and token bindings, plus connection pool management built
// on pgx with gorm layered on top.
package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/turtacn/sfauth/internal/config"
	"github.com/turtacn/sfauth/pkg/errors"
	"github.com/turtacn/sfauth/pkg/logger"
)

// DBConnection manages the PostgreSQL connection pool lifecycle. The pgx
// pool owns the physical connections; the gorm handle rides on top of it
// through the database/sql adapter.
type DBConnection struct {
	Pool *pgxpool.Pool
	Gorm *gorm.DB
	log  logger.Logger
}

// NewDBConnection creates and verifies the connection pool.
func NewDBConnection(ctx context.Context, cfg config.DatabaseConfig, log logger.Logger) (*DBConnection, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.GetDSN())
	if err != nil {
		return nil, errors.System("failed to parse database config").WithCause(err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = time.Duration(cfg.MaxConnLifetime) * time.Minute
	poolConfig.MaxConnIdleTime = time.Duration(cfg.MaxConnIdleTime) * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.System("failed to create connection pool").WithCause(err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.System("database unreachable").WithCause(err)
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		pool.Close()
		return nil, errors.System("failed to initialize ORM").WithCause(err)
	}

	log.Info(ctx, "PostgreSQL connection pool initialized",
		logger.String("host", cfg.Host),
		logger.Int("port", cfg.Port),
		logger.String("database", cfg.Database),
		logger.Int("max_conns", cfg.MaxConns),
	)

	return &DBConnection{Pool: pool, Gorm: gormDB, log: log}, nil
}

// HealthCheck verifies the pool can still reach the database.
func (c *DBConnection) HealthCheck(ctx context.Context) error {
	if err := c.Pool.Ping(ctx); err != nil {
		return errors.System("database health check failed").WithCause(err)
	}
	return nil
}

// Close drains and releases the pool.
func (c *DBConnection) Close() {
	c.Pool.Close()
}
