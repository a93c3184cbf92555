package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"songstory-server/internal/config"
)

// connectTimeout ограничивает создание пула и первый ping.
const connectTimeout = 10 * time.Second

// Database представляет подключение к PostgreSQL
type Database struct {
	Pool   *pgxpool.Pool
	logger *zap.Logger
}

// New создает пул соединений и проверяет его ping'ом.
func New(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Database, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database DSN: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Connected to PostgreSQL", zap.String("dsn", cfg.MaskedDSN()), zap.Int32("max_conns", poolConfig.MaxConns))
	return &Database{Pool: pool, logger: logger}, nil
}

// Close закрывает пул соединений
func (db *Database) Close() {
	if db.Pool != nil {
		db.Pool.Close()
		db.logger.Info("PostgreSQL connection pool closed")
	}
}
