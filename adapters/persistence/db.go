package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/pkg/logger"
)

// The document store holds a single row, so a handful of connections is plenty.
const (
	postgresMaxConns    = 4
	postgresPingTimeout = 5 * time.Second
)

// OpenPostgres parses dsn, opens a small pool and checks it answers.
func OpenPostgres(ctx context.Context, dsn string, log logger.Logger) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, errors.New("postgres store selected but db.dsn is empty")
	}
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pcfg.MaxConns = postgresMaxConns

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, postgresPingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("reach postgres at %s: %w", pcfg.ConnConfig.Host, err)
	}

	log.Info("Postgres document store ready",
		zap.String("host", pcfg.ConnConfig.Host),
		zap.String("database", pcfg.ConnConfig.Database),
	)
	return pool, nil
}
