package persistence

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/config"
	"github.com/khoahotran/folio/internal/domain/lockout"
	"github.com/khoahotran/folio/internal/domain/profile"
	"github.com/khoahotran/folio/pkg/logger"
)

const attemptCleanupInterval = time.Minute

// NewDocumentRepository opens the document store named by store.driver.
// The returned func releases it.
func NewDocumentRepository(ctx context.Context, cfg config.Config, log logger.Logger) (profile.Repository, func(), error) {
	switch cfg.Store.Driver {
	case config.StoreDriverFile, "":
		log.Info("Using file document store", zap.String("path", cfg.Store.Path))
		return NewFileDocumentRepo(cfg.Store.Path, log), func() {}, nil
	case config.StoreDriverPostgres:
		pool, err := OpenPostgres(ctx, cfg.DB.DSN, log)
		if err != nil {
			return nil, nil, err
		}
		if err := EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return NewPostgresDocumentRepo(pool, log), pool.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

// NewAttemptStore opens the limiter store named by auth.limiter. The memory
// store is cleaned in the background until ctx is done.
func NewAttemptStore(ctx context.Context, cfg config.Config, log logger.Logger) (lockout.Store, func(), error) {
	switch cfg.Auth.Limiter {
	case config.LimiterMemory, "":
		s := NewMemoryAttemptStore(cfg.Auth.AttemptWindow)
		s.StartCleanup(ctx, attemptCleanupInterval)
		log.Info("Using in-memory attempt store")
		return s, func() {}, nil
	case config.LimiterRedis:
		rdb, err := NewRedisClient(cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return NewRedisAttemptStore(rdb, cfg.Auth.AttemptWindow), func() { rdb.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown limiter %q", cfg.Auth.Limiter)
}
