package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/folio/internal/config"
	"github.com/khoahotran/folio/internal/domain/lockout"
	"github.com/khoahotran/folio/pkg/logger"
)

func TestNewDocumentRepository(t *testing.T) {
	var cfg config.Config
	cfg.Store.Driver = config.StoreDriverFile
	cfg.Store.Path = filepath.Join(t.TempDir(), "data.json")

	repo, release, err := NewDocumentRepository(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	defer release()
	assert.NotNil(t, repo)

	cfg.Store.Driver = "sqlite"
	_, _, err = NewDocumentRepository(context.Background(), cfg, logger.NewNop())
	assert.Error(t, err)
}

func TestNewAttemptStore(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var cfg config.Config
	cfg.Auth.Limiter = config.LimiterMemory
	s, release, err := NewAttemptStore(ctx, cfg, logger.NewNop())
	require.NoError(t, err)
	release()
	assert.IsType(t, &MemoryAttemptStore{}, s)

	mr := miniredis.RunT(t)
	cfg.Auth.Limiter = config.LimiterRedis
	cfg.Redis.Addr = mr.Addr()
	s, release, err = NewAttemptStore(ctx, cfg, logger.NewNop())
	require.NoError(t, err)
	defer release()
	_, _, err = s.Reserve(ctx, "ip:1", lockout.DefaultPolicy(), time.Now())
	require.NoError(t, err)
	assert.True(t, mr.Exists(attemptKeyPrefix+"ip:1"))
}

func TestOpenPostgresRejectsBadDSN(t *testing.T) {
	ctx := context.Background()

	_, err := OpenPostgres(ctx, "", logger.NewNop())
	assert.ErrorContains(t, err, "db.dsn is empty")

	_, err = OpenPostgres(ctx, "postgres://localhost:badport/folio", logger.NewNop())
	assert.ErrorContains(t, err, "parse postgres dsn")

	var cfg config.Config
	cfg.Store.Driver = config.StoreDriverPostgres
	_, _, err = NewDocumentRepository(ctx, cfg, logger.NewNop())
	assert.Error(t, err)
}
