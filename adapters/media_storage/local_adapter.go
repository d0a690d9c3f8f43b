package media_storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/pkg/logger"
	"github.com/khoahotran/folio/pkg/metrics"
)

// localAdapter writes assets into a directory served as static files.
type localAdapter struct {
	root   string
	prefix string
	now    func() time.Time
	logger logger.Logger
}

func NewLocalAdapter(root, publicPrefix string, log logger.Logger) service.AssetStore {
	return &localAdapter{root: root, prefix: publicPrefix, now: time.Now, logger: log}
}

func (a *localAdapter) Save(ctx context.Context, asset service.Asset) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(a.root, 0o755); err != nil {
		return "", fmt.Errorf("create asset root: %w", err)
	}

	name := objectName(asset, a.now())
	tmp, err := os.CreateTemp(a.root, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp asset: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	n, err := io.Copy(tmp, asset.Body)
	if err != nil {
		tmp.Close()
		return "", fmt.Errorf("write asset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close asset: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return "", fmt.Errorf("chmod asset: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(a.root, name)); err != nil {
		return "", fmt.Errorf("place asset: %w", err)
	}

	metrics.AssetBytesWritten.WithLabelValues(string(asset.Category)).Add(float64(n))
	a.logger.Info("Asset stored", zap.String("name", name), zap.Int64("bytes", n))
	return joinRef(a.prefix, name), nil
}

func (a *localAdapter) Delete(ctx context.Context, ref string) error {
	name, ok := refName(a.prefix, ref)
	if !ok {
		return fmt.Errorf("asset %q is not stored here", ref)
	}
	if err := os.Remove(filepath.Join(a.root, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete asset: %w", err)
	}
	return nil
}

func (a *localAdapter) Exists(ctx context.Context, ref string) (bool, error) {
	name, ok := refName(a.prefix, ref)
	if !ok {
		return false, nil
	}
	info, err := os.Stat(filepath.Join(a.root, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat asset: %w", err)
	}
	return info.Mode().IsRegular(), nil
}

func (a *localAdapter) Owns(ref string) bool {
	_, ok := refName(a.prefix, ref)
	return ok
}
