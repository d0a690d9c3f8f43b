package media_storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/internal/config"
	"github.com/khoahotran/folio/pkg/logger"
)

// NewAssetStore opens the asset store named by assets.driver.
func NewAssetStore(ctx context.Context, cfg config.Config, log logger.Logger) (service.AssetStore, error) {
	switch cfg.Assets.Driver {
	case config.AssetDriverLocal, "":
		log.Info("Using local asset store", zap.String("root", cfg.Assets.Root))
		return NewLocalAdapter(cfg.Assets.Root, cfg.Assets.PublicPrefix, log), nil
	case config.AssetDriverMinio:
		return NewMinioAdapter(ctx, cfg, log)
	}
	return nil, fmt.Errorf("unknown asset driver %q", cfg.Assets.Driver)
}
