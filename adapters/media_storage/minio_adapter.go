package media_storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/internal/config"
	"github.com/khoahotran/folio/pkg/logger"
	"github.com/khoahotran/folio/pkg/metrics"
)

// minioAPI is the slice of *minio.Client the adapter needs.
type minioAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
}

type minioAdapter struct {
	api    minioAPI
	bucket string
	prefix string
	now    func() time.Time
	logger logger.Logger
}

func NewMinioAdapter(ctx context.Context, cfg config.Config, log logger.Logger) (service.AssetStore, error) {
	if cfg.Minio.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint has not config")
	}
	client, err := minio.New(cfg.Minio.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Minio.AccessKey, cfg.Minio.SecretKey, ""),
		Secure: cfg.Minio.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot init minio: %w", err)
	}

	a, err := newMinioAdapterWithAPI(ctx, client, cfg.Minio.Bucket, cfg.Assets.PublicPrefix, log)
	if err != nil {
		return nil, err
	}
	log.Info("Connect MinIO successfully.", zap.String("endpoint", cfg.Minio.Endpoint), zap.String("bucket", cfg.Minio.Bucket))
	return a, nil
}

func newMinioAdapterWithAPI(ctx context.Context, api minioAPI, bucket, prefix string, log logger.Logger) (*minioAdapter, error) {
	a := &minioAdapter{api: api, bucket: bucket, prefix: prefix, now: time.Now, logger: log}
	if err := a.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}
	return a, nil
}

func (a *minioAdapter) ensureBucket(ctx context.Context) error {
	exists, err := a.api.BucketExists(ctx, a.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return a.api.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{})
}

func (a *minioAdapter) Save(ctx context.Context, asset service.Asset) (string, error) {
	name := objectName(asset, a.now())

	size := asset.Size
	if size <= 0 {
		size = -1
	}
	info, err := a.api.PutObject(ctx, a.bucket, name, asset.Body, size, minio.PutObjectOptions{
		ContentType: mime.TypeByExtension(path.Ext(name)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}

	metrics.AssetBytesWritten.WithLabelValues(string(asset.Category)).Add(float64(info.Size))
	a.logger.Info("Asset stored", zap.String("bucket", a.bucket), zap.String("name", name), zap.Int64("bytes", info.Size))
	return joinRef(a.prefix, name), nil
}

func (a *minioAdapter) Delete(ctx context.Context, ref string) error {
	name, ok := refName(a.prefix, ref)
	if !ok {
		return fmt.Errorf("asset %q is not stored here", ref)
	}
	if err := a.api.RemoveObject(ctx, a.bucket, name, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func (a *minioAdapter) Exists(ctx context.Context, ref string) (bool, error) {
	name, ok := refName(a.prefix, ref)
	if !ok {
		return false, nil
	}
	_, err := a.api.StatObject(ctx, a.bucket, name, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat object: %w", err)
	}
	return true, nil
}

func (a *minioAdapter) Owns(ref string) bool {
	_, ok := refName(a.prefix, ref)
	return ok
}
