package media_storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	minioLib "github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/pkg/logger"
)

// fakeMinio implements minioAPI for testing without network.
type fakeMinio struct {
	bucketExists    bool
	bucketExistsErr error
	madeBucket      bool

	objects map[string][]byte
	putErr  error
	statErr error
}

func newFakeMinio() *fakeMinio {
	return &fakeMinio{bucketExists: true, objects: map[string][]byte{}}
}

func (f *fakeMinio) BucketExists(context.Context, string) (bool, error) {
	return f.bucketExists, f.bucketExistsErr
}

func (f *fakeMinio) MakeBucket(context.Context, string, minioLib.MakeBucketOptions) error {
	f.madeBucket = true
	return nil
}

func (f *fakeMinio) PutObject(_ context.Context, _ string, name string, r io.Reader, _ int64, _ minioLib.PutObjectOptions) (minioLib.UploadInfo, error) {
	if f.putErr != nil {
		return minioLib.UploadInfo{}, f.putErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return minioLib.UploadInfo{}, err
	}
	f.objects[name] = b
	return minioLib.UploadInfo{Key: name, Size: int64(len(b))}, nil
}

func (f *fakeMinio) RemoveObject(_ context.Context, _ string, name string, _ minioLib.RemoveObjectOptions) error {
	delete(f.objects, name)
	return nil
}

func (f *fakeMinio) StatObject(_ context.Context, _ string, name string, _ minioLib.StatObjectOptions) (minioLib.ObjectInfo, error) {
	if f.statErr != nil {
		return minioLib.ObjectInfo{}, f.statErr
	}
	if _, ok := f.objects[name]; !ok {
		return minioLib.ObjectInfo{}, minioLib.ErrorResponse{Code: "NoSuchKey"}
	}
	return minioLib.ObjectInfo{Key: name}, nil
}

func TestMinioAdapter_CreatesMissingBucket(t *testing.T) {
	api := newFakeMinio()
	api.bucketExists = false

	_, err := newMinioAdapterWithAPI(context.Background(), api, "folio-assets", "/uploads", logger.NewNop())
	require.NoError(t, err)
	assert.True(t, api.madeBucket)
}

func TestMinioAdapter_BucketCheckError(t *testing.T) {
	api := newFakeMinio()
	api.bucketExistsErr = errors.New("boom")

	a, err := newMinioAdapterWithAPI(context.Background(), api, "b", "/uploads", logger.NewNop())
	assert.Nil(t, a)
	assert.ErrorContains(t, err, "failed to ensure bucket exists")
}

func TestMinioAdapter_SaveExistsDelete(t *testing.T) {
	api := newFakeMinio()
	a, err := newMinioAdapterWithAPI(context.Background(), api, "b", "/uploads", logger.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	ref, err := a.Save(ctx, service.Asset{Category: service.AssetProjectImage, Filename: "x.webp", Index: 0, Size: 3, Body: strings.NewReader("img")})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "/uploads/project-"))
	assert.True(t, strings.HasSuffix(ref, ".webp"))
	assert.Len(t, api.objects, 1)

	ok, err := a.Exists(ctx, ref)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, a.Delete(ctx, ref))
	ok, err = a.Exists(ctx, ref)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMinioAdapter_Errors(t *testing.T) {
	api := newFakeMinio()
	a, err := newMinioAdapterWithAPI(context.Background(), api, "b", "/uploads", logger.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	api.putErr = errors.New("put-fail")
	_, err = a.Save(ctx, service.Asset{Category: service.AssetCV, Body: strings.NewReader("a")})
	assert.ErrorContains(t, err, "failed to upload object")

	api.statErr = errors.New("stat-fail")
	_, err = a.Exists(ctx, "/uploads/cv-1-abcdef12.pdf")
	assert.ErrorContains(t, err, "failed to stat object")

	assert.False(t, a.Owns("/elsewhere/cv.pdf"))
}
