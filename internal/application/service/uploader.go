package service

import (
	"context"
	"io"
)

// Uploader pushes opaque files to off-site storage (document backups).
type Uploader interface {
	Upload(ctx context.Context, file io.Reader, folder string, publicID string) (string, error)
	Delete(ctx context.Context, publicID string) error
}
