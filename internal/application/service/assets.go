package service

import (
	"context"
	"errors"
	"io"
)

type AssetCategory string

const (
	AssetCV           AssetCategory = "cv"
	AssetProjectImage AssetCategory = "project-image"
)

var ErrAssetTooLarge = errors.New("asset exceeds size limit")

// Asset is one binary attachment waiting to be stored. Index is the project
// position for images and ignored for the CV.
type Asset struct {
	Category AssetCategory
	Filename string
	Index    int
	Size     int64
	Body     io.Reader
}

// AssetStore persists attachments under generated names and hands back the
// public reference recorded in the document.
type AssetStore interface {
	Save(ctx context.Context, a Asset) (string, error)
	Delete(ctx context.Context, ref string) error
	Exists(ctx context.Context, ref string) (bool, error)
	// Owns reports whether ref lives in this store's public namespace.
	Owns(ref string) bool
}
