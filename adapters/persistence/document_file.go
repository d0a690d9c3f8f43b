package persistence

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/domain/profile"
	"github.com/khoahotran/folio/pkg/logger"
)

// fileDocumentRepo stores the document as one pretty-printed JSON file.
// Writers in this process are serialized; other processes are not.
type fileDocumentRepo struct {
	path   string
	mu     sync.Mutex
	logger logger.Logger
}

func NewFileDocumentRepo(path string, log logger.Logger) profile.Repository {
	return &fileDocumentRepo{path: path, logger: log}
}

func (r *fileDocumentRepo) Get(ctx context.Context) (*profile.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.read()
}

func (r *fileDocumentRepo) AdminPinHash(ctx context.Context) (string, error) {
	doc, err := r.Get(ctx)
	if err != nil {
		return "", err
	}
	return doc.AdminPinHash(), nil
}

func (r *fileDocumentRepo) ReplaceProfile(ctx context.Context, p profile.Profile) error {
	return r.update(func(doc *profile.Document) (*profile.Document, error) {
		return doc.WithProfile(p)
	})
}

func (r *fileDocumentRepo) SetAdminPinHash(ctx context.Context, hash string) error {
	return r.update(func(doc *profile.Document) (*profile.Document, error) {
		return doc.WithAdminPinHash(hash), nil
	})
}

func (r *fileDocumentRepo) update(mutate func(*profile.Document) (*profile.Document, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.read()
	if err != nil {
		return err
	}
	next, err := mutate(doc)
	if err != nil {
		return err
	}
	b, err := next.Encode()
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := writeFileAtomic(r.path, b); err != nil {
		return err
	}
	r.logger.Info("Document written", zap.String("path", r.path), zap.Int("bytes", len(b)))
	return nil
}

// read treats a missing file as an empty document.
func (r *fileDocumentRepo) read() (*profile.Document, error) {
	b, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return profile.NewDocument(), nil
		}
		return nil, fmt.Errorf("read document: %w", err)
	}
	return profile.ParseDocument(b)
}

// writeFileAtomic replaces path so readers see the old or the new content,
// never a partial write.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create document dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp document: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp document: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp document: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp document: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace document: %w", err)
	}
	return nil
}
