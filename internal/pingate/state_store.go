package pingate

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/khoahotran/folio/internal/domain/lockout"
)

// FileStateStore keeps the client's lockout copy under the user cache dir,
// one file per server.
type FileStateStore struct {
	path string
}

func NewFileStateStore(dir, serverURL string) *FileStateStore {
	sum := sha256.Sum256([]byte(serverURL))
	return &FileStateStore{path: filepath.Join(dir, "pingate-"+hex.EncodeToString(sum[:8])+".json")}
}

// DefaultStateDir is os.UserCacheDir()/folio, falling back to the temp dir.
func DefaultStateDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "folio")
}

func (s *FileStateStore) Load() (lockout.State, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return lockout.State{}, nil
		}
		return lockout.State{}, fmt.Errorf("read gate state: %w", err)
	}
	var st lockout.State
	if err := json.Unmarshal(b, &st); err != nil {
		return lockout.State{}, fmt.Errorf("parse gate state: %w", err)
	}
	return st, nil
}

// Save writes st while it carries a lock and removes the file otherwise.
func (s *FileStateStore) Save(st lockout.State) error {
	if st.LockUntil.IsZero() {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("clear gate state: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create gate state dir: %w", err)
	}
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0o600)
}
