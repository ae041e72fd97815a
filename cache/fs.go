package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// FsAdapter persists cache entries as files under a base directory. Keys
// are hashed into filenames so arbitrary key strings stay filesystem-safe.
type FsAdapter struct {
	dir string
}

// NewFsAdapter creates the base directory if needed.
func NewFsAdapter(dir string) (*FsAdapter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FsAdapter{dir: dir}, nil
}

func (a *FsAdapter) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(a.dir, hex.EncodeToString(sum[:]))
}

func (a *FsAdapter) Get(_ context.Context, key string) ([]byte, bool, error) {
	raw, err := os.ReadFile(a.path(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache entry: %w", err)
	}
	return raw, true, nil
}

func (a *FsAdapter) Set(_ context.Context, key string, value []byte) error {
	if err := os.WriteFile(a.path(key), value, 0o644); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

func (a *FsAdapter) Delete(_ context.Context, key string) error {
	err := os.Remove(a.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
