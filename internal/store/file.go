package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ginjaninja78/invoice-ledger/pkg/utils"
)

// FileAdapter stores every document as a JSON file in one directory.
type FileAdapter struct {
	Dir string
}

// NewFileAdapter creates the directory if needed.
func NewFileAdapter(dir string) (*FileAdapter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return &FileAdapter{Dir: dir}, nil
}

// Path returns the file backing a key.
func (f *FileAdapter) Path(key string) string {
	return filepath.Join(f.Dir, utils.SanitizeFileName(key)+".json")
}

// Load implements Adapter.
func (f *FileAdapter) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(f.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", key, err)
	}
	return data, nil
}

// Save implements Adapter.
func (f *FileAdapter) Save(ctx context.Context, key string, data []byte) error {
	if err := utils.WriteFileAtomic(f.Path(key), data); err != nil {
		return fmt.Errorf("failed to write document %s: %w", key, err)
	}
	return nil
}

// Revision implements Revisioner using the file modification time.
func (f *FileAdapter) Revision(ctx context.Context, key string) (string, error) {
	mod, err := utils.GetFileModTime(f.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to stat document %s: %w", key, err)
	}
	return strconv.FormatInt(mod.UnixNano(), 10), nil
}

var (
	_ Adapter    = (*FileAdapter)(nil)
	_ Revisioner = (*FileAdapter)(nil)
)
