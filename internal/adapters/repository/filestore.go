package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/okian/xpts/internal/domain/model"
	"github.com/okian/xpts/pkg/logger"
)

// FileStore keeps one JSON model file per category in a directory.
type FileStore struct {
	dir  string
	opts options
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a store rooted at dir. The directory is created on the
// first Save.
func NewFileStore(dir string, opts ...Option) *FileStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &FileStore{dir: dir, opts: o}
}

// Path returns the file holding category's model.
func (s *FileStore) Path(category model.Position) string {
	return filepath.Join(s.dir, ObjectName(category))
}

// Exists implements Store.
func (s *FileStore) Exists(_ context.Context, category model.Position) (bool, error) {
	_, err := os.Stat(s.Path(category))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat model %s: %w", category, err)
	}
}

// Load implements Store.
func (s *FileStore) Load(_ context.Context, category model.Position) (*model.Model, error) {
	b, err := os.ReadFile(s.Path(category))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, category)
	}
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", category, err)
	}
	return decode(category, b)
}

// Save implements Store. The model is written to a temporary file in the
// same directory, synced and renamed over the previous file.
func (s *FileStore) Save(ctx context.Context, category model.Position, m *model.Model) error {
	b, err := encode(category, m)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+ObjectName(category)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp model: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp model: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp model: %w", err)
	}
	if err := os.Chmod(tmpName, s.opts.perm); err != nil {
		return fmt.Errorf("chmod temp model: %w", err)
	}
	if err := os.Rename(tmpName, s.Path(category)); err != nil {
		return fmt.Errorf("commit model %s: %w", category, err)
	}
	committed = true
	syncDir(s.dir)

	s.opts.logger.Info(ctx, "model saved",
		logger.String("category", string(category)),
		logger.String("path", s.Path(category)),
		logger.Int("bytes", len(b)),
	)
	return nil
}

// syncDir flushes the rename to disk where the platform allows it.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
