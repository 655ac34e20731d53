package source

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
)

// Cache file names relative to the data directory.
const (
	BootstrapFile = "bootstrap-static.json"
	FixturesFile  = "fixtures.json"
	summaryDir    = "element-summary"
)

// SummaryFile returns the cache path of a player's element summary.
func SummaryFile(playerID int) string {
	return filepath.Join(summaryDir, strconv.Itoa(playerID)+".json")
}

// Cache stores raw API documents under a root directory.
type Cache struct {
	root string
}

// NewCache returns a cache rooted at root.
func NewCache(root string) *Cache {
	return &Cache{root: root}
}

// Root returns the cache directory.
func (c *Cache) Root() string { return c.root }

// Path resolves rel against the cache root.
func (c *Cache) Path(rel string) string {
	return filepath.Join(c.root, rel)
}

// Exists reports whether rel is cached.
func (c *Cache) Exists(rel string) bool {
	_, err := os.Stat(c.Path(rel))
	return err == nil
}

// Read returns the cached bytes of rel, or ErrMissingSnapshot.
func (c *Cache) Read(rel string) ([]byte, error) {
	b, err := os.ReadFile(c.Path(rel))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingSnapshot, rel)
	}
	return b, err
}

// Write stores body under rel, replacing any previous copy atomically.
func (c *Cache) Write(rel string, body []byte) error {
	path := c.Path(rel)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(body); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
