// Package imagecache stores product and menu images on local disk so the UI
// can render the catalog while offline. Downloads are best effort: a missing
// image never fails a sync cycle, it just stays missing until the next pull
// mentions it again.
package imagecache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Fetcher downloads one image asset by its server-relative path.
type Fetcher interface {
	FetchImage(ctx context.Context, path string) ([]byte, error)
}

type Cache struct {
	dir     string
	fetcher Fetcher
}

func New(dir string, fetcher Fetcher) *Cache {
	return &Cache{dir: dir, fetcher: fetcher}
}

// Has reports whether the image for path is already cached.
func (c *Cache) Has(path string) bool {
	_, err := os.Stat(c.localPath(path))
	return err == nil
}

// Prefetch downloads the image for path unless it is already cached.
func (c *Cache) Prefetch(ctx context.Context, path string) error {
	if path == "" || c.Has(path) {
		return nil
	}
	data, err := c.fetcher.FetchImage(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to fetch image %s: %w", path, err)
	}

	local := c.localPath(path)
	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}
	tmp := local + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	return os.Rename(tmp, local)
}

// Open returns the cached image bytes for path.
func (c *Cache) Open(path string) ([]byte, error) {
	return os.ReadFile(c.localPath(path))
}

// localPath maps a server-relative image path into the cache directory,
// refusing path escapes.
func (c *Cache) localPath(path string) string {
	clean := filepath.Clean("/" + strings.ReplaceAll(path, "\\", "/"))
	return filepath.Join(c.dir, clean)
}
