// Package diskcache is a filesystem-backed chunkio.Cache. Unlike the
// original launcher's disk cache, writes are atomic: each Put stages its
// data in a temp file in the same directory and renames it into place,
// so a crash or concurrent reader never observes a partially written
// chunk file.
package diskcache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Cache stores chunk bytes under Dir, one file per name.
type Cache struct {
	Dir string
}

// New returns a Cache rooted at dir, creating it if necessary.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("diskcache: create %s: %w", dir, err)
	}
	return &Cache{Dir: dir}, nil
}

// Get returns the cached bytes for name, if present.
func (c *Cache) Get(ctx context.Context, name string) ([]byte, bool, error) {
	data, err := os.ReadFile(filepath.Join(c.Dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Put writes data for name atomically: it's staged under a temp name in
// Dir and renamed into place, so concurrent Gets never see a partial
// file and a crash mid-write never leaves one under name (the temp file
// itself may remain).
func (c *Cache) Put(ctx context.Context, name string, data []byte) error {
	tmp, err := os.CreateTemp(c.Dir, name+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, filepath.Join(c.Dir, name))
}
