// Package filehashcache persists per-file content hashes across build
// invocations, so unchanged scripts/files can be skipped (§4.B).
package filehashcache

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Cache is a crash-safe path -> hash store: an in-memory index loaded on
// Open from a "path\thash\n" line file, which Flush rewrites whole via a
// temp file and rename.
type Cache struct {
	mu    sync.RWMutex
	path  string
	index map[string]string
	dirty bool
}

// Open loads an existing cache file, or starts an empty cache if path
// does not yet exist.
func Open(path string) (*Cache, error) {
	c := &Cache{path: path, index: make(map[string]string)}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "opening file-hash cache %s", path)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) != 2 {
			return nil, errors.Errorf("malformed file-hash cache entry %q", line)
		}
		c.index[parts[0]] = parts[1]
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading file-hash cache %s", path)
	}
	return c, nil
}

// HasChanged reports whether the stored hash for path is absent or
// differs from hash (P8).
func (c *Cache) HasChanged(path, hash string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	stored, ok := c.index[path]
	return !ok || stored != hash
}

// HasChangedAny returns the subset of paths whose stored hash is absent
// or stale. paths is a map, so the order of the result is not defined.
func (c *Cache) HasChangedAny(paths map[string]string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var changed []string
	for path, hash := range paths {
		if stored, ok := c.index[path]; !ok || stored != hash {
			changed = append(changed, path)
		}
	}
	return changed
}

// AddOrUpdate records the current hash for path.
func (c *Cache) AddOrUpdate(path, hash string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index[path] == hash {
		return
	}
	c.index[path] = hash
	c.dirty = true
}

// Flush rewrites the backing file atomically (temp file + rename) if the
// in-memory index has been mutated since the last flush. A single
// process-wide writer is assumed; concurrent Flush calls are serialized
// by mu.
func (c *Cache) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return nil
	}

	dir := filepath.Dir(c.path)
	tmp, err := os.CreateTemp(dir, ".filehashcache-*")
	if err != nil {
		return errors.Wrapf(err, "creating temp file in %s", dir)
	}
	tmpPath := tmp.Name()

	w := bufio.NewWriter(tmp)
	for path, hash := range c.index {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", path, hash); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return errors.Wrap(err, "writing file-hash cache entry")
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Wrap(err, "flushing file-hash cache buffer")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "closing file-hash cache temp file")
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		os.Remove(tmpPath)
		return errors.Wrapf(err, "renaming %s to %s", tmpPath, c.path)
	}
	c.dirty = false
	return nil
}
