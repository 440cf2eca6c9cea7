package cache

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/imgcorpus/builder/utils"
)

var unsafeKeyChars = regexp.MustCompile(`[^\w-]+`)

// SanitizeKey maps a cache key to a file name stem. Every run of characters
// outside [A-Za-z0-9_-] becomes a single underscore, so keys that differ only
// in punctuation share an entry. Overlong names are truncated and suffixed
// with a digest of the full key.
func SanitizeKey(key string) string {
	escaped := unsafeKeyChars.ReplaceAllString(key, "_")
	if len(escaped) > utils.MaxKeyLength {
		escaped = escaped[:utils.MaxKeyLength-17] + "_" + utils.HashString(key)[:16]
	}
	return escaped
}

// DiskCache stores one file per key in a flat directory.
// A missing file is a miss, a zero-length file is the codec's negative value
// and anything else is an encoded payload. Unreadable entries are misses.
type DiskCache[T any] struct {
	fs     afero.Fs
	dir    string
	name   string
	codec  Codec[T]
	logger *slog.Logger

	hits         atomic.Int64
	negativeHits atomic.Int64
	misses       atomic.Int64
	corrupt      atomic.Int64
	writes       atomic.Int64
}

// NewDiskCache creates the cache directory <root>/<name> on fsys.
func NewDiskCache[T any](fsys afero.Fs, root, name string, codec Codec[T], logger *slog.Logger) (*DiskCache[T], error) {
	if logger == nil {
		logger = slog.Default()
	}
	dir := filepath.Join(root, name)
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}
	return &DiskCache[T]{
		fs:     fsys,
		dir:    dir,
		name:   name,
		codec:  codec,
		logger: logger.With("cache", name),
	}, nil
}

// Name returns the cache instance name
func (c *DiskCache[T]) Name() string {
	return c.name
}

// Dir returns the directory holding the entries
func (c *DiskCache[T]) Dir() string {
	return c.dir
}

// Path returns the entry file for key
func (c *DiskCache[T]) Path(key string) string {
	return filepath.Join(c.dir, SanitizeKey(key)+Suffix)
}

// Get returns the cached value for key. ok is false on a miss, including
// entries that exist but cannot be decoded.
func (c *DiskCache[T]) Get(key string) (v T, ok bool) {
	path := c.Path(key)
	data, err := afero.ReadFile(c.fs, path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			c.logger.Warn("Failed to read cache entry", "key", key, "error", err)
		}
		c.misses.Add(1)
		return v, false
	}

	if len(data) == 0 {
		if neg, supported := c.codec.Negative(); supported {
			c.negativeHits.Add(1)
			return neg, true
		}
	}

	decoded, err := c.codec.Decode(data)
	if err != nil {
		c.logger.Warn("Ignoring unreadable cache entry", "key", key, "path", path, "error", err)
		c.corrupt.Add(1)
		c.misses.Add(1)
		return v, false
	}

	c.hits.Add(1)
	return decoded, true
}

// IsCached reports whether Get would return a value
func (c *DiskCache[T]) IsCached(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Put stores v under key, replacing any previous entry.
// Negative values are stored as a zero-length marker file.
func (c *DiskCache[T]) Put(key string, v T) error {
	var data []byte
	if !c.codec.IsNegative(v) {
		encoded, err := c.codec.Encode(v)
		if err != nil {
			return fmt.Errorf("failed to encode cache entry %q: %w", key, err)
		}
		data = encoded
	}

	if err := c.fs.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	// Atomic write: tmp -> rename
	tmp, err := afero.TempFile(c.fs, c.dir, "tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = c.fs.Remove(tmpName)
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = c.fs.Remove(tmpName)
		return fmt.Errorf("failed to close cache entry: %w", err)
	}
	if err := c.fs.Rename(tmpName, c.Path(key)); err != nil {
		_ = c.fs.Remove(tmpName)
		return fmt.Errorf("failed to rename cache entry: %w", err)
	}

	c.writes.Add(1)
	return nil
}

// Remove deletes the entry for key, if any
func (c *DiskCache[T]) Remove(key string) error {
	err := c.fs.Remove(c.Path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Clear deletes every entry and leftover temp file. Files that disappear
// while clearing are ignored; entries written concurrently may survive.
func (c *DiskCache[T]) Clear() error {
	infos, err := afero.ReadDir(c.fs, c.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to list cache directory: %w", err)
	}

	var errs []error
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		name := info.Name()
		if !strings.HasSuffix(name, Suffix) && !strings.HasPrefix(name, "tmp-") {
			continue
		}
		if err := c.fs.Remove(filepath.Join(c.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Usage returns the number of entries, negative markers and bytes on disk
func (c *DiskCache[T]) Usage() (entries, negatives int, bytes int64, err error) {
	infos, err := afero.ReadDir(c.fs, c.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, 0, 0, nil
		}
		return 0, 0, 0, err
	}
	for _, info := range infos {
		if info.IsDir() || !strings.HasSuffix(info.Name(), Suffix) {
			continue
		}
		entries++
		if info.Size() == 0 {
			negatives++
		}
		bytes += info.Size()
	}
	return entries, negatives, bytes, nil
}

// Stats returns lookup statistics since creation
func (c *DiskCache[T]) Stats() Stats {
	return Stats{
		Hits:         c.hits.Load(),
		NegativeHits: c.negativeHits.Load(),
		Misses:       c.misses.Load(),
		Corrupt:      c.corrupt.Load(),
		Writes:       c.writes.Load(),
	}
}
