package testutil

import (
	"testing"

	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/imgcorpus/builder/cache"
)

// TestCacheRoot is the cache root used on in-memory filesystems
const TestCacheRoot = "/cache"

// CreateTestLinesCache creates an in-memory line cache for testing
func CreateTestLinesCache(t *testing.T, fs afero.Fs) *cache.LinesCache {
	t.Helper()
	c, err := cache.NewLinesCache(fs, TestCacheRoot, cache.NameURLs, nil)
	if err != nil {
		t.Fatalf("Failed to create lines cache: %v", err)
	}
	return c
}

// CreateTestArrayCache creates an in-memory array cache named name
func CreateTestArrayCache(t *testing.T, fs afero.Fs, name string) *cache.ArrayCache {
	t.Helper()
	c, err := cache.NewArrayCache(fs, TestCacheRoot, name, nil)
	if err != nil {
		t.Fatalf("Failed to create array cache: %v", err)
	}
	return c
}

// CreateTestSnapshotStore opens a snapshot store in a temp dir
func CreateTestSnapshotStore(t *testing.T) *cache.SnapshotStore {
	t.Helper()
	s, err := cache.OpenSnapshotStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open snapshot store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// AssertFileExists checks if a file exists in the filesystem
func AssertFileExists(t *testing.T, fs afero.Fs, path string) {
	t.Helper()
	exists, err := afero.Exists(fs, path)
	if err != nil {
		t.Fatalf("Error checking file existence: %v", err)
	}
	if !exists {
		t.Errorf("Expected file to exist: %s", path)
	}
}

// AssertFileNotExists checks if a file does not exist
func AssertFileNotExists(t *testing.T, fs afero.Fs, path string) {
	t.Helper()
	exists, err := afero.Exists(fs, path)
	if err != nil {
		t.Fatalf("Error checking file existence: %v", err)
	}
	if exists {
		t.Errorf("Expected file to not exist: %s", path)
	}
}

// AssertFileSize checks the size of a file
func AssertFileSize(t *testing.T, fs afero.Fs, path string, size int64) {
	t.Helper()
	info, err := fs.Stat(path)
	if err != nil {
		t.Fatalf("Failed to stat file %s: %v", path, err)
	}
	if info.Size() != size {
		t.Errorf("File %s size = %d, want %d", path, info.Size(), size)
	}
}
