// Package clean removes disk cache instances.
package clean

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Kush-Singh-26/imgcorpus/builder/cache"
)

// AllCaches lists every cache instance the pipeline creates
var AllCaches = []string{cache.NameURLs, cache.NameSamples, cache.NameFeaturized}

// Run deletes the named cache instances under cacheDir, or all of them
// when names is empty. With snapshot set the corpus snapshot goes too.
// Deletion happens in the background after a rename.
func Run(cacheDir string, names []string, snapshot bool) error {
	start := time.Now()
	if len(names) == 0 {
		names = AllCaches
	}

	var errs []error
	for _, name := range names {
		if !known(name) {
			errs = append(errs, fmt.Errorf("unknown cache %q", name))
			continue
		}
		if err := cleanDirAsync(filepath.Join(cacheDir, name)); err != nil {
			errs = append(errs, err)
		}
	}
	if snapshot {
		if err := os.Remove(filepath.Join(cacheDir, cache.SnapshotFile)); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}

	fmt.Printf("🧹 Clean initiated in %v (backgrounding deletion).\n", time.Since(start))
	return errors.Join(errs...)
}

func known(name string) bool {
	for _, n := range AllCaches {
		if n == name {
			return true
		}
	}
	return false
}

func cleanDirAsync(absPath string) error {
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return nil
	}

	dir := filepath.Dir(absPath)
	base := filepath.Base(absPath)
	tempName := fmt.Sprintf("%s_deleting_%d", base, time.Now().UnixNano())
	tempPath := filepath.Join(dir, tempName)

	fmt.Printf("🧹 Moving '%s' to trash...\n", absPath)
	if err := os.Rename(absPath, tempPath); err != nil {
		fmt.Printf("⚠️ Rename failed (%v), deleting synchronously...\n", err)
		if err := os.RemoveAll(absPath); err != nil {
			return fmt.Errorf("failed to remove '%s': %w", absPath, err)
		}
		return nil
	}

	go func() {
		_ = os.RemoveAll(tempPath)
	}()
	return nil
}
