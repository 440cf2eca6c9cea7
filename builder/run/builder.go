// Package run wires configuration, caches, the indexer and the fetchers
// into a single pipeline.
package run

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/imgcorpus/builder/cache"
	"github.com/Kush-Singh-26/imgcorpus/builder/codec"
	"github.com/Kush-Singh-26/imgcorpus/builder/config"
	"github.com/Kush-Singh-26/imgcorpus/builder/corpus"
	"github.com/Kush-Singh-26/imgcorpus/builder/fetch"
	"github.com/Kush-Singh-26/imgcorpus/builder/labels"
	"github.com/Kush-Singh-26/imgcorpus/builder/metrics"
	"github.com/Kush-Singh-26/imgcorpus/builder/models"
	"github.com/Kush-Singh-26/imgcorpus/builder/remote"
	"github.com/Kush-Singh-26/imgcorpus/builder/utils"
)

// Deps overrides the collaborators a Builder would otherwise create.
// Zero fields get the defaults.
type Deps struct {
	// Fs holds the disk caches (default: the OS filesystem)
	Fs         afero.Fs
	Dictionary *labels.Dictionary
	Lines      corpus.LineSource
	Items      fetch.ItemSource
	Codec      fetch.Codec
	Featurizer fetch.Featurizer
	Logger     *slog.Logger
}

// Builder maintains the state of one pipeline run
type Builder struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	lock    *utils.FileLock

	dict       *labels.Dictionary
	lines      corpus.LineSource
	items      fetch.ItemSource
	codec      fetch.Codec
	featurizer fetch.Featurizer

	urls       *cache.LinesCache
	samples    *cache.ArrayCache
	featurized *cache.ArrayCache
	snapshots  *cache.SnapshotStore
}

// NewBuilder locks the cache directory and opens every cache. The caller
// must Close the builder to release the lock.
func NewBuilder(cfg *config.Config, deps Deps) (b *Builder, err error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(cfg.CacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	lock, err := utils.AcquireCacheLock(cfg.CacheDir)
	if err != nil {
		return nil, err
	}

	b = &Builder{
		cfg:        cfg,
		logger:     logger,
		metrics:    metrics.New(),
		lock:       lock,
		dict:       deps.Dictionary,
		lines:      deps.Lines,
		items:      deps.Items,
		codec:      deps.Codec,
		featurizer: deps.Featurizer,
	}
	defer func() {
		if err != nil {
			_ = b.Close()
		}
	}()

	if b.dict == nil {
		if b.dict, err = labels.Load(cfg.LabelsFile); err != nil {
			return nil, err
		}
	}

	if b.lines == nil || b.items == nil {
		client := remote.NewClient(remote.Options{
			RequestsPerSecond: cfg.RequestsPerSecond,
			MaxResponseBytes:  cfg.MaxResponseBytes,
			UserAgent:         cfg.UserAgent,
			Logger:            logger,
		})
		if b.lines == nil {
			b.lines = client
		}
		if b.items == nil {
			b.items = client
		}
	}
	if b.codec == nil {
		b.codec = codec.NewImageCodec(cfg.ImageSize)
	}

	fsys := deps.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if b.urls, err = cache.NewLinesCache(fsys, cfg.CacheDir, cache.NameURLs, logger); err != nil {
		return nil, err
	}
	if b.samples, err = cache.NewArrayCache(fsys, cfg.CacheDir, cache.NameSamples, logger); err != nil {
		return nil, err
	}
	if b.featurizer != nil {
		if b.featurized, err = cache.NewArrayCache(fsys, cfg.CacheDir, cache.NameFeaturized, logger); err != nil {
			return nil, err
		}
	}
	if b.snapshots, err = cache.OpenSnapshotStore(cfg.CacheDir); err != nil {
		return nil, err
	}

	return b, nil
}

// Close releases the snapshot store and the cache lock
func (b *Builder) Close() error {
	var errs []error
	if b.snapshots != nil {
		errs = append(errs, b.snapshots.Close())
		b.snapshots = nil
	}
	if b.lock != nil {
		errs = append(errs, b.lock.Release())
		b.lock = nil
	}
	return errors.Join(errs...)
}

// Config returns the builder's configuration
func (b *Builder) Config() *config.Config {
	return b.cfg
}

// Metrics returns the run's counters
func (b *Builder) Metrics() *metrics.Metrics {
	return b.metrics
}

// Dictionary returns the label dictionary
func (b *Builder) Dictionary() *labels.Dictionary {
	return b.dict
}

// Snapshots returns the corpus snapshot store
func (b *Builder) Snapshots() *cache.SnapshotStore {
	return b.snapshots
}

// Requested returns the labels to index: the configured subset, or the
// whole dictionary.
func (b *Builder) Requested() ([]models.Label, error) {
	return b.dict.Select(b.cfg.Labels)
}

// CacheInfo describes one disk cache instance
type CacheInfo struct {
	Name      string
	Dir       string
	Entries   int
	Negatives int
	Bytes     int64
	Stats     cache.Stats
}

// Caches reports every open disk cache
func (b *Builder) Caches() ([]CacheInfo, error) {
	var out []CacheInfo
	add := func(name, dir string, usage func() (int, int, int64, error), stats cache.Stats) error {
		entries, negatives, bytes, err := usage()
		if err != nil {
			return fmt.Errorf("failed to inspect cache %s: %w", name, err)
		}
		out = append(out, CacheInfo{Name: name, Dir: dir, Entries: entries, Negatives: negatives, Bytes: bytes, Stats: stats})
		return nil
	}

	if err := add(b.urls.Name(), b.urls.Dir(), b.urls.Usage, b.urls.Stats()); err != nil {
		return nil, err
	}
	if err := add(b.samples.Name(), b.samples.Dir(), b.samples.Usage, b.samples.Stats()); err != nil {
		return nil, err
	}
	if b.featurized != nil {
		if err := add(b.featurized.Name(), b.featurized.Dir(), b.featurized.Usage, b.featurized.Stats()); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ClearCache empties the named cache instance
func (b *Builder) ClearCache(name string) error {
	switch name {
	case cache.NameURLs:
		return b.urls.Clear()
	case cache.NameSamples:
		return b.samples.Clear()
	case cache.NameFeaturized:
		if b.featurized == nil {
			return nil
		}
		return b.featurized.Clear()
	default:
		return fmt.Errorf("unknown cache %q", name)
	}
}
