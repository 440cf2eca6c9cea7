package run

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Kush-Singh-26/imgcorpus/builder/cache"
	"github.com/Kush-Singh-26/imgcorpus/builder/corpus"
	"github.com/Kush-Singh-26/imgcorpus/builder/fetch"
	"github.com/Kush-Singh-26/imgcorpus/builder/partition"
)

// indexOptions derives the indexer options from the config
func (b *Builder) indexOptions() corpus.Options {
	return corpus.Options{
		URLListURL:         b.cfg.URLListURL,
		MinSamplesPerLabel: b.cfg.MinSamplesPerLabel,
		MaxSamplesPerLabel: b.cfg.MaxSamplesPerLabel,
		Workers:            b.cfg.LabelWorkers,
		Logger:             b.logger,
		Metrics:            b.metrics,
	}
}

// Index returns the corpus for the requested labels. A stored snapshot
// with a matching fingerprint is reused unless Force is set; otherwise the
// corpus is built and saved.
func (b *Builder) Index(ctx context.Context) (*corpus.Corpus, error) {
	requested, err := b.Requested()
	if err != nil {
		return nil, err
	}
	opts := b.indexOptions()
	fingerprint, err := corpus.Fingerprint(requested, b.dict, b.cfg.SynsetListURL, opts)
	if err != nil {
		return nil, err
	}

	if !b.cfg.Force {
		c, stored, err := corpus.LoadSnapshot(b.snapshots)
		switch {
		case err == nil && stored == fingerprint:
			b.logger.Info("Reusing corpus snapshot", "labels", len(c.Labels), "items", len(c.Index))
			return c, nil
		case err != nil && !errors.Is(err, cache.ErrNoSnapshot):
			b.logger.Warn("Ignoring unreadable corpus snapshot", "error", err)
		}
	}

	start := time.Now()
	catalog, err := corpus.LoadCatalog(ctx, corpus.NewCachedLineSource(b.urls, b.lines, nil, b.logger), b.cfg.SynsetListURL)
	if err != nil {
		return nil, err
	}
	b.logger.Info("Loaded identifier catalog", "identifiers", catalog.Len())

	lists := corpus.NewCachedLineSource(b.urls, b.lines, corpus.CheckErrorPage, b.logger)
	c, err := corpus.NewIndexer(b.dict, catalog, lists, opts).Build(ctx, requested)
	if err != nil {
		return nil, err
	}

	if err := corpus.SaveSnapshot(b.snapshots, c, fingerprint); err != nil {
		return nil, err
	}
	b.logger.Debug("Saved corpus snapshot", "path", b.snapshots.Path(), "duration", time.Since(start))
	return c, nil
}

// Split partitions the corpus into train and eval indexes
func (b *Builder) Split(c *corpus.Corpus) (train, eval corpus.Index) {
	return partition.Split(c.Index)
}

// fetchOptions derives the fetcher options from the config
func (b *Builder) fetchOptions() fetch.Options {
	opts := fetch.Options{
		Source:     b.items,
		Codec:      b.codec,
		Cache:      b.samples,
		Featurizer: b.featurizer,
		Workers:    b.cfg.FetchWorkers,
		Timeout:    b.cfg.FetchTimeout,
		Logger:     b.logger,
		Metrics:    b.metrics,
	}
	if b.featurized != nil {
		opts.FeaturizedCache = b.featurized
	}
	return opts
}

// Fetchers creates the train and eval fetchers of a corpus
func (b *Builder) Fetchers(c *corpus.Corpus) (train, eval *fetch.Fetcher, err error) {
	trainIdx, evalIdx := b.Split(c)
	if train, err = fetch.NewFetcher(trainIdx, c.Labels, b.fetchOptions()); err != nil {
		return nil, nil, fmt.Errorf("train fetcher: %w", err)
	}
	if eval, err = fetch.NewFetcher(evalIdx, c.Labels, b.fetchOptions()); err != nil {
		return nil, nil, fmt.Errorf("eval fetcher: %w", err)
	}
	return train, eval, nil
}

// Prefetch drains f once from its current cursor, which fills the
// negative cache, and returns the number of samples loaded
func (b *Builder) Prefetch(ctx context.Context, f *fetch.Fetcher) (int, error) {
	it := f.Iterator(b.cfg.BatchSize)
	n := 0
	for it.Next(ctx) {
		n += len(it.Batch().Samples)
	}
	return n, it.Err()
}
