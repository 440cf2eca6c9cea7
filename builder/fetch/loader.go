package fetch

import (
	"context"
	"errors"
	"fmt"

	"github.com/Kush-Singh-26/imgcorpus/builder/metrics"
	"github.com/Kush-Singh-26/imgcorpus/builder/models"
)

// loadRaw returns the decoded payload of item. Items cached as negative
// are dropped without touching the network. Any failure other than the
// caller's cancellation is cached as negative.
func (f *Fetcher) loadRaw(ctx context.Context, item string) (models.Array, bool) {
	if cached, ok := f.opts.Cache.Get(item); ok {
		if cached.IsEmpty() {
			f.opts.Metrics.Inc(metrics.NegativeHit)
			f.opts.Metrics.Inc(metrics.Dropped)
			return models.Array{}, false
		}
		f.opts.Metrics.Inc(metrics.CacheHit)
		return cached, true
	}
	f.opts.Metrics.Inc(metrics.CacheMiss)

	a, err := f.fetchWithTimeout(ctx, item)
	if err != nil {
		if ctx.Err() != nil {
			return models.Array{}, false
		}
		if errors.Is(err, ErrTimeout) {
			f.opts.Metrics.Inc(metrics.Timeout)
		}
		f.opts.Metrics.Inc(metrics.Dropped)
		f.logger.Debug("Dropping item", "item", item, "error", err)
		if perr := f.opts.Cache.Put(item, models.EmptyArray()); perr != nil {
			f.logger.Warn("Failed to record failed item", "item", item, "error", perr)
		}
		return models.Array{}, false
	}

	f.opts.Metrics.Inc(metrics.Fetched)
	return a, true
}

// fetchWithTimeout fetches and decodes item, giving up after the per-item
// timeout. An abandoned fetch keeps running in the background with a
// cancelled context; its result is discarded.
func (f *Fetcher) fetchWithTimeout(ctx context.Context, item string) (models.Array, error) {
	tctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	type result struct {
		a   models.Array
		err error
	}
	done := make(chan result, 1)

	go func() {
		raw, err := f.opts.Source.Fetch(tctx, item)
		if err != nil {
			done <- result{err: err}
			return
		}
		a, err := f.opts.Codec.Decode(raw)
		if err == nil && a.IsEmpty() {
			err = errors.New("decoded to an empty array")
		}
		done <- result{a: a, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil && errors.Is(r.err, context.DeadlineExceeded) && ctx.Err() == nil {
			return models.Array{}, fmt.Errorf("%w after %v", ErrTimeout, f.opts.Timeout)
		}
		return r.a, r.err
	case <-tctx.Done():
		if err := ctx.Err(); err != nil {
			return models.Array{}, err
		}
		return models.Array{}, fmt.Errorf("%w after %v", ErrTimeout, f.opts.Timeout)
	}
}

// loadFeaturized returns the featurized payload of item, consulting the
// featurized cache first. Featurizer failures drop the item but are not
// remembered.
func (f *Fetcher) loadFeaturized(ctx context.Context, item string) (models.Array, bool) {
	if f.opts.FeaturizedCache != nil {
		if cached, ok := f.opts.FeaturizedCache.Get(item); ok && !cached.IsEmpty() {
			f.opts.Metrics.Inc(metrics.FeaturizedHit)
			return cached, true
		}
	}

	raw, ok := f.loadRaw(ctx, item)
	if !ok {
		return models.Array{}, false
	}

	features, err := f.opts.Featurizer.Featurize(ctx, raw)
	if err == nil && features.IsEmpty() {
		err = errors.New("featurizer returned an empty array")
	}
	if err != nil {
		if ctx.Err() == nil {
			f.opts.Metrics.Inc(metrics.Dropped)
			f.logger.Warn("Featurizer failed", "item", item, "error", err)
		}
		return models.Array{}, false
	}

	if f.opts.FeaturizedCache != nil {
		if err := f.opts.FeaturizedCache.Put(item, features); err != nil {
			f.logger.Warn("Failed to cache features", "item", item, "error", err)
		}
	}
	return features, true
}
