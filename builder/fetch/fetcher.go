// Package fetch turns a corpus index into batches of samples. Items are
// fetched concurrently under a per-item timeout and permanent failures are
// remembered in a negative cache so they are never requested again.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Kush-Singh-26/imgcorpus/builder/cache"
	"github.com/Kush-Singh-26/imgcorpus/builder/corpus"
	"github.com/Kush-Singh-26/imgcorpus/builder/metrics"
	"github.com/Kush-Singh-26/imgcorpus/builder/models"
	"github.com/Kush-Singh-26/imgcorpus/builder/utils"
)

// DefaultTimeout bounds fetching and decoding a single item
const DefaultTimeout = time.Second

var (
	// ErrTimeout is recorded for items abandoned after the per-item timeout
	ErrTimeout = errors.New("fetch timed out")
	// ErrInvalidOptions is returned by NewFetcher for missing collaborators
	ErrInvalidOptions = errors.New("invalid fetcher options")
)

// ItemSource downloads the raw bytes of an item
type ItemSource interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Codec decodes raw bytes into a payload array
type Codec interface {
	Decode(raw []byte) (models.Array, error)
}

// Featurizer maps a decoded payload to its feature representation
type Featurizer interface {
	Featurize(ctx context.Context, in models.Array) (models.Array, error)
}

// Options configures a Fetcher
type Options struct {
	Source ItemSource
	Codec  Codec
	// Cache memoizes failed items as negative entries
	Cache *cache.ArrayCache

	// Featurizer, if set, is applied to every decoded payload. Its results
	// are stored in FeaturizedCache when that is set.
	Featurizer      Featurizer
	FeaturizedCache *cache.ArrayCache

	Workers int
	Timeout time.Duration
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Batch is the result of one Fetch call
type Batch struct {
	// Samples are the successful items in window order
	Samples []models.Sample
	// Requested is the window size
	Requested int
}

// Dropped returns how many items of the window were dropped
func (b Batch) Dropped() int {
	return b.Requested - len(b.Samples)
}

// Fetcher walks a fixed item order with a cursor.
// Fetch calls are serialized; Cursor and HasMore never wait for a window
// in flight and report the position before it.
type Fetcher struct {
	idx     corpus.Index
	items   []string
	encoder *corpus.LabelEncoder
	opts    Options
	logger  *slog.Logger

	fetchMu sync.Mutex // serializes Fetch

	mu     sync.Mutex // guards cursor
	cursor int
}

// NewFetcher creates a fetcher over idx. Every label in idx must be in
// labels, which fixes the one-hot layout.
func NewFetcher(idx corpus.Index, labels []models.Label, opts Options) (*Fetcher, error) {
	if opts.Source == nil || opts.Codec == nil || opts.Cache == nil {
		return nil, fmt.Errorf("%w: source, codec and cache are required", ErrInvalidOptions)
	}
	if opts.FeaturizedCache != nil && opts.Featurizer == nil {
		return nil, fmt.Errorf("%w: featurized cache without featurizer", ErrInvalidOptions)
	}
	if opts.Workers <= 0 {
		opts.Workers = utils.GetDefaultWorkerCount()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	encoder := corpus.NewLabelEncoder(labels)
	if err := encoder.Validate(idx); err != nil {
		return nil, err
	}

	return &Fetcher{
		idx:     idx,
		items:   idx.Items(),
		encoder: encoder,
		opts:    opts,
		logger:  logger,
	}, nil
}

// TotalExamples returns the number of items in the index
func (f *Fetcher) TotalExamples() int {
	return len(f.items)
}

// NumOutcomes returns the length of the label vectors
func (f *Fetcher) NumOutcomes() int {
	return f.encoder.NumOutcomes()
}

// Labels returns the label order of the vectors
func (f *Fetcher) Labels() []models.Label {
	return f.encoder.Labels()
}

// Cursor returns the position of the next window
func (f *Fetcher) Cursor() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cursor
}

// HasMore reports whether items remain after the cursor
func (f *Fetcher) HasMore() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cursor < len(f.items)
}

// Reset moves the cursor back to the first item
func (f *Fetcher) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cursor = 0
}

// slot is the outcome of one window position
type slot struct {
	sample models.Sample
	ok     bool
	err    error
}

// Fetch loads the next n items and advances the cursor by n. Failed items
// are dropped from the batch. It fails only if ctx is cancelled, in which
// case the cursor does not move.
func (f *Fetcher) Fetch(ctx context.Context, n int) (Batch, error) {
	if n <= 0 {
		return Batch{}, fmt.Errorf("batch size must be positive, got %d", n)
	}

	f.fetchMu.Lock()
	defer f.fetchMu.Unlock()

	f.mu.Lock()
	start := min(f.cursor, len(f.items))
	f.mu.Unlock()
	end := min(start+n, len(f.items))
	window := f.items[start:end]

	results := make([]slot, len(window))
	positions := make([]int, len(window))
	for i := range positions {
		positions[i] = i
	}

	utils.RunAll(ctx, f.opts.Workers, positions, func(ctx context.Context, i int) {
		results[i] = f.loadSample(ctx, window[i])
	})

	if err := ctx.Err(); err != nil {
		return Batch{}, err
	}

	batch := Batch{Requested: len(window)}
	for _, r := range results {
		if r.err != nil {
			return Batch{}, r.err
		}
		if r.ok {
			batch.Samples = append(batch.Samples, r.sample)
		}
	}

	f.mu.Lock()
	f.cursor = min(start+n, len(f.items))
	f.mu.Unlock()
	f.logger.Debug("Fetched batch", "start", start, "requested", batch.Requested, "kept", len(batch.Samples))
	return batch, nil
}

// loadSample loads one item and attaches its label vector
func (f *Fetcher) loadSample(ctx context.Context, item string) slot {
	var (
		features models.Array
		ok       bool
	)
	if f.opts.Featurizer != nil {
		features, ok = f.loadFeaturized(ctx, item)
	} else {
		features, ok = f.loadRaw(ctx, item)
	}
	if !ok {
		return slot{}
	}

	vec, err := f.encoder.Encode(f.idx[item])
	if err != nil {
		return slot{err: err}
	}
	return slot{sample: models.Sample{Item: item, Features: features, Labels: vec}, ok: true}
}
