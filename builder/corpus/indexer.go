package corpus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Kush-Singh-26/imgcorpus/builder/metrics"
	"github.com/Kush-Singh-26/imgcorpus/builder/models"
	"github.com/Kush-Singh-26/imgcorpus/builder/utils"
)

// Default quotas
const (
	DefaultMinSamplesPerLabel = 1000
	DefaultMaxSamplesPerLabel = 120
)

// Options configures an Indexer
type Options struct {
	// URLListURL is the item list endpoint; "%s" is replaced by the
	// query-escaped identifier, otherwise the identifier is appended.
	URLListURL         string
	MinSamplesPerLabel int
	MaxSamplesPerLabel int
	// Workers bounds the number of labels expanded at once
	Workers int
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Indexer expands labels into an Index
type Indexer struct {
	resolver LabelResolver
	catalog  SynsetCatalog
	lines    LineSource
	opts     Options
	logger   *slog.Logger
}

// NewIndexer creates an indexer. lines should already be cached.
func NewIndexer(resolver LabelResolver, catalog SynsetCatalog, lines LineSource, opts Options) *Indexer {
	if opts.Workers <= 0 {
		opts.Workers = utils.GetDefaultWorkerCount()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		resolver: resolver,
		catalog:  catalog,
		lines:    lines,
		opts:     opts,
		logger:   logger,
	}
}

// ListURL returns the item list endpoint of an identifier
func (ix *Indexer) ListURL(id string) string {
	escaped := url.QueryEscape(id)
	if strings.Contains(ix.opts.URLListURL, "%s") {
		return strings.ReplaceAll(ix.opts.URLListURL, "%s", escaped)
	}
	return ix.opts.URLListURL + escaped
}

// Build indexes the requested labels concurrently. Labels without a
// supported identifier or with too few samples are skipped and reported in
// Corpus.Skipped. Unknown labels and context cancellation abort the build.
func (ix *Indexer) Build(ctx context.Context, requested []models.Label) (*Corpus, error) {
	start := time.Now()
	builder := newIndexBuilder()

	var (
		mu        sync.Mutex
		supported []models.Label
		skipped   []Skipped
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.opts.Workers)

	for _, label := range models.NewLabelSet(requested...).Sorted() {
		label := label
		g.Go(func() error {
			items, skip, err := ix.expand(gctx, label)
			if err != nil {
				return err
			}
			if skip != nil {
				ix.logger.Warn("Skipping label", "label", label, "reason", skip.Reason, "detail", skip.Detail)
				ix.opts.Metrics.Inc(metrics.LabelSkipped)
				mu.Lock()
				skipped = append(skipped, *skip)
				mu.Unlock()
				return nil
			}

			builder.add(label, items)
			ix.opts.Metrics.Inc(metrics.LabelIndexed)
			mu.Lock()
			supported = append(supported, label)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	models.SortLabels(supported)
	sort.Slice(skipped, func(i, j int) bool { return skipped[i].Label < skipped[j].Label })

	c := &Corpus{
		Index:   builder.freeze(),
		Labels:  supported,
		Skipped: skipped,
	}
	ix.logger.Info("Indexed corpus",
		"labels", len(c.Labels),
		"items", len(c.Index),
		"skipped", len(c.Skipped),
		"duration", time.Since(start))
	return c, nil
}

// expand resolves one label into its retained items. A non-nil Skipped
// means the label is unsupported; a non-nil error aborts the build.
func (ix *Indexer) expand(ctx context.Context, label models.Label) ([]string, *Skipped, error) {
	ids, err := ix.resolver.Resolve(label)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve %q: %w", label, err)
	}

	var supportedIDs []string
	for _, id := range ids {
		if ix.catalog.Supports(id) {
			supportedIDs = append(supportedIDs, id)
		}
	}
	if len(supportedIDs) == 0 {
		return nil, &Skipped{Label: label, Reason: SkipNoSupportedIdentifier, Detail: strings.Join(ids, ",")}, nil
	}

	ix.logger.Debug("Loading item lists", "label", label, "identifiers", len(supportedIDs))

	candidates := make(map[string]struct{})
	for _, id := range supportedIDs {
		listURL := ix.ListURL(id)
		lines, err := ix.lines.FetchLines(ctx, listURL)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, nil, ctxErr
			}
			ix.opts.Metrics.Inc(metrics.IdentifierErr)
			if errors.Is(err, ErrErrorPage) {
				ix.logger.Error("Fetching item list returned an error page", "label", label, "identifier", id, "error", err)
			} else {
				ix.logger.Warn("Failed to fetch item list", "label", label, "identifier", id, "error", err)
			}
			continue
		}
		for _, line := range lines {
			candidates[line] = struct{}{}
		}
	}

	// A label without candidates is never supported, whatever the minimum
	if len(candidates) == 0 || len(candidates) < ix.opts.MinSamplesPerLabel {
		return nil, &Skipped{
			Label:  label,
			Reason: SkipNotEnoughSamples,
			Detail: fmt.Sprintf("only %d sample(s)", len(candidates)),
		}, nil
	}

	items := make([]string, 0, len(candidates))
	for item := range candidates {
		items = append(items, item)
	}
	return LimitRandomized(items, ix.opts.MaxSamplesPerLabel), nil, nil
}
