package corpus

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Kush-Singh-26/imgcorpus/builder/cache"
	"github.com/Kush-Singh-26/imgcorpus/builder/models"
	"github.com/Kush-Singh-26/imgcorpus/builder/utils"
)

// Fingerprint identifies the inputs of a build: the indexing options and
// every requested label, in canonical order, with the identifiers it
// resolves to. Remapping a label therefore yields a new fingerprint.
func Fingerprint(requested []models.Label, resolver LabelResolver, catalogURL string, opts Options) (string, error) {
	parts := []string{
		catalogURL,
		opts.URLListURL,
		strconv.Itoa(opts.MinSamplesPerLabel),
		strconv.Itoa(opts.MaxSamplesPerLabel),
	}
	for _, l := range models.NewLabelSet(requested...).Sorted() {
		ids, err := resolver.Resolve(l)
		if err != nil {
			return "", fmt.Errorf("resolve %q: %w", l, err)
		}
		ids = append([]string(nil), ids...)
		sort.Strings(ids)
		parts = append(parts, string(l)+"="+strings.Join(ids, ","))
	}
	return utils.Fingerprint(parts...), nil
}

// SaveSnapshot stores c under fingerprint
func SaveSnapshot(store *cache.SnapshotStore, c *Corpus, fingerprint string) error {
	snap := &cache.Snapshot{
		Fingerprint: fingerprint,
		CreatedAt:   time.Now(),
		Labels:      c.Labels,
		Items:       make(map[string][]models.Label, len(c.Index)),
	}
	for item, set := range c.Index {
		snap.Items[item] = set.Sorted()
	}
	for _, s := range c.Skipped {
		snap.Skipped = append(snap.Skipped, cache.SkippedLabel{Label: s.Label, Reason: string(s.Reason), Detail: s.Detail})
	}
	if err := store.Save(snap); err != nil {
		return fmt.Errorf("failed to save corpus snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the stored corpus and its fingerprint. It fails with
// cache.ErrNoSnapshot if nothing was saved.
func LoadSnapshot(store *cache.SnapshotStore) (*Corpus, string, error) {
	snap, err := store.Load()
	if err != nil {
		return nil, "", err
	}

	c := &Corpus{
		Index:  make(Index, len(snap.Items)),
		Labels: snap.Labels,
	}
	known := models.NewLabelSet(snap.Labels...)
	for item, ls := range snap.Items {
		if len(ls) == 0 {
			return nil, "", fmt.Errorf("corrupt snapshot: item %s has no labels", item)
		}
		for _, l := range ls {
			if !known.Has(l) {
				return nil, "", fmt.Errorf("corrupt snapshot: %w: %q", ErrUnknownLabel, l)
			}
		}
		c.Index[item] = models.NewLabelSet(ls...)
	}
	for _, s := range snap.Skipped {
		c.Skipped = append(c.Skipped, Skipped{Label: s.Label, Reason: SkipReason(s.Reason), Detail: s.Detail})
	}
	return c, snap.Fingerprint, nil
}
