// Package corpus builds the item -> label-set index from label identifiers,
// enforcing per-label sampling quotas with a reproducible selection.
package corpus

import (
	"context"
	"errors"
	"fmt"

	"github.com/Kush-Singh-26/imgcorpus/builder/models"
	"github.com/Kush-Singh-26/imgcorpus/builder/utils"
)

var (
	// ErrUnknownLabel is returned for labels the resolver or an encoder does
	// not know
	ErrUnknownLabel = errors.New("unknown label")
	// ErrErrorPage marks a line response that is an upstream error message
	ErrErrorPage = errors.New("upstream returned an error page")
)

// SkipReason explains why a requested label is not in a corpus
type SkipReason string

const (
	SkipNoSupportedIdentifier SkipReason = "no supported identifier"
	SkipNotEnoughSamples      SkipReason = "not enough samples"
)

// Skipped records a label left out of a corpus
type Skipped struct {
	Label  models.Label
	Reason SkipReason
	Detail string
}

func (s Skipped) String() string {
	if s.Detail == "" {
		return fmt.Sprintf("%s: %s", s.Label, s.Reason)
	}
	return fmt.Sprintf("%s: %s (%s)", s.Label, s.Reason, s.Detail)
}

// LabelResolver maps a label to its candidate upstream identifiers.
// Unknown labels yield an error wrapping ErrUnknownLabel.
type LabelResolver interface {
	Resolve(label models.Label) ([]string, error)
}

// SynsetCatalog reports which identifiers upstream can serve
type SynsetCatalog interface {
	Supports(id string) bool
}

// LineSource fetches the non-empty lines of a remote text resource
type LineSource interface {
	FetchLines(ctx context.Context, url string) ([]string, error)
}

// Index maps each item to the labels it carries. Every set is non-empty.
type Index map[string]models.LabelSet

// Items returns the items sorted by stable hash, ties by string
func (idx Index) Items() []string {
	items := make([]string, 0, len(idx))
	for item := range idx {
		items = append(items, item)
	}
	utils.SortByStableHash(items)
	return items
}

// Labels returns every label occurring in the index, in canonical order
func (idx Index) Labels() []models.Label {
	all := models.NewLabelSet()
	for _, ls := range idx {
		for l := range ls {
			all.Add(l)
		}
	}
	return all.Sorted()
}

// Corpus is the result of indexing
type Corpus struct {
	Index Index
	// Labels are the supported labels in canonical order
	Labels  []models.Label
	Skipped []Skipped
}

func (c *Corpus) String() string {
	return fmt.Sprintf("Corpus (%d labels, %d items, %d skipped)", len(c.Labels), len(c.Index), len(c.Skipped))
}
