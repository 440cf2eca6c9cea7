package corpus

import (
	"sync"

	"github.com/Kush-Singh-26/imgcorpus/builder/models"
)

// indexBuilder accumulates an Index from concurrent label workers.
// Inserts union into the existing set; they never replace it.
type indexBuilder struct {
	mu  sync.Mutex
	idx Index
}

func newIndexBuilder() *indexBuilder {
	return &indexBuilder{idx: make(Index)}
}

// add records label for every item
func (b *indexBuilder) add(label models.Label, items []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, item := range items {
		set, ok := b.idx[item]
		if !ok {
			set = models.NewLabelSet()
			b.idx[item] = set
		}
		set.Add(label)
	}
}

// freeze returns the index; the builder must not be used afterward
func (b *indexBuilder) freeze() Index {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx := b.idx
	b.idx = nil
	return idx
}
