package fetch

import "context"

// Iterator walks a fetcher in fixed-size windows, skipping windows in
// which every item was dropped.
//
//	it := f.Iterator(5)
//	for it.Next(ctx) {
//		consume(it.Batch())
//	}
//	if err := it.Err(); err != nil { ... }
type Iterator struct {
	f         *Fetcher
	batchSize int
	batch     Batch
	err       error
}

// Iterator returns an iterator starting at the fetcher's current cursor
func (f *Fetcher) Iterator(batchSize int) *Iterator {
	return &Iterator{f: f, batchSize: batchSize}
}

// Next fetches the next non-empty batch. It returns false when the
// fetcher is exhausted or an error occurred.
func (it *Iterator) Next(ctx context.Context) bool {
	if it.err != nil {
		return false
	}
	for it.f.HasMore() {
		b, err := it.f.Fetch(ctx, it.batchSize)
		if err != nil {
			it.err = err
			return false
		}
		if len(b.Samples) > 0 {
			it.batch = b
			return true
		}
	}
	return false
}

// Batch returns the batch loaded by the last successful Next
func (it *Iterator) Batch() Batch {
	return it.batch
}

// Err returns the error that stopped the iteration, if any
func (it *Iterator) Err() error {
	return it.err
}
