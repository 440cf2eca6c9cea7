// Package metrics provides pipeline performance tracking.
package metrics

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Metrics tracks counters shared by the indexer and the fetchers.
// All counters are safe for concurrent use; a nil *Metrics ignores updates.
type Metrics struct {
	// Timing
	StartTime time.Time
	endTime   atomic.Int64

	// Indexing
	LabelsIndexed  atomic.Int64
	LabelsSkipped  atomic.Int64
	IdentifierErrs atomic.Int64

	// Fetching
	CacheHits      atomic.Int64
	CacheMisses    atomic.Int64
	NegativeHits   atomic.Int64
	FeaturizedHits atomic.Int64
	Fetched        atomic.Int64
	Dropped        atomic.Int64
	Timeouts       atomic.Int64
}

// New creates a new metrics instance.
func New() *Metrics {
	return &Metrics{StartTime: time.Now()}
}

// RecordEnd marks the end of the run.
func (m *Metrics) RecordEnd() {
	if m == nil {
		return
	}
	m.endTime.Store(time.Now().UnixNano())
}

// TotalDuration returns the run duration so far, or until RecordEnd.
func (m *Metrics) TotalDuration() time.Duration {
	if end := m.endTime.Load(); end != 0 {
		return time.Unix(0, end).Sub(m.StartTime)
	}
	return time.Since(m.StartTime)
}

// Inc adds one to counter unless m is nil.
func (m *Metrics) Inc(counter func(*Metrics) *atomic.Int64) {
	if m == nil {
		return
	}
	counter(m).Add(1)
}

// Counter selectors for Inc
func LabelIndexed(m *Metrics) *atomic.Int64  { return &m.LabelsIndexed }
func LabelSkipped(m *Metrics) *atomic.Int64  { return &m.LabelsSkipped }
func IdentifierErr(m *Metrics) *atomic.Int64 { return &m.IdentifierErrs }
func CacheHit(m *Metrics) *atomic.Int64      { return &m.CacheHits }
func CacheMiss(m *Metrics) *atomic.Int64     { return &m.CacheMisses }
func NegativeHit(m *Metrics) *atomic.Int64   { return &m.NegativeHits }
func FeaturizedHit(m *Metrics) *atomic.Int64 { return &m.FeaturizedHits }
func Fetched(m *Metrics) *atomic.Int64       { return &m.Fetched }
func Dropped(m *Metrics) *atomic.Int64       { return &m.Dropped }
func Timeout(m *Metrics) *atomic.Int64       { return &m.Timeouts }

// CacheHitRate returns the cache hit percentage, counting negative hits.
func (m *Metrics) CacheHitRate() float64 {
	hits := m.CacheHits.Load() + m.NegativeHits.Load()
	total := hits + m.CacheMisses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// String returns a formatted summary (minimal single-line format).
func (m *Metrics) String() string {
	hits := m.CacheHits.Load() + m.NegativeHits.Load()
	total := hits + m.CacheMisses.Load()

	return fmt.Sprintf("📊 %d labels (%d skipped), %d fetched, %d dropped (%d timeouts) in %v (cache: %d/%d hits, %.0f%%, %d featurized)",
		m.LabelsIndexed.Load(),
		m.LabelsSkipped.Load(),
		m.Fetched.Load(),
		m.Dropped.Load(),
		m.Timeouts.Load(),
		m.TotalDuration().Round(time.Millisecond),
		hits,
		total,
		m.CacheHitRate(),
		m.FeaturizedHits.Load(),
	)
}

// Print outputs the metrics to stdout.
func (m *Metrics) Print() {
	fmt.Println(m.String())
}
