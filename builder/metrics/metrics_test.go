package metrics

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	m := New()

	if m.StartTime.IsZero() {
		t.Error("StartTime should be set")
	}
	if m.Fetched.Load() != 0 {
		t.Errorf("Fetched should be 0, got %d", m.Fetched.Load())
	}
	if m.CacheHitRate() != 0 {
		t.Errorf("CacheHitRate() should be 0, got %f", m.CacheHitRate())
	}
}

func TestRecordEnd(t *testing.T) {
	m := New()
	m.RecordEnd()
	d1 := m.TotalDuration()
	time.Sleep(5 * time.Millisecond)
	if d2 := m.TotalDuration(); d2 != d1 {
		t.Errorf("TotalDuration() changed after RecordEnd: %v -> %v", d1, d2)
	}
}

func TestInc_Concurrent(t *testing.T) {
	m := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Inc(Fetched)
			m.Inc(CacheMiss)
		}()
	}
	wg.Wait()

	if got := m.Fetched.Load(); got != 50 {
		t.Errorf("Fetched = %d, want 50", got)
	}
}

func TestInc_Nil(t *testing.T) {
	var m *Metrics
	m.Inc(Dropped)
	m.RecordEnd()
}

func TestCacheHitRate(t *testing.T) {
	m := New()
	m.Inc(CacheHit)
	m.Inc(NegativeHit)
	m.Inc(CacheMiss)
	m.Inc(CacheMiss)

	if got := m.CacheHitRate(); got != 50 {
		t.Errorf("CacheHitRate() = %f, want 50", got)
	}
}

func TestString(t *testing.T) {
	m := New()
	m.Inc(LabelIndexed)
	m.Inc(Fetched)
	m.Inc(Dropped)

	s := m.String()
	for _, want := range []string{"1 labels", "1 fetched", "1 dropped", "cache:"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}
