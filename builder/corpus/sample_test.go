package corpus

import (
	"fmt"
	"testing"
)

func TestLimitRandomized_FourURLs(t *testing.T) {
	items := []string{"http://a/1.jpg", "http://a/2.jpg", "http://a/3.jpg", "http://a/4.jpg"}

	// Stable hashes: 2.jpg 0x27d3..., 3.jpg 0x8065..., 1.jpg 0xf2cc..., 4.jpg 0xf7ef...
	want := []string{"http://a/2.jpg", "http://a/3.jpg"}

	for run := 0; run < 5; run++ {
		got := LimitRandomized(items, 2)
		if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
			t.Fatalf("run %d: LimitRandomized() = %v, want %v", run, got, want)
		}
	}

	// Input order does not matter
	reversed := []string{items[3], items[2], items[1], items[0]}
	got := LimitRandomized(reversed, 2)
	if got[0] != want[0] || got[1] != want[1] {
		t.Errorf("LimitRandomized(reversed) = %v, want %v", got, want)
	}

	// The input is left untouched
	if items[0] != "http://a/1.jpg" || items[3] != "http://a/4.jpg" {
		t.Errorf("LimitRandomized() reordered its input: %v", items)
	}
}

func TestLimitRandomized_QuotaBound(t *testing.T) {
	tests := []struct {
		n, limit int
	}{
		{0, 5},
		{3, 5},
		{5, 5},
		{6, 5},
		{500, 120},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_of_%d", tt.limit, tt.n), func(t *testing.T) {
			items := make([]string, tt.n)
			for i := range items {
				items[i] = fmt.Sprintf("http://h/%d.jpg", i)
			}
			got := LimitRandomized(items, tt.limit)
			want := min(tt.n, tt.limit)
			if len(got) != want {
				t.Errorf("len(LimitRandomized()) = %d, want %d", len(got), want)
			}
		})
	}
}

func TestLimitRandomized_Subset(t *testing.T) {
	items := make([]string, 50)
	for i := range items {
		items[i] = fmt.Sprintf("http://h/%d.jpg", i)
	}
	in := make(map[string]bool)
	for _, it := range items {
		in[it] = true
	}

	got := LimitRandomized(items, 10)
	seen := make(map[string]bool)
	for _, g := range got {
		if !in[g] {
			t.Errorf("LimitRandomized() produced foreign item %s", g)
		}
		if seen[g] {
			t.Errorf("LimitRandomized() produced duplicate %s", g)
		}
		seen[g] = true
	}
}
