package corpus

import (
	"fmt"
	"sync"
	"testing"

	"github.com/Kush-Singh-26/imgcorpus/builder/models"
	"github.com/Kush-Singh-26/imgcorpus/builder/utils"
)

func TestIndexBuilder_UnionInsertConcurrent(t *testing.T) {
	for round := 0; round < 20; round++ {
		b := newIndexBuilder()
		var wg sync.WaitGroup
		for _, label := range []models.Label{"labelA", "labelB"} {
			label := label
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.add(label, []string{"X", "only-" + string(label)})
			}()
		}
		wg.Wait()

		idx := b.freeze()
		set := idx["X"]
		if len(set) != 2 || !set.Has("labelA") || !set.Has("labelB") {
			t.Fatalf("round %d: Index[X] = %v, want {labelA, labelB}", round, set.Sorted())
		}
		if len(idx) != 3 {
			t.Fatalf("round %d: len(Index) = %d, want 3", round, len(idx))
		}
	}
}

func TestIndex_Items(t *testing.T) {
	idx := make(Index)
	for i := 0; i < 30; i++ {
		idx[fmt.Sprintf("http://h/%d.jpg", i)] = models.NewLabelSet("a")
	}

	items := idx.Items()
	if len(items) != 30 {
		t.Fatalf("len(Items()) = %d, want 30", len(items))
	}
	for i := 1; i < len(items); i++ {
		if utils.StableHash(items[i-1]) > utils.StableHash(items[i]) {
			t.Fatalf("Items() not sorted by stable hash at %d", i)
		}
	}

	again := idx.Items()
	for i := range items {
		if items[i] != again[i] {
			t.Fatal("Items() is not deterministic")
		}
	}
}

func TestIndex_Labels(t *testing.T) {
	idx := Index{
		"x": models.NewLabelSet("b", "a"),
		"y": models.NewLabelSet("c"),
	}
	got := idx.Labels()
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Errorf("Labels() = %v", got)
	}
}

func TestLabelEncoder(t *testing.T) {
	e := NewLabelEncoder([]models.Label{"cat", "dog", "fish"})
	if e.NumOutcomes() != 3 {
		t.Errorf("NumOutcomes() = %d, want 3", e.NumOutcomes())
	}

	vec, err := e.Encode(models.NewLabelSet("dog", "cat"))
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	want := []float32{1, 1, 0}
	for i := range want {
		if vec[i] != want[i] {
			t.Errorf("Encode() = %v, want %v", vec, want)
			break
		}
	}

	if _, err := e.Encode(models.NewLabelSet("wolf")); err == nil {
		t.Error("Encode() with unknown label should fail")
	}

	if err := e.Validate(Index{"x": models.NewLabelSet("cat")}); err != nil {
		t.Errorf("Validate() failed: %v", err)
	}
	if err := e.Validate(Index{"x": models.NewLabelSet("wolf")}); err == nil {
		t.Error("Validate() with unknown label should fail")
	}
}

func TestCheckErrorPage(t *testing.T) {
	tests := []struct {
		name    string
		lines   []string
		wantErr bool
	}{
		{"empty", nil, false},
		{"single url", []string{"http://a/1.jpg"}, false},
		{"single https url", []string{"https://a/1.jpg"}, false},
		{"error message", []string{"Invalid wnid"}, true},
		{"many lines", []string{"foo", "bar"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := CheckErrorPage(tt.lines); (err != nil) != tt.wantErr {
				t.Errorf("CheckErrorPage(%q) = %v, wantErr %v", tt.lines, err, tt.wantErr)
			}
		})
	}
}

func TestCatalog(t *testing.T) {
	c := NewCatalog([]string{"n01 tench", "n02", "", "  "})
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
	if !c.Supports("n01") || !c.Supports("n02") || c.Supports("n03") {
		t.Error("Supports() mismatch")
	}
}
