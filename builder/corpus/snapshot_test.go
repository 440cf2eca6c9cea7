package corpus

import (
	"errors"
	"testing"

	"github.com/Kush-Singh-26/imgcorpus/builder/cache"
	"github.com/Kush-Singh-26/imgcorpus/builder/models"
	"github.com/Kush-Singh-26/imgcorpus/builder/testutil"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	store := testutil.CreateTestSnapshotStore(t)

	if _, _, err := LoadSnapshot(store); !errors.Is(err, cache.ErrNoSnapshot) {
		t.Fatalf("LoadSnapshot() on empty store = %v, want ErrNoSnapshot", err)
	}

	c := &Corpus{
		Index: Index{
			"http://x/1.jpg": models.NewLabelSet("cat", "dog"),
			"http://x/2.jpg": models.NewLabelSet("dog"),
		},
		Labels:  []models.Label{"cat", "dog"},
		Skipped: []Skipped{{Label: "fish", Reason: SkipNotEnoughSamples, Detail: "only 3 sample(s)"}},
	}
	if err := SaveSnapshot(store, c, "fp-1"); err != nil {
		t.Fatalf("SaveSnapshot() failed: %v", err)
	}

	got, fp, err := LoadSnapshot(store)
	if err != nil {
		t.Fatalf("LoadSnapshot() failed: %v", err)
	}
	if fp != "fp-1" {
		t.Errorf("fingerprint = %q, want fp-1", fp)
	}
	if len(got.Labels) != 2 || got.Labels[0] != "cat" {
		t.Errorf("Labels = %v", got.Labels)
	}
	if set := got.Index["http://x/1.jpg"]; len(set) != 2 || !set.Has("cat") {
		t.Errorf("Index[1] = %v", set.Sorted())
	}
	if len(got.Skipped) != 1 || got.Skipped[0] != c.Skipped[0] {
		t.Errorf("Skipped = %v", got.Skipped)
	}
}

func TestFingerprint(t *testing.T) {
	opts := Options{URLListURL: testListURL, MinSamplesPerLabel: 1, MaxSamplesPerLabel: 2}
	resolver := mapResolver{"dog": {"n01"}, "cat": {"n02", "n03"}}

	fingerprint := func(t *testing.T, r LabelResolver, catalogURL string, opts Options, labels ...models.Label) string {
		t.Helper()
		fp, err := Fingerprint(labels, r, catalogURL, opts)
		if err != nil {
			t.Fatalf("Fingerprint() failed: %v", err)
		}
		return fp
	}

	a := fingerprint(t, resolver, "http://s", opts, "dog", "cat")
	if b := fingerprint(t, resolver, "http://s", opts, "cat", "dog", "cat"); a != b {
		t.Error("Fingerprint() should not depend on label order or duplicates")
	}

	reordered := mapResolver{"dog": {"n01"}, "cat": {"n03", "n02"}}
	if fingerprint(t, reordered, "http://s", opts, "dog", "cat") != a {
		t.Error("Fingerprint() should not depend on identifier order")
	}

	remapped := mapResolver{"dog": {"n01"}, "cat": {"n04"}}
	if fingerprint(t, remapped, "http://s", opts, "dog", "cat") == a {
		t.Error("Fingerprint() should change when a label is remapped")
	}

	quota := opts
	quota.MaxSamplesPerLabel = 3
	if fingerprint(t, resolver, "http://s", quota, "dog", "cat") == a {
		t.Error("Fingerprint() should change with the quota")
	}
	if fingerprint(t, resolver, "http://t", opts, "dog", "cat") == a {
		t.Error("Fingerprint() should change with the catalog URL")
	}

	if _, err := Fingerprint([]models.Label{"unicorn"}, resolver, "http://s", opts); !errors.Is(err, ErrUnknownLabel) {
		t.Errorf("Fingerprint(unknown) error = %v, want ErrUnknownLabel", err)
	}
}
