package run

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/imgcorpus/builder/cache"
	"github.com/Kush-Singh-26/imgcorpus/builder/config"
	"github.com/Kush-Singh-26/imgcorpus/builder/labels"
	"github.com/Kush-Singh-26/imgcorpus/builder/testutil"
	"github.com/Kush-Singh-26/imgcorpus/builder/utils"
)

const (
	testCatalogURL = "http://upstream/synsets"
	testListURL    = "http://upstream/urls?wnid=%s"
)

type testEnv struct {
	cfg   *config.Config
	lines *testutil.FakeLines
	items *testutil.FakeItems
	deps  Deps
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.CacheDir = t.TempDir()
	cfg.SynsetListURL = testCatalogURL
	cfg.URLListURL = testListURL
	cfg.MinSamplesPerLabel = 5
	cfg.MaxSamplesPerLabel = 20
	cfg.BatchSize = 4

	lines := testutil.NewFakeLines(map[string][]string{
		testCatalogURL:                   {"n01", "n02"},
		"http://upstream/urls?wnid=n01": testutil.URLs("dog", 30),
		"http://upstream/urls?wnid=n02": testutil.URLs("cat", 8),
	})
	dict, err := labels.New(map[string][]string{
		"dog":     {"n01"},
		"cat":     {"n02"},
		"unicorn": {"n99"},
	})
	if err != nil {
		t.Fatal(err)
	}
	items := testutil.NewFakeItems()

	return &testEnv{
		cfg:   cfg,
		lines: lines,
		items: items,
		deps: Deps{
			Fs:         afero.NewMemMapFs(),
			Dictionary: dict,
			Lines:      lines,
			Items:      items,
			Codec:      testutil.LengthCodec{},
		},
	}
}

func (e *testEnv) builder(t *testing.T) *Builder {
	t.Helper()
	b, err := NewBuilder(e.cfg, e.deps)
	if err != nil {
		t.Fatalf("NewBuilder() failed: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestBuilder_IndexAndFetch(t *testing.T) {
	env := newTestEnv(t)
	b := env.builder(t)
	ctx := context.Background()

	c, err := b.Index(ctx)
	if err != nil {
		t.Fatalf("Index() failed: %v", err)
	}
	if len(c.Labels) != 2 || c.Labels[0] != "cat" || c.Labels[1] != "dog" {
		t.Errorf("Labels = %v, want [cat dog]", c.Labels)
	}
	if len(c.Index) != 28 {
		t.Errorf("len(Index) = %d, want 28 (20 dog + 8 cat)", len(c.Index))
	}
	if len(c.Skipped) != 1 || c.Skipped[0].Label != "unicorn" {
		t.Errorf("Skipped = %v", c.Skipped)
	}

	train, eval, err := b.Fetchers(c)
	if err != nil {
		t.Fatalf("Fetchers() failed: %v", err)
	}
	if train.TotalExamples()+eval.TotalExamples() != len(c.Index) {
		t.Errorf("train+eval = %d, want %d", train.TotalExamples()+eval.TotalExamples(), len(c.Index))
	}

	n, err := b.Prefetch(ctx, train)
	if err != nil {
		t.Fatalf("Prefetch() failed: %v", err)
	}
	if n != train.TotalExamples() {
		t.Errorf("Prefetch() = %d, want %d", n, train.TotalExamples())
	}
	if b.Metrics().Fetched.Load() != int64(n) {
		t.Errorf("Fetched = %d, want %d", b.Metrics().Fetched.Load(), n)
	}
}

func TestBuilder_ReusesSnapshot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b := env.builder(t)
	first, err := b.Index(ctx)
	if err != nil {
		t.Fatalf("Index() failed: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	calls := env.lines.TotalCalls()

	b2 := env.builder(t)
	second, err := b2.Index(ctx)
	if err != nil {
		t.Fatalf("second Index() failed: %v", err)
	}
	if env.lines.TotalCalls() != calls {
		t.Errorf("snapshot reuse made %d extra fetches", env.lines.TotalCalls()-calls)
	}
	if len(second.Index) != len(first.Index) {
		t.Errorf("len(Index) = %d, want %d", len(second.Index), len(first.Index))
	}
	for item := range first.Index {
		if _, ok := second.Index[item]; !ok {
			t.Errorf("item %s missing after reload", item)
		}
	}
}

func TestBuilder_RemappedLabelRebuilds(t *testing.T) {
	env := newTestEnv(t)
	env.lines.Responses[testCatalogURL] = []string{"n01", "n02", "n03"}
	env.lines.Responses["http://upstream/urls?wnid=n03"] = testutil.URLs("bird", 8)
	ctx := context.Background()

	b := env.builder(t)
	if _, err := b.Index(ctx); err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}

	dict, err := labels.New(map[string][]string{
		"dog": {"n01"},
		"cat": {"n03"},
	})
	if err != nil {
		t.Fatal(err)
	}
	env.deps.Dictionary = dict
	b2 := env.builder(t)
	c, err := b2.Index(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := c.Index["http://cat/img/0000.jpg"]; ok {
		t.Error("item of the old mapping survived the remap")
	}
	if set, ok := c.Index["http://bird/img/0000.jpg"]; !ok || !set.Has("cat") {
		t.Errorf("Index[bird/0000] = %v, want cat", set.Sorted())
	}
	if len(c.Index) != 28 {
		t.Errorf("len(Index) = %d, want 28 (20 dog + 8 bird)", len(c.Index))
	}
}

func TestBuilder_ForceRebuilds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b := env.builder(t)
	if _, err := b.Index(ctx); err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}

	env.cfg.Force = true
	env.cfg.MaxSamplesPerLabel = 10
	b2 := env.builder(t)
	c, err := b2.Index(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Index) != 18 {
		t.Errorf("len(Index) = %d, want 18 (10 dog + 8 cat)", len(c.Index))
	}
}

func TestBuilder_LabelSubset(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.Labels = []string{"DOG"}
	b := env.builder(t)

	c, err := b.Index(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Labels) != 1 || c.Labels[0] != "dog" {
		t.Errorf("Labels = %v, want [dog]", c.Labels)
	}
}

func TestBuilder_CatalogFailureIsFatal(t *testing.T) {
	env := newTestEnv(t)
	env.lines.Errors[testCatalogURL] = errors.New("connection refused")
	b := env.builder(t)

	if _, err := b.Index(context.Background()); err == nil {
		t.Error("Index() should fail when the catalog cannot be loaded")
	}
}

func TestBuilder_LockHeld(t *testing.T) {
	env := newTestEnv(t)
	_ = env.builder(t)

	if _, err := NewBuilder(env.cfg, env.deps); !errors.Is(err, utils.ErrLocked) {
		t.Errorf("second NewBuilder() error = %v, want ErrLocked", err)
	}
}

func TestBuilder_Caches(t *testing.T) {
	env := newTestEnv(t)
	env.items.Fail = map[string]bool{}
	b := env.builder(t)
	ctx := context.Background()

	c, err := b.Index(ctx)
	if err != nil {
		t.Fatal(err)
	}
	_, eval, err := b.Fetchers(c)
	if err != nil {
		t.Fatal(err)
	}
	for _, item := range c.Index.Items() {
		env.items.Fail[item] = true
	}
	if _, err := b.Prefetch(ctx, eval); err != nil {
		t.Fatal(err)
	}

	infos, err := b.Caches()
	if err != nil {
		t.Fatalf("Caches() failed: %v", err)
	}
	byName := make(map[string]CacheInfo)
	for _, info := range infos {
		byName[info.Name] = info
	}
	// Catalog + two item lists
	if got := byName[cache.NameURLs].Entries; got != 3 {
		t.Errorf("%s entries = %d, want 3", cache.NameURLs, got)
	}
	if got := byName[cache.NameSamples].Negatives; got != eval.TotalExamples() {
		t.Errorf("%s negatives = %d, want %d", cache.NameSamples, got, eval.TotalExamples())
	}

	if err := b.ClearCache(cache.NameSamples); err != nil {
		t.Fatalf("ClearCache() failed: %v", err)
	}
	infos, _ = b.Caches()
	for _, info := range infos {
		if info.Name == cache.NameSamples && info.Entries != 0 {
			t.Errorf("entries after clear = %d", info.Entries)
		}
	}
	if err := b.ClearCache("bogus"); err == nil {
		t.Error("ClearCache(bogus) should fail")
	}
}

func TestBuilder_Featurizer(t *testing.T) {
	env := newTestEnv(t)
	featurizer := &testutil.DoublingFeaturizer{}
	env.deps.Featurizer = featurizer
	b := env.builder(t)
	ctx := context.Background()

	c, err := b.Index(ctx)
	if err != nil {
		t.Fatal(err)
	}
	train, _, err := b.Fetchers(c)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Prefetch(ctx, train); err != nil {
		t.Fatal(err)
	}
	train.Reset()
	if _, err := b.Prefetch(ctx, train); err != nil {
		t.Fatal(err)
	}
	if featurizer.Calls() != train.TotalExamples() {
		t.Errorf("Featurize() calls = %d, want %d", featurizer.Calls(), train.TotalExamples())
	}
}
