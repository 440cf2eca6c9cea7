package cache

import (
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/imgcorpus/builder/utils"
)

// createTestLinesCache creates an in-memory line-list cache for testing
func createTestLinesCache(t *testing.T) (*LinesCache, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	c, err := NewLinesCache(fs, "/cache", NameURLs, nil)
	if err != nil {
		t.Fatalf("NewLinesCache() failed: %v", err)
	}
	return c, fs
}

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"n01440764", "n01440764"},
		{"http://x/a.jpg", "http_x_a_jpg"},
		{"a b  c", "a_b_c"},
		{"keep-dash_under", "keep-dash_under"},
		{"a/b", "a_b"},
		{"a?b", "a_b"},
	}

	for _, tt := range tests {
		if got := SanitizeKey(tt.key); got != tt.want {
			t.Errorf("SanitizeKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestSanitizeKey_Long(t *testing.T) {
	a := "http://example.com/" + strings.Repeat("a", 300)
	b := "http://example.com/" + strings.Repeat("a", 299) + "b"

	ka, kb := SanitizeKey(a), SanitizeKey(b)
	if len(ka) != utils.MaxKeyLength {
		t.Errorf("len(SanitizeKey(long)) = %d, want %d", len(ka), utils.MaxKeyLength)
	}
	if ka == kb {
		t.Error("Long keys with different tails should not collide")
	}
	if SanitizeKey(a) != ka {
		t.Error("SanitizeKey should be deterministic")
	}
}

func TestLinesCache_PutGet(t *testing.T) {
	c, _ := createTestLinesCache(t)

	want := []string{"http://a/1.jpg", "http://a/2.jpg"}
	if err := c.Put("n01", want); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	got, ok := c.Get("n01")
	if !ok {
		t.Fatal("Get() after Put() should hit")
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Get() = %v, want %v", got, want)
	}

	// Idempotent overwrite
	if err := c.Put("n01", want); err != nil {
		t.Fatalf("second Put() failed: %v", err)
	}
	got, _ = c.Get("n01")
	if len(got) != 2 {
		t.Errorf("Get() after overwrite = %v", got)
	}
}

func TestLinesCache_EmptyList(t *testing.T) {
	c, fs := createTestLinesCache(t)

	if err := c.Put("empty", nil); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	info, err := fs.Stat(c.Path("empty"))
	if err != nil {
		t.Fatalf("Stat() failed: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("empty list file size = %d, want 0", info.Size())
	}

	got, ok := c.Get("empty")
	if !ok {
		t.Fatal("empty list should be a hit")
	}
	if len(got) != 0 {
		t.Errorf("Get() = %v, want empty", got)
	}
}

func TestLinesCache_Miss(t *testing.T) {
	c, _ := createTestLinesCache(t)

	if _, ok := c.Get("absent"); ok {
		t.Error("Get() on absent key should miss")
	}
	if c.IsCached("absent") {
		t.Error("IsCached() on absent key should be false")
	}
	if s := c.Stats(); s.Misses != 2 {
		t.Errorf("Misses = %d, want 2", s.Misses)
	}
}

func TestLinesCodec_Decode(t *testing.T) {
	got, err := LinesCodec{}.Decode([]byte("a\r\nb\n\n"))
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Decode() = %q", got)
	}
}

func TestDiskCache_Clear(t *testing.T) {
	c, fs := createTestLinesCache(t)

	for _, k := range []string{"a", "b", "c"} {
		if err := c.Put(k, []string{k}); err != nil {
			t.Fatalf("Put(%s) failed: %v", k, err)
		}
	}
	// Unrelated files are left alone
	if err := afero.WriteFile(fs, c.Dir()+"/README", []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}

	for _, k := range []string{"a", "b", "c"} {
		if c.IsCached(k) {
			t.Errorf("%s should be gone after Clear()", k)
		}
	}
	if ok, _ := afero.Exists(fs, c.Dir()+"/README"); !ok {
		t.Error("Clear() removed a non-cache file")
	}

	entries, _, _, err := c.Usage()
	if err != nil {
		t.Fatalf("Usage() failed: %v", err)
	}
	if entries != 0 {
		t.Errorf("entries after Clear() = %d, want 0", entries)
	}
}

func TestDiskCache_ClearMissingDir(t *testing.T) {
	c, fs := createTestLinesCache(t)
	if err := fs.RemoveAll(c.Dir()); err != nil {
		t.Fatal(err)
	}
	if err := c.Clear(); err != nil {
		t.Errorf("Clear() on missing dir failed: %v", err)
	}
}

func TestDiskCache_Layout(t *testing.T) {
	c, fs := createTestLinesCache(t)
	if err := c.Put("n 01", []string{"x"}); err != nil {
		t.Fatal(err)
	}
	if ok, _ := afero.Exists(fs, "/cache/imagenet-urls/n_01.cache"); !ok {
		t.Errorf("expected entry at /cache/imagenet-urls/n_01.cache, got %s", c.Path("n 01"))
	}
}
