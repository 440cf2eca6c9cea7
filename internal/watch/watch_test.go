package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher_DebouncedChange(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "labels.yaml")
	other := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(target, []byte("labels: {}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	events := make(chan Event, 10)
	w, err := New([]string{target}, 50*time.Millisecond, func(e Event) { events <- e }, nil)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Unwatched files are ignored
	if err := os.WriteFile(other, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(target, []byte("labels: {dog: [n1]}\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case e := <-events:
		if filepath.Base(e.Name) != "labels.yaml" {
			t.Errorf("event for %s, want labels.yaml", e.Name)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no event received")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not stop")
	}
}

func TestNew_MissingDir(t *testing.T) {
	if _, err := New([]string{filepath.Join(t.TempDir(), "nope", "labels.yaml")}, time.Millisecond, func(Event) {}, nil); err == nil {
		t.Error("New() should fail for a missing directory")
	}
}
