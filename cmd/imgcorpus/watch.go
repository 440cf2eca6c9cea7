package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/Kush-Singh-26/imgcorpus/builder/config"
	"github.com/Kush-Singh-26/imgcorpus/internal/watch"
)

// runWatch re-indexes whenever the label dictionary or config file
// changes. Each run reloads the configuration from args.
func runWatch(ctx context.Context, args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}

	// Callbacks may overlap when a change lands mid-build
	var mu sync.Mutex
	reindex := func() {
		mu.Lock()
		defer mu.Unlock()
		if err := runIndex(ctx, args); err != nil {
			fmt.Printf("❌ %v\n", err)
		}
	}
	reindex()

	files := []string{cfg.LabelsFile}
	if cfg.ConfigFile != "" {
		files = append(files, cfg.ConfigFile)
	}

	w, err := watch.New(files, cfg.DebounceDuration, func(e watch.Event) {
		fmt.Printf("⚡ Change detected in [%s]. Re-indexing.\n", e.Name)
		reindex()
	}, newLogger(cfg))
	if err != nil {
		return err
	}

	fmt.Println("👀 Watch mode active. Waiting for changes...")
	return w.Run(ctx)
}
