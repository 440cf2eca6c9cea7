package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Kush-Singh-26/imgcorpus/builder/config"
	"github.com/Kush-Singh-26/imgcorpus/builder/labels"
	"github.com/Kush-Singh-26/imgcorpus/builder/run"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch command {
	case "index":
		err = runIndex(ctx, args)
	case "split":
		err = runSplit(ctx, args)
	case "prefetch":
		err = runPrefetch(ctx, args)
	case "cache":
		err = handleCacheCommand(args)
	case "watch":
		err = runWatch(ctx, args)
	case "help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: imgcorpus <command> [flags]")
	fmt.Println("\nCommands:")
	fmt.Println("  index          Build (or reuse) the labeled corpus index")
	fmt.Println("  split          Show the train/eval partition sizes")
	fmt.Println("  prefetch       Fetch every item once to warm the caches")
	fmt.Println("  cache <sub>    Inspect or clear caches (stats, clear, inspect)")
	fmt.Println("  watch          Re-index whenever the label or config file changes")
	fmt.Println("  help           Show this help message")
	fmt.Println("\nFlags:")
	fmt.Println("  -config FILE   Config file (default: corpus.yaml or config.yaml)")
	fmt.Println("  -cache DIR     Cache directory")
	fmt.Println("  -labels a,b    Only index these labels")
	fmt.Println("  -min N / -max N  Per-label sample thresholds")
	fmt.Println("  -force         Rebuild the index even if a snapshot matches")
	fmt.Println("  -verbose       Debug logging")
}

// newLogger returns the process logger for cfg
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openBuilder loads config from args and opens a builder
func openBuilder(args []string) (*run.Builder, error) {
	cfg, err := config.Load(args)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)
	return run.NewBuilder(cfg, run.Deps{Logger: logger})
}

func runIndex(ctx context.Context, args []string) error {
	b, err := openBuilder(args)
	if err != nil {
		return err
	}
	defer func() { _ = b.Close() }()

	fmt.Println("🔨 Indexing corpus...")
	c, err := b.Index(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("✅ %s\n", c)
	for _, l := range c.Labels {
		fmt.Printf("   🏷️  %s\n", labels.DisplayName(l))
	}
	for _, s := range c.Skipped {
		fmt.Printf("   ⚠️  Skipped %s\n", s)
	}
	return nil
}

func runSplit(ctx context.Context, args []string) error {
	b, err := openBuilder(args)
	if err != nil {
		return err
	}
	defer func() { _ = b.Close() }()

	c, err := b.Index(ctx)
	if err != nil {
		return err
	}
	train, eval := b.Split(c)
	fmt.Printf("📦 %d items: %d train, %d eval\n", len(c.Index), len(train), len(eval))
	return nil
}

func runPrefetch(ctx context.Context, args []string) error {
	b, err := openBuilder(args)
	if err != nil {
		return err
	}
	defer func() { _ = b.Close() }()

	c, err := b.Index(ctx)
	if err != nil {
		return err
	}
	train, eval, err := b.Fetchers(c)
	if err != nil {
		return err
	}

	for _, p := range []struct {
		name string
		n    int
		f    func() (int, error)
	}{
		{"train", train.TotalExamples(), func() (int, error) { return b.Prefetch(ctx, train) }},
		{"eval", eval.TotalExamples(), func() (int, error) { return b.Prefetch(ctx, eval) }},
	} {
		fmt.Printf("⬇️  Prefetching %s partition (%d items)...\n", p.name, p.n)
		got, err := p.f()
		if err != nil {
			return err
		}
		fmt.Printf("   ✅ %d/%d usable\n", got, p.n)
	}

	b.Metrics().RecordEnd()
	b.Metrics().Print()
	return nil
}
