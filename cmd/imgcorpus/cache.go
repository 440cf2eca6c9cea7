package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/Kush-Singh-26/imgcorpus/builder/config"
	"github.com/Kush-Singh-26/imgcorpus/builder/corpus"
	"github.com/Kush-Singh-26/imgcorpus/builder/utils"
	"github.com/Kush-Singh-26/imgcorpus/internal/clean"
)

// handleCacheCommand processes cache-related subcommands
func handleCacheCommand(args []string) error {
	if len(args) < 1 {
		printCacheUsage()
		os.Exit(1)
	}

	subcommand := args[0]
	subArgs := args[1:]

	switch subcommand {
	case "stats":
		return cacheStats(subArgs)
	case "clear":
		return cacheClear(subArgs)
	case "inspect":
		return cacheInspect(subArgs)
	default:
		fmt.Printf("Unknown cache subcommand: %s\n", subcommand)
		printCacheUsage()
		os.Exit(1)
	}
	return nil
}

func printCacheUsage() {
	fmt.Println("Usage: imgcorpus cache <subcommand> [flags] [arguments]")
	fmt.Println("\nSubcommands:")
	fmt.Println("  stats            Show cache statistics")
	fmt.Println("  clear [names]    Delete cache instances (default: all, plus the snapshot)")
	fmt.Println("  inspect <url>    Show the labels stored for an item")
	fmt.Printf("\nCache names: %s\n", strings.Join(clean.AllCaches, ", "))
}

// splitFlags separates leading flags from positional arguments
func splitFlags(args []string) (flags, rest []string) {
	for i := 0; i < len(args); i++ {
		if !strings.HasPrefix(args[i], "-") {
			return args[:i], args[i:]
		}
		// Flags with a separate value
		if !strings.Contains(args[i], "=") && i+1 < len(args) && takesValue(args[i]) {
			i++
		}
	}
	return args, nil
}

func takesValue(flag string) bool {
	switch strings.TrimLeft(flag, "-") {
	case "force", "verbose":
		return false
	}
	return true
}

func cacheStats(args []string) error {
	b, err := openBuilder(args)
	if err != nil {
		return err
	}
	defer func() { _ = b.Close() }()

	infos, err := b.Caches()
	if err != nil {
		return err
	}

	fmt.Println("📊 Cache Statistics")
	fmt.Println("════════════════════════════════════════")
	for _, info := range infos {
		fmt.Printf("%-20s %6d entries (%d negative), %.2f MB\n",
			info.Name, info.Entries, info.Negatives, float64(info.Bytes)/(1024*1024))
	}

	if fp, err := b.Snapshots().Fingerprint(); err == nil && fp != "" {
		c, _, err := corpus.LoadSnapshot(b.Snapshots())
		if err == nil {
			fmt.Printf("\n🗂️  Snapshot: %s\n", c)
			fmt.Printf("Fingerprint:     %s\n", fp[:min(16, len(fp))])
		}
	} else {
		fmt.Println("\n🗂️  Snapshot: none")
	}
	return nil
}

func cacheClear(args []string) error {
	flags, names := splitFlags(args)
	cfg, err := config.Load(flags)
	if err != nil {
		return err
	}

	lock, err := utils.AcquireCacheLock(cfg.CacheDir)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	if err := clean.Run(cfg.CacheDir, names, len(names) == 0); err != nil {
		return err
	}
	fmt.Println("✅ Cache cleared")
	return nil
}

func cacheInspect(args []string) error {
	flags, rest := splitFlags(args)
	if len(rest) < 1 {
		fmt.Println("Usage: imgcorpus cache inspect [flags] <url>")
		os.Exit(1)
	}

	b, err := openBuilder(flags)
	if err != nil {
		return err
	}
	defer func() { _ = b.Close() }()

	item := rest[0]
	ls, err := b.Snapshots().Lookup(item)
	if err != nil {
		return err
	}
	if ls == nil {
		fmt.Printf("🔍 %s is not in the corpus\n", item)
		return nil
	}
	fmt.Printf("🔍 %s\n", item)
	fmt.Printf("Labels:          %v\n", ls)
	return nil
}
