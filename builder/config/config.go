// handles the config file and command-line flags
package config

import (
	"flag"
	"strings"
)

// Load builds the configuration from defaults, the config file and args.
// The file is the -config flag if given, else the first of DefaultFiles
// that exists. Flags win over the file.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("imgcorpus", flag.ContinueOnError)
	configFlag := fs.String("config", "", "Config file (default: corpus.yaml or config.yaml)")
	cacheFlag := fs.String("cache", "", "Cache directory")
	labelsFileFlag := fs.String("labels-file", "", "Label dictionary file")
	labelsFlag := fs.String("labels", "", "Comma-separated labels to index (default: all)")
	minFlag := fs.Int("min", -1, "Minimum samples per label")
	maxFlag := fs.Int("max", -1, "Maximum samples per label")
	workersFlag := fs.Int("workers", 0, "Fetch workers")
	timeoutFlag := fs.Duration("timeout", 0, "Per-item fetch timeout")
	batchFlag := fs.Int("batch", 0, "Batch size")
	forceFlag := fs.Bool("force", false, "Rebuild the index even if a snapshot matches")
	verboseFlag := fs.Bool("verbose", false, "Debug logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	files := DefaultFiles
	if *configFlag != "" {
		files = []string{*configFlag}
	}
	for _, f := range files {
		if err := cfg.LoadFile(f); err != nil {
			return nil, err
		}
		if cfg.ConfigFile != "" {
			break
		}
	}

	if *cacheFlag != "" {
		cfg.CacheDir = *cacheFlag
	}
	if *labelsFileFlag != "" {
		cfg.LabelsFile = *labelsFileFlag
	}
	if *labelsFlag != "" {
		cfg.Labels = splitList(*labelsFlag)
	}
	if *minFlag >= 0 {
		cfg.MinSamplesPerLabel = *minFlag
	}
	if *maxFlag >= 0 {
		cfg.MaxSamplesPerLabel = *maxFlag
	}
	if *workersFlag > 0 {
		cfg.FetchWorkers = *workersFlag
	}
	if *timeoutFlag > 0 {
		cfg.FetchTimeout = *timeoutFlag
	}
	if *batchFlag > 0 {
		cfg.BatchSize = *batchFlag
	}
	cfg.Force = *forceFlag
	cfg.Verbose = *verboseFlag

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// splitList splits a comma-separated flag value, dropping blanks
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
