package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default config file names, tried in order
var DefaultFiles = []string{"corpus.yaml", "config.yaml"}

// Config contains all tunable pipeline parameters.
// These can be set in corpus.yaml and overridden by flags.
type Config struct {
	// Locations
	CacheDir   string   `yaml:"cacheDir"`   // Root of all cache instances (default: .imgcorpus)
	LabelsFile string   `yaml:"labelsFile"` // Label dictionary (default: labels.yaml)
	Labels     []string `yaml:"labels"`     // Subset of dictionary labels to index (default: all)

	// Upstream
	SynsetListURL     string  `yaml:"synsetListURL"`     // Catalog of servable identifiers
	URLListURL        string  `yaml:"urlListURL"`        // Item list per identifier, %s = identifier
	UserAgent         string  `yaml:"userAgent"`         // Sent with every request
	RequestsPerSecond float64 `yaml:"requestsPerSecond"` // Shared rate limit, 0 = unlimited (default: 20)
	MaxResponseBytes  int64   `yaml:"maxResponseBytes"`  // Body size cap (default: 16MB)

	// Sampling
	MinSamplesPerLabel int `yaml:"minSamplesPerLabel"` // Labels with fewer candidates are skipped (default: 1000)
	MaxSamplesPerLabel int `yaml:"maxSamplesPerLabel"` // Per-label subsample size (default: 120)

	// Concurrency
	LabelWorkers int           `yaml:"labelWorkers"` // Labels expanded at once (default: 8)
	FetchWorkers int           `yaml:"fetchWorkers"` // Items fetched at once (default: 12)
	FetchTimeout time.Duration `yaml:"fetchTimeout"` // Per-item fetch+decode bound (default: 1s)

	// Output
	BatchSize int `yaml:"batchSize"` // Items per window (default: 5)
	ImageSize int `yaml:"imageSize"` // Square model input edge (default: 224)

	// Watch
	DebounceDuration time.Duration `yaml:"debounceDuration"` // File watcher debounce (default: 500ms)

	// Runtime only
	ConfigFile string `yaml:"-"`
	Force      bool   `yaml:"-"` // Rebuild the index even if a snapshot matches
	Verbose    bool   `yaml:"-"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		CacheDir:   ".imgcorpus",
		LabelsFile: "labels.yaml",

		SynsetListURL:     "http://www.image-net.org/api/text/imagenet.synset.obtain_synset_list",
		URLListURL:        "http://www.image-net.org/api/text/imagenet.synset.geturls?wnid=%s",
		UserAgent:         "imgcorpus/1.0",
		RequestsPerSecond: 20,
		MaxResponseBytes:  16 * 1024 * 1024, // 16MB

		MinSamplesPerLabel: 1000,
		MaxSamplesPerLabel: 120,

		LabelWorkers: 8,
		FetchWorkers: 12,
		FetchTimeout: time.Second,

		BatchSize: 5,
		ImageSize: 224,

		DebounceDuration: 500 * time.Millisecond,
	}
}

// LoadFile merges the YAML file at path over cfg. A missing file is not
// an error.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	c.ConfigFile = path
	return nil
}

// validate ensures configuration values are within reasonable bounds
func (c *Config) validate() error {
	if c.CacheDir == "" {
		return errors.New("cacheDir must not be empty")
	}
	if c.SynsetListURL == "" || c.URLListURL == "" {
		return errors.New("synsetListURL and urlListURL must be set")
	}

	// Sampling
	if c.MinSamplesPerLabel < 0 {
		c.MinSamplesPerLabel = 0
	}
	if c.MaxSamplesPerLabel < 1 {
		c.MaxSamplesPerLabel = 1
	}

	// Workers
	if c.LabelWorkers < 1 {
		c.LabelWorkers = 1
	}
	if c.LabelWorkers > 64 {
		c.LabelWorkers = 64
	}
	if c.FetchWorkers < 1 {
		c.FetchWorkers = 1
	}
	if c.FetchWorkers > 64 {
		c.FetchWorkers = 64
	}

	// Timeouts
	if c.FetchTimeout < 10*time.Millisecond {
		c.FetchTimeout = 10 * time.Millisecond
	}
	if c.FetchTimeout > 5*time.Minute {
		c.FetchTimeout = 5 * time.Minute
	}
	if c.DebounceDuration < 10*time.Millisecond {
		c.DebounceDuration = 10 * time.Millisecond
	}
	if c.DebounceDuration > 5*time.Second {
		c.DebounceDuration = 5 * time.Second
	}

	// Limits
	if c.RequestsPerSecond < 0 {
		c.RequestsPerSecond = 0
	}
	if c.MaxResponseBytes < 1024 {
		c.MaxResponseBytes = 1024 // Minimum 1KB
	}
	if c.BatchSize < 1 {
		c.BatchSize = 1
	}
	if c.ImageSize < 8 {
		c.ImageSize = 8
	}
	if c.ImageSize > 1024 {
		c.ImageSize = 1024
	}
	return nil
}
