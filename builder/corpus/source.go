package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Kush-Singh-26/imgcorpus/builder/cache"
)

// LineCheck validates a fetched response before it is cached.
type LineCheck func(lines []string) error

// CheckErrorPage rejects a single-line response that is not a URL. Upstream
// answers unknown or failing requests with a one-line message.
func CheckErrorPage(lines []string) error {
	if len(lines) == 1 && !IsURL(lines[0]) {
		msg := lines[0]
		if len(msg) > 120 {
			msg = msg[:120] + "..."
		}
		return fmt.Errorf("%w: %q", ErrErrorPage, msg)
	}
	return nil
}

// IsURL reports whether s looks like an http(s) resource locator
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// CachedLineSource serves line lists from a LinesCache and only goes to
// the network on a miss. Responses rejected by the check are not cached.
type CachedLineSource struct {
	cache  *cache.LinesCache
	source LineSource
	check  LineCheck
	logger *slog.Logger
}

// NewCachedLineSource wraps source with c. check may be nil.
func NewCachedLineSource(c *cache.LinesCache, source LineSource, check LineCheck, logger *slog.Logger) *CachedLineSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedLineSource{cache: c, source: source, check: check, logger: logger}
}

// FetchLines returns the lines of url, keyed in the cache by the URL itself
func (s *CachedLineSource) FetchLines(ctx context.Context, url string) ([]string, error) {
	if lines, ok := s.cache.Get(url); ok {
		return lines, nil
	}

	lines, err := s.source.FetchLines(ctx, url)
	if err != nil {
		return nil, err
	}
	if s.check != nil {
		if err := s.check(lines); err != nil {
			return nil, err
		}
	}

	if err := s.cache.Put(url, lines); err != nil {
		s.logger.Warn("Failed to cache line list", "url", url, "error", err)
	}
	return lines, nil
}
