package corpus

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrCatalog wraps failures to load the identifier catalog
var ErrCatalog = errors.New("failed to load identifier catalog")

// Catalog is the set of identifiers upstream serves
type Catalog struct {
	ids map[string]struct{}
}

// NewCatalog creates a catalog from identifiers. Only the first
// whitespace-separated field of each entry counts.
func NewCatalog(ids []string) *Catalog {
	c := &Catalog{ids: make(map[string]struct{}, len(ids))}
	for _, line := range ids {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		c.ids[fields[0]] = struct{}{}
	}
	return c
}

// LoadCatalog fetches the catalog with a single bulk request
func LoadCatalog(ctx context.Context, src LineSource, url string) (*Catalog, error) {
	lines, err := src.FetchLines(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w from %s: %w", ErrCatalog, url, err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w from %s: empty list", ErrCatalog, url)
	}
	return NewCatalog(lines), nil
}

// Supports reports whether id is in the catalog
func (c *Catalog) Supports(id string) bool {
	_, ok := c.ids[id]
	return ok
}

// Len returns the number of identifiers
func (c *Catalog) Len() int {
	return len(c.ids)
}
