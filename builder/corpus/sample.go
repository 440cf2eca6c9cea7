package corpus

import "github.com/Kush-Singh-26/imgcorpus/builder/utils"

// LimitRandomized picks at most limit items, pseudo-randomly but
// reproducibly: items are ordered by stable hash (ties by string) and the
// prefix is kept. The result does not depend on the input order. Inputs at
// or under the limit are returned unchanged.
func LimitRandomized(items []string, limit int) []string {
	if len(items) <= limit {
		return items
	}
	if limit <= 0 {
		return []string{}
	}

	sorted := make([]string, len(items))
	copy(sorted, items)
	utils.SortByStableHash(sorted)
	return sorted[:limit:limit]
}
