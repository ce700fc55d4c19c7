package post

import (
	"sort"
)

var sourceRank = map[SourceKind]int{
	"":              0,
	SourceSnapshot:  1,
	SourceChangelog: 2,
}

// Merge combines the cached post list with freshly normalized snapshot and
// changelog batches into one deduplicated, newest-first list. On id
// collision the higher-priority source wins wholesale (cached < snapshot <
// changelog); text and engagement are never blended across sources. A
// limit <= 0 means no truncation.
func Merge(cached, snapshot, changelog []Post, limit int) []Post {
	index := make(map[string]int)
	merged := make([]Post, 0, len(cached)+len(snapshot)+len(changelog))

	absorb := func(batch []Post) {
		for _, p := range batch {
			if p.ID == "" {
				continue
			}
			if i, ok := index[p.ID]; ok {
				merged[i] = p
			} else {
				index[p.ID] = len(merged)
				merged = append(merged, p)
			}
		}
	}

	absorb(cached)
	absorb(snapshot)
	absorb(changelog)

	// Newest first. Real dates sort before fallback dates on timestamp
	// ties, then source precedence, then insertion order (stable).
	sort.SliceStable(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		if a.CreatedAt != b.CreatedAt {
			return a.CreatedAt > b.CreatedAt
		}
		if a.DateIsFallback != b.DateIsFallback {
			return !a.DateIsFallback
		}
		return sourceRank[a.SourceKind] > sourceRank[b.SourceKind]
	})

	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}

	return merged
}
