package sync

import (
	"time"

	"github.com/kbox38/cignite/app/database"
)

// StaleAt reports whether a cache entry is stale at the given instant. A
// missing entry is always stale. The threshold belongs to the calling
// context (minutes for DMA status checks, hours for post sync), not to the
// cache itself.
func StaleAt(entry *database.CacheEntry, threshold time.Duration, now time.Time) bool {
	if entry == nil {
		return true
	}
	return now.Sub(entry.FetchedAt) > threshold
}

func IsStale(entry *database.CacheEntry, threshold time.Duration) bool {
	return StaleAt(entry, threshold, time.Now())
}
