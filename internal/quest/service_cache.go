package quest

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// rankingCache holds recent rankings pages keyed by limit. Any awarded
// completion or progress reset purges it, so a stale page lives at most ttl.
type rankingCache struct {
	pages *expirable.LRU[int, []RankingEntry]
}

func newRankingCache(size int, ttl time.Duration) *rankingCache {
	if ttl <= 0 {
		return &rankingCache{}
	}
	return &rankingCache{pages: expirable.NewLRU[int, []RankingEntry](size, nil, ttl)}
}

// get returns cached memory directly; callers treat the result as read-only.
func (c *rankingCache) get(limit int) ([]RankingEntry, bool) {
	if c == nil || c.pages == nil {
		return nil, false
	}
	return c.pages.Get(limit)
}

func (c *rankingCache) set(limit int, entries []RankingEntry) {
	if c == nil || c.pages == nil {
		return
	}
	c.pages.Add(limit, entries)
}

func (c *rankingCache) purge() {
	if c == nil || c.pages == nil {
		return
	}
	c.pages.Purge()
}
