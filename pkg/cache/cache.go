package cache

import (
	"sync"
	"time"
)

// DueSummary is the cached per-user snapshot the reminder loop works from,
// so a minute tick does not re-aggregate for users whose state is unchanged.
type DueSummary struct {
	DueCards     int64
	DueQuestions int64
	ComputedAt   time.Time
}

// SummaryCache is a TTL cache constructed once at startup and passed by
// reference; there is deliberately no package-level instance.
type SummaryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[int64]entry
}

type entry struct {
	summary   DueSummary
	expiresAt time.Time
}

func NewSummaryCache(ttl time.Duration) *SummaryCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &SummaryCache{
		ttl:     ttl,
		entries: make(map[int64]entry),
	}
}

func (c *SummaryCache) Get(userID int64, now time.Time) (DueSummary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[userID]
	if !ok {
		return DueSummary{}, false
	}
	if now.After(e.expiresAt) {
		delete(c.entries, userID)
		return DueSummary{}, false
	}
	return e.summary, true
}

func (c *SummaryCache) Put(userID int64, summary DueSummary, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = entry{summary: summary, expiresAt: now.Add(c.ttl)}
}

// Invalidate drops one user's snapshot. Wired as an event listener so every
// applied review evicts the stale summary.
func (c *SummaryCache) Invalidate(userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
}

// Sweep evicts everything expired; the reminder loop calls it on its tick.
func (c *SummaryCache) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for userID, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, userID)
			removed++
		}
	}
	return removed
}

func (c *SummaryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
