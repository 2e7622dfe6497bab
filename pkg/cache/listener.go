package cache

import (
	"context"

	"github.com/mkoval/deckwise/pkg/events"
)

// InvalidationListener evicts a user's cached summary whenever one of their
// reviews is applied. Eviction is best-effort by design.
func InvalidationListener(c *SummaryCache) events.Listener {
	return func(_ context.Context, event events.Event) {
		switch e := event.(type) {
		case events.ReviewApplied:
			c.Invalidate(e.UserID)
		case events.ItemMastered:
			c.Invalidate(e.UserID)
		}
	}
}
