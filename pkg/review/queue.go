package review

import (
	"context"
	"fmt"
	"time"

	"github.com/mkoval/deckwise/pkg/srs"
)

// DefaultQueueLimit caps queue builds whose callers pass no limit.
const DefaultQueueLimit = 20

// DeckScope selects either one deck or every active deck.
type DeckScope struct {
	DeckID *uint
}

func ScopeDeck(deckID uint) DeckScope {
	return DeckScope{DeckID: &deckID}
}

func ScopeAllDecks() DeckScope {
	return DeckScope{}
}

type QueueEntry struct {
	Item         Item
	IsNew        bool
	Status       srs.Status
	NextReviewAt time.Time
}

type Queue struct {
	Entries  []QueueEntry
	DueCount int
	NewCount int
}

// BuildQueue selects the next batch of work in three tiers: overdue items
// first (most overdue leading), then items due today, then new items. Due
// items are never displaced by new ones; new items only fill whatever
// budget remains, additionally capped by newCardsLimit. The builder is
// read-only and safe to retry.
func (s *Service) BuildQueue(ctx context.Context, kind string, userID int64, scope DeckScope, limit int, includeNew bool, newCardsLimit int) (*Queue, error) {
	b, err := s.binding(kind)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultQueueLimit
	}
	if err := s.checkScope(ctx, scope); err != nil {
		return nil, err
	}

	today := srs.Day(s.now())
	due, err := b.stats.ListDue(ctx, userID, scope.DeckID, today, 0)
	if err != nil {
		return nil, err
	}

	dueIDs := make([]uint, 0, len(due))
	for _, stat := range due {
		dueIDs = append(dueIDs, stat.ItemID)
	}
	items, err := itemsByID(ctx, b.content, dueIDs)
	if err != nil {
		return nil, err
	}

	queue := &Queue{Entries: make([]QueueEntry, 0, limit)}
	for _, stat := range due {
		if len(queue.Entries) >= limit {
			break
		}
		item, ok := items[stat.ItemID]
		if !ok {
			// Content deleted since the statistic was written; skip the
			// entry rather than failing the whole build.
			continue
		}
		queue.Entries = append(queue.Entries, QueueEntry{
			Item:         item,
			Status:       stat.State.Status,
			NextReviewAt: stat.State.NextReviewAt,
		})
		queue.DueCount++
	}

	if !includeNew || newCardsLimit <= 0 {
		return queue, nil
	}
	budget := limit - len(queue.Entries)
	if budget <= 0 {
		return queue, nil
	}
	if newCardsLimit < budget {
		budget = newCardsLimit
	}

	newIDs, err := b.stats.NewItemIDs(ctx, userID, scope.DeckID, budget)
	if err != nil {
		return nil, err
	}
	newItems, err := itemsByID(ctx, b.content, newIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range newIDs {
		item, ok := newItems[id]
		if !ok {
			continue
		}
		queue.Entries = append(queue.Entries, QueueEntry{
			Item:   item,
			IsNew:  true,
			Status: srs.StatusNew,
		})
		queue.NewCount++
	}

	return queue, nil
}

// checkScope rejects a specific deck that is missing or inactive. The
// all-decks scope never fails; it degrades to an empty queue instead.
func (s *Service) checkScope(ctx context.Context, scope DeckScope) error {
	if scope.DeckID == nil {
		return nil
	}
	deck, err := s.decks.Get(ctx, *scope.DeckID)
	if err != nil {
		return err
	}
	if !deck.Active {
		return fmt.Errorf("deck %d is inactive: %w", deck.ID, ErrNotFound)
	}
	return nil
}

func itemsByID(ctx context.Context, content ContentStore, ids []uint) (map[uint]Item, error) {
	items, err := content.ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]Item, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	return byID, nil
}
