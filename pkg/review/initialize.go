package review

import (
	"context"
	"errors"

	"github.com/mkoval/deckwise/pkg/logger"
	"github.com/mkoval/deckwise/pkg/srs"
)

type InitResult struct {
	InitializedCount   int
	AlreadyExistsCount int

	// ItemIDs lists only the newly created statistics, ascending.
	ItemIDs []uint
}

// InitializeItems seeds baseline statistics for the given items. Items that
// do not belong to the deck are dropped silently and never counted. The
// call is idempotent: rerunning it reports everything as already existing.
func (s *Service) InitializeItems(ctx context.Context, kind string, userID int64, deckID uint, itemIDs []uint) (*InitResult, error) {
	b, err := s.binding(kind)
	if err != nil {
		return nil, err
	}
	if _, err := s.decks.Get(ctx, deckID); err != nil {
		return nil, err
	}

	valid, err := b.content.FilterIDsInDeck(ctx, deckID, dedupe(itemIDs))
	if err != nil {
		return nil, err
	}

	existing, err := b.stats.ExistingItemIDs(ctx, userID, valid)
	if err != nil {
		return nil, err
	}
	existingSet := make(map[uint]struct{}, len(existing))
	for _, id := range existing {
		existingSet[id] = struct{}{}
	}

	now := s.now().UTC()
	result := &InitResult{AlreadyExistsCount: len(existing)}
	for _, id := range valid {
		if _, ok := existingSet[id]; ok {
			continue
		}
		baseline := Statistic{UserID: userID, ItemID: id, State: srs.NewState(now)}
		if createErr := b.stats.Create(ctx, &baseline); createErr != nil {
			// A concurrent initializer beat us to this row; the unique
			// constraint folds the race into the already-exists count.
			if errors.Is(createErr, ErrAlreadyExists) {
				result.AlreadyExistsCount++
				continue
			}
			return nil, createErr
		}
		result.InitializedCount++
		result.ItemIDs = append(result.ItemIDs, id)
	}

	if refreshErr := s.progress.Refresh(ctx, userID, deckID, nil); refreshErr != nil {
		logger.Error("failed to refresh deck progress after initialization",
			"user_id", userID, "deck_id", deckID, "error", refreshErr)
	}

	return result, nil
}

// InitializeDeckForUser is the whole-deck case: every active item in the
// deck is handed to InitializeItems. An empty deck initializes nothing and
// is not an error.
func (s *Service) InitializeDeckForUser(ctx context.Context, kind string, userID int64, deckID uint) (*InitResult, error) {
	b, err := s.binding(kind)
	if err != nil {
		return nil, err
	}
	if _, err := s.decks.Get(ctx, deckID); err != nil {
		return nil, err
	}
	ids, err := b.content.ActiveIDs(ctx, deckID)
	if err != nil {
		return nil, err
	}
	return s.InitializeItems(ctx, kind, userID, deckID, ids)
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
