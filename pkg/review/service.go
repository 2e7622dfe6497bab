package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mkoval/deckwise/pkg/events"
	"github.com/mkoval/deckwise/pkg/logger"
	"github.com/mkoval/deckwise/pkg/srs"
	"gorm.io/gorm"
)

// Service is the scheduling engine facade. It owns no policy beyond wiring:
// the algorithm lives in pkg/srs, persistence behind the store interfaces.
type Service struct {
	g          *gorm.DB
	thresholds srs.Thresholds
	decks      DeckStore
	users      UserStore
	progress   ProgressStore
	sessions   SessionStore
	dispatcher *events.Dispatcher
	kinds      map[string]binding
	now        func() time.Time
}

type binding struct {
	stats   StatStore
	content ContentStore
}

type ServiceConfig struct {
	DB         *gorm.DB
	Thresholds srs.Thresholds
	Decks      DeckStore
	Users      UserStore
	Progress   ProgressStore
	Sessions   SessionStore
	Events     *events.Dispatcher

	// Now overrides the clock in tests; defaults to time.Now.
	Now func() time.Time
}

func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	th := cfg.Thresholds
	if th == (srs.Thresholds{}) {
		th = srs.DefaultThresholds()
	}
	return &Service{
		g:          cfg.DB,
		thresholds: th,
		decks:      cfg.Decks,
		users:      cfg.Users,
		progress:   cfg.Progress,
		sessions:   cfg.Sessions,
		dispatcher: cfg.Events,
		kinds:      make(map[string]binding),
		now:        now,
	}
}

// Register binds a statistics store and its content store under the store's
// kind. Both content types go through here; the engine itself stays generic.
func (s *Service) Register(stats StatStore, content ContentStore) {
	s.kinds[stats.Kind()] = binding{stats: stats, content: content}
}

func (s *Service) Thresholds() srs.Thresholds {
	return s.thresholds
}

func (s *Service) binding(kind string) (binding, error) {
	b, ok := s.kinds[kind]
	if !ok {
		return binding{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return b, nil
}

// SubmitReview applies one review atomically: read state, run the update,
// write it back, append history. Events fire only after the commit.
func (s *Service) SubmitReview(ctx context.Context, kind string, userID int64, itemID uint, quality, timeTakenSeconds int) (*Statistic, *Record, error) {
	b, err := s.binding(kind)
	if err != nil {
		return nil, nil, err
	}
	if quality < srs.MinQuality || quality > srs.MaxQuality {
		return nil, nil, fmt.Errorf("%w: got %d", ErrInvalidQuality, quality)
	}

	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if !exists {
		return nil, nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}

	item, err := b.content.Get(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}

	now := s.now().UTC()
	var (
		stat         Statistic
		rec          Record
		becameMaster bool
	)
	err = s.g.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := b.stats.WithTx(tx)

		current, getErr := store.Get(ctx, userID, itemID)
		if errors.Is(getErr, ErrNotFound) {
			// First review without prior initialization seeds the row lazily.
			baseline := Statistic{UserID: userID, ItemID: itemID, State: srs.NewState(now)}
			if createErr := store.Create(ctx, &baseline); createErr != nil {
				return createErr
			}
			current = &baseline
		} else if getErr != nil {
			return getErr
		}

		prevStatus := current.State.Status
		next, applyErr := s.thresholds.Apply(current.State, quality, now)
		if applyErr != nil {
			return applyErr
		}
		current.State = next
		if saveErr := store.Save(ctx, current); saveErr != nil {
			return saveErr
		}

		rec = Record{
			UserID:           userID,
			ItemID:           itemID,
			Quality:          quality,
			TimeTakenSeconds: timeTakenSeconds,
			ReviewedAt:       now,
		}
		if recErr := store.AppendRecord(ctx, &rec); recErr != nil {
			return recErr
		}

		stat = *current
		becameMaster = prevStatus != srs.StatusMastered && next.Status == srs.StatusMastered
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	// Counter refresh and events are post-commit side effects: the review
	// itself is already durable and must not be rolled back by them.
	studiedAt := now
	if refreshErr := s.progress.Refresh(ctx, userID, item.DeckID, &studiedAt); refreshErr != nil {
		logger.Error("failed to refresh deck progress",
			"user_id", userID, "deck_id", item.DeckID, "error", refreshErr)
	}
	s.publish(ctx, events.ReviewApplied{
		Kind:    kind,
		UserID:  userID,
		ItemID:  itemID,
		DeckID:  item.DeckID,
		Quality: quality,
		Status:  stat.State.Status,
	})
	if becameMaster {
		s.publish(ctx, events.ItemMastered{
			Kind:   kind,
			UserID: userID,
			ItemID: itemID,
			DeckID: item.DeckID,
		})
	}

	return &stat, &rec, nil
}

type ReviewInput struct {
	ItemID           uint
	Quality          int
	TimeTakenSeconds int
}

type ItemResult struct {
	ItemID    uint
	Statistic *Statistic
	Err       error
}

type BulkResult struct {
	SessionID       string
	SuccessfulCount int
	FailedCount     int
	Results         []ItemResult
}

// SubmitReviewsBulk processes each item independently: a bad item is
// reported in its slot and the rest of the batch still lands.
func (s *Service) SubmitReviewsBulk(ctx context.Context, kind string, userID int64, deckID uint, sessionID string, inputs []ReviewInput) (*BulkResult, error) {
	if _, err := s.binding(kind); err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, ErrEmptyBatch
	}
	if _, err := s.decks.Get(ctx, deckID); err != nil {
		return nil, err
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	startedAt := s.now().UTC()
	result := &BulkResult{
		SessionID: sessionID,
		Results:   make([]ItemResult, 0, len(inputs)),
	}
	itemIDs := make([]uint, 0, len(inputs))
	for _, input := range inputs {
		itemIDs = append(itemIDs, input.ItemID)
		stat, _, err := s.SubmitReview(ctx, kind, userID, input.ItemID, input.Quality, input.TimeTakenSeconds)
		if err != nil {
			result.FailedCount++
			result.Results = append(result.Results, ItemResult{ItemID: input.ItemID, Err: err})
			logger.Debug("bulk review item failed",
				"user_id", userID, "item_id", input.ItemID, "error", err)
			continue
		}
		result.SuccessfulCount++
		result.Results = append(result.Results, ItemResult{ItemID: input.ItemID, Statistic: stat})
	}

	session := &SessionRecord{
		SessionID:       sessionID,
		UserID:          userID,
		DeckID:          deckID,
		ItemKind:        kind,
		ItemIDs:         itemIDs,
		SuccessfulCount: result.SuccessfulCount,
		FailedCount:     result.FailedCount,
		StartedAt:       startedAt,
		FinishedAt:      s.now().UTC(),
	}
	if err := s.sessions.Append(ctx, session); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Publish(ctx, event)
}
