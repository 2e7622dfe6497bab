// pkg/db/stores.go
package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mkoval/deckwise/pkg/review"
	"github.com/mkoval/deckwise/pkg/srs"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Decks struct {
	g *gorm.DB
}

func NewDecks(g *gorm.DB) *Decks {
	return &Decks{g: g}
}

func (d *Decks) Get(ctx context.Context, deckID uint) (*review.DeckInfo, error) {
	var row Deck
	err := d.g.WithContext(ctx).First(&row, deckID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("deck %d: %w", deckID, review.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &review.DeckInfo{ID: row.ID, Name: row.Name, Active: row.Active}, nil
}

type Users struct {
	g *gorm.DB
}

func NewUsers(g *gorm.DB) *Users {
	return &Users{g: g}
}

func (u *Users) Exists(ctx context.Context, userID int64) (bool, error) {
	var n int64
	err := u.g.WithContext(ctx).
		Model(&User{}).
		Where("id = ?", userID).
		Count(&n).Error
	return n > 0, err
}

// Progress keeps the per-(user, deck) counters in step with the statistics
// tables. Counters are recomputed from scratch on every refresh; they are
// cheap aggregates and recomputing avoids drift.
type Progress struct {
	g *gorm.DB
}

func NewProgress(g *gorm.DB) *Progress {
	return &Progress{g: g}
}

func (p *Progress) Refresh(ctx context.Context, userID int64, deckID uint, studiedAt *time.Time) error {
	total, started, mastered, err := p.tally(ctx, userID, deckID)
	if err != nil {
		return err
	}

	var row UserDeckProgress
	err = p.g.WithContext(ctx).
		Where("user_id = ? AND deck_id = ?", userID, deckID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = UserDeckProgress{UserID: userID, DeckID: deckID}
		if createErr := p.g.WithContext(ctx).Create(&row).Error; createErr != nil {
			// A concurrent refresh may have created the row first; the
			// unique index turns that into a duplicate we can reload.
			if !errors.Is(createErr, gorm.ErrDuplicatedKey) {
				return createErr
			}
			if reloadErr := p.g.WithContext(ctx).
				Where("user_id = ? AND deck_id = ?", userID, deckID).
				First(&row).Error; reloadErr != nil {
				return reloadErr
			}
		}
	} else if err != nil {
		return err
	}

	updates := map[string]any{
		"items_total":    total,
		"items_started":  started,
		"items_mastered": mastered,
	}
	if studiedAt != nil {
		updates["last_studied_at"] = *studiedAt
	}
	return p.g.WithContext(ctx).
		Model(&UserDeckProgress{}).
		Where("user_id = ? AND deck_id = ?", userID, deckID).
		Updates(updates).Error
}

func (p *Progress) tally(ctx context.Context, userID int64, deckID uint) (total, started, mastered int64, err error) {
	type pair struct {
		itemTable string
		statTable string
		itemCol   string
	}
	for _, t := range []pair{
		{"cards", "card_statistics", "card_id"},
		{"trivia_questions", "question_statistics", "question_id"},
	} {
		var n int64
		if err = p.g.WithContext(ctx).
			Table(t.itemTable).
			Where("deck_id = ? AND active = ?", deckID, true).
			Count(&n).Error; err != nil {
			return
		}
		total += n

		base := p.g.WithContext(ctx).
			Table(t.statTable).
			Joins(fmt.Sprintf("JOIN %s ON %s.id = %s.%s", t.itemTable, t.itemTable, t.statTable, t.itemCol)).
			Where(t.itemTable+".deck_id = ? AND "+t.itemTable+".active = ?", deckID, true).
			Where(t.statTable+".user_id = ?", userID)

		if err = base.Session(&gorm.Session{}).
			Where(t.statTable+".status <> ?", string(srs.StatusNew)).
			Count(&n).Error; err != nil {
			return
		}
		started += n

		if err = base.Session(&gorm.Session{}).
			Where(t.statTable+".status = ?", string(srs.StatusMastered)).
			Count(&n).Error; err != nil {
			return
		}
		mastered += n
	}
	return
}

type Sessions struct {
	g *gorm.DB
}

func NewSessions(g *gorm.DB) *Sessions {
	return &Sessions{g: g}
}

func (s *Sessions) Append(ctx context.Context, session *review.SessionRecord) error {
	ids, err := json.Marshal(session.ItemIDs)
	if err != nil {
		return err
	}
	row := StudySession{
		SessionID:       session.SessionID,
		UserID:          session.UserID,
		DeckID:          session.DeckID,
		ItemKind:        session.ItemKind,
		ItemIDs:         datatypes.JSON(ids),
		SuccessfulCount: session.SuccessfulCount,
		FailedCount:     session.FailedCount,
		StartedAt:       session.StartedAt,
		FinishedAt:      session.FinishedAt,
	}
	return s.g.WithContext(ctx).Create(&row).Error
}
