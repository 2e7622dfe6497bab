// pkg/db/content.go
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/mkoval/deckwise/pkg/review"
	"gorm.io/gorm"
)

// CardContent and QuestionContent expose authored content to the engine
// through the narrow ContentStore window. Inactive items are invisible here.

type CardContent struct {
	g *gorm.DB
}

func NewCardContent(g *gorm.DB) *CardContent {
	return &CardContent{g: g}
}

func (c *CardContent) Kind() string {
	return review.KindCard
}

func (c *CardContent) Get(ctx context.Context, itemID uint) (*review.Item, error) {
	var row Card
	err := c.g.WithContext(ctx).
		Where("id = ? AND active = ?", itemID, true).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("card %d: %w", itemID, review.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	item := cardToItem(row)
	return &item, nil
}

func (c *CardContent) ByIDs(ctx context.Context, ids []uint) ([]review.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []Card
	err := c.g.WithContext(ctx).
		Where("id IN ? AND active = ?", ids, true).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	items := make([]review.Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, cardToItem(row))
	}
	return items, nil
}

func (c *CardContent) FilterIDsInDeck(ctx context.Context, deckID uint, ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var kept []uint
	err := c.g.WithContext(ctx).
		Model(&Card{}).
		Where("deck_id = ? AND id IN ? AND active = ?", deckID, ids, true).
		Order("id ASC").
		Pluck("id", &kept).Error
	return kept, err
}

func (c *CardContent) ActiveIDs(ctx context.Context, deckID uint) ([]uint, error) {
	var ids []uint
	err := c.g.WithContext(ctx).
		Model(&Card{}).
		Where("deck_id = ? AND active = ?", deckID, true).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

func (c *CardContent) CountActive(ctx context.Context, deckID *uint) (int64, error) {
	q := c.g.WithContext(ctx).
		Model(&Card{}).
		Where("cards.active = ?", true)
	q = scopeCardsByDeck(q, deckID)
	var n int64
	err := q.Count(&n).Error
	return n, err
}

func cardToItem(row Card) review.Item {
	return review.Item{
		ID:          row.ID,
		DeckID:      row.DeckID,
		Front:       row.Front,
		Back:        row.Back,
		GrammarNote: row.GrammarNote,
		AudioURL:    row.AudioURL,
	}
}

type QuestionContent struct {
	g *gorm.DB
}

func NewQuestionContent(g *gorm.DB) *QuestionContent {
	return &QuestionContent{g: g}
}

func (c *QuestionContent) Kind() string {
	return review.KindQuestion
}

func (c *QuestionContent) Get(ctx context.Context, itemID uint) (*review.Item, error) {
	var row TriviaQuestion
	err := c.g.WithContext(ctx).
		Where("id = ? AND active = ?", itemID, true).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("trivia question %d: %w", itemID, review.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	item := questionToItem(row)
	return &item, nil
}

func (c *QuestionContent) ByIDs(ctx context.Context, ids []uint) ([]review.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []TriviaQuestion
	err := c.g.WithContext(ctx).
		Where("id IN ? AND active = ?", ids, true).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	items := make([]review.Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, questionToItem(row))
	}
	return items, nil
}

func (c *QuestionContent) FilterIDsInDeck(ctx context.Context, deckID uint, ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var kept []uint
	err := c.g.WithContext(ctx).
		Model(&TriviaQuestion{}).
		Where("deck_id = ? AND id IN ? AND active = ?", deckID, ids, true).
		Order("id ASC").
		Pluck("id", &kept).Error
	return kept, err
}

func (c *QuestionContent) ActiveIDs(ctx context.Context, deckID uint) ([]uint, error) {
	var ids []uint
	err := c.g.WithContext(ctx).
		Model(&TriviaQuestion{}).
		Where("deck_id = ? AND active = ?", deckID, true).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

func (c *QuestionContent) CountActive(ctx context.Context, deckID *uint) (int64, error) {
	q := c.g.WithContext(ctx).
		Model(&TriviaQuestion{}).
		Where("trivia_questions.active = ?", true)
	q = scopeQuestionsByDeck(q, deckID)
	var n int64
	err := q.Count(&n).Error
	return n, err
}

func questionToItem(row TriviaQuestion) review.Item {
	return review.Item{
		ID:     row.ID,
		DeckID: row.DeckID,
		Front:  row.Prompt,
		Back:   row.Answer,
	}
}
