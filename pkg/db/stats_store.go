// pkg/db/stats_store.go
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mkoval/deckwise/pkg/review"
	"github.com/mkoval/deckwise/pkg/srs"
	"gorm.io/gorm"
)

// CardStats and QuestionStats are the two adapters behind the engine's
// StatStore interface. They run the same queries against parallel tables;
// the duplication is deliberate, each content type owns its table.

type CardStats struct {
	g *gorm.DB
}

func NewCardStats(g *gorm.DB) *CardStats {
	return &CardStats{g: g}
}

func (s *CardStats) Kind() string {
	return review.KindCard
}

func (s *CardStats) WithTx(tx *gorm.DB) review.StatStore {
	return &CardStats{g: tx}
}

func (s *CardStats) Get(ctx context.Context, userID int64, itemID uint) (*review.Statistic, error) {
	var row CardStatistic
	err := s.g.WithContext(ctx).
		Where("user_id = ? AND card_id = ?", userID, itemID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("card statistic for user %d item %d: %w", userID, itemID, review.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	stat := cardStatisticToReview(row)
	return &stat, nil
}

func (s *CardStats) Create(ctx context.Context, stat *review.Statistic) error {
	row := cardStatisticFromReview(*stat)
	err := s.g.WithContext(ctx).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("card statistic for user %d item %d: %w", stat.UserID, stat.ItemID, review.ErrAlreadyExists)
	}
	return err
}

func (s *CardStats) Save(ctx context.Context, stat *review.Statistic) error {
	res := s.g.WithContext(ctx).
		Model(&CardStatistic{}).
		Where("user_id = ? AND card_id = ?", stat.UserID, stat.ItemID).
		Updates(statisticColumns(stat.State))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("card statistic for user %d item %d: %w", stat.UserID, stat.ItemID, review.ErrNotFound)
	}
	return nil
}

func (s *CardStats) ExistingItemIDs(ctx context.Context, userID int64, itemIDs []uint) ([]uint, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	var ids []uint
	err := s.g.WithContext(ctx).
		Model(&CardStatistic{}).
		Where("user_id = ? AND card_id IN ?", userID, itemIDs).
		Order("card_id ASC").
		Pluck("card_id", &ids).Error
	return ids, err
}

func (s *CardStats) ListDue(ctx context.Context, userID int64, deckID *uint, today time.Time, limit int) ([]review.Statistic, error) {
	tomorrow := srs.Day(today).AddDate(0, 0, 1)
	q := s.g.WithContext(ctx).
		Model(&CardStatistic{}).
		Select("card_statistics.*").
		Joins("JOIN cards ON cards.id = card_statistics.card_id AND cards.active = ?", true).
		Where("card_statistics.user_id = ?", userID).
		Where("card_statistics.status <> ?", string(srs.StatusNew)).
		Where("card_statistics.next_review_at < ?", tomorrow).
		Order("card_statistics.next_review_at ASC, card_statistics.card_id ASC")
	q = scopeCardsByDeck(q, deckID)
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []CardStatistic
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	stats := make([]review.Statistic, 0, len(rows))
	for _, row := range rows {
		stats = append(stats, cardStatisticToReview(row))
	}
	return stats, nil
}

func (s *CardStats) NewItemIDs(ctx context.Context, userID int64, deckID *uint, limit int) ([]uint, error) {
	q := s.g.WithContext(ctx).
		Table("cards").
		Joins("LEFT JOIN card_statistics ON card_statistics.card_id = cards.id AND card_statistics.user_id = ?", userID).
		Where("cards.active = ?", true).
		Where("card_statistics.id IS NULL OR card_statistics.status = ?", string(srs.StatusNew)).
		Order("cards.id ASC")
	q = scopeCardsByDeck(q, deckID)
	if limit > 0 {
		q = q.Limit(limit)
	}
	var ids []uint
	err := q.Pluck("cards.id", &ids).Error
	return ids, err
}

func (s *CardStats) CountByStatus(ctx context.Context, userID int64, deckID *uint) (map[srs.Status]int64, error) {
	q := s.g.WithContext(ctx).
		Model(&CardStatistic{}).
		Select("card_statistics.status AS status, COUNT(*) AS total").
		Joins("JOIN cards ON cards.id = card_statistics.card_id AND cards.active = ?", true).
		Where("card_statistics.user_id = ?", userID).
		Group("card_statistics.status")
	q = scopeCardsByDeck(q, deckID)
	return scanStatusCounts(q)
}

func (s *CardStats) CountTracked(ctx context.Context, userID int64, deckID *uint) (int64, error) {
	q := s.g.WithContext(ctx).
		Model(&CardStatistic{}).
		Joins("JOIN cards ON cards.id = card_statistics.card_id AND cards.active = ?", true).
		Where("card_statistics.user_id = ?", userID)
	q = scopeCardsByDeck(q, deckID)
	var n int64
	err := q.Count(&n).Error
	return n, err
}

func (s *CardStats) CountDue(ctx context.Context, userID int64, deckID *uint, today time.Time) (int64, error) {
	tomorrow := srs.Day(today).AddDate(0, 0, 1)
	q := s.g.WithContext(ctx).
		Model(&CardStatistic{}).
		Joins("JOIN cards ON cards.id = card_statistics.card_id AND cards.active = ?", true).
		Where("card_statistics.user_id = ?", userID).
		Where("card_statistics.status <> ?", string(srs.StatusNew)).
		Where("card_statistics.next_review_at < ?", tomorrow)
	q = scopeCardsByDeck(q, deckID)
	var n int64
	err := q.Count(&n).Error
	return n, err
}

func (s *CardStats) AppendRecord(ctx context.Context, rec *review.Record) error {
	row := CardReview{
		UserID:           rec.UserID,
		CardID:           rec.ItemID,
		Quality:          rec.Quality,
		TimeTakenSeconds: rec.TimeTakenSeconds,
		ReviewedAt:       rec.ReviewedAt,
	}
	return s.g.WithContext(ctx).Create(&row).Error
}

func (s *CardStats) Summary(ctx context.Context, userID int64, deckID *uint, today time.Time) (review.Summary, error) {
	q := s.g.WithContext(ctx).
		Table("card_reviews").
		Select(summarySelect, srs.Day(today)).
		Where("card_reviews.user_id = ?", userID)
	if deckID != nil {
		q = q.Joins("JOIN cards ON cards.id = card_reviews.card_id").
			Where("cards.deck_id = ?", *deckID)
	}
	return scanSummary(q)
}

func (s *CardStats) RecentReviewTimes(ctx context.Context, userID int64, since time.Time) ([]time.Time, error) {
	var times []time.Time
	err := s.g.WithContext(ctx).
		Model(&CardReview{}).
		Where("user_id = ? AND reviewed_at >= ?", userID, since).
		Order("reviewed_at DESC").
		Pluck("reviewed_at", &times).Error
	return times, err
}

type QuestionStats struct {
	g *gorm.DB
}

func NewQuestionStats(g *gorm.DB) *QuestionStats {
	return &QuestionStats{g: g}
}

func (s *QuestionStats) Kind() string {
	return review.KindQuestion
}

func (s *QuestionStats) WithTx(tx *gorm.DB) review.StatStore {
	return &QuestionStats{g: tx}
}

func (s *QuestionStats) Get(ctx context.Context, userID int64, itemID uint) (*review.Statistic, error) {
	var row QuestionStatistic
	err := s.g.WithContext(ctx).
		Where("user_id = ? AND question_id = ?", userID, itemID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("question statistic for user %d item %d: %w", userID, itemID, review.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	stat := questionStatisticToReview(row)
	return &stat, nil
}

func (s *QuestionStats) Create(ctx context.Context, stat *review.Statistic) error {
	row := questionStatisticFromReview(*stat)
	err := s.g.WithContext(ctx).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("question statistic for user %d item %d: %w", stat.UserID, stat.ItemID, review.ErrAlreadyExists)
	}
	return err
}

func (s *QuestionStats) Save(ctx context.Context, stat *review.Statistic) error {
	res := s.g.WithContext(ctx).
		Model(&QuestionStatistic{}).
		Where("user_id = ? AND question_id = ?", stat.UserID, stat.ItemID).
		Updates(statisticColumns(stat.State))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("question statistic for user %d item %d: %w", stat.UserID, stat.ItemID, review.ErrNotFound)
	}
	return nil
}

func (s *QuestionStats) ExistingItemIDs(ctx context.Context, userID int64, itemIDs []uint) ([]uint, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	var ids []uint
	err := s.g.WithContext(ctx).
		Model(&QuestionStatistic{}).
		Where("user_id = ? AND question_id IN ?", userID, itemIDs).
		Order("question_id ASC").
		Pluck("question_id", &ids).Error
	return ids, err
}

func (s *QuestionStats) ListDue(ctx context.Context, userID int64, deckID *uint, today time.Time, limit int) ([]review.Statistic, error) {
	tomorrow := srs.Day(today).AddDate(0, 0, 1)
	q := s.g.WithContext(ctx).
		Model(&QuestionStatistic{}).
		Select("question_statistics.*").
		Joins("JOIN trivia_questions ON trivia_questions.id = question_statistics.question_id AND trivia_questions.active = ?", true).
		Where("question_statistics.user_id = ?", userID).
		Where("question_statistics.status <> ?", string(srs.StatusNew)).
		Where("question_statistics.next_review_at < ?", tomorrow).
		Order("question_statistics.next_review_at ASC, question_statistics.question_id ASC")
	q = scopeQuestionsByDeck(q, deckID)
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []QuestionStatistic
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	stats := make([]review.Statistic, 0, len(rows))
	for _, row := range rows {
		stats = append(stats, questionStatisticToReview(row))
	}
	return stats, nil
}

func (s *QuestionStats) NewItemIDs(ctx context.Context, userID int64, deckID *uint, limit int) ([]uint, error) {
	q := s.g.WithContext(ctx).
		Table("trivia_questions").
		Joins("LEFT JOIN question_statistics ON question_statistics.question_id = trivia_questions.id AND question_statistics.user_id = ?", userID).
		Where("trivia_questions.active = ?", true).
		Where("question_statistics.id IS NULL OR question_statistics.status = ?", string(srs.StatusNew)).
		Order("trivia_questions.id ASC")
	q = scopeQuestionsByDeck(q, deckID)
	if limit > 0 {
		q = q.Limit(limit)
	}
	var ids []uint
	err := q.Pluck("trivia_questions.id", &ids).Error
	return ids, err
}

func (s *QuestionStats) CountByStatus(ctx context.Context, userID int64, deckID *uint) (map[srs.Status]int64, error) {
	q := s.g.WithContext(ctx).
		Model(&QuestionStatistic{}).
		Select("question_statistics.status AS status, COUNT(*) AS total").
		Joins("JOIN trivia_questions ON trivia_questions.id = question_statistics.question_id AND trivia_questions.active = ?", true).
		Where("question_statistics.user_id = ?", userID).
		Group("question_statistics.status")
	q = scopeQuestionsByDeck(q, deckID)
	return scanStatusCounts(q)
}

func (s *QuestionStats) CountTracked(ctx context.Context, userID int64, deckID *uint) (int64, error) {
	q := s.g.WithContext(ctx).
		Model(&QuestionStatistic{}).
		Joins("JOIN trivia_questions ON trivia_questions.id = question_statistics.question_id AND trivia_questions.active = ?", true).
		Where("question_statistics.user_id = ?", userID)
	q = scopeQuestionsByDeck(q, deckID)
	var n int64
	err := q.Count(&n).Error
	return n, err
}

func (s *QuestionStats) CountDue(ctx context.Context, userID int64, deckID *uint, today time.Time) (int64, error) {
	tomorrow := srs.Day(today).AddDate(0, 0, 1)
	q := s.g.WithContext(ctx).
		Model(&QuestionStatistic{}).
		Joins("JOIN trivia_questions ON trivia_questions.id = question_statistics.question_id AND trivia_questions.active = ?", true).
		Where("question_statistics.user_id = ?", userID).
		Where("question_statistics.status <> ?", string(srs.StatusNew)).
		Where("question_statistics.next_review_at < ?", tomorrow)
	q = scopeQuestionsByDeck(q, deckID)
	var n int64
	err := q.Count(&n).Error
	return n, err
}

func (s *QuestionStats) AppendRecord(ctx context.Context, rec *review.Record) error {
	row := QuestionReview{
		UserID:           rec.UserID,
		QuestionID:       rec.ItemID,
		Quality:          rec.Quality,
		TimeTakenSeconds: rec.TimeTakenSeconds,
		ReviewedAt:       rec.ReviewedAt,
	}
	return s.g.WithContext(ctx).Create(&row).Error
}

func (s *QuestionStats) Summary(ctx context.Context, userID int64, deckID *uint, today time.Time) (review.Summary, error) {
	q := s.g.WithContext(ctx).
		Table("question_reviews").
		Select(summarySelect, srs.Day(today)).
		Where("question_reviews.user_id = ?", userID)
	if deckID != nil {
		q = q.Joins("JOIN trivia_questions ON trivia_questions.id = question_reviews.question_id").
			Where("trivia_questions.deck_id = ?", *deckID)
	}
	return scanSummary(q)
}

func (s *QuestionStats) RecentReviewTimes(ctx context.Context, userID int64, since time.Time) ([]time.Time, error) {
	var times []time.Time
	err := s.g.WithContext(ctx).
		Model(&QuestionReview{}).
		Where("user_id = ? AND reviewed_at >= ?", userID, since).
		Order("reviewed_at DESC").
		Pluck("reviewed_at", &times).Error
	return times, err
}

const summarySelect = "COUNT(*) AS total_reviews, " +
	"COALESCE(SUM(CASE WHEN reviewed_at >= ? THEN 1 ELSE 0 END), 0) AS reviews_today, " +
	"COALESCE(SUM(time_taken_seconds), 0) AS total_time_seconds, " +
	"COALESCE(AVG(quality), 0) AS average_quality"

func scanSummary(q *gorm.DB) (review.Summary, error) {
	var row struct {
		TotalReviews     int64
		ReviewsToday     int64
		TotalTimeSeconds int64
		AverageQuality   float64
	}
	if err := q.Scan(&row).Error; err != nil {
		return review.Summary{}, err
	}
	return review.Summary{
		TotalReviews:     row.TotalReviews,
		ReviewsToday:     row.ReviewsToday,
		TotalTimeSeconds: row.TotalTimeSeconds,
		AverageQuality:   row.AverageQuality,
	}, nil
}

func scanStatusCounts(q *gorm.DB) (map[srs.Status]int64, error) {
	var rows []struct {
		Status string
		Total  int64
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[srs.Status]int64, len(rows))
	for _, row := range rows {
		counts[srs.Status(row.Status)] = row.Total
	}
	return counts, nil
}

func scopeCardsByDeck(q *gorm.DB, deckID *uint) *gorm.DB {
	if deckID != nil {
		return q.Where("cards.deck_id = ?", *deckID)
	}
	return q.Joins("JOIN decks ON decks.id = cards.deck_id AND decks.active = ?", true)
}

func scopeQuestionsByDeck(q *gorm.DB, deckID *uint) *gorm.DB {
	if deckID != nil {
		return q.Where("trivia_questions.deck_id = ?", *deckID)
	}
	return q.Joins("JOIN decks ON decks.id = trivia_questions.deck_id AND decks.active = ?", true)
}

func statisticColumns(state srs.State) map[string]any {
	return map[string]any{
		"status":         string(state.Status),
		"ease_factor":    state.Ease,
		"interval_days":  state.IntervalDays,
		"repetitions":    state.Repetitions,
		"next_review_at": state.NextReviewAt,
	}
}

func cardStatisticToReview(row CardStatistic) review.Statistic {
	return review.Statistic{
		UserID: row.UserID,
		ItemID: row.CardID,
		State: srs.State{
			Status:       srs.Status(row.Status),
			Ease:         row.EaseFactor,
			IntervalDays: row.IntervalDays,
			Repetitions:  row.Repetitions,
			NextReviewAt: row.NextReviewAt,
		},
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func cardStatisticFromReview(stat review.Statistic) CardStatistic {
	return CardStatistic{
		UserID:       stat.UserID,
		CardID:       stat.ItemID,
		Status:       string(stat.State.Status),
		EaseFactor:   stat.State.Ease,
		IntervalDays: stat.State.IntervalDays,
		Repetitions:  stat.State.Repetitions,
		NextReviewAt: stat.State.NextReviewAt,
	}
}

func questionStatisticToReview(row QuestionStatistic) review.Statistic {
	return review.Statistic{
		UserID: row.UserID,
		ItemID: row.QuestionID,
		State: srs.State{
			Status:       srs.Status(row.Status),
			Ease:         row.EaseFactor,
			IntervalDays: row.IntervalDays,
			Repetitions:  row.Repetitions,
			NextReviewAt: row.NextReviewAt,
		},
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func questionStatisticFromReview(stat review.Statistic) QuestionStatistic {
	return QuestionStatistic{
		UserID:       stat.UserID,
		QuestionID:   stat.ItemID,
		Status:       string(stat.State.Status),
		EaseFactor:   stat.State.Ease,
		IntervalDays: stat.State.IntervalDays,
		Repetitions:  stat.State.Repetitions,
		NextReviewAt: stat.State.NextReviewAt,
	}
}
