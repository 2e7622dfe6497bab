package review

import (
	"context"
	"time"

	"github.com/mkoval/deckwise/pkg/srs"
)

// streakLookbackDays bounds how much history the streak scan pulls; a
// streak longer than a year is reported as a year.
const streakLookbackDays = 366

type StatusCounts struct {
	New      int64
	Learning int64
	Review   int64
	Mastered int64
}

type KindStats struct {
	Statuses              StatusCounts
	DueToday              int64
	ReviewsToday          int64
	TotalReviews          int64
	TotalStudyTimeSeconds int64
	AverageQuality        float64
}

// Stats is the dashboard summary. Cards and Questions are computed by the
// same aggregation independently; Combined sums them.
type Stats struct {
	Cards             KindStats
	Questions         KindStats
	Combined          KindStats
	CurrentStreakDays int
}

// GetStudyStats aggregates scheduling state and review history for the
// user, optionally restricted to one deck.
func (s *Service) GetStudyStats(ctx context.Context, userID int64, scope DeckScope) (*Stats, error) {
	if err := s.checkScope(ctx, scope); err != nil {
		return nil, err
	}

	today := srs.Day(s.now())
	stats := &Stats{}
	for kind, b := range s.kinds {
		kindStats, err := s.kindStats(ctx, b, userID, scope, today)
		if err != nil {
			return nil, err
		}
		switch kind {
		case KindCard:
			stats.Cards = kindStats
		case KindQuestion:
			stats.Questions = kindStats
		}
	}
	stats.Combined = combine(stats.Cards, stats.Questions)

	streak, err := s.currentStreak(ctx, userID, today)
	if err != nil {
		return nil, err
	}
	stats.CurrentStreakDays = streak

	return stats, nil
}

func (s *Service) kindStats(ctx context.Context, b binding, userID int64, scope DeckScope, today time.Time) (KindStats, error) {
	counts, err := b.stats.CountByStatus(ctx, userID, scope.DeckID)
	if err != nil {
		return KindStats{}, err
	}
	tracked, err := b.stats.CountTracked(ctx, userID, scope.DeckID)
	if err != nil {
		return KindStats{}, err
	}
	totalItems, err := b.content.CountActive(ctx, scope.DeckID)
	if err != nil {
		return KindStats{}, err
	}
	due, err := b.stats.CountDue(ctx, userID, scope.DeckID, today)
	if err != nil {
		return KindStats{}, err
	}
	summary, err := b.stats.Summary(ctx, userID, scope.DeckID, today)
	if err != nil {
		return KindStats{}, err
	}

	// Items count as new until their first answered review: both untracked
	// items and initialized rows still in the new status.
	started := tracked - counts[srs.StatusNew]
	newCount := totalItems - started
	if newCount < 0 {
		newCount = 0
	}

	return KindStats{
		Statuses: StatusCounts{
			New:      newCount,
			Learning: counts[srs.StatusLearning],
			Review:   counts[srs.StatusReview],
			Mastered: counts[srs.StatusMastered],
		},
		DueToday:              due,
		ReviewsToday:          summary.ReviewsToday,
		TotalReviews:          summary.TotalReviews,
		TotalStudyTimeSeconds: summary.TotalTimeSeconds,
		AverageQuality:        summary.AverageQuality,
	}, nil
}

func combine(a, b KindStats) KindStats {
	out := KindStats{
		Statuses: StatusCounts{
			New:      a.Statuses.New + b.Statuses.New,
			Learning: a.Statuses.Learning + b.Statuses.Learning,
			Review:   a.Statuses.Review + b.Statuses.Review,
			Mastered: a.Statuses.Mastered + b.Statuses.Mastered,
		},
		DueToday:              a.DueToday + b.DueToday,
		ReviewsToday:          a.ReviewsToday + b.ReviewsToday,
		TotalReviews:          a.TotalReviews + b.TotalReviews,
		TotalStudyTimeSeconds: a.TotalStudyTimeSeconds + b.TotalStudyTimeSeconds,
	}
	if out.TotalReviews > 0 {
		weighted := a.AverageQuality*float64(a.TotalReviews) + b.AverageQuality*float64(b.TotalReviews)
		out.AverageQuality = weighted / float64(out.TotalReviews)
	}
	return out
}

// currentStreak counts consecutive calendar days with at least one review,
// ending today or yesterday. A gap of one day (review done yesterday, not
// yet today) keeps the streak alive.
func (s *Service) currentStreak(ctx context.Context, userID int64, today time.Time) (int, error) {
	since := today.AddDate(0, 0, -streakLookbackDays)
	days := make(map[time.Time]struct{})
	for _, b := range s.kinds {
		times, err := b.stats.RecentReviewTimes(ctx, userID, since)
		if err != nil {
			return 0, err
		}
		for _, t := range times {
			days[srs.Day(t)] = struct{}{}
		}
	}
	if len(days) == 0 {
		return 0, nil
	}

	cursor := today
	if _, ok := days[cursor]; !ok {
		cursor = today.AddDate(0, 0, -1)
		if _, ok := days[cursor]; !ok {
			return 0, nil
		}
	}

	streak := 0
	for {
		if _, ok := days[cursor]; !ok {
			break
		}
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return streak, nil
}
