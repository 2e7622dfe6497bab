package reminders

import (
	"context"
	"time"

	"github.com/mkoval/deckwise/pkg/cache"
	"github.com/mkoval/deckwise/pkg/db"
	"github.com/mkoval/deckwise/pkg/logger"
	"github.com/mkoval/deckwise/pkg/notify"
	"github.com/mkoval/deckwise/pkg/review"
	"github.com/mkoval/deckwise/pkg/srs"
)

// Notifier drives the daily due-item reminders. One message per user per
// day, at the user's configured local hour, and only when something is
// actually waiting.
type Notifier struct {
	sender    notify.Sender
	cards     review.StatStore
	questions review.StatStore
	summaries *cache.SummaryCache
	now       func() time.Time
}

func NewNotifier(sender notify.Sender, cards, questions review.StatStore, summaries *cache.SummaryCache) *Notifier {
	return &Notifier{
		sender:    sender,
		cards:     cards,
		questions: questions,
		summaries: summaries,
		now:       time.Now,
	}
}

func (n *Notifier) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case tick := <-ticker.C:
			n.process(ctx, tick.UTC())
		}
	}
}

func (n *Notifier) process(ctx context.Context, now time.Time) {
	n.summaries.Sweep(now)

	var users []db.UserSettings
	if err := db.DB.WithContext(ctx).Where("reminder_enabled = ?", true).Find(&users).Error; err != nil {
		logger.Error("failed to fetch users for reminders", "error", err)
		return
	}

	for _, user := range users {
		n.handleUser(ctx, user, now)
	}
}

func (n *Notifier) handleUser(ctx context.Context, user db.UserSettings, now time.Time) {
	slot, ok := dueSlot(now, user)
	if !ok {
		return
	}

	summary, err := n.dueCounts(ctx, user.UserID, now)
	if err != nil {
		logger.Error("failed to count due items for reminder", "user_id", user.UserID, "error", err)
		return
	}
	if summary.DueCards == 0 && summary.DueQuestions == 0 {
		// Nothing to remind about; mark the slot as handled so the next
		// minute does not re-check this user.
		n.markSent(ctx, user, slot)
		return
	}

	text := notify.DueReminderText(summary.DueCards, summary.DueQuestions)
	if err := n.sender.SendMessage(ctx, user.UserID, text); err != nil {
		logger.Error("failed to send due reminder", "user_id", user.UserID, "error", err)
		return
	}
	n.markSent(ctx, user, now)
}

func (n *Notifier) markSent(ctx context.Context, user db.UserSettings, at time.Time) {
	user.LastReminderSentAt = &at
	if err := db.DB.WithContext(ctx).Save(&user).Error; err != nil {
		logger.Error("failed to update reminder state", "user_id", user.UserID, "error", err)
	}
}

func (n *Notifier) dueCounts(ctx context.Context, userID int64, now time.Time) (cache.DueSummary, error) {
	if summary, ok := n.summaries.Get(userID, now); ok {
		return summary, nil
	}

	today := srs.Day(now)
	dueCards, err := n.cards.CountDue(ctx, userID, nil, today)
	if err != nil {
		return cache.DueSummary{}, err
	}
	dueQuestions, err := n.questions.CountDue(ctx, userID, nil, today)
	if err != nil {
		return cache.DueSummary{}, err
	}

	summary := cache.DueSummary{
		DueCards:     dueCards,
		DueQuestions: dueQuestions,
		ComputedAt:   now,
	}
	n.summaries.Put(userID, summary, now)
	return summary, nil
}

// dueSlot reports the user's reminder slot for today if it has passed and
// nothing has been sent since. The hour is local; TimezoneOffsetHours maps
// it back to UTC.
func dueSlot(now time.Time, user db.UserSettings) (time.Time, bool) {
	offset := time.Duration(user.TimezoneOffsetHours) * time.Hour
	localNow := now.Add(offset)
	year, month, day := localNow.Date()

	localSlot := time.Date(year, month, day, user.ReminderHour, 0, 0, 0, time.UTC)
	slotUTC := localSlot.Add(-offset)
	if now.Before(slotUTC) {
		return time.Time{}, false
	}
	if user.LastReminderSentAt != nil && !user.LastReminderSentAt.Before(slotUTC) {
		return time.Time{}, false
	}
	return slotUTC, true
}
