package reminders

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mkoval/deckwise/pkg/cache"
	"github.com/mkoval/deckwise/pkg/db"
	"github.com/mkoval/deckwise/pkg/internal/testutil"
	"github.com/mkoval/deckwise/pkg/logger"
	"github.com/mkoval/deckwise/pkg/srs"
)

type fakeSender struct {
	chatIDs []int64
	texts   []string
}

func (f *fakeSender) SendMessage(ctx context.Context, chatID int64, text string) error {
	f.chatIDs = append(f.chatIDs, chatID)
	f.texts = append(f.texts, text)
	return nil
}

func newTestNotifier(t *testing.T, sender *fakeSender) *Notifier {
	t.Helper()
	testutil.SetupTestDB(t)
	logger.SetLogLevel(logger.ERROR)
	return NewNotifier(sender,
		db.NewCardStats(db.DB),
		db.NewQuestionStats(db.DB),
		cache.NewSummaryCache(time.Minute))
}

func seedDueCardForUser(t *testing.T, userID int64, due time.Time) {
	t.Helper()
	deck := db.Deck{Name: "deck", Active: true}
	if err := db.DB.Create(&deck).Error; err != nil {
		t.Fatalf("failed to create deck: %v", err)
	}
	card := db.Card{DeckID: deck.ID, Front: "hola", Back: "hello", Active: true}
	if err := db.DB.Create(&card).Error; err != nil {
		t.Fatalf("failed to create card: %v", err)
	}
	stat := db.CardStatistic{
		UserID:       userID,
		CardID:       card.ID,
		Status:       string(srs.StatusLearning),
		EaseFactor:   2.5,
		IntervalDays: 1,
		Repetitions:  1,
		NextReviewAt: due,
	}
	if err := db.DB.Create(&stat).Error; err != nil {
		t.Fatalf("failed to seed statistic: %v", err)
	}
}

func TestDueSlotBeforeHour(t *testing.T) {
	now := time.Date(2026, 4, 1, 7, 30, 0, 0, time.UTC)
	user := db.UserSettings{UserID: 1, ReminderHour: 8}

	if _, ok := dueSlot(now, user); ok {
		t.Fatalf("expected no slot before the reminder hour")
	}
}

func TestDueSlotAfterHour(t *testing.T) {
	now := time.Date(2026, 4, 1, 8, 30, 0, 0, time.UTC)
	user := db.UserSettings{UserID: 1, ReminderHour: 8}

	slot, ok := dueSlot(now, user)
	if !ok {
		t.Fatalf("expected slot after the reminder hour")
	}
	expected := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	if !slot.Equal(expected) {
		t.Fatalf("expected slot %v, got %v", expected, slot)
	}
}

func TestDueSlotRespectsLastSent(t *testing.T) {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	lastSent := time.Date(2026, 4, 1, 8, 15, 0, 0, time.UTC)
	user := db.UserSettings{UserID: 1, ReminderHour: 8, LastReminderSentAt: &lastSent}

	if _, ok := dueSlot(now, user); ok {
		t.Fatalf("expected no slot after today's reminder went out")
	}
}

func TestDueSlotAppliesTimezoneOffset(t *testing.T) {
	// 08:00 local at UTC+3 is 05:00 UTC.
	now := time.Date(2026, 4, 1, 5, 30, 0, 0, time.UTC)
	user := db.UserSettings{UserID: 1, ReminderHour: 8, TimezoneOffsetHours: 3}

	slot, ok := dueSlot(now, user)
	if !ok {
		t.Fatalf("expected slot in offset timezone")
	}
	expected := time.Date(2026, 4, 1, 5, 0, 0, 0, time.UTC)
	if !slot.Equal(expected) {
		t.Fatalf("expected slot %v, got %v", expected, slot)
	}
}

func TestHandleUserSendsReminder(t *testing.T) {
	sender := &fakeSender{}
	n := newTestNotifier(t, sender)

	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	seedDueCardForUser(t, 42, srs.Day(now).AddDate(0, 0, -1))
	user := db.UserSettings{UserID: 42, ReminderEnabled: true, ReminderHour: 8}
	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to create settings: %v", err)
	}

	n.handleUser(context.Background(), user, now)

	if len(sender.texts) != 1 {
		t.Fatalf("expected 1 reminder, got %d", len(sender.texts))
	}
	if sender.chatIDs[0] != 42 {
		t.Fatalf("expected chat id 42, got %d", sender.chatIDs[0])
	}
	if !strings.Contains(sender.texts[0], "1 cards") {
		t.Fatalf("unexpected reminder text: %q", sender.texts[0])
	}

	var updated db.UserSettings
	if err := db.DB.Where("user_id = ?", 42).First(&updated).Error; err != nil {
		t.Fatalf("failed to reload settings: %v", err)
	}
	if updated.LastReminderSentAt == nil || !updated.LastReminderSentAt.Equal(now) {
		t.Fatalf("expected last_reminder_sent_at %v, got %v", now, updated.LastReminderSentAt)
	}

	// Second tick in the same slot stays silent.
	n.handleUser(context.Background(), updated, now.Add(time.Minute))
	if len(sender.texts) != 1 {
		t.Fatalf("expected no repeat reminder, got %d", len(sender.texts))
	}
}

func TestHandleUserNothingDue(t *testing.T) {
	sender := &fakeSender{}
	n := newTestNotifier(t, sender)

	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	user := db.UserSettings{UserID: 42, ReminderEnabled: true, ReminderHour: 8}
	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to create settings: %v", err)
	}

	n.handleUser(context.Background(), user, now)

	if len(sender.texts) != 0 {
		t.Fatalf("expected no reminder with nothing due, got %d", len(sender.texts))
	}

	// The empty slot is still marked handled so the next minute skips it.
	var updated db.UserSettings
	if err := db.DB.Where("user_id = ?", 42).First(&updated).Error; err != nil {
		t.Fatalf("failed to reload settings: %v", err)
	}
	if updated.LastReminderSentAt == nil {
		t.Fatalf("expected slot marked handled")
	}
}

func TestDueCountsUsesCache(t *testing.T) {
	sender := &fakeSender{}
	n := newTestNotifier(t, sender)

	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	seedDueCardForUser(t, 7, srs.Day(now).AddDate(0, 0, -1))

	first, err := n.dueCounts(context.Background(), 7, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.DueCards != 1 {
		t.Fatalf("expected 1 due card, got %d", first.DueCards)
	}

	// Another due card appears, but the cached snapshot is still served.
	seedDueCardForUser(t, 7, srs.Day(now).AddDate(0, 0, -1))
	second, err := n.dueCounts(context.Background(), 7, now.Add(10*time.Second))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.DueCards != 1 {
		t.Fatalf("expected cached count 1, got %d", second.DueCards)
	}

	n.summaries.Invalidate(7)
	third, err := n.dueCounts(context.Background(), 7, now.Add(20*time.Second))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if third.DueCards != 2 {
		t.Fatalf("expected recount of 2 after invalidation, got %d", third.DueCards)
	}
}

func TestProcessSkipsDisabledUsers(t *testing.T) {
	sender := &fakeSender{}
	n := newTestNotifier(t, sender)

	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	seedDueCardForUser(t, 42, srs.Day(now).AddDate(0, 0, -1))
	user := db.UserSettings{UserID: 42, ReminderEnabled: false, ReminderHour: 8}
	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to create settings: %v", err)
	}

	n.process(context.Background(), now)

	if len(sender.texts) != 0 {
		t.Fatalf("expected disabled user skipped, got %d reminders", len(sender.texts))
	}
}
