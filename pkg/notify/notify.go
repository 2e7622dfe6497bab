package notify

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/mkoval/deckwise/pkg/events"
	"github.com/mkoval/deckwise/pkg/logger"
)

// Sender is the outbound message boundary. Production uses Telegram; tests
// substitute a recording fake.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

type TelegramSender struct {
	b *bot.Bot
}

func NewTelegramSender(b *bot.Bot) *TelegramSender {
	return &TelegramSender{b: b}
}

func (s *TelegramSender) SendMessage(ctx context.Context, chatID int64, text string) error {
	_, err := s.b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	return err
}

// MasteryListener congratulates the user when an item reaches mastered.
// Send failures are logged and dropped; notification is fire-and-forget.
func MasteryListener(sender Sender) events.Listener {
	return func(ctx context.Context, event events.Event) {
		mastered, ok := event.(events.ItemMastered)
		if !ok {
			return
		}
		text := masteryMessage(mastered.Kind)
		if err := sender.SendMessage(ctx, mastered.UserID, text); err != nil {
			logger.Error("failed to send mastery notification",
				"user_id", mastered.UserID, "item_id", mastered.ItemID, "error", err)
		}
	}
}

func masteryMessage(kind string) string {
	switch kind {
	case "question":
		return "You mastered a trivia question. It will come back in a month or more."
	default:
		return "You mastered a card. It will come back in a month or more."
	}
}

func DueReminderText(dueCards, dueQuestions int64) string {
	switch {
	case dueCards > 0 && dueQuestions > 0:
		return fmt.Sprintf("You have %d cards and %d trivia questions waiting for review.", dueCards, dueQuestions)
	case dueQuestions > 0:
		return fmt.Sprintf("You have %d trivia questions waiting for review.", dueQuestions)
	default:
		return fmt.Sprintf("You have %d cards waiting for review.", dueCards)
	}
}
