// cmd/deckwise/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/go-telegram/bot"
	"github.com/mkoval/deckwise/pkg/cache"
	"github.com/mkoval/deckwise/pkg/config"
	"github.com/mkoval/deckwise/pkg/db"
	"github.com/mkoval/deckwise/pkg/events"
	"github.com/mkoval/deckwise/pkg/logger"
	"github.com/mkoval/deckwise/pkg/notify"
	"github.com/mkoval/deckwise/pkg/reminders"
	"github.com/mkoval/deckwise/pkg/review"
	"github.com/mkoval/deckwise/pkg/srs"
)

func main() {
	if err := config.LoadConfig("config.json"); err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := logger.Configure(logger.Options{
		Level:  config.AppConfig.Logging.Level,
		Format: config.AppConfig.Logging.Format,
		File:   config.AppConfig.Logging.File,
	}); err != nil {
		logger.Error("failed to configure logger", "error", err)
	}

	if err := db.InitDB(config.AppConfig.Database); err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	b, err := bot.New(config.AppConfig.Telegram.Token)
	if err != nil {
		logger.Error("failed to create bot", "error", err)
		os.Exit(1)
	}
	sender := notify.NewTelegramSender(b)

	summaries := cache.NewSummaryCache(5 * time.Minute)
	dispatcher := events.NewDispatcher()
	dispatcher.Subscribe(cache.InvalidationListener(summaries))
	dispatcher.Subscribe(notify.MasteryListener(sender))

	study := config.AppConfig.Study
	svc := review.NewService(review.ServiceConfig{
		DB: db.DB,
		Thresholds: srs.Thresholds{
			ReviewMinReps:           study.ReviewMinReps,
			MasteredMinReps:         study.MasteredMinReps,
			MasteredMinIntervalDays: study.MasteredMinIntervalDays,
		},
		Decks:    db.NewDecks(db.DB),
		Users:    db.NewUsers(db.DB),
		Progress: db.NewProgress(db.DB),
		Sessions: db.NewSessions(db.DB),
		Events:   dispatcher,
	})
	cardStats := db.NewCardStats(db.DB)
	questionStats := db.NewQuestionStats(db.DB)
	svc.Register(cardStats, db.NewCardContent(db.DB))
	svc.Register(questionStats, db.NewQuestionContent(db.DB))

	notifier := reminders.NewNotifier(sender, cardStats, questionStats, summaries)
	go notifier.Run(ctx)

	logger.Info("Starting deckwise...")
	b.Start(ctx)
}
