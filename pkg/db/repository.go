// pkg/db/repository.go
package db

import (
	"strconv"

	"github.com/mkoval/deckwise/pkg/config"
	"github.com/mkoval/deckwise/pkg/logger"
	"github.com/mkoval/deckwise/pkg/srs"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Export DB variable
var DB *gorm.DB

func allModels() []any {
	return []any{
		&User{},
		&UserSettings{},
		&Deck{},
		&Card{},
		&TriviaQuestion{},
		&CardStatistic{},
		&QuestionStatistic{},
		&CardReview{},
		&QuestionReview{},
		&UserDeckProgress{},
		&StudySession{},
	}
}

func InitDB(cfg config.DatabaseConfig) error {
	var err error
	dsn := "host=" + cfg.Host +
		" user=" + cfg.User +
		" password=" + cfg.Password +
		" dbname=" + cfg.DBName +
		" port=" + strconv.Itoa(cfg.Port) +
		" sslmode=" + cfg.SSLMode
	gormLogger, gormErr := newGormLogger(config.AppConfig.Logging.GormLevel)
	if gormErr != nil {
		logger.Error("invalid gorm log level", "value", config.AppConfig.Logging.GormLevel, "error", gormErr)
	}
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return err
	}
	if err := DB.AutoMigrate(allModels()...); err != nil {
		logger.Error("failed to auto-migrate database", "error", err)
		return err
	}
	if err := backfillStatisticStatuses(DB); err != nil {
		logger.Error("failed to backfill statistic statuses", "error", err)
		return err
	}
	if err := backfillNextReviewDates(DB); err != nil {
		logger.Error("failed to backfill next review dates", "error", err)
		return err
	}
	return nil
}

// backfillStatisticStatuses recomputes the status column for rows written
// before status derivation existed. Status is a function of
// (repetitions, interval), so the fix is a pair of bulk updates per table.
func backfillStatisticStatuses(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	th := srs.DefaultThresholds()
	for _, table := range []string{"card_statistics", "question_statistics"} {
		if !db.Migrator().HasTable(table) {
			continue
		}
		if err := db.Exec(
			"UPDATE "+table+" SET status = ? WHERE status = '' AND repetitions >= ? AND interval_days >= ?",
			string(srs.StatusMastered), th.MasteredMinReps, th.MasteredMinIntervalDays,
		).Error; err != nil {
			return err
		}
		if err := db.Exec(
			"UPDATE "+table+" SET status = ? WHERE status = '' AND repetitions >= ?",
			string(srs.StatusReview), th.ReviewMinReps,
		).Error; err != nil {
			return err
		}
		if err := db.Exec(
			"UPDATE "+table+" SET status = ? WHERE status = '' AND repetitions = 0 AND interval_days = 0",
			string(srs.StatusNew),
		).Error; err != nil {
			return err
		}
		if err := db.Exec(
			"UPDATE "+table+" SET status = ? WHERE status = ''",
			string(srs.StatusLearning),
		).Error; err != nil {
			return err
		}
	}
	return nil
}

// backfillNextReviewDates makes rows with a zero next_review_at immediately
// due instead of due at the epoch sentinel.
func backfillNextReviewDates(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	for _, table := range []string{"card_statistics", "question_statistics"} {
		if !db.Migrator().HasTable(table) {
			continue
		}
		if err := db.Exec(
			"UPDATE " + table + " SET next_review_at = created_at WHERE next_review_at IS NULL",
		).Error; err != nil {
			return err
		}
	}
	return nil
}
