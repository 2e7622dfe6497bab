package testutil

import (
	"testing"

	"github.com/mkoval/deckwise/pkg/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func SetupTestDB(t *testing.T) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	if err := gdb.AutoMigrate(
		&db.User{},
		&db.UserSettings{},
		&db.Deck{},
		&db.Card{},
		&db.TriviaQuestion{},
		&db.CardStatistic{},
		&db.QuestionStatistic{},
		&db.CardReview{},
		&db.QuestionReview{},
		&db.UserDeckProgress{},
		&db.StudySession{},
	); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	db.DB = gdb

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to access underlying DB: %v", err)
	}

	t.Cleanup(func() {
		if err := sqlDB.Close(); err != nil {
			t.Fatalf("failed to close database: %v", err)
		}
		db.DB = nil
	})
}
