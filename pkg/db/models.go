// pkg/db/models.go
package db

import (
	"time"

	"gorm.io/datatypes"
)

type User struct {
	ID        int64 `gorm:"primaryKey"`
	CreatedAt time.Time
}

type UserSettings struct {
	ID                  uint  `gorm:"primaryKey"`
	UserID              int64 `gorm:"uniqueIndex"`
	QueueLimit          int   `gorm:"not null;default:20"`
	NewCardsLimit       int   `gorm:"not null;default:5"`
	ReminderEnabled     bool  `gorm:"not null;default:false"`
	ReminderHour        int   `gorm:"not null;default:8"`
	TimezoneOffsetHours int   `gorm:"not null;default:0"`
	LastReminderSentAt  *time.Time
}

type Deck struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"not null"`
	Description string
	Active      bool `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Card struct {
	ID          uint   `gorm:"primaryKey"`
	DeckID      uint   `gorm:"not null;index"`
	Front       string `gorm:"not null"`
	Back        string `gorm:"not null"`
	GrammarNote string
	AudioURL    string
	Active      bool `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type TriviaQuestion struct {
	ID          uint   `gorm:"primaryKey"`
	DeckID      uint   `gorm:"not null;index"`
	Prompt      string `gorm:"not null"`
	Answer      string `gorm:"not null"`
	Choices     datatypes.JSON
	Explanation string
	Active      bool `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CardStatistic is the per-(user, card) scheduling state. One row per pair,
// enforced by the composite unique index; concurrent initialization relies
// on that constraint rather than locking.
type CardStatistic struct {
	ID           uint      `gorm:"primaryKey"`
	UserID       int64     `gorm:"not null;uniqueIndex:idx_user_card_stat;index:idx_card_stat_due"`
	CardID       uint      `gorm:"not null;uniqueIndex:idx_user_card_stat"`
	Status       string    `gorm:"not null;default:new"`
	EaseFactor   float64   `gorm:"not null;default:2.5"`
	IntervalDays int       `gorm:"not null;default:0"`
	Repetitions  int       `gorm:"not null;default:0"`
	NextReviewAt time.Time `gorm:"index:idx_card_stat_due"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type QuestionStatistic struct {
	ID           uint      `gorm:"primaryKey"`
	UserID       int64     `gorm:"not null;uniqueIndex:idx_user_question_stat;index:idx_question_stat_due"`
	QuestionID   uint      `gorm:"not null;uniqueIndex:idx_user_question_stat"`
	Status       string    `gorm:"not null;default:new"`
	EaseFactor   float64   `gorm:"not null;default:2.5"`
	IntervalDays int       `gorm:"not null;default:0"`
	Repetitions  int       `gorm:"not null;default:0"`
	NextReviewAt time.Time `gorm:"index:idx_question_stat_due"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CardReview rows are append-only history; scheduling state never reads them.
type CardReview struct {
	ID               uint  `gorm:"primaryKey"`
	UserID           int64 `gorm:"not null;index:idx_card_review_user_day"`
	CardID           uint  `gorm:"not null;index"`
	Quality          int   `gorm:"not null"`
	TimeTakenSeconds int   `gorm:"not null;default:0"`
	ReviewedAt       time.Time `gorm:"not null;index:idx_card_review_user_day"`
}

type QuestionReview struct {
	ID               uint  `gorm:"primaryKey"`
	UserID           int64 `gorm:"not null;index:idx_question_review_user_day"`
	QuestionID       uint  `gorm:"not null;index"`
	Quality          int   `gorm:"not null"`
	TimeTakenSeconds int   `gorm:"not null;default:0"`
	ReviewedAt       time.Time `gorm:"not null;index:idx_question_review_user_day"`
}

type UserDeckProgress struct {
	ID            uint  `gorm:"primaryKey"`
	UserID        int64 `gorm:"not null;uniqueIndex:idx_user_deck_progress"`
	DeckID        uint  `gorm:"not null;uniqueIndex:idx_user_deck_progress"`
	ItemsTotal    int   `gorm:"not null;default:0"`
	ItemsStarted  int   `gorm:"not null;default:0"`
	ItemsMastered int   `gorm:"not null;default:0"`
	LastStudiedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// StudySession records one bulk submission batch.
type StudySession struct {
	ID              uint           `gorm:"primaryKey"`
	SessionID       string         `gorm:"size:36;uniqueIndex;not null"`
	UserID          int64          `gorm:"not null;index"`
	DeckID          uint           `gorm:"not null"`
	ItemKind        string         `gorm:"not null"`
	ItemIDs         datatypes.JSON `gorm:"not null"`
	SuccessfulCount int            `gorm:"not null;default:0"`
	FailedCount     int            `gorm:"not null;default:0"`
	StartedAt       time.Time      `gorm:"not null"`
	FinishedAt      time.Time      `gorm:"not null"`
	CreatedAt       time.Time
}
