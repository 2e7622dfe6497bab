package review

import (
	"context"
	"time"

	"github.com/mkoval/deckwise/pkg/srs"
	"gorm.io/gorm"
)

// The engine is generic over the reviewable item kind: vocabulary cards and
// trivia questions share the statistics shape and the update algorithm, and
// differ only in their store adapters.
const (
	KindCard     = "card"
	KindQuestion = "question"
)

// Item is the read-only presentation payload attached to queue entries.
// For trivia questions Front is the prompt and Back the answer.
type Item struct {
	ID          uint
	DeckID      uint
	Front       string
	Back        string
	GrammarNote string
	AudioURL    string
}

// Statistic is the storage-agnostic view of one (user, item) scheduling row.
type Statistic struct {
	UserID    int64
	ItemID    uint
	State     srs.State
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Record is one append-only review-history row.
type Record struct {
	UserID           int64
	ItemID           uint
	Quality          int
	TimeTakenSeconds int
	ReviewedAt       time.Time
}

// Summary aggregates review history for one item kind.
type Summary struct {
	TotalReviews     int64
	ReviewsToday     int64
	TotalTimeSeconds int64
	AverageQuality   float64
}

type DeckInfo struct {
	ID     uint
	Name   string
	Active bool
}

// StatStore is the durable per-(user, item) scheduling state for one item
// kind. deckID == nil means "all active decks". today is a UTC midnight.
type StatStore interface {
	Kind() string

	// WithTx rebinds the store to a transaction so a submission's
	// read-update-write-append runs atomically.
	WithTx(tx *gorm.DB) StatStore

	Get(ctx context.Context, userID int64, itemID uint) (*Statistic, error)
	Create(ctx context.Context, stat *Statistic) error
	Save(ctx context.Context, stat *Statistic) error
	ExistingItemIDs(ctx context.Context, userID int64, itemIDs []uint) ([]uint, error)

	// ListDue returns non-new statistics due strictly before tomorrow,
	// most overdue first, ties broken by item id.
	ListDue(ctx context.Context, userID int64, deckID *uint, today time.Time, limit int) ([]Statistic, error)

	// NewItemIDs returns active items the user has never answered: no
	// statistics row yet, or a row still in the new status.
	NewItemIDs(ctx context.Context, userID int64, deckID *uint, limit int) ([]uint, error)

	CountByStatus(ctx context.Context, userID int64, deckID *uint) (map[srs.Status]int64, error)
	CountTracked(ctx context.Context, userID int64, deckID *uint) (int64, error)
	CountDue(ctx context.Context, userID int64, deckID *uint, today time.Time) (int64, error)

	AppendRecord(ctx context.Context, rec *Record) error
	Summary(ctx context.Context, userID int64, deckID *uint, today time.Time) (Summary, error)

	// RecentReviewTimes returns review timestamps since the given moment,
	// newest first. The aggregator folds them into calendar-day streaks.
	RecentReviewTimes(ctx context.Context, userID int64, since time.Time) ([]time.Time, error)
}

// ContentStore is the engine's narrow window onto authored content.
type ContentStore interface {
	Kind() string
	Get(ctx context.Context, itemID uint) (*Item, error)
	ByIDs(ctx context.Context, ids []uint) ([]Item, error)
	FilterIDsInDeck(ctx context.Context, deckID uint, ids []uint) ([]uint, error)
	ActiveIDs(ctx context.Context, deckID uint) ([]uint, error)
	CountActive(ctx context.Context, deckID *uint) (int64, error)
}

type DeckStore interface {
	Get(ctx context.Context, deckID uint) (*DeckInfo, error)
}

type UserStore interface {
	Exists(ctx context.Context, userID int64) (bool, error)
}

// ProgressStore maintains the per-(user, deck) aggregate counters refreshed
// as a side effect of initialization and review.
type ProgressStore interface {
	Refresh(ctx context.Context, userID int64, deckID uint, studiedAt *time.Time) error
}

// SessionStore persists one row per bulk submission batch.
type SessionStore interface {
	Append(ctx context.Context, session *SessionRecord) error
}

type SessionRecord struct {
	SessionID       string
	UserID          int64
	DeckID          uint
	ItemKind        string
	ItemIDs         []uint
	SuccessfulCount int
	FailedCount     int
	StartedAt       time.Time
	FinishedAt      time.Time
}
