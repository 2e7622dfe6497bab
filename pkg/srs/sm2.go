package srs

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Status is derived from (repetitions, interval) by Thresholds.StatusFor and
// is never assigned independently.
type Status string

const (
	StatusNew      Status = "new"
	StatusLearning Status = "learning"
	StatusReview   Status = "review"
	StatusMastered Status = "mastered"
)

const (
	DefaultEase = 2.5
	EaseFloor   = 1.3

	// Cap on computed intervals so a long run of easy answers cannot push
	// the next review past a year out.
	MaxIntervalDays = 365

	MinQuality = 0
	MaxQuality = 5
)

var ErrInvalidQuality = errors.New("quality must be between 0 and 5")

// State is the scheduling state of one item for one user. It carries no
// identity; the stores attach user and item ids around it.
type State struct {
	Status       Status
	Ease         float64
	IntervalDays int
	Repetitions  int
	NextReviewAt time.Time
}

// NewState is the baseline for a freshly initialized item: immediately
// eligible for review.
func NewState(now time.Time) State {
	return State{
		Status:       StatusNew,
		Ease:         DefaultEase,
		IntervalDays: 0,
		Repetitions:  0,
		NextReviewAt: Day(now),
	}
}

// Thresholds holds the repetition/interval cut lines between statuses. The
// REVIEW/MASTERED boundary is calibrated, not fixed, so it lives here rather
// than in constants.
type Thresholds struct {
	ReviewMinReps           int
	MasteredMinReps         int
	MasteredMinIntervalDays int
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		ReviewMinReps:           3,
		MasteredMinReps:         5,
		MasteredMinIntervalDays: 30,
	}
}

// Apply runs one SM-2 update. It is pure: the caller persists the returned
// state and records history. Only out-of-range quality produces an error.
func (t Thresholds) Apply(s State, quality int, now time.Time) (State, error) {
	if quality < MinQuality || quality > MaxQuality {
		return State{}, fmt.Errorf("%w: got %d", ErrInvalidQuality, quality)
	}

	// Ease moves on every answer, success or failure.
	q := float64(quality)
	ease := s.Ease + (0.1 - (5-q)*(0.08+(5-q)*0.02))
	if ease < EaseFloor {
		ease = EaseFloor
	}

	next := s
	next.Ease = ease

	if quality < 3 {
		next.Repetitions = 0
		next.IntervalDays = 1
	} else {
		next.Repetitions = s.Repetitions + 1
		switch next.Repetitions {
		case 1:
			next.IntervalDays = 1
		case 2:
			next.IntervalDays = 6
		default:
			next.IntervalDays = int(math.Round(float64(s.IntervalDays) * ease))
		}
		if next.IntervalDays > MaxIntervalDays {
			next.IntervalDays = MaxIntervalDays
		}
	}

	next.Status = t.StatusFor(next.Repetitions, next.IntervalDays)
	next.NextReviewAt = Day(now).AddDate(0, 0, next.IntervalDays)
	return next, nil
}

// StatusFor derives the item status from its counters.
func (t Thresholds) StatusFor(repetitions, intervalDays int) Status {
	switch {
	case repetitions >= t.MasteredMinReps && intervalDays >= t.MasteredMinIntervalDays:
		return StatusMastered
	case repetitions >= t.ReviewMinReps:
		return StatusReview
	case repetitions == 0 && intervalDays == 0:
		return StatusNew
	default:
		return StatusLearning
	}
}

// Day truncates to UTC midnight. All due-date comparisons happen at day
// granularity.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
