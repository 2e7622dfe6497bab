package srs

import (
	"errors"
	"math"
	"testing"
	"time"
)

var testNow = time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)

func TestApplyRejectsOutOfRangeQuality(t *testing.T) {
	th := DefaultThresholds()
	for _, quality := range []int{-1, 6, 100} {
		if _, err := th.Apply(NewState(testNow), quality, testNow); !errors.Is(err, ErrInvalidQuality) {
			t.Fatalf("quality %d: expected ErrInvalidQuality, got %v", quality, err)
		}
	}
}

func TestApplyNewItemPerfectAnswer(t *testing.T) {
	th := DefaultThresholds()
	got, err := th.Apply(NewState(testNow), 5, testNow)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if got.Repetitions != 1 || got.IntervalDays != 1 {
		t.Fatalf("expected reps=1 interval=1, got %+v", got)
	}
	if got.Status != StatusLearning {
		t.Fatalf("expected learning, got %s", got.Status)
	}
	if got.Ease != 2.6 {
		t.Fatalf("expected ease 2.6, got %v", got.Ease)
	}
	if !got.NextReviewAt.Equal(Day(testNow).AddDate(0, 0, 1)) {
		t.Fatalf("expected next review tomorrow, got %v", got.NextReviewAt)
	}
}

func TestApplySecondSuccessJumpsToSixDays(t *testing.T) {
	th := DefaultThresholds()
	s := State{Status: StatusLearning, Ease: 2.3, IntervalDays: 1, Repetitions: 1}
	got, err := th.Apply(s, 4, testNow)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if got.Repetitions != 2 || got.IntervalDays != 6 {
		t.Fatalf("expected reps=2 interval=6, got %+v", got)
	}
	if got.Status != StatusLearning {
		t.Fatalf("expected learning, got %s", got.Status)
	}
	if math.Abs(got.Ease-2.3) > 1e-9 {
		t.Fatalf("expected ease unchanged at 2.3 for quality 4, got %v", got.Ease)
	}
}

func TestApplyFailureResetsProgress(t *testing.T) {
	th := DefaultThresholds()
	s := State{Status: StatusReview, Ease: 2.5, IntervalDays: 7, Repetitions: 3}
	got, err := th.Apply(s, 0, testNow)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if got.Repetitions != 0 || got.IntervalDays != 1 {
		t.Fatalf("expected reset to reps=0 interval=1, got %+v", got)
	}
	if got.Status != StatusLearning {
		t.Fatalf("expected learning after lapse, got %s", got.Status)
	}
	if got.Ease >= 2.5 || got.Ease < EaseFloor {
		t.Fatalf("expected ease decreased but floored, got %v", got.Ease)
	}
}

func TestApplyFailureAlwaysResets(t *testing.T) {
	th := DefaultThresholds()
	states := []State{
		NewState(testNow),
		{Status: StatusLearning, Ease: 1.3, IntervalDays: 1, Repetitions: 1},
		{Status: StatusReview, Ease: 2.8, IntervalDays: 42, Repetitions: 4},
		{Status: StatusMastered, Ease: 2.6, IntervalDays: 120, Repetitions: 9},
	}
	for _, s := range states {
		for quality := 0; quality < 3; quality++ {
			got, err := th.Apply(s, quality, testNow)
			if err != nil {
				t.Fatalf("apply failed: %v", err)
			}
			if got.Repetitions != 0 || got.IntervalDays != 1 {
				t.Fatalf("quality %d from %+v: expected reps=0 interval=1, got %+v", quality, s, got)
			}
		}
	}
}

func TestApplyEaseNeverDropsBelowFloor(t *testing.T) {
	th := DefaultThresholds()
	s := NewState(testNow)
	// A long hostile sequence must not drive ease under the floor.
	for i := 0; i < 50; i++ {
		var err error
		s, err = th.Apply(s, i%3, testNow)
		if err != nil {
			t.Fatalf("apply failed at step %d: %v", i, err)
		}
		if s.Ease < EaseFloor {
			t.Fatalf("ease %v fell below floor at step %d", s.Ease, i)
		}
	}
}

func TestApplyGrowthUsesRoundedEaseProduct(t *testing.T) {
	th := DefaultThresholds()
	s := State{Status: StatusReview, Ease: 2.5, IntervalDays: 6, Repetitions: 2}
	got, err := th.Apply(s, 5, testNow)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	// Ease rises to 2.6 first, then the interval grows: round(6*2.6)=16.
	if got.IntervalDays != 16 {
		t.Fatalf("expected interval 16, got %+v", got)
	}
	if got.Repetitions != 3 || got.Status != StatusReview {
		t.Fatalf("expected review at reps=3, got %+v", got)
	}
}

func TestApplyCapsInterval(t *testing.T) {
	th := DefaultThresholds()
	s := State{Status: StatusMastered, Ease: 2.5, IntervalDays: 300, Repetitions: 8}
	got, err := th.Apply(s, 5, testNow)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if got.IntervalDays != MaxIntervalDays {
		t.Fatalf("expected interval capped at %d, got %+v", MaxIntervalDays, got)
	}
}

func TestApplyNextReviewDateMatchesInterval(t *testing.T) {
	th := DefaultThresholds()
	s := NewState(testNow)
	for _, quality := range []int{5, 4, 1, 3, 5, 5, 5} {
		var err error
		s, err = th.Apply(s, quality, testNow)
		if err != nil {
			t.Fatalf("apply failed: %v", err)
		}
		want := Day(testNow).AddDate(0, 0, s.IntervalDays)
		if !s.NextReviewAt.Equal(want) {
			t.Fatalf("next review %v does not equal review day + %d days", s.NextReviewAt, s.IntervalDays)
		}
	}
}

func TestStatusForBoundaries(t *testing.T) {
	th := DefaultThresholds()
	cases := []struct {
		reps, interval int
		want           Status
	}{
		{0, 0, StatusNew},
		{0, 1, StatusLearning},
		{1, 1, StatusLearning},
		{2, 6, StatusLearning},
		{3, 7, StatusReview},
		{4, 18, StatusReview},
		{5, 29, StatusReview},
		{5, 30, StatusMastered},
		{9, 365, StatusMastered},
	}
	for _, tc := range cases {
		if got := th.StatusFor(tc.reps, tc.interval); got != tc.want {
			t.Fatalf("StatusFor(%d, %d) = %s, want %s", tc.reps, tc.interval, got, tc.want)
		}
	}
}

func TestStatusForCustomThresholds(t *testing.T) {
	th := Thresholds{ReviewMinReps: 2, MasteredMinReps: 4, MasteredMinIntervalDays: 21}
	if got := th.StatusFor(4, 21); got != StatusMastered {
		t.Fatalf("expected mastered at custom cut, got %s", got)
	}
	if got := th.StatusFor(4, 20); got != StatusReview {
		t.Fatalf("expected review below custom interval cut, got %s", got)
	}
}

func TestNewStateIsImmediatelyEligible(t *testing.T) {
	s := NewState(testNow)
	if s.Status != StatusNew || s.Ease != DefaultEase || s.IntervalDays != 0 || s.Repetitions != 0 {
		t.Fatalf("unexpected baseline state %+v", s)
	}
	if s.NextReviewAt.After(testNow) {
		t.Fatalf("baseline item must be due on creation day, got %v", s.NextReviewAt)
	}
}
