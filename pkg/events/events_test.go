package events

import (
	"context"
	"testing"

	"github.com/mkoval/deckwise/pkg/srs"
)

func TestDispatcherDeliversInOrder(t *testing.T) {
	d := NewDispatcher()
	var order []string
	d.Subscribe(func(ctx context.Context, event Event) {
		order = append(order, "first:"+event.Name())
	})
	d.Subscribe(func(ctx context.Context, event Event) {
		order = append(order, "second:"+event.Name())
	})

	d.Publish(context.Background(), ReviewApplied{UserID: 1, Status: srs.StatusLearning})

	if len(order) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(order))
	}
	if order[0] != "first:review.applied" || order[1] != "second:review.applied" {
		t.Fatalf("unexpected delivery order: %v", order)
	}
}

func TestDispatcherRecoversFromPanic(t *testing.T) {
	d := NewDispatcher()
	delivered := false
	d.Subscribe(func(ctx context.Context, event Event) {
		panic("listener exploded")
	})
	d.Subscribe(func(ctx context.Context, event Event) {
		delivered = true
	})

	d.Publish(context.Background(), ItemMastered{UserID: 1})

	if !delivered {
		t.Fatalf("expected delivery to continue past panicking listener")
	}
}

func TestDispatcherIgnoresNilListener(t *testing.T) {
	d := NewDispatcher()
	d.Subscribe(nil)
	d.Publish(context.Background(), ReviewApplied{})
}

func TestEventNames(t *testing.T) {
	if (ReviewApplied{}).Name() != "review.applied" {
		t.Fatalf("unexpected name for ReviewApplied")
	}
	if (ItemMastered{}).Name() != "item.mastered" {
		t.Fatalf("unexpected name for ItemMastered")
	}
}
