package events

import (
	"context"
	"sync"

	"github.com/mkoval/deckwise/pkg/logger"
	"github.com/mkoval/deckwise/pkg/srs"
)

// Events decouple side effects (notifications, cache invalidation) from the
// update path: the engine publishes after commit, listeners run
// fire-and-forget and their failures never reach the caller.

type Event interface {
	Name() string
}

type ReviewApplied struct {
	Kind    string
	UserID  int64
	ItemID  uint
	DeckID  uint
	Quality int
	Status  srs.Status
}

func (ReviewApplied) Name() string { return "review.applied" }

type ItemMastered struct {
	Kind   string
	UserID int64
	ItemID uint
	DeckID uint
}

func (ItemMastered) Name() string { return "item.mastered" }

type Listener func(ctx context.Context, event Event)

type Dispatcher struct {
	mu        sync.RWMutex
	listeners []Listener
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

func (d *Dispatcher) Subscribe(l Listener) {
	if l == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, l)
}

// Publish delivers the event to every listener in subscription order. A
// panicking listener is logged and skipped; the publisher never observes it.
func (d *Dispatcher) Publish(ctx context.Context, event Event) {
	d.mu.RLock()
	listeners := make([]Listener, len(d.listeners))
	copy(listeners, d.listeners)
	d.mu.RUnlock()

	for _, l := range listeners {
		deliver(ctx, l, event)
	}
}

func deliver(ctx context.Context, l Listener, event Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("event listener panicked", "event", event.Name(), "panic", r)
		}
	}()
	l(ctx, event)
}
