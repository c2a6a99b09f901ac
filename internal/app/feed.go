package app

import (
	"context"
	"sync"

	"photo-quest-service/internal/domain"
)

// EventPublisher receives quest events after they happen.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.QuestEvent) error
}

// Feed fans quest events out to in-process subscribers, keyed by quest.
type Feed struct {
	mu          sync.Mutex
	subscribers map[string]map[chan domain.QuestEvent]struct{}
}

func NewFeed() *Feed {
	return &Feed{subscribers: make(map[string]map[chan domain.QuestEvent]struct{})}
}

// Subscribe returns a channel of events for one quest.
// The caller must invoke the returned cancel function to avoid leaks.
func (f *Feed) Subscribe(questID string) (<-chan domain.QuestEvent, func()) {
	ch := make(chan domain.QuestEvent, 8)

	f.mu.Lock()
	subs, ok := f.subscribers[questID]
	if !ok {
		subs = make(map[chan domain.QuestEvent]struct{})
		f.subscribers[questID] = subs
	}
	subs[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		subs, ok := f.subscribers[questID]
		if !ok {
			return
		}
		if _, ok := subs[ch]; ok {
			delete(subs, ch)
			close(ch)
		}
		if len(subs) == 0 {
			delete(f.subscribers, questID)
		}
	}
	return ch, cancel
}

// Publish never blocks: a full subscriber loses its oldest pending event.
func (f *Feed) Publish(_ context.Context, event domain.QuestEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers[event.QuestID] {
		select {
		case ch <- event:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
	return nil
}

// Subscribers returns the number of live subscriptions for a quest.
func (f *Feed) Subscribers(questID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers[questID])
}

// Publishers publishes to every member, returning the first error seen.
type Publishers []EventPublisher

func (ps Publishers) Publish(ctx context.Context, event domain.QuestEvent) error {
	var first error
	for _, p := range ps {
		if err := p.Publish(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
