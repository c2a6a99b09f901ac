package app_test

import (
	"context"
	"errors"
	"testing"

	"photo-quest-service/internal/app"
	"photo-quest-service/internal/domain"
)

func TestFeedDeliversPerQuest(t *testing.T) {
	feed := app.NewFeed()
	ctx := context.Background()
	q1, cancel1 := feed.Subscribe("q1")
	q2, cancel2 := feed.Subscribe("q2")
	defer cancel2()

	_ = feed.Publish(ctx, domain.QuestEvent{Type: domain.EventScoreRecorded, QuestID: "q1", UserID: "a"})

	select {
	case ev := <-q1:
		if ev.UserID != "a" {
			t.Fatalf("unexpected event %+v", ev)
		}
	default:
		t.Fatalf("q1 subscriber got nothing")
	}
	select {
	case ev := <-q2:
		t.Fatalf("q2 subscriber got a foreign event %+v", ev)
	default:
	}

	cancel1()
	if _, ok := <-q1; ok {
		t.Fatalf("channel should be closed after cancel")
	}
	if feed.Subscribers("q1") != 0 {
		t.Fatalf("expected q1 entry to be removed")
	}
	cancel1()
}

func TestFeedDropsOldestWhenFull(t *testing.T) {
	feed := app.NewFeed()
	events, cancel := feed.Subscribe("q1")
	defer cancel()

	for i := 0; i < 20; i++ {
		score := i
		_ = feed.Publish(context.Background(), domain.QuestEvent{Type: domain.EventScoreRecorded, QuestID: "q1", Score: &score})
	}
	first := <-events
	if *first.Score == 0 {
		t.Fatalf("expected stale events to be dropped")
	}
	var last domain.QuestEvent
	for len(events) > 0 {
		last = <-events
	}
	if *last.Score != 19 {
		t.Fatalf("expected newest event to survive, got %d", *last.Score)
	}
}

type failingPublisher struct{ err error }

func (f failingPublisher) Publish(context.Context, domain.QuestEvent) error { return f.err }

func TestPublishersReportsFirstError(t *testing.T) {
	feed := app.NewFeed()
	events, cancel := feed.Subscribe("q1")
	defer cancel()
	boom := errors.New("broker down")

	pubs := app.Publishers{failingPublisher{err: boom}, feed}
	if err := pubs.Publish(context.Background(), domain.QuestEvent{QuestID: "q1"}); !errors.Is(err, boom) {
		t.Fatalf("expected broker error, got %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("later publishers must still run")
	}
}
