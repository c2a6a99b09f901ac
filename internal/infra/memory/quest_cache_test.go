package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"photo-quest-service/internal/domain"
)

func TestQuestCacheCaches(t *testing.T) {
	store := &countingStore{Store: NewStore()}
	seedQuest(t, store.Store, "quest-1", "host")
	cache := NewQuestCache(store, time.Minute)

	if _, err := cache.GetQuest(context.Background(), "quest-1"); err != nil {
		t.Fatalf("get quest: %v", err)
	}
	if store.calls != 1 {
		t.Fatalf("expected store once, got %d", store.calls)
	}

	quest, err := cache.GetQuest(context.Background(), "quest-1")
	if err != nil {
		t.Fatalf("get quest 2: %v", err)
	}
	if store.calls != 1 {
		t.Fatalf("expected cache hit, store calls %d", store.calls)
	}
	if quest.Prompt != "a photo of a dog" {
		t.Fatalf("unexpected cached quest %+v", quest)
	}
}

func TestQuestCacheDoesNotCacheMisses(t *testing.T) {
	store := &countingStore{Store: NewStore()}
	cache := NewQuestCache(store, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := cache.GetQuest(context.Background(), "missing"); !errors.Is(err, domain.ErrQuestNotFound) {
			t.Fatalf("expected quest not found, got %v", err)
		}
	}
	if store.calls != 2 {
		t.Fatalf("expected every miss to reach the store, got %d", store.calls)
	}
}

func TestQuestCacheExpires(t *testing.T) {
	store := &countingStore{Store: NewStore()}
	seedQuest(t, store.Store, "quest-1", "host")
	cache := NewQuestCache(store, time.Minute)
	now := time.Now()
	cache.clock = func() time.Time { return now }

	_, _ = cache.GetQuest(context.Background(), "quest-1")
	now = now.Add(2 * time.Minute)
	_, _ = cache.GetQuest(context.Background(), "quest-1")
	if store.calls != 2 {
		t.Fatalf("expected reload after expiry, got %d calls", store.calls)
	}
}

func TestQuestCacheEvictsExpiredEntries(t *testing.T) {
	store := &countingStore{Store: NewStore()}
	seedQuest(t, store.Store, "quest-1", "host")
	seedQuest(t, store.Store, "quest-2", "host")
	cache := NewQuestCache(store, time.Minute)
	now := time.Now()
	cache.clock = func() time.Time { return now }

	if _, err := cache.GetQuest(context.Background(), "quest-1"); err != nil {
		t.Fatalf("get quest-1: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := cache.GetQuest(context.Background(), "quest-2"); err != nil {
		t.Fatalf("get quest-2: %v", err)
	}
	if got := len(cache.cache); got != 1 {
		t.Fatalf("expected the expired quest-1 entry to be dropped, cache holds %d", got)
	}
}

type countingStore struct {
	*Store
	calls int
}

func (s *countingStore) GetQuest(ctx context.Context, questID string) (domain.Quest, error) {
	s.calls++
	return s.Store.GetQuest(ctx, questID)
}
