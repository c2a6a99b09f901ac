package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"photo-quest-service/internal/domain"
	"photo-quest-service/internal/infra/memory"
)

func TestQuestCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	store := &countingStore{Store: memory.NewStore()}
	created := time.Unix(1_700_000_000, 0).UTC()
	if err := store.CreateQuest(context.Background(), domain.Quest{ID: "quest-1", Prompt: "a photo of a dog", HostID: "host", CreatedAt: created},
		[]domain.Participant{{UserID: "host"}}); err != nil {
		t.Fatalf("seed quest: %v", err)
	}
	cache := NewQuestCache(client, store, time.Minute)

	if _, err := cache.GetQuest(context.Background(), "quest-1"); err != nil {
		t.Fatalf("get quest: %v", err)
	}
	if store.calls != 1 {
		t.Fatalf("expected store called once, got %d", store.calls)
	}
	if !mr.Exists("quest:quest-1") {
		t.Fatalf("expected redis key to be set")
	}

	// Second call should hit cache, store not incremented.
	quest, err := cache.GetQuest(context.Background(), "quest-1")
	if err != nil {
		t.Fatalf("get quest 2: %v", err)
	}
	if store.calls != 1 {
		t.Fatalf("expected cache hit, store calls=%d", store.calls)
	}
	if quest.Prompt != "a photo of a dog" || quest.HostID != "host" || !quest.CreatedAt.Equal(created) {
		t.Fatalf("unexpected cached quest %+v", quest)
	}

	// Participant reads are never cached.
	if _, err := cache.GetParticipants(context.Background(), "quest-1"); err != nil {
		t.Fatalf("get participants: %v", err)
	}
}

type countingStore struct {
	*memory.Store
	calls int
}

func (s *countingStore) GetQuest(ctx context.Context, questID string) (domain.Quest, error) {
	s.calls++
	return s.Store.GetQuest(ctx, questID)
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
