package redis

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"photo-quest-service/internal/app"
	"photo-quest-service/internal/domain"
)

// QuestCache stores quest records in Redis and falls back to the wrapped store on a miss.
// Quests are stored as: HSET quest:{questID} prompt {prompt} host {hostID} created {unix}
type QuestCache struct {
	app.QuestStore
	client *redis.Client
	ttl    time.Duration
	sf     singleflight.Group
	rndMu  sync.Mutex
	rnd    *rand.Rand
}

func NewQuestCache(client *redis.Client, store app.QuestStore, ttl time.Duration) *QuestCache {
	return &QuestCache{
		QuestStore: store,
		client:     client,
		ttl:        ttl,
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestCache) GetQuest(ctx context.Context, questID string) (domain.Quest, error) {
	key := questKey(questID)

	if quest, ok := c.fromCache(ctx, key, questID); ok {
		return quest, nil
	}

	result, err, _ := c.sf.Do(questID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if quest, ok := c.fromCache(ctx, key, questID); ok {
			return quest, nil
		}

		quest, err := c.QuestStore.GetQuest(ctx, questID)
		if err != nil {
			return domain.Quest{}, err
		}

		pipe := c.client.Pipeline()
		pipe.HSet(ctx, key,
			"prompt", quest.Prompt,
			"host", quest.HostID,
			"created", quest.CreatedAt.Unix(),
		)
		if ttl := c.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return quest, nil
	})
	if err != nil {
		return domain.Quest{}, err
	}
	return result.(domain.Quest), nil
}

func (c *QuestCache) fromCache(ctx context.Context, key, questID string) (domain.Quest, bool) {
	fields, err := c.client.HGetAll(ctx, key).Result()
	if err != nil || len(fields) == 0 {
		return domain.Quest{}, false
	}
	created, err := strconv.ParseInt(fields["created"], 10, 64)
	if err != nil {
		return domain.Quest{}, false
	}
	return domain.Quest{
		ID:        questID,
		Prompt:    fields["prompt"],
		HostID:    fields["host"],
		CreatedAt: time.Unix(created, 0).UTC(),
	}, true
}

func questKey(questID string) string {
	return "quest:" + questID
}

func (c *QuestCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
