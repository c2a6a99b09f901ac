package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"photo-quest-service/internal/app"
	"photo-quest-service/internal/domain"
)

// QuestCache fronts a QuestStore with a TTL cache for GetQuest. Quests never
// change after creation, so only expiry bounds staleness of deletions.
type QuestCache struct {
	app.QuestStore
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group
	rnd   *rand.Rand
	rndMu sync.Mutex

	mu        sync.RWMutex
	cache     map[string]cachedQuest
	nextSweep time.Time
}

type cachedQuest struct {
	quest     domain.Quest
	expiresAt time.Time
}

func NewQuestCache(store app.QuestStore, ttl time.Duration) *QuestCache {
	return &QuestCache{
		QuestStore: store,
		ttl:        ttl,
		clock:      time.Now,
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:      make(map[string]cachedQuest),
	}
}

func (c *QuestCache) GetQuest(ctx context.Context, questID string) (domain.Quest, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[questID]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.quest, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(questID, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[questID]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.quest, nil
		}
		c.mu.RUnlock()

		quest, err := c.QuestStore.GetQuest(ctx, questID)
		if err != nil {
			return domain.Quest{}, err
		}

		c.mu.Lock()
		c.cache[questID] = cachedQuest{
			quest:     quest,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.sweepLocked(now)
		c.mu.Unlock()
		return quest, nil
	})
	if err != nil {
		return domain.Quest{}, err
	}
	return result.(domain.Quest), nil
}

// sweepLocked drops expired entries at most once per ttl. c.mu must be held.
func (c *QuestCache) sweepLocked(now time.Time) {
	if now.Before(c.nextSweep) {
		return
	}
	for id, entry := range c.cache {
		if !entry.expiresAt.After(now) {
			delete(c.cache, id)
		}
	}
	c.nextSweep = now.Add(c.ttl)
}

func (c *QuestCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
