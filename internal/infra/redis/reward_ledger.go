package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"photo-quest-service/internal/domain"
)

// RewardLedger keeps the per-quest reward marker in Redis. SETNX makes the
// first writer win across every instance sharing the Redis database.
// Markers never expire.
type RewardLedger struct {
	client *redis.Client
}

func NewRewardLedger(client *redis.Client) *RewardLedger {
	return &RewardLedger{client: client}
}

func (l *RewardLedger) MarkRewarded(ctx context.Context, questID, userID string) error {
	ok, err := l.client.SetNX(ctx, rewardKey(questID), userID, 0).Result()
	if err != nil {
		return fmt.Errorf("mark rewarded: %w", err)
	}
	if !ok {
		return domain.ErrRewardAlreadyGranted
	}
	return nil
}

func (l *RewardLedger) IsRewarded(ctx context.Context, questID string) (bool, error) {
	n, err := l.client.Exists(ctx, rewardKey(questID)).Result()
	if err != nil {
		return false, fmt.Errorf("reward status: %w", err)
	}
	return n > 0, nil
}

// Winner returns the user the quest's reward went to.
func (l *RewardLedger) Winner(ctx context.Context, questID string) (string, bool, error) {
	userID, err := l.client.Get(ctx, rewardKey(questID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reward winner: %w", err)
	}
	return userID, true, nil
}

func rewardKey(questID string) string {
	return "quest:" + questID + ":rewarded"
}
