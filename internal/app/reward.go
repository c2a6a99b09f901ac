package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"photo-quest-service/internal/domain"
)

// RewardPoints is what a quest winner receives.
const RewardPoints = 1

// QuestStore persists quests and their participant rows.
type QuestStore interface {
	// CreateQuest stores the quest and all of its participant rows atomically.
	CreateQuest(ctx context.Context, quest domain.Quest, participants []domain.Participant) error
	GetQuest(ctx context.Context, questID string) (domain.Quest, error)
	// GetParticipants returns the rows in creation order.
	GetParticipants(ctx context.Context, questID string) ([]domain.Participant, error)
	// SetParticipantScore records a score once. It fails with
	// domain.ErrParticipantNotFound or domain.ErrAlreadySubmitted.
	SetParticipantScore(ctx context.Context, questID, userID string, score int, timeTaken float64) error
	// QuestsForUser lists quests the user takes part in, filtered on whether
	// the user's own row is scored.
	QuestsForUser(ctx context.Context, userID string, scored bool) ([]domain.Quest, error)
}

// UserStore persists users and their points.
type UserStore interface {
	CreateUser(ctx context.Context, user domain.User) error
	GetUser(ctx context.Context, userID string) (domain.User, error)
	IncrementPoints(ctx context.Context, userID string, delta int64) (int64, error)
}

// RewardLedger holds the per-quest "reward granted" marker.
type RewardLedger interface {
	// MarkRewarded succeeds for the first caller per quest and returns
	// domain.ErrRewardAlreadyGranted for everyone after.
	MarkRewarded(ctx context.Context, questID, userID string) error
	IsRewarded(ctx context.Context, questID string) (bool, error)
}

// RetryPolicy bounds the retries of the store calls made after a score is written.
type RetryPolicy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsed      time.Duration
}

// DefaultRetryPolicy is used when a zero policy is supplied.
var DefaultRetryPolicy = RetryPolicy{
	InitialInterval: 100 * time.Millisecond,
	MaxInterval:     2 * time.Second,
	MaxElapsed:      15 * time.Second,
}

// RewardEngine records scores and pays out a quest's winner at most once.
type RewardEngine struct {
	quests QuestStore
	users  UserStore
	ledger RewardLedger
	retry  RetryPolicy
	logger logrus.FieldLogger
}

func NewRewardEngine(quests QuestStore, users UserStore, ledger RewardLedger, retry RetryPolicy, logger logrus.FieldLogger) *RewardEngine {
	if retry == (RetryPolicy{}) {
		retry = DefaultRetryPolicy
	}
	return &RewardEngine{
		quests: quests,
		users:  users,
		ledger: ledger,
		retry:  retry,
		logger: logger,
	}
}

// OnScoreRecorded persists a participant's score and, if that completes the
// quest, grants the winner their reward.
//
// A failed score write aborts before resolution. Once the score is written it
// stays written: resolution errors wrap domain.ErrResolutionFailed or
// domain.ErrRewardGrantFailed and come back alongside the observed outcome.
func (e *RewardEngine) OnScoreRecorded(ctx context.Context, questID, userID string, score int, timeTaken float64) (domain.Outcome, error) {
	if err := e.quests.SetParticipantScore(ctx, questID, userID, score, timeTaken); err != nil {
		return domain.Outcome{}, fmt.Errorf("record score: %w", err)
	}
	return e.Resolve(ctx, questID)
}

// Resolve re-evaluates a quest and, when every participant has scored and no
// reward marker exists yet, marks and pays the winner. Calling it again on a
// settled quest is a no-op, so it doubles as the recovery path for resolvers
// that gave up before placing the marker.
func (e *RewardEngine) Resolve(ctx context.Context, questID string) (domain.Outcome, error) {
	log := e.logger.WithField("quest_id", questID)

	var participants []domain.Participant
	err := e.retryOp(ctx, log, "reload participants", func() error {
		rows, err := e.quests.GetParticipants(ctx, questID)
		if errors.Is(err, domain.ErrQuestNotFound) {
			return backoff.Permanent(err)
		}
		participants = rows
		return err
	})
	if errors.Is(err, domain.ErrQuestNotFound) {
		return domain.Outcome{}, err
	}
	if err != nil {
		log.WithError(err).WithField("alert", true).Error("score recorded but quest not evaluated")
		return domain.Outcome{}, fmt.Errorf("%w: quest %s: reload participants: %v", domain.ErrResolutionFailed, questID, err)
	}
	if !FullyResolved(participants) {
		return domain.Outcome{}, nil
	}

	winnerID, ok := ResolveWinner(participants)
	if !ok {
		return domain.Outcome{Resolved: true}, nil
	}
	outcome := domain.Outcome{Resolved: true, WinnerID: winnerID}
	log = log.WithField("winner_id", winnerID)

	alreadyGranted := false
	err = e.retryOp(ctx, log, "mark rewarded", func() error {
		err := e.ledger.MarkRewarded(ctx, questID, winnerID)
		if errors.Is(err, domain.ErrRewardAlreadyGranted) {
			alreadyGranted = true
			return nil
		}
		return err
	})
	if err != nil {
		log.WithError(err).WithField("alert", true).Error("quest resolved but reward marker not written")
		return outcome, fmt.Errorf("%w: quest %s: mark rewarded: %v", domain.ErrResolutionFailed, questID, err)
	}
	if alreadyGranted {
		log.Debug("reward already granted, skipping")
		return outcome, nil
	}
	outcome.Marked = true

	if err := e.grant(ctx, winnerID); err != nil {
		log.WithError(err).WithField("alert", true).Error("reward marked but points not granted")
		return outcome, fmt.Errorf("%w: quest %s winner %s: %v", domain.ErrRewardGrantFailed, questID, winnerID, err)
	}
	outcome.Rewarded = true
	log.Info("quest resolved, reward granted")
	return outcome, nil
}

func (e *RewardEngine) grant(ctx context.Context, userID string) error {
	return e.retryOp(ctx, e.logger.WithField("user_id", userID), "increment points", func() error {
		_, err := e.users.IncrementPoints(ctx, userID, RewardPoints)
		if errors.Is(err, domain.ErrUserNotFound) {
			return backoff.Permanent(err)
		}
		return err
	})
}

// retryOp runs op with exponential backoff bounded by the engine's policy.
func (e *RewardEngine) retryOp(ctx context.Context, log logrus.FieldLogger, what string, op func() error) error {
	b := backoff.NewExponentialBackOff()
	if e.retry.InitialInterval > 0 {
		b.InitialInterval = e.retry.InitialInterval
	}
	if e.retry.MaxInterval > 0 {
		b.MaxInterval = e.retry.MaxInterval
	}
	b.MaxElapsedTime = e.retry.MaxElapsed

	notify := func(err error, wait time.Duration) {
		log.WithError(err).Warnf("%s failed, retrying in %s", what, wait)
	}
	return backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify)
}
