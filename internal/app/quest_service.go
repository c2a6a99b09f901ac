package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"photo-quest-service/internal/domain"
)

// ImageStore keeps the raw bytes of a submission.
type ImageStore interface {
	Save(ctx context.Context, questID, userID string, data []byte) error
}

// Dependencies groups what QuestService needs. Images and Events are optional.
type Dependencies struct {
	Quests  QuestStore
	Users   UserStore
	Ledger  RewardLedger
	Scoring *ScoringCoordinator
	Engine  *RewardEngine
	Images  ImageStore
	Events  EventPublisher
	Prompts []string
	Logger  logrus.FieldLogger
}

// QuestService contains the quest use cases.
type QuestService struct {
	quests  QuestStore
	users   UserStore
	ledger  RewardLedger
	scoring *ScoringCoordinator
	engine  *RewardEngine
	images  ImageStore
	events  EventPublisher
	prompts []string
	logger  logrus.FieldLogger
	now     func() time.Time
	newID   func() string
}

func NewQuestService(deps Dependencies) *QuestService {
	prompts := deps.Prompts
	if len(prompts) == 0 {
		prompts = DefaultPrompts
	}
	return &QuestService{
		quests:  deps.Quests,
		users:   deps.Users,
		ledger:  deps.Ledger,
		scoring: deps.Scoring,
		engine:  deps.Engine,
		images:  deps.Images,
		events:  deps.Events,
		prompts: prompts,
		logger:  deps.Logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// CreateQuestRequest is the input of CreateQuest.
type CreateQuestRequest struct {
	Prompt         string
	HostID         string
	InvitedUserIDs []string
	HostImage      []byte
	HostTimeTaken  float64
}

// CreateQuestResult reports the new quest and the host's own score.
type CreateQuestResult struct {
	QuestID   string         `json:"questId"`
	Score     int            `json:"score"`
	TimeTaken float64        `json:"timetaken"`
	Outcome   domain.Outcome `json:"outcome"`
}

// CreateQuest scores the host's photo, stores the quest with one unscored row
// per participant, then records the host's score like any other submission.
// A quest without invitees therefore resolves immediately.
//
// Once the quest row is stored, the result carries its QuestID even when the
// host's score could not be recorded, so the caller can still reference it.
func (s *QuestService) CreateQuest(ctx context.Context, req CreateQuestRequest) (CreateQuestResult, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" || req.HostID == "" || len(req.HostImage) == 0 {
		return CreateQuestResult{}, fmt.Errorf("%w: prompt, hostId and image are required", domain.ErrMissingField)
	}

	invited := dedupeInvited(req.HostID, req.InvitedUserIDs)
	for _, userID := range append([]string{req.HostID}, invited...) {
		if _, err := s.users.GetUser(ctx, userID); err != nil {
			return CreateQuestResult{}, fmt.Errorf("user %s: %w", userID, err)
		}
	}

	score, err := s.scoring.Score(ctx, req.HostImage, prompt)
	if err != nil {
		return CreateQuestResult{}, err
	}

	quest := domain.Quest{
		ID:        s.newID(),
		Prompt:    prompt,
		HostID:    req.HostID,
		CreatedAt: s.now().UTC().Truncate(time.Second),
	}
	participants := make([]domain.Participant, 0, len(invited)+1)
	for _, userID := range invited {
		participants = append(participants, domain.Participant{QuestID: quest.ID, UserID: userID})
	}
	participants = append(participants, domain.Participant{QuestID: quest.ID, UserID: req.HostID})

	if err := s.quests.CreateQuest(ctx, quest, participants); err != nil {
		return CreateQuestResult{}, fmt.Errorf("create quest: %w", err)
	}
	log := s.logger.WithFields(logrus.Fields{"quest_id": quest.ID, "host_id": quest.HostID})
	log.WithField("participants", len(participants)).Info("quest created")
	s.publish(ctx, domain.QuestEvent{Type: domain.EventQuestCreated, QuestID: quest.ID, UserID: quest.HostID})

	result := CreateQuestResult{QuestID: quest.ID, Score: score, TimeTaken: req.HostTimeTaken}
	outcome, err := s.record(ctx, quest.ID, req.HostID, score, req.HostTimeTaken, req.HostImage)
	if err != nil {
		log.WithError(err).Error("quest stored but host score not recorded")
		return result, fmt.Errorf("quest %s: %w", quest.ID, err)
	}
	result.Outcome = outcome
	return result, nil
}

// Submission is one participant's photo for a quest.
type Submission struct {
	QuestID   string
	UserID    string
	Image     []byte
	TimeTaken float64
}

// SubmissionResult always carries the submitter's own score.
type SubmissionResult struct {
	QuestID   string         `json:"questId"`
	UserID    string         `json:"userId"`
	Score     int            `json:"score"`
	TimeTaken float64        `json:"timetaken"`
	Outcome   domain.Outcome `json:"outcome"`
}

// SubmitPhoto scores a participant's photo and records it. Scoring runs
// before anything is written, so a bad image or an unavailable scorer leaves
// the participant unscored and free to retry.
func (s *QuestService) SubmitPhoto(ctx context.Context, sub Submission) (SubmissionResult, error) {
	if sub.QuestID == "" || sub.UserID == "" || len(sub.Image) == 0 {
		return SubmissionResult{}, fmt.Errorf("%w: questId, userId and image are required", domain.ErrMissingField)
	}

	quest, err := s.quests.GetQuest(ctx, sub.QuestID)
	if err != nil {
		return SubmissionResult{}, err
	}
	participants, err := s.quests.GetParticipants(ctx, quest.ID)
	if err != nil {
		return SubmissionResult{}, err
	}
	participant, ok := findParticipant(participants, sub.UserID)
	if !ok {
		return SubmissionResult{}, domain.ErrParticipantNotFound
	}
	if participant.Scored() {
		if FullyResolved(participants) {
			s.settle(ctx, quest.ID)
		}
		return SubmissionResult{}, domain.ErrAlreadySubmitted
	}

	score, err := s.scoring.Score(ctx, sub.Image, quest.Prompt)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{"quest_id": quest.ID, "user_id": sub.UserID}).Warn("scoring failed")
		return SubmissionResult{}, err
	}

	outcome, err := s.record(ctx, quest.ID, sub.UserID, score, sub.TimeTaken, sub.Image)
	if err != nil {
		return SubmissionResult{}, err
	}
	return SubmissionResult{
		QuestID:   quest.ID,
		UserID:    sub.UserID,
		Score:     score,
		TimeTaken: sub.TimeTaken,
		Outcome:   outcome,
	}, nil
}

// record hands a computed score to the engine, then does the best-effort
// follow-ups: image persistence and event publication.
func (s *QuestService) record(ctx context.Context, questID, userID string, score int, timeTaken float64, image []byte) (domain.Outcome, error) {
	log := s.logger.WithFields(logrus.Fields{"quest_id": questID, "user_id": userID, "score": score})

	outcome, err := s.engine.OnScoreRecorded(ctx, questID, userID, score, timeTaken)
	if err != nil {
		if !errors.Is(err, domain.ErrResolutionFailed) && !errors.Is(err, domain.ErrRewardGrantFailed) {
			return domain.Outcome{}, err
		}
		// The score is stored; resolution is retried by settle on later reads.
		log.WithError(err).Error("submission recorded without reward")
	}
	log.Info("score recorded")

	if s.images != nil {
		if err := s.images.Save(ctx, questID, userID, image); err != nil {
			log.WithError(err).Warn("failed to store submission image")
		}
	}

	now := s.now()
	s.publish(ctx, domain.QuestEvent{Type: domain.EventScoreRecorded, QuestID: questID, UserID: userID, Score: &score, At: now})
	s.publishOutcome(ctx, questID, outcome, now)
	return outcome, nil
}

// settle re-runs resolution for a fully scored quest whose reward marker is
// missing. It reports whether the marker exists afterwards.
func (s *QuestService) settle(ctx context.Context, questID string) bool {
	rewarded, err := s.ledger.IsRewarded(ctx, questID)
	if err == nil && rewarded {
		return true
	}
	outcome, err := s.engine.Resolve(ctx, questID)
	if err != nil && !errors.Is(err, domain.ErrRewardGrantFailed) {
		s.logger.WithError(err).WithField("quest_id", questID).Warn("quest settlement deferred")
		return false
	}
	if outcome.Marked {
		s.logger.WithFields(logrus.Fields{"quest_id": questID, "winner_id": outcome.WinnerID}).Info("pending quest settled")
	}
	s.publishOutcome(ctx, questID, outcome, s.now())
	return outcome.WinnerID != ""
}

// publishOutcome announces a resolution only from the caller that wrote the
// reward marker, so concurrent resolvers emit one quest_resolved between them.
func (s *QuestService) publishOutcome(ctx context.Context, questID string, outcome domain.Outcome, now time.Time) {
	if !outcome.Marked {
		return
	}
	s.publish(ctx, domain.QuestEvent{Type: domain.EventQuestResolved, QuestID: questID, WinnerID: outcome.WinnerID, At: now})
	if outcome.Rewarded {
		s.publish(ctx, domain.QuestEvent{Type: domain.EventRewardGranted, QuestID: questID, WinnerID: outcome.WinnerID, At: now})
	}
}

// QuestDetails returns the quest with its participants. LeaderID is whoever
// is ahead right now; WinnerID is only set once every participant has scored.
func (s *QuestService) QuestDetails(ctx context.Context, questID string) (domain.QuestDetails, error) {
	quest, err := s.quests.GetQuest(ctx, questID)
	if err != nil {
		return domain.QuestDetails{}, err
	}
	participants, err := s.quests.GetParticipants(ctx, questID)
	if err != nil {
		return domain.QuestDetails{}, err
	}
	rewarded, err := s.ledger.IsRewarded(ctx, questID)
	if err != nil {
		return domain.QuestDetails{}, fmt.Errorf("reward status: %w", err)
	}

	resolved := FullyResolved(participants)
	if resolved && !rewarded {
		rewarded = s.settle(ctx, questID)
	}

	details := domain.QuestDetails{
		Quest:        quest,
		Date:         quest.CreatedAt.Unix(),
		Participants: participants,
		Resolved:     resolved,
		Rewarded:     rewarded,
	}
	if leader, ok := ResolveWinner(participants); ok {
		details.LeaderID = leader
		if details.Resolved {
			details.WinnerID = leader
		}
	}
	return details, nil
}

// PendingQuests lists quests the user still has to submit to.
func (s *QuestService) PendingQuests(ctx context.Context, userID string) ([]domain.Quest, error) {
	return s.questsFor(ctx, userID, false)
}

// CompletedQuests lists quests the user already submitted to.
func (s *QuestService) CompletedQuests(ctx context.Context, userID string) ([]domain.Quest, error) {
	return s.questsFor(ctx, userID, true)
}

func (s *QuestService) questsFor(ctx context.Context, userID string, scored bool) ([]domain.Quest, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userId is required", domain.ErrMissingField)
	}
	quests, err := s.quests.QuestsForUser(ctx, userID, scored)
	if err != nil {
		return nil, err
	}
	if quests == nil {
		quests = []domain.Quest{}
	}
	return quests, nil
}

// Points returns a user's accumulated reward points.
func (s *QuestService) Points(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, fmt.Errorf("%w: userId is required", domain.ErrMissingField)
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.Points, nil
}

// RandomPrompt picks a prompt for a new quest.
func (s *QuestService) RandomPrompt() string {
	return s.prompts[rand.Intn(len(s.prompts))]
}

func (s *QuestService) publish(ctx context.Context, event domain.QuestEvent) {
	if s.events == nil {
		return
	}
	if event.At.IsZero() {
		event.At = s.now()
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{"quest_id": event.QuestID, "event": event.Type}).Warn("failed to publish quest event")
	}
}

// dedupeInvited keeps the first occurrence of each invited id and drops
// blanks and the host, who is always added separately.
func dedupeInvited(hostID string, invited []string) []string {
	seen := map[string]struct{}{hostID: {}}
	out := make([]string, 0, len(invited))
	for _, id := range invited {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func findParticipant(participants []domain.Participant, userID string) (domain.Participant, bool) {
	for _, p := range participants {
		if p.UserID == userID {
			return p, true
		}
	}
	return domain.Participant{}, false
}
