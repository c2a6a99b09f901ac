package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"photo-quest-service/internal/domain"
)

// Store is an in-memory implementation of app.QuestStore, app.UserStore and
// app.RewardLedger. All state sits behind one mutex, which makes quest
// creation and the reward marker atomic.
type Store struct {
	mu           sync.RWMutex
	clock        func() time.Time
	quests       map[string]domain.Quest
	participants map[string][]domain.Participant
	users        map[string]domain.User
	rewards      map[string]domain.Reward
}

func NewStore() *Store {
	return &Store{
		clock:        time.Now,
		quests:       make(map[string]domain.Quest),
		participants: make(map[string][]domain.Participant),
		users:        make(map[string]domain.User),
		rewards:      make(map[string]domain.Reward),
	}
}

func (s *Store) CreateQuest(_ context.Context, quest domain.Quest, participants []domain.Participant) error {
	rows := make([]domain.Participant, len(participants))
	for i, p := range participants {
		p.QuestID = quest.ID
		rows[i] = copyParticipant(p)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.quests[quest.ID] = quest
	s.participants[quest.ID] = rows
	return nil
}

func (s *Store) GetQuest(_ context.Context, questID string) (domain.Quest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quest, ok := s.quests[questID]
	if !ok {
		return domain.Quest{}, domain.ErrQuestNotFound
	}
	return quest, nil
}

func (s *Store) GetParticipants(_ context.Context, questID string) ([]domain.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.quests[questID]; !ok {
		return nil, domain.ErrQuestNotFound
	}
	rows := s.participants[questID]
	out := make([]domain.Participant, len(rows))
	for i, p := range rows {
		out[i] = copyParticipant(p)
	}
	return out, nil
}

func (s *Store) SetParticipantScore(_ context.Context, questID, userID string, score int, timeTaken float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.participants[questID]
	for i := range rows {
		if rows[i].UserID != userID {
			continue
		}
		if rows[i].Score != nil {
			return domain.ErrAlreadySubmitted
		}
		sc, tt := score, timeTaken
		rows[i].Score = &sc
		rows[i].TimeTaken = &tt
		return nil
	}
	return domain.ErrParticipantNotFound
}

// QuestsForUser returns newest quests first.
func (s *Store) QuestsForUser(_ context.Context, userID string, scored bool) ([]domain.Quest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Quest
	for questID, rows := range s.participants {
		for _, p := range rows {
			if p.UserID == userID && p.Scored() == scored {
				out = append(out, s.quests[questID])
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; ok {
		return domain.ErrUserExists
	}
	s.users[user.ID] = user
	return nil
}

func (s *Store) GetUser(_ context.Context, userID string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) IncrementPoints(_ context.Context, userID string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return 0, domain.ErrUserNotFound
	}
	user.Points += delta
	s.users[userID] = user
	return user.Points, nil
}

func (s *Store) MarkRewarded(_ context.Context, questID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rewards[questID]; ok {
		return domain.ErrRewardAlreadyGranted
	}
	s.rewards[questID] = domain.Reward{QuestID: questID, UserID: userID, GrantedAt: s.clock()}
	return nil
}

func (s *Store) IsRewarded(_ context.Context, questID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rewards[questID]
	return ok, nil
}

// Reward returns the ledger entry for a quest, if any.
func (s *Store) Reward(questID string) (domain.Reward, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rewards[questID]
	return r, ok
}

// copyParticipant detaches the pointer fields so callers cannot mutate stored rows.
func copyParticipant(p domain.Participant) domain.Participant {
	if p.Score != nil {
		sc := *p.Score
		p.Score = &sc
	}
	if p.TimeTaken != nil {
		tt := *p.TimeTaken
		p.TimeTaken = &tt
	}
	return p
}
