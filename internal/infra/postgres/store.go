package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"photo-quest-service/internal/domain"
)

// Store implements app.QuestStore, app.UserStore and app.RewardLedger on
// Postgres. Apply the migrations package first.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// CreateQuest inserts the quest and its participant rows in one transaction,
// so a failed participant insert leaves no quest behind.
func (s *Store) CreateQuest(ctx context.Context, quest domain.Quest, participants []domain.Participant) error {
	return s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO quests (id, prompt, host_id, created_at) VALUES ($1, $2, $3, $4)`,
			quest.ID, quest.Prompt, quest.HostID, quest.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert quest: %w", err)
		}
		for _, p := range participants {
			if _, err := tx.Exec(ctx,
				`INSERT INTO participants (quest_id, user_id, score, time_taken) VALUES ($1, $2, $3, $4)`,
				quest.ID, p.UserID, p.Score, p.TimeTaken,
			); err != nil {
				return fmt.Errorf("insert participant %s: %w", p.UserID, err)
			}
		}
		return nil
	})
}

func (s *Store) GetQuest(ctx context.Context, questID string) (domain.Quest, error) {
	var quest domain.Quest
	err := s.pool.QueryRow(ctx,
		`SELECT id, prompt, host_id, created_at FROM quests WHERE id = $1`, questID,
	).Scan(&quest.ID, &quest.Prompt, &quest.HostID, &quest.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quest{}, domain.ErrQuestNotFound
	}
	if err != nil {
		return domain.Quest{}, fmt.Errorf("get quest: %w", err)
	}
	return quest, nil
}

// GetParticipants returns rows in insertion order.
func (s *Store) GetParticipants(ctx context.Context, questID string) ([]domain.Participant, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT quest_id, user_id, score, time_taken FROM participants WHERE quest_id = $1 ORDER BY id`, questID)
	if err != nil {
		return nil, fmt.Errorf("get participants: %w", err)
	}
	defer rows.Close()

	var out []domain.Participant
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.QuestID, &p.UserID, &p.Score, &p.TimeTaken); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get participants: %w", err)
	}
	if len(out) == 0 {
		// Every quest has at least its host, so no rows means no quest.
		return nil, domain.ErrQuestNotFound
	}
	return out, nil
}

// SetParticipantScore only updates a row that has no score yet.
func (s *Store) SetParticipantScore(ctx context.Context, questID, userID string, score int, timeTaken float64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE participants SET score = $3, time_taken = $4
		 WHERE quest_id = $1 AND user_id = $2 AND score IS NULL`,
		questID, userID, score, timeTaken)
	if err != nil {
		return fmt.Errorf("set participant score: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var scored bool
	err = s.pool.QueryRow(ctx,
		`SELECT score IS NOT NULL FROM participants WHERE quest_id = $1 AND user_id = $2`,
		questID, userID).Scan(&scored)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return domain.ErrParticipantNotFound
	case err != nil:
		return fmt.Errorf("check participant: %w", err)
	case scored:
		return domain.ErrAlreadySubmitted
	default:
		return fmt.Errorf("set participant score: row for %s unchanged", userID)
	}
}

func (s *Store) QuestsForUser(ctx context.Context, userID string, scored bool) ([]domain.Quest, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT q.id, q.prompt, q.host_id, q.created_at
		 FROM participants p
		 JOIN quests q ON q.id = p.quest_id
		 WHERE p.user_id = $1 AND (p.score IS NOT NULL) = $2
		 ORDER BY q.created_at DESC, q.id`,
		userID, scored)
	if err != nil {
		return nil, fmt.Errorf("quests for user: %w", err)
	}
	defer rows.Close()

	var out []domain.Quest
	for rows.Next() {
		var q domain.Quest
		if err := rows.Scan(&q.ID, &q.Prompt, &q.HostID, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan quest: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *Store) CreateUser(ctx context.Context, user domain.User) error {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, password_hash, points) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO NOTHING`,
		user.ID, user.PasswordHash, user.Points)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserExists
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, userID string) (domain.User, error) {
	var user domain.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, password_hash, points FROM users WHERE id = $1`, userID,
	).Scan(&user.ID, &user.PasswordHash, &user.Points)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *Store) IncrementPoints(ctx context.Context, userID string, delta int64) (int64, error) {
	var total int64
	err := s.pool.QueryRow(ctx,
		`UPDATE users SET points = points + $2 WHERE id = $1 RETURNING points`,
		userID, delta).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("increment points: %w", err)
	}
	return total, nil
}

// MarkRewarded relies on the quest_rewards primary key: of two concurrent
// resolvers only one insert lands.
func (s *Store) MarkRewarded(ctx context.Context, questID, userID string) error {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO quest_rewards (quest_id, user_id, granted_at) VALUES ($1, $2, $3)
		 ON CONFLICT (quest_id) DO NOTHING`,
		questID, userID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark rewarded: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRewardAlreadyGranted
	}
	return nil
}

func (s *Store) IsRewarded(ctx context.Context, questID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM quest_rewards WHERE quest_id = $1)`, questID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("reward status: %w", err)
	}
	return exists, nil
}
