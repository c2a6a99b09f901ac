package domain

import "time"

// Quest is a single photo challenge. It is immutable once created.
type Quest struct {
	ID        string    `json:"questId"`
	Prompt    string    `json:"prompt"`
	HostID    string    `json:"hostId"`
	CreatedAt time.Time `json:"-"`
}

// Participant tracks one user's submission outcome for a quest.
// Score and TimeTaken are nil until the user submits.
type Participant struct {
	QuestID   string   `json:"questId"`
	UserID    string   `json:"userId"`
	Score     *int     `json:"score"`
	TimeTaken *float64 `json:"time"`
}

// Scored reports whether the participant has a recorded score.
func (p Participant) Scored() bool {
	return p.Score != nil
}

// User is a registered player. Points only ever grow.
type User struct {
	ID           string `json:"userId"`
	PasswordHash string `json:"-"`
	Points       int64  `json:"points"`
}

// Reward is the ledger entry written when a quest's winner is paid out.
type Reward struct {
	QuestID   string    `json:"questId"`
	UserID    string    `json:"userId"`
	GrantedAt time.Time `json:"grantedAt"`
}

// Outcome describes what a recorded score did to its quest.
type Outcome struct {
	Resolved bool   `json:"resolved"`
	WinnerID string `json:"winner,omitempty"`
	Rewarded bool   `json:"rewarded"`
	// Marked is set only for the caller that wrote the quest's reward marker.
	Marked bool `json:"-"`
}

// QuestDetails is the read model for a single quest.
type QuestDetails struct {
	Quest
	Date         int64         `json:"date"`
	Participants []Participant `json:"participants"`
	LeaderID     string        `json:"leaderId,omitempty"`
	WinnerID     string        `json:"winner,omitempty"`
	Resolved     bool          `json:"resolved"`
	Rewarded     bool          `json:"rewarded"`
}

// QuestEventType enumerates the events published about a quest.
type QuestEventType string

const (
	EventQuestCreated  QuestEventType = "quest_created"
	EventScoreRecorded QuestEventType = "score_recorded"
	EventQuestResolved QuestEventType = "quest_resolved"
	EventRewardGranted QuestEventType = "reward_granted"
)

// QuestEvent is broadcast to feed subscribers and the event bus.
type QuestEvent struct {
	Type     QuestEventType `json:"type"`
	QuestID  string         `json:"questId"`
	UserID   string         `json:"userId,omitempty"`
	Score    *int           `json:"score,omitempty"`
	WinnerID string         `json:"winner,omitempty"`
	At       time.Time      `json:"at"`
}
