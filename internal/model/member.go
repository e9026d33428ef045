package model

import (
	"time"

	"github.com/google/uuid"
)

type Member struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	ChallengeAccountNo *string   `json:"challenge_account_no"`
	CreatedAt          time.Time `json:"created_at"`
}

// HasChallengeAccount reports whether the member can escrow deposits.
func (m *Member) HasChallengeAccount() bool {
	return m.ChallengeAccountNo != nil && *m.ChallengeAccountNo != ""
}

type MemberChallenge struct {
	ID          int64        `json:"id"`
	MemberID    uuid.UUID    `json:"member_id"`
	ChallengeID uuid.UUID    `json:"challenge_id"`
	Deposit     int64        `json:"deposit"`
	TotalScore  int          `json:"total_score"`
	DailyScores []DailyScore `json:"daily_scores,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// ScoringTarget is an active membership joined with what the fever sweep
// needs to look up the member's transactions.
type ScoringTarget struct {
	MemberChallenge
	ChallengeType      ChallengeType `json:"challenge_type"`
	ChallengeAccountNo *string       `json:"challenge_account_no"`
}
