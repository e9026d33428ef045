package model

import (
	"time"

	"github.com/google/uuid"
)

type RefundStatus string

const (
	RefundPending RefundStatus = "pending"
	RefundDone    RefundStatus = "done"
)

type RefundReason string

const (
	RefundCancel   RefundReason = "cancel"
	RefundWithdraw RefundReason = "withdraw"
)

// RefundTransfer is an outbox row: a deposit that must be returned from a
// challenge escrow account to a member's challenge account.
type RefundTransfer struct {
	ID                int64        `json:"id"`
	IdempotencyKey    string       `json:"idempotency_key"`
	MemberChallengeID int64        `json:"member_challenge_id"`
	MemberID          uuid.UUID    `json:"member_id"`
	FromAccount       string       `json:"from_account"`
	ToAccount         string       `json:"to_account"`
	Amount            int64        `json:"amount"`
	Reason            RefundReason `json:"reason"`
	Status            RefundStatus `json:"status"`
	Attempts          int          `json:"attempts"`
	LastError         string       `json:"last_error"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}
