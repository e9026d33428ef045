package challenge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dongibuyeo/dongibuyeo/internal/metrics"
	"github.com/dongibuyeo/dongibuyeo/internal/model"
	"github.com/dongibuyeo/dongibuyeo/internal/store"
	"github.com/google/uuid"
)

// withdrawable lists the challenge types a member may leave mid-challenge.
var withdrawable = map[model.ChallengeType]bool{
	model.ChallengeSavings: true,
}

// Membership handles joining and leaving challenges and keeps the challenge
// deposit and participant counters in step with active memberships.
type Membership struct {
	db      *sql.DB
	refunds *Refunds
	now     Clock
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewMembership(db *sql.DB, refunds *Refunds, now Clock, m *metrics.Metrics, logger *slog.Logger) *Membership {
	return &Membership{
		db:      db,
		refunds: refunds,
		now:     now,
		metrics: m,
		logger:  componentLogger(logger, "membership"),
	}
}

// Join enrolls a member in a scheduled challenge with the given deposit.
func (m *Membership) Join(ctx context.Context, challengeID, memberID uuid.UUID, deposit int64) (*model.MemberChallenge, error) {
	if deposit < 0 {
		return nil, ErrInvalidDeposit
	}
	now := m.now()

	var mc *model.MemberChallenge
	err := store.RunInTx(ctx, m.db, func(tx *store.Tx) error {
		c, err := tx.Challenges.GetByID(ctx, challengeID)
		if err != nil {
			return err
		}
		if c == nil {
			return ErrChallengeNotFound
		}
		if c.Status(now) != model.StatusScheduled {
			return ErrChallengeAlreadyStarted
		}

		member, err := tx.Members.GetByID(ctx, memberID)
		if err != nil {
			return err
		}
		if member == nil {
			return ErrMemberNotFound
		}
		if !member.HasChallengeAccount() {
			return ErrMemberNotEligible
		}

		mc, err = tx.MemberChallenges.Create(ctx, memberID, challengeID, deposit)
		if errors.Is(err, store.ErrConflict) {
			return ErrAlreadyJoined
		}
		if err != nil {
			return err
		}
		return tx.Challenges.AdjustCounters(ctx, challengeID, deposit, 1)
	})
	if err != nil {
		return nil, err
	}

	m.metrics.MembershipChanged("join")
	m.logger.Info("member joined challenge", "challenge_id", challengeID, "member_id", memberID, "deposit", deposit)
	return mc, nil
}

// Cancel removes a member from a challenge that has not started and refunds
// the deposit.
func (m *Membership) Cancel(ctx context.Context, challengeID, memberID uuid.UUID) (*model.RefundTransfer, error) {
	return m.leave(ctx, challengeID, memberID, model.RefundCancel, func(c *model.Challenge, status model.ChallengeStatus) error {
		if status != model.StatusScheduled {
			return ErrChallengeAlreadyStarted
		}
		return nil
	})
}

// Withdraw removes a member from a running savings challenge and refunds
// the deposit.
func (m *Membership) Withdraw(ctx context.Context, challengeID, memberID uuid.UUID) (*model.RefundTransfer, error) {
	return m.leave(ctx, challengeID, memberID, model.RefundWithdraw, func(c *model.Challenge, status model.ChallengeStatus) error {
		if !withdrawable[c.Type] {
			return ErrChallengeCannotWithdraw
		}
		if status == model.StatusCompleted {
			return ErrChallengeEnded
		}
		return nil
	})
}

// leave soft-deletes the membership, decrements the counters and queues the
// refund in one transaction, then attempts the transfer. A failed transfer
// leaves the refund queued and is reported wrapping ErrExternal; the
// membership change stays committed.
func (m *Membership) leave(ctx context.Context, challengeID, memberID uuid.UUID, reason model.RefundReason, allowed func(*model.Challenge, model.ChallengeStatus) error) (*model.RefundTransfer, error) {
	now := m.now()

	var refund *model.RefundTransfer
	err := store.RunInTx(ctx, m.db, func(tx *store.Tx) error {
		c, err := tx.Challenges.GetByID(ctx, challengeID)
		if err != nil {
			return err
		}
		if c == nil {
			return ErrChallengeNotFound
		}
		mc, err := tx.MemberChallenges.GetActive(ctx, challengeID, memberID)
		if err != nil {
			return err
		}
		if mc == nil {
			return ErrMemberChallengeNotFound
		}
		if err := allowed(c, c.Status(now)); err != nil {
			return err
		}

		member, err := tx.Members.GetByID(ctx, memberID)
		if err != nil {
			return err
		}
		if member == nil {
			return ErrMemberNotFound
		}
		if !member.HasChallengeAccount() {
			return ErrMemberNotEligible
		}

		if err := tx.MemberChallenges.SoftDelete(ctx, mc.ID); err != nil {
			return err
		}
		if err := tx.Challenges.AdjustCounters(ctx, challengeID, -mc.Deposit, -1); err != nil {
			return err
		}
		refund, err = tx.Refunds.Enqueue(ctx, &model.RefundTransfer{
			IdempotencyKey:    RefundKey(mc.ID),
			MemberChallengeID: mc.ID,
			MemberID:          memberID,
			FromAccount:       c.AccountNo,
			ToAccount:         *member.ChallengeAccountNo,
			Amount:            mc.Deposit,
			Reason:            reason,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	m.metrics.MembershipChanged(string(reason))
	m.logger.Info("member left challenge", "challenge_id", challengeID, "member_id", memberID, "reason", reason)

	if err := m.refunds.Execute(ctx, refund); err != nil {
		return refund, fmt.Errorf("%s challenge %s: %w", reason, challengeID, err)
	}
	return refund, nil
}
