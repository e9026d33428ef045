package challenge

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/dongibuyeo/dongibuyeo/internal/bank"
	"github.com/dongibuyeo/dongibuyeo/internal/metrics"
	"github.com/dongibuyeo/dongibuyeo/internal/model"
	"github.com/dongibuyeo/dongibuyeo/internal/store"
	"golang.org/x/crypto/blake2b"
)

// RefundKey derives the idempotency key of the deposit refund for a
// membership. A membership is refunded at most once, whatever the reason.
func RefundKey(memberChallengeID int64) string {
	sum := blake2b.Sum256(fmt.Appendf(nil, "refund/member-challenge/%d", memberChallengeID))
	return hex.EncodeToString(sum[:])
}

// Refunds executes queued deposit refunds against the bank.
type Refunds struct {
	db      *sql.DB
	ledger  bank.Ledger
	store   *store.RefundStore
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewRefunds(db *sql.DB, ledger bank.Ledger, m *metrics.Metrics, logger *slog.Logger) *Refunds {
	return &Refunds{
		db:      db,
		ledger:  ledger,
		store:   store.NewRefundStore(db),
		metrics: m,
		logger:  componentLogger(logger, "refunds"),
	}
}

// Execute transfers a queued refund. Bank failures are recorded on the row,
// which stays pending, and returned wrapping ErrExternal.
func (r *Refunds) Execute(ctx context.Context, rt *model.RefundTransfer) error {
	if rt.Status == model.RefundDone {
		return nil
	}

	_, err := r.ledger.Transfer(ctx, bank.TransferRequest{
		MemberID:       rt.MemberID.String(),
		FromAccount:    rt.FromAccount,
		ToAccount:      rt.ToAccount,
		Amount:         rt.Amount,
		Type:           bank.TransferChallenge,
		IdempotencyKey: rt.IdempotencyKey,
	})
	r.metrics.RefundAttempt(err == nil)
	if err != nil {
		if markErr := r.store.MarkFailed(ctx, rt.ID, err.Error()); markErr != nil {
			r.logger.Error("failed to record refund failure", "refund_id", rt.ID, "error", markErr)
		}
		r.logger.Warn("refund transfer failed", "refund_id", rt.ID, "member_id", rt.MemberID, "amount", rt.Amount, "error", err)
		return fmt.Errorf("refund %d: %w: %w", rt.ID, ErrExternal, err)
	}

	if err := r.store.MarkDone(ctx, rt.ID); err != nil {
		return fmt.Errorf("refund %d transferred: %w", rt.ID, err)
	}
	rt.Status = model.RefundDone
	r.logger.Info("refund transferred", "refund_id", rt.ID, "member_id", rt.MemberID, "amount", rt.Amount, "reason", rt.Reason)
	return nil
}

// RetryPending re-attempts up to limit pending refunds, oldest first. It
// returns how many succeeded and how many failed again.
func (r *Refunds) RetryPending(ctx context.Context, limit int) (done, failed int, err error) {
	pending, err := r.store.ListPending(ctx, limit)
	if err != nil {
		return 0, 0, err
	}
	for i := range pending {
		if ctx.Err() != nil {
			return done, failed, ctx.Err()
		}
		if err := r.Execute(ctx, &pending[i]); err != nil {
			failed++
			continue
		}
		done++
	}
	return done, failed, nil
}

// Pending returns up to limit refunds still waiting for a transfer.
func (r *Refunds) Pending(ctx context.Context, limit int) ([]model.RefundTransfer, error) {
	pending, err := r.store.ListPending(ctx, limit)
	if err != nil {
		return nil, err
	}
	if pending == nil {
		pending = []model.RefundTransfer{}
	}
	return pending, nil
}
