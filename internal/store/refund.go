package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dongibuyeo/dongibuyeo/internal/model"
)

type RefundStore struct {
	db DBTX
}

func NewRefundStore(db *sql.DB) *RefundStore {
	return &RefundStore{db: db}
}

func scanRefund(scanner interface{ Scan(...any) error }) (*model.RefundTransfer, error) {
	var r model.RefundTransfer
	var reason, status string

	err := scanner.Scan(
		&r.ID, &r.IdempotencyKey, &r.MemberChallengeID, &r.MemberID,
		&r.FromAccount, &r.ToAccount, &r.Amount, &reason, &status,
		&r.Attempts, &r.LastError, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Reason = model.RefundReason(reason)
	r.Status = model.RefundStatus(status)
	return &r, nil
}

const refundCols = `id, idempotency_key, member_challenge_id, member_id, from_account, to_account, amount, reason, status, attempts, last_error, created_at, updated_at`

// Enqueue records a pending refund. Enqueueing an idempotency key twice
// returns the existing row.
func (s *RefundStore) Enqueue(ctx context.Context, r *model.RefundTransfer) (*model.RefundTransfer, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO refund_transfers (idempotency_key, member_challenge_id, member_id, from_account, to_account, amount, reason)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (idempotency_key) DO NOTHING`,
		r.IdempotencyKey, r.MemberChallengeID, r.MemberID, r.FromAccount, r.ToAccount, r.Amount, string(r.Reason),
	)
	if err != nil {
		return nil, fmt.Errorf("insert refund transfer: %w", err)
	}
	return s.GetByKey(ctx, r.IdempotencyKey)
}

func (s *RefundStore) GetByKey(ctx context.Context, key string) (*model.RefundTransfer, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+refundCols+` FROM refund_transfers WHERE idempotency_key = ?`, key)
	r, err := scanRefund(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get refund transfer: %w", err)
	}
	return r, nil
}

// ListPending returns up to limit pending refunds, oldest first.
func (s *RefundStore) ListPending(ctx context.Context, limit int) ([]model.RefundTransfer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+refundCols+` FROM refund_transfers WHERE status = ? ORDER BY id ASC LIMIT ?`,
		string(model.RefundPending), limit)
	if err != nil {
		return nil, fmt.Errorf("list pending refunds: %w", err)
	}
	defer rows.Close()

	var refunds []model.RefundTransfer
	for rows.Next() {
		r, err := scanRefund(rows)
		if err != nil {
			return nil, fmt.Errorf("scan refund transfer: %w", err)
		}
		refunds = append(refunds, *r)
	}
	return refunds, rows.Err()
}

func (s *RefundStore) MarkDone(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE refund_transfers SET status = ?, attempts = attempts + 1, last_error = '', updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`, string(model.RefundDone), id)
	if err != nil {
		return fmt.Errorf("mark refund done: %w", err)
	}
	return nil
}

func (s *RefundStore) MarkFailed(ctx context.Context, id int64, cause string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE refund_transfers SET attempts = attempts + 1, last_error = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`, cause, id)
	if err != nil {
		return fmt.Errorf("mark refund failed: %w", err)
	}
	return nil
}
