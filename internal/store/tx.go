package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrConflict is returned when an insert violates a uniqueness constraint.
var ErrConflict = errors.New("unique constraint conflict")

// DBTX is the subset of *sql.DB and *sql.Tx the stores need, so the same
// store code runs inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Tx bundles every store bound to a single transaction.
type Tx struct {
	Challenges       *ChallengeStore
	Members          *MemberStore
	MemberChallenges *MemberChallengeStore
	Scores           *ScoreStore
	Refunds          *RefundStore
	Quizzes          *QuizStore
}

func newTx(db DBTX) *Tx {
	return &Tx{
		Challenges:       &ChallengeStore{db: db},
		Members:          &MemberStore{db: db},
		MemberChallenges: &MemberChallengeStore{db: db},
		Scores:           &ScoreStore{db: db},
		Refunds:          &RefundStore{db: db},
		Quizzes:          &QuizStore{db: db},
	}
}

// RunInTx runs fn in a transaction, committing if fn returns nil and
// rolling back otherwise.
func RunInTx(ctx context.Context, db *sql.DB, fn func(tx *Tx) error) error {
	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(newTx(sqlTx)); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
