package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dongibuyeo/dongibuyeo/internal/model"
	"github.com/google/uuid"
)

type MemberChallengeStore struct {
	db DBTX
}

func NewMemberChallengeStore(db *sql.DB) *MemberChallengeStore {
	return &MemberChallengeStore{db: db}
}

func scanMemberChallenge(scanner interface{ Scan(...any) error }) (*model.MemberChallenge, error) {
	var mc model.MemberChallenge
	err := scanner.Scan(&mc.ID, &mc.MemberID, &mc.ChallengeID, &mc.Deposit, &mc.TotalScore, &mc.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &mc, nil
}

const memberChallengeCols = `id, member_id, challenge_id, deposit, total_score, created_at`

// Create inserts an active membership. It returns ErrConflict when the
// member already has an active membership in the challenge.
func (s *MemberChallengeStore) Create(ctx context.Context, memberID, challengeID uuid.UUID, deposit int64) (*model.MemberChallenge, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO member_challenges (member_id, challenge_id, deposit) VALUES (?, ?, ?)`,
		memberID, challengeID, deposit,
	)
	if isUniqueViolation(err) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("insert member challenge: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID returns an active membership, or nil.
func (s *MemberChallengeStore) GetByID(ctx context.Context, id int64) (*model.MemberChallenge, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+memberChallengeCols+` FROM member_challenges WHERE id = ? AND deleted_at IS NULL`, id)
	mc, err := scanMemberChallenge(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member challenge: %w", err)
	}
	return mc, nil
}

// GetActive returns the member's active membership in the challenge, or nil.
func (s *MemberChallengeStore) GetActive(ctx context.Context, challengeID, memberID uuid.UUID) (*model.MemberChallenge, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+memberChallengeCols+` FROM member_challenges
		 WHERE challenge_id = ? AND member_id = ? AND deleted_at IS NULL`,
		challengeID, memberID,
	)
	mc, err := scanMemberChallenge(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active member challenge: %w", err)
	}
	return mc, nil
}

// ListByChallenge returns the active memberships of a challenge.
func (s *MemberChallengeStore) ListByChallenge(ctx context.Context, challengeID uuid.UUID) ([]model.MemberChallenge, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+memberChallengeCols+` FROM member_challenges
		 WHERE challenge_id = ? AND deleted_at IS NULL ORDER BY id ASC`, challengeID)
	if err != nil {
		return nil, fmt.Errorf("list member challenges: %w", err)
	}
	defer rows.Close()

	var mcs []model.MemberChallenge
	for rows.Next() {
		mc, err := scanMemberChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member challenge: %w", err)
		}
		mcs = append(mcs, *mc)
	}
	return mcs, rows.Err()
}

func (s *MemberChallengeStore) SoftDelete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE member_challenges SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("delete member challenge: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("delete member challenge: %d already removed", id)
	}
	return nil
}

func (s *MemberChallengeStore) AddTotalScore(ctx context.Context, id int64, delta int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE member_challenges SET total_score = total_score + ? WHERE id = ?`, delta, id)
	if err != nil {
		return fmt.Errorf("add total score: %w", err)
	}
	return nil
}

// ListScoringTargets returns active memberships of in-progress challenges of
// the given type, with each member's challenge account. If memberID is not
// uuid.Nil only that member's memberships are returned.
func (s *MemberChallengeStore) ListScoringTargets(ctx context.Context, ctype model.ChallengeType, memberID uuid.UUID, today time.Time) ([]model.ScoringTarget, error) {
	clause, args := statusClause("c.", model.StatusInProgress, today)
	query := `SELECT ` + prefixed("mc", memberChallengeCols) + `, c.type, m.challenge_account_no
		 FROM member_challenges mc
		 JOIN challenges c ON c.id = mc.challenge_id AND c.deleted_at IS NULL
		 JOIN members m ON m.id = mc.member_id
		 WHERE mc.deleted_at IS NULL AND c.type = ? AND ` + clause
	args = append([]any{string(ctype)}, args...)
	if memberID != uuid.Nil {
		query += ` AND mc.member_id = ?`
		args = append(args, memberID)
	}
	query += ` ORDER BY mc.id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list scoring targets: %w", err)
	}
	defer rows.Close()

	var targets []model.ScoringTarget
	for rows.Next() {
		var t model.ScoringTarget
		var ctypeStr string
		var accountNo sql.NullString
		if err := rows.Scan(
			&t.ID, &t.MemberID, &t.ChallengeID, &t.Deposit, &t.TotalScore, &t.CreatedAt,
			&ctypeStr, &accountNo,
		); err != nil {
			return nil, fmt.Errorf("scan scoring target: %w", err)
		}
		t.ChallengeType = model.ChallengeType(ctypeStr)
		if accountNo.Valid {
			t.ChallengeAccountNo = &accountNo.String
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

// ScoresByChallenge returns every active member's total score, highest first.
func (s *MemberChallengeStore) ScoresByChallenge(ctx context.Context, challengeID uuid.UUID) ([]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT total_score FROM member_challenges
		 WHERE challenge_id = ? AND deleted_at IS NULL
		 ORDER BY total_score DESC, id ASC`, challengeID)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	defer rows.Close()

	var scores []int
	for rows.Next() {
		var score int
		if err := rows.Scan(&score); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		scores = append(scores, score)
	}
	return scores, rows.Err()
}

// TopRankers returns the highest scoring active members. Ties keep
// membership order.
func (s *MemberChallengeStore) TopRankers(ctx context.Context, challengeID uuid.UUID, limit int) ([]model.TopRanker, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT mc.member_id, m.name, mc.total_score
		 FROM member_challenges mc
		 JOIN members m ON m.id = mc.member_id
		 WHERE mc.challenge_id = ? AND mc.deleted_at IS NULL
		 ORDER BY mc.total_score DESC, mc.id ASC
		 LIMIT ?`, challengeID, limit)
	if err != nil {
		return nil, fmt.Errorf("list top rankers: %w", err)
	}
	defer rows.Close()

	var rankers []model.TopRanker
	for rows.Next() {
		var r model.TopRanker
		if err := rows.Scan(&r.MemberID, &r.MemberName, &r.TotalScore); err != nil {
			return nil, fmt.Errorf("scan top ranker: %w", err)
		}
		rankers = append(rankers, r)
	}
	return rankers, rows.Err()
}

// DepositTotals sums the deposits and counts the active memberships of a
// challenge directly from the membership rows.
func (s *MemberChallengeStore) DepositTotals(ctx context.Context, challengeID uuid.UUID) (int64, int, error) {
	var total int64
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(deposit), 0), COUNT(*) FROM member_challenges
		 WHERE challenge_id = ? AND deleted_at IS NULL`, challengeID,
	).Scan(&total, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("sum deposits: %w", err)
	}
	return total, count, nil
}
