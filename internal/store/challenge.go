package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dongibuyeo/dongibuyeo/internal/model"
	"github.com/google/uuid"
)

type ChallengeStore struct {
	db DBTX
}

func NewChallengeStore(db *sql.DB) *ChallengeStore {
	return &ChallengeStore{db: db}
}

func scanChallenge(scanner interface{ Scan(...any) error }) (*model.Challenge, error) {
	var c model.Challenge
	var ctype, start, end string

	err := scanner.Scan(
		&c.ID, &ctype, &c.Title, &c.Description, &c.Image,
		&start, &end, &c.AccountNo, &c.TotalDeposit, &c.Participants, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Type = model.ChallengeType(ctype)
	if c.StartDate, err = model.ParseDate(start); err != nil {
		return nil, fmt.Errorf("parse start date: %w", err)
	}
	if c.EndDate, err = model.ParseDate(end); err != nil {
		return nil, fmt.Errorf("parse end date: %w", err)
	}
	return &c, nil
}

const challengeCols = `id, type, title, description, image, start_date, end_date, account_no, total_deposit, participants, created_at`

func (s *ChallengeStore) Create(ctx context.Context, c *model.Challenge) (*model.Challenge, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO challenges (id, type, title, description, image, start_date, end_date, account_no)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, string(c.Type), c.Title, c.Description, c.Image,
		c.StartDate.Format(model.DateLayout), c.EndDate.Format(model.DateLayout), c.AccountNo,
	)
	if err != nil {
		return nil, fmt.Errorf("insert challenge: %w", err)
	}
	return s.GetByID(ctx, c.ID)
}

// GetByID returns the challenge, or nil if it does not exist or was deleted.
func (s *ChallengeStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Challenge, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+challengeCols+` FROM challenges WHERE id = ? AND deleted_at IS NULL`, id)
	c, err := scanChallenge(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get challenge: %w", err)
	}
	return c, nil
}

// List returns all live challenges in creation order.
func (s *ChallengeStore) List(ctx context.Context) ([]model.Challenge, error) {
	return s.query(ctx, "list challenges",
		`SELECT `+challengeCols+` FROM challenges WHERE deleted_at IS NULL ORDER BY id ASC`)
}

// ListByStatus returns the challenges whose derived status on today matches.
func (s *ChallengeStore) ListByStatus(ctx context.Context, status model.ChallengeStatus, today time.Time) ([]model.Challenge, error) {
	clause, args := statusClause("", status, today)
	return s.query(ctx, "list challenges by status",
		`SELECT `+challengeCols+` FROM challenges WHERE deleted_at IS NULL AND `+clause+` ORDER BY id ASC`,
		args...)
}

// ListByMember returns the challenges the member actively participates in.
func (s *ChallengeStore) ListByMember(ctx context.Context, memberID uuid.UUID) ([]model.Challenge, error) {
	return s.query(ctx, "list challenges by member",
		`SELECT `+prefixed("c", challengeCols)+`
		 FROM challenges c
		 JOIN member_challenges mc ON mc.challenge_id = c.id AND mc.deleted_at IS NULL
		 WHERE c.deleted_at IS NULL AND mc.member_id = ?
		 ORDER BY c.id ASC`, memberID)
}

// ListByMemberAndStatus narrows ListByMember to one derived status.
func (s *ChallengeStore) ListByMemberAndStatus(ctx context.Context, memberID uuid.UUID, status model.ChallengeStatus, today time.Time) ([]model.Challenge, error) {
	clause, args := statusClause("c.", status, today)
	return s.query(ctx, "list challenges by member and status",
		`SELECT `+prefixed("c", challengeCols)+`
		 FROM challenges c
		 JOIN member_challenges mc ON mc.challenge_id = c.id AND mc.deleted_at IS NULL
		 WHERE c.deleted_at IS NULL AND mc.member_id = ? AND `+clause+`
		 ORDER BY c.id ASC`, append([]any{memberID}, args...)...)
}

func (s *ChallengeStore) query(ctx context.Context, op, query string, args ...any) ([]model.Challenge, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var challenges []model.Challenge
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("scan challenge: %w", err)
		}
		challenges = append(challenges, *c)
	}
	return challenges, rows.Err()
}

// Update rewrites the editable fields of a challenge.
func (s *ChallengeStore) Update(ctx context.Context, c *model.Challenge) (*model.Challenge, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE challenges SET type = ?, title = ?, description = ?, image = ?, start_date = ?, end_date = ?
		 WHERE id = ? AND deleted_at IS NULL`,
		string(c.Type), c.Title, c.Description, c.Image,
		c.StartDate.Format(model.DateLayout), c.EndDate.Format(model.DateLayout), c.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update challenge: %w", err)
	}
	return s.GetByID(ctx, c.ID)
}

func (s *ChallengeStore) SoftDelete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE challenges SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("delete challenge: %w", err)
	}
	return nil
}

// AdjustCounters moves the deposit and participant counters together in a
// single statement.
func (s *ChallengeStore) AdjustCounters(ctx context.Context, id uuid.UUID, depositDelta int64, participantDelta int) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE challenges
		 SET total_deposit = total_deposit + ?, participants = participants + ?
		 WHERE id = ? AND deleted_at IS NULL`,
		depositDelta, participantDelta, id,
	)
	if err != nil {
		return fmt.Errorf("adjust challenge counters: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("adjust challenge counters: challenge %s not found", id)
	}
	return nil
}

// statusClause renders the date predicate for a derived status. col is the
// table prefix, e.g. "c.".
func statusClause(col string, status model.ChallengeStatus, today time.Time) (string, []any) {
	d := model.DateOf(today).Format(model.DateLayout)
	switch status {
	case model.StatusScheduled:
		return col + `start_date > ?`, []any{d}
	case model.StatusCompleted:
		return col + `end_date < ?`, []any{d}
	default:
		return col + `start_date <= ? AND ` + col + `end_date >= ?`, []any{d, d}
	}
}

// prefixed qualifies every column in a comma-separated list with alias.
func prefixed(alias, cols string) string {
	parts := strings.Split(cols, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
