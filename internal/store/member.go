package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dongibuyeo/dongibuyeo/internal/model"
	"github.com/google/uuid"
)

type MemberStore struct {
	db DBTX
}

func NewMemberStore(db *sql.DB) *MemberStore {
	return &MemberStore{db: db}
}

func scanMember(scanner interface{ Scan(...any) error }) (*model.Member, error) {
	var m model.Member
	var accountNo sql.NullString

	err := scanner.Scan(&m.ID, &m.Name, &m.Email, &accountNo, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	if accountNo.Valid {
		m.ChallengeAccountNo = &accountNo.String
	}
	return &m, nil
}

const memberCols = `id, name, email, challenge_account_no, created_at`

func (s *MemberStore) Create(ctx context.Context, name, email string, challengeAccountNo *string) (*model.Member, error) {
	id := uuid.New()

	var accountNo sql.NullString
	if challengeAccountNo != nil {
		accountNo = sql.NullString{String: *challengeAccountNo, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO members (id, name, email, challenge_account_no) VALUES (?, ?, ?, ?)`,
		id, name, email, accountNo,
	)
	if isUniqueViolation(err) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *MemberStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Member, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+memberCols+` FROM members WHERE id = ?`, id)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *MemberStore) List(ctx context.Context) ([]model.Member, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+memberCols+` FROM members ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

// SetChallengeAccount records the member's designated challenge account.
func (s *MemberStore) SetChallengeAccount(ctx context.Context, id uuid.UUID, accountNo string) (*model.Member, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE members SET challenge_account_no = ? WHERE id = ?`, accountNo, id)
	if err != nil {
		return nil, fmt.Errorf("set challenge account: %w", err)
	}
	return s.GetByID(ctx, id)
}
