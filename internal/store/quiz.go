package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dongibuyeo/dongibuyeo/internal/model"
	"github.com/google/uuid"
)

type QuizStore struct {
	db DBTX
}

func NewQuizStore(db *sql.DB) *QuizStore {
	return &QuizStore{db: db}
}

func scanQuiz(scanner interface{ Scan(...any) error }) (*model.Quiz, error) {
	var q model.Quiz
	var answer int
	if err := scanner.Scan(&q.ID, &q.Question, &answer, &q.CreatedAt); err != nil {
		return nil, err
	}
	q.Answer = answer != 0
	return &q, nil
}

const quizCols = `id, question, answer, created_at`

func (s *QuizStore) Create(ctx context.Context, question string, answer bool) (*model.Quiz, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO quizzes (question, answer) VALUES (?, ?)`, question, boolToInt(answer))
	if err != nil {
		return nil, fmt.Errorf("insert quiz: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *QuizStore) GetByID(ctx context.Context, id int64) (*model.Quiz, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+quizCols+` FROM quizzes WHERE id = ?`, id)
	q, err := scanQuiz(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	return q, nil
}

// Random returns one quiz picked at random, or nil when there are none.
func (s *QuizStore) Random(ctx context.Context) (*model.Quiz, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+quizCols+` FROM quizzes ORDER BY RANDOM() LIMIT 1`)
	q, err := scanQuiz(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("random quiz: %w", err)
	}
	return q, nil
}

// RecordSolve stores a member's answer for the day. A second answer on the
// same day returns ErrConflict.
func (s *QuizStore) RecordSolve(ctx context.Context, quizID int64, memberID uuid.UUID, day time.Time, correct bool) (*model.QuizSolve, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO quiz_solves (quiz_id, member_id, solved_on, correct) VALUES (?, ?, ?, ?)`,
		quizID, memberID, day.Format(model.DateLayout), boolToInt(correct),
	)
	if isUniqueViolation(err) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("insert quiz solve: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	var qs model.QuizSolve
	var solvedOn string
	var c int
	err = s.db.QueryRowContext(ctx,
		`SELECT id, quiz_id, member_id, solved_on, correct, solved_at FROM quiz_solves WHERE id = ?`, id,
	).Scan(&qs.ID, &qs.QuizID, &qs.MemberID, &solvedOn, &c, &qs.SolvedAt)
	if err != nil {
		return nil, fmt.Errorf("get quiz solve: %w", err)
	}
	qs.Correct = c != 0
	if qs.SolvedOn, err = model.ParseDate(solvedOn); err != nil {
		return nil, fmt.Errorf("parse solved date: %w", err)
	}
	return &qs, nil
}

// SolvedOn reports whether the member answered a quiz on day.
func (s *QuizStore) SolvedOn(ctx context.Context, memberID uuid.UUID, day time.Time) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM quiz_solves WHERE member_id = ? AND solved_on = ?`,
		memberID, day.Format(model.DateLayout),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count quiz solves: %w", err)
	}
	return n > 0, nil
}

// CountCorrectInMonth returns how many correct answers were recorded in the
// month overall and by the member.
func (s *QuizStore) CountCorrectInMonth(ctx context.Context, memberID uuid.UUID, year int, month time.Month) (int, int, error) {
	prefix := fmt.Sprintf("%04d-%02d-%%", year, int(month))
	var total, mine int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN member_id = ? THEN 1 ELSE 0 END), 0)
		 FROM quiz_solves WHERE correct = 1 AND solved_on LIKE ?`,
		memberID, prefix,
	).Scan(&total, &mine)
	if err != nil {
		return 0, 0, fmt.Errorf("count monthly solves: %w", err)
	}
	return total, mine, nil
}
