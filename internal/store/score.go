package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dongibuyeo/dongibuyeo/internal/model"
)

type ScoreStore struct {
	db DBTX
}

func NewScoreStore(db *sql.DB) *ScoreStore {
	return &ScoreStore{db: db}
}

// CreateDailyIfAbsent inserts an empty DailyScore for (memberChallengeID,
// date) unless one exists. It reports whether a row was created.
func (s *ScoreStore) CreateDailyIfAbsent(ctx context.Context, memberChallengeID int64, date time.Time) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO daily_scores (member_challenge_id, score_date) VALUES (?, ?)
		 ON CONFLICT (member_challenge_id, score_date) DO NOTHING`,
		memberChallengeID, date.Format(model.DateLayout),
	)
	if err != nil {
		return false, fmt.Errorf("insert daily score: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// GetDaily returns the DailyScore with its details, or nil.
func (s *ScoreStore) GetDaily(ctx context.Context, memberChallengeID int64, date time.Time) (*model.DailyScore, error) {
	var ds model.DailyScore
	var scoreDate string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, member_challenge_id, score_date, total_score FROM daily_scores
		 WHERE member_challenge_id = ? AND score_date = ?`,
		memberChallengeID, date.Format(model.DateLayout),
	).Scan(&ds.ID, &ds.MemberChallengeID, &scoreDate, &ds.TotalScore)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get daily score: %w", err)
	}
	if ds.Date, err = model.ParseDate(scoreDate); err != nil {
		return nil, fmt.Errorf("parse score date: %w", err)
	}

	details, err := s.listDetails(ctx, ds.ID)
	if err != nil {
		return nil, err
	}
	ds.Details = details
	return &ds, nil
}

// ListDaily returns every DailyScore of a membership, newest first.
func (s *ScoreStore) ListDaily(ctx context.Context, memberChallengeID int64) ([]model.DailyScore, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, member_challenge_id, score_date, total_score FROM daily_scores
		 WHERE member_challenge_id = ? ORDER BY score_date DESC`, memberChallengeID)
	if err != nil {
		return nil, fmt.Errorf("list daily scores: %w", err)
	}
	defer rows.Close()

	var scores []model.DailyScore
	for rows.Next() {
		var ds model.DailyScore
		var scoreDate string
		if err := rows.Scan(&ds.ID, &ds.MemberChallengeID, &scoreDate, &ds.TotalScore); err != nil {
			return nil, fmt.Errorf("scan daily score: %w", err)
		}
		if ds.Date, err = model.ParseDate(scoreDate); err != nil {
			return nil, fmt.Errorf("parse score date: %w", err)
		}
		scores = append(scores, ds)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily scores: %w", err)
	}
	rows.Close()

	for i := range scores {
		details, err := s.listDetails(ctx, scores[i].ID)
		if err != nil {
			return nil, err
		}
		scores[i].Details = details
	}
	return scores, nil
}

func (s *ScoreStore) listDetails(ctx context.Context, dailyScoreID int64) ([]model.ScoreDetail, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT description, score, running_total, created_at FROM score_details
		 WHERE daily_score_id = ? ORDER BY id ASC`, dailyScoreID)
	if err != nil {
		return nil, fmt.Errorf("list score details: %w", err)
	}
	defer rows.Close()

	details := []model.ScoreDetail{}
	for rows.Next() {
		var d model.ScoreDetail
		if err := rows.Scan(&d.Description, &d.Score, &d.RunningTotal, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan score detail: %w", err)
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

// AppendDetail inserts a ScoreDetail unless the DailyScore already has one
// with the same description, and on insert bumps the daily total. It reports
// whether the detail was inserted.
func (s *ScoreStore) AppendDetail(ctx context.Context, dailyScoreID int64, description string, score, runningTotal int) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO score_details (daily_score_id, description, score, running_total) VALUES (?, ?, ?, ?)
		 ON CONFLICT (daily_score_id, description) DO NOTHING`,
		dailyScoreID, description, score, runningTotal,
	)
	if err != nil {
		return false, fmt.Errorf("insert score detail: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE daily_scores SET total_score = total_score + ? WHERE id = ?`, score, dailyScoreID,
	); err != nil {
		return false, fmt.Errorf("update daily total: %w", err)
	}
	return true, nil
}

// SumDaily returns the sum of the daily totals of a membership.
func (s *ScoreStore) SumDaily(ctx context.Context, memberChallengeID int64) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total_score), 0) FROM daily_scores WHERE member_challenge_id = ?`,
		memberChallengeID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum daily scores: %w", err)
	}
	return total, nil
}
