package challenge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dongibuyeo/dongibuyeo/internal/bank"
	"github.com/dongibuyeo/dongibuyeo/internal/metrics"
	"github.com/dongibuyeo/dongibuyeo/internal/model"
	"github.com/dongibuyeo/dongibuyeo/internal/store"
	"github.com/google/uuid"
)

// Scoring maintains daily scores and runs fever-time sweeps.
type Scoring struct {
	db      *sql.DB
	ledger  bank.Ledger
	now     Clock
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewScoring(db *sql.DB, ledger bank.Ledger, now Clock, m *metrics.Metrics, logger *slog.Logger) *Scoring {
	return &Scoring{
		db:      db,
		ledger:  ledger,
		now:     now,
		metrics: m,
		logger:  componentLogger(logger, "scoring"),
	}
}

// GetOrCreateDailyScore returns the DailyScore of a membership for date,
// creating it with the DAILY_SCORE participation credit on first access.
// The challenge must be in progress and date must fall between its start
// date and today.
func (s *Scoring) GetOrCreateDailyScore(ctx context.Context, memberChallengeID int64, date time.Time) (*model.DailyScore, error) {
	now := s.now()
	var ds *model.DailyScore
	err := store.RunInTx(ctx, s.db, func(tx *store.Tx) error {
		mc, err := scorableMembership(ctx, tx, memberChallengeID, date, now)
		if err != nil {
			return err
		}
		ds, err = getOrCreateDaily(ctx, tx, mc.ID, date)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ds, nil
}

// UpdateDailyScore appends a scored detail to the DailyScore of date. A
// description already recorded that day is ignored. It reports whether the
// score was applied.
func (s *Scoring) UpdateDailyScore(ctx context.Context, memberChallengeID int64, date time.Time, description string, score int) (*model.DailyScore, bool, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, false, fmt.Errorf("score description is required: %w", ErrInvalidInput)
	}

	now := s.now()
	var ds *model.DailyScore
	var applied bool
	err := store.RunInTx(ctx, s.db, func(tx *store.Tx) error {
		var err error
		ds, applied, err = updateDailyScore(ctx, tx, memberChallengeID, date, now, description, score)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	if applied {
		s.metrics.ScoreDetailAdded("manual")
	}
	return ds, applied, nil
}

// ScoreBreakdown returns a member's cumulative score in a challenge with
// every daily score, newest first.
func (s *Scoring) ScoreBreakdown(ctx context.Context, challengeID, memberID uuid.UUID) (*model.ScoreBreakdown, error) {
	c, err := store.NewChallengeStore(s.db).GetByID(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrChallengeNotFound
	}
	mc, err := store.NewMemberChallengeStore(s.db).GetActive(ctx, challengeID, memberID)
	if err != nil {
		return nil, err
	}
	if mc == nil {
		return nil, ErrMemberChallengeNotFound
	}
	daily, err := store.NewScoreStore(s.db).ListDaily(ctx, mc.ID)
	if err != nil {
		return nil, err
	}
	if daily == nil {
		daily = []model.DailyScore{}
	}
	return &model.ScoreBreakdown{TotalScore: mc.TotalScore, DailyScores: daily}, nil
}

// Credit is one fever bonus granted by a sweep.
type Credit struct {
	MemberChallengeID int64     `json:"member_challenge_id"`
	MemberID          uuid.UUID `json:"member_id"`
	ChallengeID       uuid.UUID `json:"challenge_id"`
	Label             string    `json:"label"`
	Score             int       `json:"score"`
}

// SweepResult summarizes a fever-time sweep.
type SweepResult struct {
	ChallengeType model.ChallengeType `json:"challenge_type"`
	Windows       int                 `json:"windows"`
	Evaluated     int                 `json:"evaluated"`
	Skipped       int                 `json:"skipped"`
	Credits       []Credit            `json:"credits"`
}

// RewardNonConsumptionDuringFeverTime credits every active member of an
// in-progress challenge of ctype who made no transfer of transferType
// during one of the type's fever windows. Credits go to today's DailyScore
// and are de-duplicated by window label, so repeated sweeps are harmless.
// Windows that have not closed yet are skipped and left to a later sweep.
func (s *Scoring) RewardNonConsumptionDuringFeverTime(ctx context.Context, ctype model.ChallengeType, transferType bank.TransferType) (*SweepResult, error) {
	started := time.Now()
	defer func() { s.metrics.ObserveSweep(string(ctype), time.Since(started)) }()

	now := s.now()
	windows, err := ResolveFeverTimes(ctype, now)
	if err != nil {
		return nil, err
	}
	if transferType == "" {
		transferType = FeverTransferTypes[ctype]
	}

	result := &SweepResult{ChallengeType: ctype, Windows: len(windows), Credits: []Credit{}}
	if len(windows) == 0 {
		return result, nil
	}

	targets, err := store.NewMemberChallengeStore(s.db).ListScoringTargets(ctx, ctype, uuid.Nil, now)
	if err != nil {
		return nil, err
	}

	for _, w := range windows {
		if w.End.After(now) {
			s.logger.Debug("fever window still open", "label", w.Label, "end", w.End)
			result.Skipped += len(targets)
			continue
		}
		for _, t := range targets {
			if t.ChallengeAccountNo == nil || *t.ChallengeAccountNo == "" {
				s.logger.Warn("member has no challenge account", "member_id", t.MemberID, "member_challenge_id", t.ID)
				result.Skipped++
				continue
			}
			result.Evaluated++

			consumed, err := s.consumedDuring(ctx, *t.ChallengeAccountNo, w, transferType)
			if err != nil {
				return result, err
			}
			if consumed {
				continue
			}

			_, applied, err := s.creditFever(ctx, t.ID, now, w)
			if errors.Is(err, ErrMemberChallengeNotFound) {
				// left the challenge after the targets were loaded
				continue
			}
			if err != nil {
				return result, fmt.Errorf("credit %s to member challenge %d: %w", w.Label, t.ID, err)
			}
			if applied {
				result.Credits = append(result.Credits, Credit{
					MemberChallengeID: t.ID,
					MemberID:          t.MemberID,
					ChallengeID:       t.ChallengeID,
					Label:             w.Label,
					Score:             w.Score,
				})
			}
		}
	}

	s.logger.Info("fever sweep finished",
		"challenge_type", ctype,
		"windows", result.Windows,
		"evaluated", result.Evaluated,
		"credited", len(result.Credits),
		"skipped", result.Skipped,
	)
	return result, nil
}

func (s *Scoring) creditFever(ctx context.Context, memberChallengeID int64, now time.Time, w FeverTime) (*model.DailyScore, bool, error) {
	var ds *model.DailyScore
	var applied bool
	err := store.RunInTx(ctx, s.db, func(tx *store.Tx) error {
		var err error
		ds, applied, err = updateDailyScore(ctx, tx, memberChallengeID, now, now, w.Label, w.Score)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	if applied {
		s.metrics.ScoreDetailAdded("fever")
	}
	return ds, applied, nil
}

// consumedDuring reports whether the account has a transfer of kind inside w.
func (s *Scoring) consumedDuring(ctx context.Context, accountNo string, w FeverTime, kind bank.TransferType) (bool, error) {
	txs, err := s.ledger.TransactionHistory(ctx, bank.HistoryRequest{
		AccountNo: accountNo,
		Start:     w.Start,
		End:       w.End,
		Type:      kind,
	})
	if err != nil {
		return false, fmt.Errorf("transaction history of %s: %w: %w", accountNo, ErrExternal, err)
	}
	for _, t := range txs {
		ts, err := t.At(w.Start.Location())
		if err != nil {
			return false, fmt.Errorf("transaction history of %s: %w: %w", accountNo, ErrExternal, err)
		}
		if w.Contains(ts) {
			return true, nil
		}
	}
	return false, nil
}

func updateDailyScore(ctx context.Context, tx *store.Tx, memberChallengeID int64, date, now time.Time, description string, score int) (*model.DailyScore, bool, error) {
	mc, err := scorableMembership(ctx, tx, memberChallengeID, date, now)
	if err != nil {
		return nil, false, err
	}
	ds, err := getOrCreateDaily(ctx, tx, mc.ID, date)
	if err != nil {
		return nil, false, err
	}
	applied, err := appendDetail(ctx, tx, ds, description, score)
	if err != nil {
		return nil, false, err
	}
	return ds, applied, nil
}

// scorableMembership loads a membership whose score for date may change at
// now: its challenge is in progress and date lies between the start date and
// today.
func scorableMembership(ctx context.Context, tx *store.Tx, memberChallengeID int64, date, now time.Time) (*model.MemberChallenge, error) {
	mc, err := tx.MemberChallenges.GetByID(ctx, memberChallengeID)
	if err != nil {
		return nil, err
	}
	if mc == nil {
		return nil, ErrMemberChallengeNotFound
	}
	c, err := tx.Challenges.GetByID(ctx, mc.ChallengeID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrChallengeNotFound
	}
	switch c.Status(now) {
	case model.StatusScheduled:
		return nil, ErrChallengeNotStarted
	case model.StatusCompleted:
		return nil, ErrChallengeEnded
	}
	day := model.DateOf(date)
	if day.Before(c.StartDate) || day.After(c.EndDate) || day.After(model.DateOf(now)) {
		return nil, fmt.Errorf("score date %s outside %s..%s: %w",
			day.Format(model.DateLayout), c.StartDate.Format(model.DateLayout), model.DateOf(now).Format(model.DateLayout), ErrInvalidInput)
	}
	return mc, nil
}

func getOrCreateDaily(ctx context.Context, tx *store.Tx, memberChallengeID int64, date time.Time) (*model.DailyScore, error) {
	date = model.DateOf(date)
	created, err := tx.Scores.CreateDailyIfAbsent(ctx, memberChallengeID, date)
	if err != nil {
		return nil, err
	}
	ds, err := tx.Scores.GetDaily(ctx, memberChallengeID, date)
	if err != nil {
		return nil, err
	}
	if ds == nil {
		return nil, fmt.Errorf("daily score %d/%s vanished", memberChallengeID, date.Format(model.DateLayout))
	}
	if created {
		if _, err := appendDetail(ctx, tx, ds, model.DailyScoreSeedLabel, model.DailyScoreSeedScore); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

// appendDetail records a detail on ds and moves the daily and cumulative
// totals by score. ds is updated in place.
func appendDetail(ctx context.Context, tx *store.Tx, ds *model.DailyScore, description string, score int) (bool, error) {
	if ds.HasDetail(description) {
		return false, nil
	}
	running := ds.TotalScore + score
	inserted, err := tx.Scores.AppendDetail(ctx, ds.ID, description, score, running)
	if err != nil || !inserted {
		return false, err
	}
	if err := tx.MemberChallenges.AddTotalScore(ctx, ds.MemberChallengeID, score); err != nil {
		return false, err
	}
	ds.TotalScore = running
	ds.Details = append(ds.Details, model.ScoreDetail{
		Description:  description,
		Score:        score,
		RunningTotal: running,
		CreatedAt:    time.Now().UTC(),
	})
	return true, nil
}
