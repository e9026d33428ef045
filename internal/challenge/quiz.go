package challenge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dongibuyeo/dongibuyeo/internal/metrics"
	"github.com/dongibuyeo/dongibuyeo/internal/model"
	"github.com/dongibuyeo/dongibuyeo/internal/store"
	"github.com/google/uuid"
)

// QuizScoreLabel is the score detail a correct daily quiz answer earns.
const QuizScoreLabel = "[QUIZ] daily"

// Quizzes serves the daily quiz and credits correct answers to the
// member's running quiz challenges.
type Quizzes struct {
	db      *sql.DB
	now     Clock
	score   int
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewQuizzes(db *sql.DB, now Clock, score int, m *metrics.Metrics, logger *slog.Logger) *Quizzes {
	return &Quizzes{
		db:      db,
		now:     now,
		score:   score,
		metrics: m,
		logger:  componentLogger(logger, "quizzes"),
	}
}

func (q *Quizzes) Create(ctx context.Context, question string, answer bool) (*model.Quiz, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question is required: %w", ErrInvalidInput)
	}
	return store.NewQuizStore(q.db).Create(ctx, question, answer)
}

// Random returns any quiz.
func (q *Quizzes) Random(ctx context.Context) (*model.Quiz, error) {
	quiz, err := store.NewQuizStore(q.db).Random(ctx)
	if err != nil {
		return nil, err
	}
	if quiz == nil {
		return nil, ErrQuizNotFound
	}
	return quiz, nil
}

// SolveResult is the outcome of answering a quiz.
type SolveResult struct {
	Correct bool `json:"correct"`
	// Credited lists the memberships that received the quiz score.
	Credited []int64 `json:"credited"`
}

// Solve records a member's answer. Each member answers once per day. A
// correct answer credits every in-progress quiz challenge of the member.
func (q *Quizzes) Solve(ctx context.Context, memberID uuid.UUID, quizID int64, answer bool) (*SolveResult, error) {
	now := q.now()
	today := model.DateOf(now)

	result := &SolveResult{Credited: []int64{}}
	err := store.RunInTx(ctx, q.db, func(tx *store.Tx) error {
		member, err := tx.Members.GetByID(ctx, memberID)
		if err != nil {
			return err
		}
		if member == nil {
			return ErrMemberNotFound
		}
		quiz, err := tx.Quizzes.GetByID(ctx, quizID)
		if err != nil {
			return err
		}
		if quiz == nil {
			return ErrQuizNotFound
		}

		result.Correct = quiz.Answer == answer
		if _, err := tx.Quizzes.RecordSolve(ctx, quizID, memberID, today, result.Correct); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return ErrQuizAlreadySolved
			}
			return err
		}
		if !result.Correct {
			return nil
		}

		targets, err := tx.MemberChallenges.ListScoringTargets(ctx, model.ChallengeQuiz, memberID, now)
		if err != nil {
			return err
		}
		for _, t := range targets {
			_, applied, err := updateDailyScore(ctx, tx, t.ID, today, now, QuizScoreLabel, q.score)
			if err != nil {
				return err
			}
			if applied {
				result.Credited = append(result.Credited, t.ID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for range result.Credited {
		q.metrics.ScoreDetailAdded("quiz")
	}
	q.logger.Info("quiz solved", "member_id", memberID, "quiz_id", quizID, "correct", result.Correct, "credited", len(result.Credited))
	return result, nil
}

// SolvedToday reports whether the member already answered today.
func (q *Quizzes) SolvedToday(ctx context.Context, memberID uuid.UUID) (bool, error) {
	return store.NewQuizStore(q.db).SolvedOn(ctx, memberID, model.DateOf(q.now()))
}

// MonthlyStats counts correct answers in a month.
type MonthlyStats struct {
	Year         int        `json:"year"`
	Month        time.Month `json:"month"`
	TotalSolved  int        `json:"total_solved"`
	MemberSolved int        `json:"member_solved"`
}

func (q *Quizzes) MonthlyStats(ctx context.Context, memberID uuid.UUID, year int, month time.Month) (*MonthlyStats, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("month %d: %w", month, ErrInvalidInput)
	}
	total, mine, err := store.NewQuizStore(q.db).CountCorrectInMonth(ctx, memberID, year, month)
	if err != nil {
		return nil, err
	}
	return &MonthlyStats{Year: year, Month: month, TotalSolved: total, MemberSolved: mine}, nil
}
