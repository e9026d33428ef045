package challenge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dongibuyeo/dongibuyeo/internal/model"
)

func TestQuizSolveCreditsRunningQuizChallenges(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	quizChallenge := env.newChallenge(t, model.ChallengeQuiz)
	coffee := env.newChallenge(t, model.ChallengeConsumptionCoffee)
	alice := env.newMember(t, "alice")
	mc := env.join(t, quizChallenge, alice, 1000)
	env.join(t, coffee, alice, 1000)

	quiz, err := env.quizzes.Create(ctx, "A deposit is insured up to the limit.", true)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	env.clock.Set(env.day(time.August, 14, 9))
	res, err := env.quizzes.Solve(ctx, alice.ID, quiz.ID, true)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if !res.Correct || len(res.Credited) != 1 || res.Credited[0] != mc.ID {
		t.Fatalf("result = %+v", res)
	}

	ds, err := env.scoring.GetOrCreateDailyScore(ctx, mc.ID, env.day(time.August, 14, 0))
	if err != nil {
		t.Fatalf("GetOrCreateDailyScore: %v", err)
	}
	if !ds.HasDetail(QuizScoreLabel) || ds.TotalScore != 15 {
		t.Errorf("daily = %+v, want quiz credit and total 15", ds)
	}

	if _, err := env.quizzes.Solve(ctx, alice.ID, quiz.ID, true); !errors.Is(err, ErrQuizAlreadySolved) {
		t.Errorf("second solve error = %v, want ErrQuizAlreadySolved", err)
	}
	solved, err := env.quizzes.SolvedToday(ctx, alice.ID)
	if err != nil || !solved {
		t.Errorf("SolvedToday = %v, %v; want true", solved, err)
	}

	stats, err := env.quizzes.MonthlyStats(ctx, alice.ID, 2024, time.August)
	if err != nil {
		t.Fatalf("MonthlyStats: %v", err)
	}
	if stats.TotalSolved != 1 || stats.MemberSolved != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestQuizWrongAnswerCreditsNothing(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	c := env.newChallenge(t, model.ChallengeQuiz)
	alice := env.newMember(t, "alice")
	env.join(t, c, alice, 1000)
	quiz, err := env.quizzes.Create(ctx, "Interest is paid daily.", false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	env.clock.Set(env.day(time.August, 14, 9))
	res, err := env.quizzes.Solve(ctx, alice.ID, quiz.ID, true)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if res.Correct || len(res.Credited) != 0 {
		t.Errorf("result = %+v, want incorrect and no credits", res)
	}
}

func TestQuizErrors(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	alice := env.newMember(t, "alice")

	if _, err := env.quizzes.Random(ctx); !errors.Is(err, ErrQuizNotFound) {
		t.Errorf("Random on empty error = %v, want ErrQuizNotFound", err)
	}
	if _, err := env.quizzes.Solve(ctx, alice.ID, 42, true); !errors.Is(err, ErrQuizNotFound) {
		t.Errorf("Solve unknown error = %v, want ErrQuizNotFound", err)
	}
	if _, err := env.quizzes.Create(ctx, " ", true); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Create blank error = %v, want ErrInvalidInput", err)
	}

	q, err := env.quizzes.Create(ctx, "Q?", true)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := env.quizzes.Random(ctx)
	if err != nil || got.ID != q.ID {
		t.Errorf("Random = %+v, %v", got, err)
	}
}
