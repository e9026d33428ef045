package challenge

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dongibuyeo/dongibuyeo/internal/bank/banktest"
	"github.com/dongibuyeo/dongibuyeo/internal/config"
	"github.com/dongibuyeo/dongibuyeo/internal/database"
	"github.com/dongibuyeo/dongibuyeo/internal/model"
	"github.com/google/uuid"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type testEnv struct {
	loc        *time.Location
	clock      *testClock
	bank       *banktest.Bank
	service    *Service
	membership *Membership
	scoring    *Scoring
	ranking    *Ranking
	refunds    *Refunds
	quizzes    *Quizzes
}

// setupEnv wires every component over a fresh in-memory database. The
// clock starts on Monday 2024-08-12 09:00 in Seoul.
func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	loc := seoul(t)
	clock := &testClock{now: time.Date(2024, 8, 12, 9, 0, 0, 0, loc)}
	b := banktest.New(loc)
	cfg := config.Default()

	refunds := NewRefunds(db, b, nil, nil)
	return &testEnv{
		loc:   loc,
		clock: clock,
		bank:  b,
		service: NewService(db, b, clock.Now, Provisioning{
			Savings:       cfg.Savings,
			QuizDeposit:   cfg.Quiz.Deposit,
			QuizHeadCount: cfg.Quiz.HeadCount,
		}, nil),
		membership: NewMembership(db, refunds, clock.Now, nil, nil),
		scoring:    NewScoring(db, b, clock.Now, nil, nil),
		ranking:    NewRanking(db, DefaultRewardDivisionRatio),
		refunds:    refunds,
		quizzes:    NewQuizzes(db, clock.Now, cfg.Quiz.Score, nil, nil),
	}
}

func (e *testEnv) day(month time.Month, d, hour int) time.Time {
	return time.Date(2024, month, d, hour, 0, 0, 0, e.loc)
}

// newChallenge creates a challenge running 2024-08-13 through 2024-08-26.
func (e *testEnv) newChallenge(t *testing.T, ctype model.ChallengeType) *model.Challenge {
	t.Helper()
	c, err := e.service.Create(context.Background(), CreateInput{
		Type:      ctype,
		Title:     string(ctype) + " challenge",
		StartDate: e.day(time.August, 13, 0),
		EndDate:   e.day(time.August, 26, 0),
	})
	if err != nil {
		t.Fatalf("create challenge: %v", err)
	}
	return c
}

// newMember registers a member with a funded challenge account.
func (e *testEnv) newMember(t *testing.T, name string) *model.Member {
	t.Helper()
	account := e.bank.OpenAccount(1_000_000)
	m, err := e.service.RegisterMember(context.Background(), name, name+"@example.com", &account)
	if err != nil {
		t.Fatalf("register member: %v", err)
	}
	return m
}

func (e *testEnv) join(t *testing.T, c *model.Challenge, m *model.Member, deposit int64) *model.MemberChallenge {
	t.Helper()
	mc, err := e.membership.Join(context.Background(), c.ID, m.ID, deposit)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	return mc
}

func (e *testEnv) reload(t *testing.T, id uuid.UUID) *model.Challenge {
	t.Helper()
	c, err := e.service.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get challenge: %v", err)
	}
	return c
}
