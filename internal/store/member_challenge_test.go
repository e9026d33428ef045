package store

import (
	"context"
	"errors"
	"testing"

	"github.com/dongibuyeo/dongibuyeo/internal/model"
	"github.com/google/uuid"
)

func createMember(t *testing.T, ms *MemberStore, name string) *model.Member {
	t.Helper()
	account := "acct-" + name
	m, err := ms.Create(context.Background(), name, name+"@example.com", &account)
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	return m
}

func TestMemberStore(t *testing.T) {
	ms := NewMemberStore(setupTestDB(t))
	ctx := context.Background()

	m, err := ms.Create(ctx, "alice", "alice@example.com", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if m.HasChallengeAccount() {
		t.Error("unexpected challenge account")
	}
	if _, err := ms.Create(ctx, "alice again", "alice@example.com", nil); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate email error = %v, want ErrConflict", err)
	}

	m, err = ms.SetChallengeAccount(ctx, m.ID, "088-1")
	if err != nil {
		t.Fatalf("set account: %v", err)
	}
	if !m.HasChallengeAccount() || *m.ChallengeAccountNo != "088-1" {
		t.Errorf("account = %v", m.ChallengeAccountNo)
	}

	list, err := ms.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("list = %d, want 1", len(list))
	}
}

func TestMemberChallengeUniqueActive(t *testing.T) {
	db := setupTestDB(t)
	cs := NewChallengeStore(db)
	ms := NewMemberStore(db)
	mcs := NewMemberChallengeStore(db)
	ctx := context.Background()

	c := createChallenge(t, cs, model.ChallengeSavings, date(2024, 8, 13), date(2024, 8, 26))
	alice := createMember(t, ms, "alice")

	mc, err := mcs.Create(ctx, alice.ID, c.ID, 1000)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := mcs.Create(ctx, alice.ID, c.ID, 2000); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate active error = %v, want ErrConflict", err)
	}

	if err := mcs.SoftDelete(ctx, mc.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if err := mcs.SoftDelete(ctx, mc.ID); err == nil {
		t.Error("second soft delete succeeded")
	}
	if got, _ := mcs.GetByID(ctx, mc.ID); got != nil {
		t.Error("deleted membership still visible")
	}

	// a removed membership does not block rejoining
	again, err := mcs.Create(ctx, alice.ID, c.ID, 2000)
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	active, err := mcs.GetActive(ctx, c.ID, alice.ID)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if active == nil || active.ID != again.ID || active.Deposit != 2000 {
		t.Errorf("active = %+v", active)
	}

	total, count, err := mcs.DepositTotals(ctx, c.ID)
	if err != nil {
		t.Fatalf("deposit totals: %v", err)
	}
	if total != 2000 || count != 1 {
		t.Errorf("totals = %d/%d, want 2000/1", total, count)
	}
}

func TestMemberChallengeRequiresExistingRows(t *testing.T) {
	db := setupTestDB(t)
	mcs := NewMemberChallengeStore(db)
	if _, err := mcs.Create(context.Background(), uuid.New(), uuid.New(), 10); err == nil {
		t.Error("expected foreign key error")
	}
}

func TestScoresAndTopRankers(t *testing.T) {
	db := setupTestDB(t)
	cs := NewChallengeStore(db)
	ms := NewMemberStore(db)
	mcs := NewMemberChallengeStore(db)
	ctx := context.Background()
	c := createChallenge(t, cs, model.ChallengeQuiz, date(2024, 8, 13), date(2024, 8, 26))

	scores := map[string]int{"ann": 5, "ben": 20, "cat": 20, "dan": 1}
	for _, name := range []string{"ann", "ben", "cat", "dan"} {
		m := createMember(t, ms, name)
		mc, err := mcs.Create(ctx, m.ID, c.ID, 0)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if err := mcs.AddTotalScore(ctx, mc.ID, scores[name]); err != nil {
			t.Fatalf("add score: %v", err)
		}
	}

	got, err := mcs.ScoresByChallenge(ctx, c.ID)
	if err != nil {
		t.Fatalf("scores: %v", err)
	}
	want := []int{20, 20, 5, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("scores[%d] = %d, want %d", i, got[i], want[i])
		}
	}

	top, err := mcs.TopRankers(ctx, c.ID, 2)
	if err != nil {
		t.Fatalf("top rankers: %v", err)
	}
	if len(top) != 2 || top[0].MemberName != "ben" || top[1].MemberName != "cat" {
		t.Errorf("top = %+v, want ben, cat", top)
	}
}

func TestListScoringTargets(t *testing.T) {
	db := setupTestDB(t)
	cs := NewChallengeStore(db)
	ms := NewMemberStore(db)
	mcs := NewMemberChallengeStore(db)
	ctx := context.Background()
	today := date(2024, 8, 14)

	running := createChallenge(t, cs, model.ChallengeConsumptionCoffee, date(2024, 8, 13), date(2024, 8, 26))
	upcoming := createChallenge(t, cs, model.ChallengeConsumptionCoffee, date(2024, 8, 20), date(2024, 8, 26))
	other := createChallenge(t, cs, model.ChallengeConsumptionDrink, date(2024, 8, 13), date(2024, 8, 26))

	alice := createMember(t, ms, "alice")
	bob, err := ms.Create(ctx, "bob", "bob@example.com", nil)
	if err != nil {
		t.Fatalf("create bob: %v", err)
	}
	for _, c := range []*model.Challenge{running, upcoming, other} {
		if _, err := mcs.Create(ctx, alice.ID, c.ID, 100); err != nil {
			t.Fatalf("join: %v", err)
		}
	}
	if _, err := mcs.Create(ctx, bob.ID, running.ID, 100); err != nil {
		t.Fatalf("join: %v", err)
	}

	targets, err := mcs.ListScoringTargets(ctx, model.ChallengeConsumptionCoffee, uuid.Nil, today)
	if err != nil {
		t.Fatalf("list targets: %v", err)
	}
	if len(targets) != 2 {
		t.Fatalf("targets = %d, want 2", len(targets))
	}
	if targets[0].MemberID != alice.ID || targets[0].ChallengeAccountNo == nil {
		t.Errorf("targets[0] = %+v", targets[0])
	}
	if targets[1].MemberID != bob.ID || targets[1].ChallengeAccountNo != nil {
		t.Errorf("targets[1] = %+v", targets[1])
	}

	mine, err := mcs.ListScoringTargets(ctx, model.ChallengeConsumptionCoffee, bob.ID, today)
	if err != nil {
		t.Fatalf("list bob targets: %v", err)
	}
	if len(mine) != 1 || mine[0].ChallengeID != running.ID {
		t.Errorf("bob targets = %+v", mine)
	}
}
