package challenge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dongibuyeo/dongibuyeo/internal/bank"
	"github.com/dongibuyeo/dongibuyeo/internal/model"
	"github.com/google/uuid"
)

func TestCreateProvisionsEscrow(t *testing.T) {
	env := setupEnv(t)
	c := env.newChallenge(t, model.ChallengeConsumptionCoffee)

	if c.ID.Version() != 7 {
		t.Errorf("id version = %d, want 7", c.ID.Version())
	}
	if c.AccountNo == "" {
		t.Error("escrow account not set")
	}
	if c.TotalDeposit != 0 || c.Participants != 0 {
		t.Errorf("counters = %d/%d, want 0/0", c.TotalDeposit, c.Participants)
	}
	if got := c.Status(env.clock.Now()); got != model.StatusScheduled {
		t.Errorf("status = %s, want SCHEDULED", got)
	}
}

func TestCreateSavingsCreatesProduct(t *testing.T) {
	env := setupEnv(t)
	env.newChallenge(t, model.ChallengeSavings)

	products := env.bank.SavingsProducts()
	if len(products) != 1 {
		t.Fatalf("savings products = %d, want 1", len(products))
	}
	if products[0].AccountName != "SAVINGS20240812" {
		t.Errorf("product name = %q, want SAVINGS20240812", products[0].AccountName)
	}
	if products[0].BankCode != "088" {
		t.Errorf("bank code = %q, want 088", products[0].BankCode)
	}
}

func TestCreateQuizFundsEscrow(t *testing.T) {
	env := setupEnv(t)
	c := env.newChallenge(t, model.ChallengeQuiz)

	if got := env.bank.Balance(c.AccountNo); got != 1000*42 {
		t.Errorf("escrow balance = %d, want %d", got, 1000*42)
	}
	transfers := env.bank.Transfers()
	if len(transfers) != 1 || transfers[0].Type != bank.TransferDeposit {
		t.Errorf("transfers = %+v", transfers)
	}
}

func TestCreateValidation(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	tomorrow := env.day(time.August, 13, 0)

	tests := []struct {
		name string
		in   CreateInput
		want error
	}{
		{"unknown type", CreateInput{Type: "LOTTERY", Title: "x", StartDate: tomorrow, EndDate: tomorrow}, ErrInvalidChallengeType},
		{"missing title", CreateInput{Type: model.ChallengeSavings, StartDate: tomorrow, EndDate: tomorrow}, ErrInvalidInput},
		{"end before start", CreateInput{Type: model.ChallengeSavings, Title: "x", StartDate: tomorrow, EndDate: tomorrow.AddDate(0, 0, -1)}, ErrInvalidInput},
		{"starts today", CreateInput{Type: model.ChallengeSavings, Title: "x", StartDate: env.day(time.August, 12, 0), EndDate: tomorrow}, ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.service.Create(ctx, tt.in); !errors.Is(err, tt.want) {
				t.Errorf("Create error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCreateEscrowFailure(t *testing.T) {
	env := setupEnv(t)
	env.bank.AccountErr = errors.New("maintenance")

	_, err := env.service.Create(context.Background(), CreateInput{
		Type:      model.ChallengeSavings,
		Title:     "x",
		StartDate: env.day(time.August, 13, 0),
		EndDate:   env.day(time.August, 20, 0),
	})
	if !errors.Is(err, ErrExternal) {
		t.Fatalf("Create error = %v, want ErrExternal", err)
	}
	list, _ := env.service.List(context.Background())
	if len(list) != 0 {
		t.Errorf("challenges = %d, want 0", len(list))
	}
}

func TestListByStatus(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	early := env.newChallenge(t, model.ChallengeSavings)
	env.clock.Set(env.day(time.August, 20, 9))
	late, err := env.service.Create(ctx, CreateInput{
		Type:      model.ChallengeQuiz,
		Title:     "late",
		StartDate: env.day(time.August, 25, 0),
		EndDate:   env.day(time.August, 31, 0),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	check := func(status model.ChallengeStatus, want ...uuid.UUID) {
		t.Helper()
		got, err := env.service.ListByStatus(ctx, status)
		if err != nil {
			t.Fatalf("ListByStatus(%s): %v", status, err)
		}
		if len(got) != len(want) {
			t.Fatalf("ListByStatus(%s) = %d challenges, want %d", status, len(got), len(want))
		}
		for i := range want {
			if got[i].ID != want[i] {
				t.Errorf("ListByStatus(%s)[%d] = %s, want %s", status, i, got[i].ID, want[i])
			}
		}
	}
	check(model.StatusInProgress, early.ID)
	check(model.StatusScheduled, late.ID)
	check(model.StatusCompleted)

	env.clock.Set(env.day(time.August, 27, 9))
	check(model.StatusCompleted, early.ID)
	check(model.StatusInProgress, late.ID)

	if _, err := env.service.ListByStatus(ctx, "PAUSED"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad status error = %v, want ErrInvalidInput", err)
	}
}

func TestListByMember(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	a := env.newChallenge(t, model.ChallengeSavings)
	b := env.newChallenge(t, model.ChallengeQuiz)
	env.newChallenge(t, model.ChallengeConsumptionCoffee)
	alice := env.newMember(t, "alice")
	env.join(t, a, alice, 100)
	env.join(t, b, alice, 100)
	if _, err := env.membership.Cancel(ctx, b.ID, alice.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	got, err := env.service.ListByMember(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListByMember: %v", err)
	}
	if len(got) != 1 || got[0].ID != a.ID {
		t.Errorf("ListByMember = %+v, want only %s", got, a.ID)
	}

	got, err = env.service.ListByMemberAndStatus(ctx, alice.ID, model.StatusInProgress)
	if err != nil {
		t.Fatalf("ListByMemberAndStatus: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("in progress = %d, want 0", len(got))
	}
	got, _ = env.service.ListByMemberAndStatus(ctx, alice.ID, model.StatusScheduled)
	if len(got) != 1 {
		t.Errorf("scheduled = %d, want 1", len(got))
	}

	if _, err := env.service.ListByMember(ctx, uuid.New()); !errors.Is(err, ErrMemberNotFound) {
		t.Errorf("unknown member error = %v, want ErrMemberNotFound", err)
	}
}

func TestUpdateOnlyWhileScheduled(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	c := env.newChallenge(t, model.ChallengeSavings)

	title := "Summer savings"
	end := env.day(time.August, 30, 0)
	updated, err := env.service.Update(ctx, c.ID, Patch{Title: &title, EndDate: &end})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != title || !updated.EndDate.Equal(model.DateOf(end)) {
		t.Errorf("updated = %+v", updated)
	}

	past := env.day(time.August, 10, 0)
	if _, err := env.service.Update(ctx, c.ID, Patch{StartDate: &past}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("past start error = %v, want ErrInvalidInput", err)
	}

	env.clock.Set(env.day(time.August, 13, 9))
	if _, err := env.service.Update(ctx, c.ID, Patch{Title: &title}); !errors.Is(err, ErrChallengeAlreadyStarted) {
		t.Errorf("update in progress error = %v, want ErrChallengeAlreadyStarted", err)
	}
}

func TestDelete(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	empty := env.newChallenge(t, model.ChallengeSavings)
	joined := env.newChallenge(t, model.ChallengeQuiz)
	env.join(t, joined, env.newMember(t, "alice"), 100)

	if err := env.service.Delete(ctx, joined.ID); !errors.Is(err, ErrChallengeHasParticipants) {
		t.Errorf("delete joined error = %v, want ErrChallengeHasParticipants", err)
	}
	if err := env.service.Delete(ctx, empty.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := env.service.Get(ctx, empty.ID); !errors.Is(err, ErrChallengeNotFound) {
		t.Errorf("get deleted error = %v, want ErrChallengeNotFound", err)
	}
	if err := env.service.Delete(ctx, empty.ID); !errors.Is(err, ErrChallengeNotFound) {
		t.Errorf("double delete error = %v, want ErrChallengeNotFound", err)
	}

	env.clock.Set(env.day(time.August, 14, 9))
	if err := env.service.Delete(ctx, joined.ID); !errors.Is(err, ErrChallengeAlreadyStarted) {
		t.Errorf("delete started error = %v, want ErrChallengeAlreadyStarted", err)
	}
}

func TestRegisterMember(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	m, err := env.service.RegisterMember(ctx, "alice", "alice@example.com", nil)
	if err != nil {
		t.Fatalf("RegisterMember: %v", err)
	}
	if m.HasChallengeAccount() {
		t.Error("new member has a challenge account")
	}
	if _, err := env.service.RegisterMember(ctx, "alice2", "alice@example.com", nil); !errors.Is(err, ErrMemberExists) {
		t.Errorf("duplicate email error = %v, want ErrMemberExists", err)
	}
	if _, err := env.service.RegisterMember(ctx, "bob", "not-an-email", nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad email error = %v, want ErrInvalidInput", err)
	}

	m, err = env.service.AssignChallengeAccount(ctx, m.ID, "088000000099")
	if err != nil {
		t.Fatalf("AssignChallengeAccount: %v", err)
	}
	if !m.HasChallengeAccount() || *m.ChallengeAccountNo != "088000000099" {
		t.Errorf("account = %v", m.ChallengeAccountNo)
	}
}

func TestMemberChallengeIncludesDailyScores(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	c := env.newChallenge(t, model.ChallengeSavings)
	alice := env.newMember(t, "alice")
	mc := env.join(t, c, alice, 100)
	env.clock.Set(env.day(time.August, 13, 9))
	if _, err := env.scoring.GetOrCreateDailyScore(ctx, mc.ID, env.day(time.August, 13, 0)); err != nil {
		t.Fatalf("GetOrCreateDailyScore: %v", err)
	}

	got, err := env.service.MemberChallenge(ctx, c.ID, alice.ID)
	if err != nil {
		t.Fatalf("MemberChallenge: %v", err)
	}
	if len(got.DailyScores) != 1 || got.TotalScore != 10 {
		t.Errorf("member challenge = %+v", got)
	}

	participants, err := env.service.Participants(ctx, c.ID)
	if err != nil {
		t.Fatalf("Participants: %v", err)
	}
	if len(participants) != 1 || participants[0].MemberID != alice.ID {
		t.Errorf("participants = %+v", participants)
	}
}
