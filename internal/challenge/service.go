package challenge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/dongibuyeo/dongibuyeo/internal/bank"
	"github.com/dongibuyeo/dongibuyeo/internal/config"
	"github.com/dongibuyeo/dongibuyeo/internal/model"
	"github.com/dongibuyeo/dongibuyeo/internal/store"
	"github.com/google/uuid"
)

// Provisioning holds what challenge creation needs beyond the request.
type Provisioning struct {
	Savings       config.SavingsConfig
	QuizDeposit   int64
	QuizHeadCount int64
}

// Service manages challenges and the member registry.
type Service struct {
	db     *sql.DB
	ledger bank.Ledger
	now    Clock
	prov   Provisioning
	logger *slog.Logger
}

func NewService(db *sql.DB, ledger bank.Ledger, now Clock, prov Provisioning, logger *slog.Logger) *Service {
	return &Service{
		db:     db,
		ledger: ledger,
		now:    now,
		prov:   prov,
		logger: componentLogger(logger, "challenges"),
	}
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.now()
}

type CreateInput struct {
	Type        model.ChallengeType
	Title       string
	Description string
	Image       string
	StartDate   time.Time
	EndDate     time.Time
}

// Patch holds the fields to change; nil fields are left alone.
type Patch struct {
	Type        *model.ChallengeType
	Title       *string
	Description *string
	Image       *string
	StartDate   *time.Time
	EndDate     *time.Time
}

// Create opens an escrow account for a new challenge, runs the type's
// extra provisioning and stores the challenge.
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Challenge, error) {
	c := &model.Challenge{
		Type:        in.Type,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Image:       in.Image,
		StartDate:   model.DateOf(in.StartDate),
		EndDate:     model.DateOf(in.EndDate),
	}
	if err := s.validate(c); err != nil {
		return nil, err
	}

	admin, err := s.ledger.AdminMember(ctx)
	if err != nil {
		return nil, fmt.Errorf("admin member: %w: %w", ErrExternal, err)
	}
	product, err := s.ledger.AdminProduct(ctx)
	if err != nil {
		return nil, fmt.Errorf("admin product: %w: %w", ErrExternal, err)
	}
	account, err := s.ledger.CreateEscrowAccount(ctx, admin.MemberID, product.AccountTypeUniqueNo)
	if err != nil {
		return nil, fmt.Errorf("create escrow account: %w: %w", ErrExternal, err)
	}
	c.AccountNo = account.AccountNo

	if err := s.provision(ctx, c, admin); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate challenge id: %w", err)
	}
	c.ID = id

	created, err := store.NewChallengeStore(s.db).Create(ctx, c)
	if err != nil {
		s.logger.Error("challenge not stored after escrow was opened", "account_no", c.AccountNo, "error", err)
		return nil, err
	}
	s.logger.Info("challenge created", "challenge_id", created.ID, "type", created.Type, "account_no", created.AccountNo)
	return created, nil
}

// provision runs the per-type setup of a new challenge.
func (s *Service) provision(ctx context.Context, c *model.Challenge, admin bank.Member) error {
	switch c.Type {
	case model.ChallengeSavings:
		_, err := s.ledger.CreateSavingsProduct(ctx, bank.SavingsProduct{
			BankCode:               s.prov.Savings.BankCode,
			AccountName:            string(c.Type) + s.now().Format("20060102"),
			AccountDescription:     c.Title + " challenge savings",
			SubscriptionPeriod:     s.prov.Savings.SubscriptionPeriod,
			MinSubscriptionBalance: s.prov.Savings.MinBalance,
			MaxSubscriptionBalance: s.prov.Savings.MaxBalance,
			InterestRate:           s.prov.Savings.InterestRate,
			RateDescription:        c.Title + " challenge rate",
		})
		if err != nil {
			return fmt.Errorf("create savings product: %w: %w", ErrExternal, err)
		}
	case model.ChallengeQuiz:
		_, err := s.ledger.Transfer(ctx, bank.TransferRequest{
			MemberID:  admin.MemberID,
			ToAccount: c.AccountNo,
			Amount:    s.prov.QuizDeposit * s.prov.QuizHeadCount,
			Type:      bank.TransferDeposit,
		})
		if err != nil {
			return fmt.Errorf("fund quiz escrow: %w: %w", ErrExternal, err)
		}
	case model.ChallengeConsumptionCoffee, model.ChallengeConsumptionDrink, model.ChallengeConsumptionDelivery:
	default:
		return fmt.Errorf("provision %q: %w", c.Type, ErrInvalidChallengeType)
	}
	return nil
}

func (s *Service) validate(c *model.Challenge) error {
	if !c.Type.Valid() {
		return fmt.Errorf("challenge type %q: %w", c.Type, ErrInvalidChallengeType)
	}
	if c.Title == "" {
		return fmt.Errorf("title is required: %w", ErrInvalidInput)
	}
	if c.EndDate.Before(c.StartDate) {
		return fmt.Errorf("end date before start date: %w", ErrInvalidInput)
	}
	if !c.StartDate.After(model.DateOf(s.now())) {
		return fmt.Errorf("start date must be after today: %w", ErrInvalidInput)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Challenge, error) {
	c, err := store.NewChallengeStore(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrChallengeNotFound
	}
	return c, nil
}

func (s *Service) List(ctx context.Context) ([]model.Challenge, error) {
	return nonNil(store.NewChallengeStore(s.db).List(ctx))
}

func (s *Service) ListByStatus(ctx context.Context, status model.ChallengeStatus) ([]model.Challenge, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("status %q: %w", status, ErrInvalidInput)
	}
	return nonNil(store.NewChallengeStore(s.db).ListByStatus(ctx, status, s.now()))
}

func (s *Service) ListByMember(ctx context.Context, memberID uuid.UUID) ([]model.Challenge, error) {
	if _, err := s.GetMember(ctx, memberID); err != nil {
		return nil, err
	}
	return nonNil(store.NewChallengeStore(s.db).ListByMember(ctx, memberID))
}

func (s *Service) ListByMemberAndStatus(ctx context.Context, memberID uuid.UUID, status model.ChallengeStatus) ([]model.Challenge, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("status %q: %w", status, ErrInvalidInput)
	}
	if _, err := s.GetMember(ctx, memberID); err != nil {
		return nil, err
	}
	return nonNil(store.NewChallengeStore(s.db).ListByMemberAndStatus(ctx, memberID, status, s.now()))
}

func nonNil(cs []model.Challenge, err error) ([]model.Challenge, error) {
	if err != nil {
		return nil, err
	}
	if cs == nil {
		cs = []model.Challenge{}
	}
	return cs, nil
}

// Update edits a challenge that has not started yet.
func (s *Service) Update(ctx context.Context, id uuid.UUID, p Patch) (*model.Challenge, error) {
	now := s.now()
	var updated *model.Challenge
	err := store.RunInTx(ctx, s.db, func(tx *store.Tx) error {
		c, err := tx.Challenges.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return ErrChallengeNotFound
		}
		if c.Status(now) != model.StatusScheduled {
			return ErrChallengeAlreadyStarted
		}

		if p.Type != nil {
			if *p.Type != c.Type && c.Participants > 0 {
				return fmt.Errorf("change type with participants: %w", ErrChallengeHasParticipants)
			}
			c.Type = *p.Type
		}
		if p.Title != nil {
			c.Title = strings.TrimSpace(*p.Title)
		}
		if p.Description != nil {
			c.Description = *p.Description
		}
		if p.Image != nil {
			c.Image = *p.Image
		}
		if p.StartDate != nil {
			c.StartDate = model.DateOf(*p.StartDate)
		}
		if p.EndDate != nil {
			c.EndDate = model.DateOf(*p.EndDate)
		}
		if err := s.validate(c); err != nil {
			return err
		}

		updated, err = tx.Challenges.Update(ctx, c)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete soft-deletes a scheduled challenge nobody has joined.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	now := s.now()
	return store.RunInTx(ctx, s.db, func(tx *store.Tx) error {
		c, err := tx.Challenges.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return ErrChallengeNotFound
		}
		if c.Status(now) != model.StatusScheduled {
			return ErrChallengeAlreadyStarted
		}
		if c.Participants > 0 {
			return ErrChallengeHasParticipants
		}
		return tx.Challenges.SoftDelete(ctx, id)
	})
}

// MemberChallenge returns a member's active membership with its daily
// scores, newest first.
func (s *Service) MemberChallenge(ctx context.Context, challengeID, memberID uuid.UUID) (*model.MemberChallenge, error) {
	if _, err := s.Get(ctx, challengeID); err != nil {
		return nil, err
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
	mc.DailyScores = daily
	return mc, nil
}

// Participants returns the active memberships of a challenge.
func (s *Service) Participants(ctx context.Context, challengeID uuid.UUID) ([]model.MemberChallenge, error) {
	if _, err := s.Get(ctx, challengeID); err != nil {
		return nil, err
	}
	mcs, err := store.NewMemberChallengeStore(s.db).ListByChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if mcs == nil {
		mcs = []model.MemberChallenge{}
	}
	return mcs, nil
}

// RegisterMember adds a member. accountNo may be nil for a member without a
// challenge account yet.
func (s *Service) RegisterMember(ctx context.Context, name, email string, accountNo *string) (*model.Member, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("name is required: %w", ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return nil, fmt.Errorf("email %q: %w", email, ErrInvalidInput)
	}
	m, err := store.NewMemberStore(s.db).Create(ctx, name, addr.Address, accountNo)
	if errors.Is(err, store.ErrConflict) {
		return nil, ErrMemberExists
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) GetMember(ctx context.Context, id uuid.UUID) (*model.Member, error) {
	m, err := store.NewMemberStore(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMemberNotFound
	}
	return m, nil
}

func (s *Service) ListMembers(ctx context.Context) ([]model.Member, error) {
	members, err := store.NewMemberStore(s.db).List(ctx)
	if err != nil {
		return nil, err
	}
	if members == nil {
		members = []model.Member{}
	}
	return members, nil
}

// AssignChallengeAccount records the account a member's deposits are
// refunded to.
func (s *Service) AssignChallengeAccount(ctx context.Context, memberID uuid.UUID, accountNo string) (*model.Member, error) {
	accountNo = strings.TrimSpace(accountNo)
	if accountNo == "" {
		return nil, fmt.Errorf("account number is required: %w", ErrInvalidInput)
	}
	if _, err := s.GetMember(ctx, memberID); err != nil {
		return nil, err
	}
	return store.NewMemberStore(s.db).SetChallengeAccount(ctx, memberID, accountNo)
}
