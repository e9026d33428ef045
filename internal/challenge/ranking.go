package challenge

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dongibuyeo/dongibuyeo/internal/model"
	"github.com/dongibuyeo/dongibuyeo/internal/store"
	"github.com/google/uuid"
)

const (
	topRankerLimit = 5

	successRate     = 0.18
	monthlyInterest = 0.2 / 12

	// DefaultRewardDivisionRatio splits the success pool between the top
	// 10 percent and everyone else.
	DefaultRewardDivisionRatio = 0.5
)

// Top10PercentCutoff returns the score at the top-10-percent boundary of
// scores sorted highest first, or 0 when there are no scores.
func Top10PercentCutoff(scores []int) int {
	n := len(scores)
	if n == 0 {
		return 0
	}
	// ceil(n/10) in integers
	idx := (n+9)/10 - 1
	if idx < 0 {
		idx = 0
	}
	return scores[idx]
}

// rankOf returns the 1-based position of the first occurrence of score in
// scores, so tied members share the best rank.
func rankOf(scores []int, score int) int {
	for i, s := range scores {
		if s == score {
			return i + 1
		}
	}
	return 0
}

// EstimateReward splits the expected reward pool of a challenge with the
// given total deposit and participant count.
func EstimateReward(totalDeposit int64, participants int, divisionRatio float64) (model.RewardEstimate, error) {
	deposit := float64(totalDeposit)
	reward := deposit*successRate*divisionRatio + deposit*monthlyInterest

	// floor(n * 0.82 * 0.1) in integers
	top := participants * 82 / 1000
	lower := participants - top
	if top == 0 || lower == 0 {
		return model.RewardEstimate{}, fmt.Errorf("%d participants: %w", participants, ErrDegenerateInput)
	}

	return model.RewardEstimate{
		TotalReward:                 reward,
		Top10PercentCount:           top,
		Lower90PercentCount:         lower,
		Top10PercentRewardPerUnit:   reward * 0.5 / float64(top),
		Lower90PercentRewardPerUnit: reward * 0.5 / float64(lower),
	}, nil
}

// Ranking answers leaderboard and reward queries.
type Ranking struct {
	db            *sql.DB
	divisionRatio float64
}

func NewRanking(db *sql.DB, divisionRatio float64) *Ranking {
	return &Ranking{db: db, divisionRatio: divisionRatio}
}

func (r *Ranking) challenge(ctx context.Context, id uuid.UUID) (*model.Challenge, error) {
	c, err := store.NewChallengeStore(r.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrChallengeNotFound
	}
	return c, nil
}

// ChallengeRank returns the top-10-percent cutoff and the five highest
// scoring members.
func (r *Ranking) ChallengeRank(ctx context.Context, challengeID uuid.UUID) (*model.ChallengeRank, error) {
	if _, err := r.challenge(ctx, challengeID); err != nil {
		return nil, err
	}
	mcs := store.NewMemberChallengeStore(r.db)
	scores, err := mcs.ScoresByChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	top, err := mcs.TopRankers(ctx, challengeID, topRankerLimit)
	if err != nil {
		return nil, err
	}
	if top == nil {
		top = []model.TopRanker{}
	}
	return &model.ChallengeRank{
		ChallengeID:        challengeID,
		Top10PercentCutoff: Top10PercentCutoff(scores),
		TopMembers:         top,
	}, nil
}

// MemberRank returns a member's position in a challenge.
func (r *Ranking) MemberRank(ctx context.Context, challengeID, memberID uuid.UUID) (*model.MemberRank, error) {
	if _, err := r.challenge(ctx, challengeID); err != nil {
		return nil, err
	}
	mcs := store.NewMemberChallengeStore(r.db)
	mc, err := mcs.GetActive(ctx, challengeID, memberID)
	if err != nil {
		return nil, err
	}
	if mc == nil {
		return nil, ErrMemberChallengeNotFound
	}
	scores, err := mcs.ScoresByChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	rank := rankOf(scores, mc.TotalScore)
	return &model.MemberRank{
		ChallengeID:        challengeID,
		MemberID:           memberID,
		Rank:               rank,
		PercentileRank:     float64(rank) / float64(len(scores)) * 100,
		TotalScore:         mc.TotalScore,
		Top10PercentCutoff: Top10PercentCutoff(scores),
	}, nil
}

// EstimatedReward estimates the reward split of a challenge from its
// current deposits.
func (r *Ranking) EstimatedReward(ctx context.Context, challengeID uuid.UUID) (*model.RewardEstimate, error) {
	c, err := r.challenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	est, err := EstimateReward(c.TotalDeposit, c.Participants, r.divisionRatio)
	if err != nil {
		return nil, err
	}
	est.ChallengeID = challengeID
	return &est, nil
}
