package model

import "github.com/google/uuid"

type TopRanker struct {
	MemberID   uuid.UUID `json:"member_id"`
	MemberName string    `json:"member_name"`
	TotalScore int       `json:"total_score"`
}

type ChallengeRank struct {
	ChallengeID        uuid.UUID   `json:"challenge_id"`
	Top10PercentCutoff int         `json:"top10_percent_cutoff"`
	TopMembers         []TopRanker `json:"top_members"`
}

type MemberRank struct {
	ChallengeID        uuid.UUID `json:"challenge_id"`
	MemberID           uuid.UUID `json:"member_id"`
	Rank               int       `json:"rank"`
	PercentileRank     float64   `json:"percentile_rank"`
	TotalScore         int       `json:"total_score"`
	Top10PercentCutoff int       `json:"top10_percent_cutoff"`
}

type RewardEstimate struct {
	ChallengeID                 uuid.UUID `json:"challenge_id"`
	TotalReward                 float64   `json:"total_reward"`
	Top10PercentCount           int       `json:"top10_percent_count"`
	Lower90PercentCount         int       `json:"lower90_percent_count"`
	Top10PercentRewardPerUnit   float64   `json:"top10_percent_reward_per_unit"`
	Lower90PercentRewardPerUnit float64   `json:"lower90_percent_reward_per_unit"`
}
