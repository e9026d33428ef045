package model

import "time"

// DailyScoreSeedLabel is the participation credit every DailyScore starts with.
const (
	DailyScoreSeedLabel = "DAILY_SCORE"
	DailyScoreSeedScore = 10
)

type DailyScore struct {
	ID                int64         `json:"id"`
	MemberChallengeID int64         `json:"member_challenge_id"`
	Date              time.Time     `json:"date"`
	TotalScore        int           `json:"total_score"`
	Details           []ScoreDetail `json:"details"`
}

type ScoreDetail struct {
	Description  string    `json:"description"`
	Score        int       `json:"score"`
	RunningTotal int       `json:"running_total"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasDetail reports whether a detail with the given description exists.
func (d *DailyScore) HasDetail(description string) bool {
	for _, sd := range d.Details {
		if sd.Description == description {
			return true
		}
	}
	return false
}

// ScoreBreakdown is a member's cumulative score with daily scores newest first.
type ScoreBreakdown struct {
	TotalScore  int          `json:"total_score"`
	DailyScores []DailyScore `json:"daily_scores"`
}
