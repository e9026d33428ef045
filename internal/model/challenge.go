package model

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the storage and wire format of calendar dates.
const DateLayout = "2006-01-02"

type ChallengeType string

const (
	ChallengeSavings             ChallengeType = "SAVINGS"
	ChallengeQuiz                ChallengeType = "QUIZ"
	ChallengeConsumptionCoffee   ChallengeType = "CONSUMPTION_COFFEE"
	ChallengeConsumptionDrink    ChallengeType = "CONSUMPTION_DRINK"
	ChallengeConsumptionDelivery ChallengeType = "CONSUMPTION_DELIVERY"
)

// ChallengeTypes lists every supported challenge type.
var ChallengeTypes = []ChallengeType{
	ChallengeSavings,
	ChallengeQuiz,
	ChallengeConsumptionCoffee,
	ChallengeConsumptionDrink,
	ChallengeConsumptionDelivery,
}

// Valid reports whether t is a known challenge type.
func (t ChallengeType) Valid() bool {
	for _, ct := range ChallengeTypes {
		if ct == t {
			return true
		}
	}
	return false
}

type ChallengeStatus string

const (
	StatusScheduled  ChallengeStatus = "SCHEDULED"
	StatusInProgress ChallengeStatus = "IN_PROGRESS"
	StatusCompleted  ChallengeStatus = "COMPLETED"
)

// Valid reports whether s is a known status.
func (s ChallengeStatus) Valid() bool {
	return s == StatusScheduled || s == StatusInProgress || s == StatusCompleted
}

type Challenge struct {
	ID           uuid.UUID     `json:"id"`
	Type         ChallengeType `json:"type"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Image        string        `json:"image"`
	StartDate    time.Time     `json:"start_date"`
	EndDate      time.Time     `json:"end_date"`
	AccountNo    string        `json:"account_no"`
	TotalDeposit int64         `json:"total_deposit"`
	Participants int           `json:"participants"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Status derives the lifecycle status from the challenge dates. A challenge
// is in progress from its start date through its end date inclusive.
func (c *Challenge) Status(now time.Time) ChallengeStatus {
	today := DateOf(now)
	switch {
	case today.Before(c.StartDate):
		return StatusScheduled
	case today.After(c.EndDate):
		return StatusCompleted
	default:
		return StatusInProgress
	}
}

// DateOf truncates t to its calendar date in t's own location and returns
// it as midnight UTC, the representation used for all stored dates.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a DateLayout string.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// ChallengeWithStatus is the API view of a challenge.
type ChallengeWithStatus struct {
	Challenge
	Status ChallengeStatus `json:"status"`
}

// WithStatus pairs c with its status at now.
func (c Challenge) WithStatus(now time.Time) ChallengeWithStatus {
	return ChallengeWithStatus{Challenge: c, Status: c.Status(now)}
}
