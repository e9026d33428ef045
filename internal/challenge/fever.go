package challenge

import (
	"fmt"
	"time"

	"github.com/dongibuyeo/dongibuyeo/internal/bank"
	"github.com/dongibuyeo/dongibuyeo/internal/model"
)

// FeverTime is a window in which not spending earns a bonus. Both ends are
// inclusive.
type FeverTime struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Label string    `json:"label"`
	Score int       `json:"score"`
}

// Contains reports whether t lies in [Start, End].
func (f FeverTime) Contains(t time.Time) bool {
	return !t.Before(f.Start) && !t.After(f.End)
}

type feverRule func(now time.Time) []FeverTime

var feverRules = map[model.ChallengeType]feverRule{
	model.ChallengeConsumptionCoffee:   coffeeFever,
	model.ChallengeConsumptionDrink:    drinkFever,
	model.ChallengeConsumptionDelivery: deliveryFever,
}

// FeverTransferTypes maps each consumption challenge to the transfer type
// whose absence earns fever points.
var FeverTransferTypes = map[model.ChallengeType]bank.TransferType{
	model.ChallengeConsumptionCoffee:   bank.TransferCoffee,
	model.ChallengeConsumptionDrink:    bank.TransferDrink,
	model.ChallengeConsumptionDelivery: bank.TransferDelivery,
}

// ResolveFeverTimes returns the fever windows of a challenge type relative
// to now, in now's location. An empty result is valid (drink challenges on
// weekdays). Types without fever rules fail with ErrInvalidChallengeType.
func ResolveFeverTimes(ctype model.ChallengeType, now time.Time) ([]FeverTime, error) {
	rule, ok := feverRules[ctype]
	if !ok {
		return nil, fmt.Errorf("resolve fever times for %q: %w", ctype, ErrInvalidChallengeType)
	}
	return rule(now), nil
}

func at(day time.Time, hour, min, sec int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, hour, min, sec, 0, day.Location())
}

func coffeeFever(now time.Time) []FeverTime {
	return []FeverTime{
		{Start: at(now, 7, 0, 0), End: at(now, 10, 0, 0), Label: "[FEVER] 7AM-10AM", Score: 2},
		{Start: at(now, 11, 0, 0), End: at(now, 14, 0, 0), Label: "[FEVER] 11AM-2PM", Score: 3},
	}
}

// drinkFever covers the whole previous day on weekends.
func drinkFever(now time.Time) []FeverTime {
	var label string
	switch now.Weekday() {
	case time.Saturday:
		label = "[FEVER] Friday"
	case time.Sunday:
		label = "[FEVER] Saturday"
	default:
		return nil
	}
	prev := now.AddDate(0, 0, -1)
	return []FeverTime{
		{Start: at(prev, 0, 0, 0), End: at(prev, 23, 59, 59), Label: label, Score: 5},
	}
}

func deliveryFever(now time.Time) []FeverTime {
	prev := now.AddDate(0, 0, -1)
	return []FeverTime{
		{Start: at(prev, 21, 0, 0), End: at(now, 2, 0, 0), Label: "[FEVER] 9PM-2AM", Score: 5},
	}
}
