package model

import (
	"time"

	"github.com/google/uuid"
)

type Quiz struct {
	ID        int64     `json:"id"`
	Question  string    `json:"question"`
	Answer    bool      `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

type QuizSolve struct {
	ID       int64     `json:"id"`
	QuizID   int64     `json:"quiz_id"`
	MemberID uuid.UUID `json:"member_id"`
	SolvedOn time.Time `json:"solved_on"`
	Correct  bool      `json:"correct"`
	SolvedAt time.Time `json:"solved_at"`
}
