// Package bank describes the external banking collaborator: escrow account
// provisioning, transfers, transaction history and savings products.
package bank

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// HistoryTimeLayout is the compact timestamp format the bank uses for
// history ranges and transaction stamps.
const (
	HistoryTimeLayout  = "20060102150405"
	historyDateLayout  = "20060102"
	historyClockLayout = "150405"
)

// TransferType classifies a transfer for history lookups.
type TransferType string

const (
	TransferChallenge TransferType = "CHALLENGE"
	TransferCoffee    TransferType = "COFFEE"
	TransferDrink     TransferType = "DRINK"
	TransferDelivery  TransferType = "DELIVERY"
	TransferDeposit   TransferType = "DEPOSIT"
)

// ErrUnavailable is returned when the bank cannot be reached or answers
// with a server error.
var ErrUnavailable = errors.New("bank unavailable")

type Account struct {
	AccountID string `json:"account_id"`
	AccountNo string `json:"account_no"`
	OwnerID   string `json:"owner_id"`
}

type Member struct {
	MemberID string `json:"member_id"`
	Email    string `json:"email"`
}

type Product struct {
	ProductID           string `json:"product_id"`
	AccountTypeUniqueNo string `json:"account_type_unique_no"`
	AccountName         string `json:"account_name"`
}

// SavingsProduct describes a savings product to create for a challenge.
type SavingsProduct struct {
	BankCode               string  `json:"bank_code"`
	AccountName            string  `json:"account_name"`
	AccountDescription     string  `json:"account_description"`
	SubscriptionPeriod     string  `json:"subscription_period"`
	MinSubscriptionBalance int64   `json:"min_subscription_balance"`
	MaxSubscriptionBalance int64   `json:"max_subscription_balance"`
	InterestRate           float64 `json:"interest_rate"`
	RateDescription        string  `json:"rate_description"`
}

type TransferRequest struct {
	MemberID       string       `json:"member_id"`
	FromAccount    string       `json:"from_account"`
	ToAccount      string       `json:"to_account"`
	Amount         int64        `json:"amount"`
	Type           TransferType `json:"transfer_type"`
	IdempotencyKey string       `json:"idempotency_key,omitempty"`
}

type TransferResult struct {
	TransactionID string `json:"transaction_id"`
}

type HistoryRequest struct {
	AccountNo string
	Start     time.Time
	End       time.Time
	Type      TransferType
}

// Transaction is one history entry. Date is yyyyMMdd and Time is HHmmss in
// the bank's local time.
type Transaction struct {
	Date   string `json:"transaction_date"`
	Time   string `json:"transaction_time"`
	Amount int64  `json:"transaction_balance"`
}

// At parses the transaction timestamp in loc.
func (t Transaction) At(loc *time.Location) (time.Time, error) {
	at, err := time.ParseInLocation(historyDateLayout+historyClockLayout, t.Date+t.Time, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse transaction time %q%q: %w", t.Date, t.Time, err)
	}
	return at, nil
}

// Ledger is everything the challenge engine needs from the bank.
type Ledger interface {
	CreateEscrowAccount(ctx context.Context, ownerID, productID string) (Account, error)
	Transfer(ctx context.Context, req TransferRequest) (TransferResult, error)
	TransactionHistory(ctx context.Context, req HistoryRequest) ([]Transaction, error)
	CreateSavingsProduct(ctx context.Context, p SavingsProduct) (Product, error)
	AdminMember(ctx context.Context) (Member, error)
	AdminProduct(ctx context.Context) (Product, error)
}
