// Package banktest provides an in-memory bank.Ledger for tests and local
// development.
package banktest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dongibuyeo/dongibuyeo/internal/bank"
)

type entry struct {
	accountNo string
	at        time.Time
	kind      bank.TransferType
	amount    int64
}

// Bank is a thread-safe in-memory ledger. The zero value is not usable; use New.
type Bank struct {
	mu        sync.Mutex
	loc       *time.Location
	nextAcct  int
	nextTx    int
	balances  map[string]int64
	history   []entry
	transfers []bank.TransferRequest
	seenKeys  map[string]bank.TransferResult
	products  []bank.SavingsProduct
	historyQ  []bank.HistoryRequest

	// TransferErr, when set, is returned by every Transfer call.
	TransferErr error
	// HistoryErr, when set, is returned by every TransactionHistory call.
	HistoryErr error
	// AccountErr, when set, is returned by CreateEscrowAccount.
	AccountErr error
}

// New creates an empty bank whose transaction stamps are rendered in loc.
func New(loc *time.Location) *Bank {
	if loc == nil {
		loc = time.UTC
	}
	return &Bank{
		loc:      loc,
		balances: make(map[string]int64),
		seenKeys: make(map[string]bank.TransferResult),
	}
}

// OpenAccount creates a funded account and returns its number.
func (b *Bank) OpenAccount(balance int64) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.openLocked(balance)
}

func (b *Bank) openLocked(balance int64) string {
	b.nextAcct++
	no := fmt.Sprintf("0880%08d", b.nextAcct)
	b.balances[no] = balance
	return no
}

// Balance returns the balance of an account.
func (b *Bank) Balance(accountNo string) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[accountNo]
}

// AddTransaction records a history entry on an account.
func (b *Bank) AddTransaction(accountNo string, at time.Time, kind bank.TransferType, amount int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.history = append(b.history, entry{accountNo: accountNo, at: at, kind: kind, amount: amount})
}

// Transfers returns the transfers executed so far.
func (b *Bank) Transfers() []bank.TransferRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]bank.TransferRequest, len(b.transfers))
	copy(out, b.transfers)
	return out
}

// SavingsProducts returns the savings products created so far.
func (b *Bank) SavingsProducts() []bank.SavingsProduct {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]bank.SavingsProduct, len(b.products))
	copy(out, b.products)
	return out
}

// HistoryQueries returns every history request received.
func (b *Bank) HistoryQueries() []bank.HistoryRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]bank.HistoryRequest, len(b.historyQ))
	copy(out, b.historyQ)
	return out
}

func (b *Bank) CreateEscrowAccount(ctx context.Context, ownerID, productID string) (bank.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.AccountErr != nil {
		return bank.Account{}, b.AccountErr
	}
	no := b.openLocked(0)
	return bank.Account{AccountID: "acct-" + no, AccountNo: no, OwnerID: ownerID}, nil
}

// Transfer moves funds. Replaying an idempotency key returns the original
// result without moving money again.
func (b *Bank) Transfer(ctx context.Context, req bank.TransferRequest) (bank.TransferResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.TransferErr != nil {
		return bank.TransferResult{}, b.TransferErr
	}
	if req.IdempotencyKey != "" {
		if res, ok := b.seenKeys[req.IdempotencyKey]; ok {
			return res, nil
		}
	}
	if req.Amount < 0 {
		return bank.TransferResult{}, fmt.Errorf("negative amount %d", req.Amount)
	}
	if req.FromAccount != "" {
		if _, ok := b.balances[req.FromAccount]; !ok {
			return bank.TransferResult{}, fmt.Errorf("unknown account %s", req.FromAccount)
		}
		b.balances[req.FromAccount] -= req.Amount
	}
	b.balances[req.ToAccount] += req.Amount

	b.nextTx++
	res := bank.TransferResult{TransactionID: fmt.Sprintf("tx-%d", b.nextTx)}
	b.transfers = append(b.transfers, req)
	if req.IdempotencyKey != "" {
		b.seenKeys[req.IdempotencyKey] = res
	}
	return res, nil
}

// TransactionHistory returns entries of the requested type on the account
// whose timestamp lies in [Start, End].
func (b *Bank) TransactionHistory(ctx context.Context, req bank.HistoryRequest) ([]bank.Transaction, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.historyQ = append(b.historyQ, req)
	if b.HistoryErr != nil {
		return nil, b.HistoryErr
	}

	var out []bank.Transaction
	for _, e := range b.history {
		if e.accountNo != req.AccountNo || e.kind != req.Type {
			continue
		}
		if e.at.Before(req.Start) || e.at.After(req.End) {
			continue
		}
		local := e.at.In(b.loc)
		out = append(out, bank.Transaction{
			Date:   local.Format("20060102"),
			Time:   local.Format("150405"),
			Amount: e.amount,
		})
	}
	return out, nil
}

func (b *Bank) CreateSavingsProduct(ctx context.Context, p bank.SavingsProduct) (bank.Product, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.products = append(b.products, p)
	return bank.Product{
		ProductID:           fmt.Sprintf("savings-%d", len(b.products)),
		AccountTypeUniqueNo: fmt.Sprintf("088-3-%06d", len(b.products)),
		AccountName:         p.AccountName,
	}, nil
}

func (b *Bank) AdminMember(ctx context.Context) (bank.Member, error) {
	return bank.Member{MemberID: "admin", Email: "admin@dongibuyeo.local"}, nil
}

func (b *Bank) AdminProduct(ctx context.Context) (bank.Product, error) {
	return bank.Product{ProductID: "admin-product", AccountTypeUniqueNo: "088-1-000001", AccountName: "challenge escrow"}, nil
}

var _ bank.Ledger = (*Bank)(nil)
