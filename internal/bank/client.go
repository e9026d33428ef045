package bank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// Config holds bank API client configuration.
type Config struct {
	BaseURL        string
	APIKey         string
	RequestsPerSec float64
	Burst          int
	Timeout        time.Duration
	Location       *time.Location
}

// Client talks to the bank's JSON API. Outgoing calls share one token
// bucket so sweeps over many members do not trip the bank's rate limits.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a bank client, filling in defaults for unset fields.
func NewClient(cfg Config) *Client {
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst),
	}
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// do sends a JSON request and decodes the JSON response into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	var body *bytes.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	if tr, ok := in.(TransferRequest); ok && tr.IdempotencyKey != "" {
		req.Header.Set("Idempotency-Key", tr.IdempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %v", method, path, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%s %s: %w: status %d", method, path, ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		var ae apiError
		_ = json.NewDecoder(resp.Body).Decode(&ae)
		return fmt.Errorf("%s %s: status %d: %s %s", method, path, resp.StatusCode, ae.Code, ae.Message)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) CreateEscrowAccount(ctx context.Context, ownerID, productID string) (Account, error) {
	var acct Account
	err := c.do(ctx, http.MethodPost, "/accounts", map[string]string{
		"owner_id":               ownerID,
		"account_type_unique_no": productID,
	}, &acct)
	if err != nil {
		return Account{}, fmt.Errorf("create escrow account: %w", err)
	}
	return acct, nil
}

func (c *Client) Transfer(ctx context.Context, req TransferRequest) (TransferResult, error) {
	var res TransferResult
	if err := c.do(ctx, http.MethodPost, "/transfers", req, &res); err != nil {
		return TransferResult{}, fmt.Errorf("transfer: %w", err)
	}
	return res, nil
}

func (c *Client) TransactionHistory(ctx context.Context, req HistoryRequest) ([]Transaction, error) {
	q := url.Values{}
	q.Set("account_no", req.AccountNo)
	q.Set("start", req.Start.In(c.cfg.Location).Format(HistoryTimeLayout))
	q.Set("end", req.End.In(c.cfg.Location).Format(HistoryTimeLayout))
	q.Set("transfer_type", string(req.Type))

	var out struct {
		Transactions []Transaction `json:"transactions"`
	}
	if err := c.do(ctx, http.MethodGet, "/transactions?"+q.Encode(), nil, &out); err != nil {
		return nil, fmt.Errorf("transaction history: %w", err)
	}
	return out.Transactions, nil
}

func (c *Client) CreateSavingsProduct(ctx context.Context, p SavingsProduct) (Product, error) {
	var prod Product
	if err := c.do(ctx, http.MethodPost, "/savings/products", p, &prod); err != nil {
		return Product{}, fmt.Errorf("create savings product: %w", err)
	}
	return prod, nil
}

func (c *Client) AdminMember(ctx context.Context) (Member, error) {
	var m Member
	if err := c.do(ctx, http.MethodGet, "/admin/member", nil, &m); err != nil {
		return Member{}, fmt.Errorf("admin member: %w", err)
	}
	return m, nil
}

func (c *Client) AdminProduct(ctx context.Context) (Product, error) {
	var p Product
	if err := c.do(ctx, http.MethodGet, "/admin/product", nil, &p); err != nil {
		return Product{}, fmt.Errorf("admin product: %w", err)
	}
	return p, nil
}

var _ Ledger = (*Client)(nil)
