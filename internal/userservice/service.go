// Package userservice is the typed facade over the client-facing UserService
// backend: profiles, balances, transactions and client statistics. Every
// operation returns a normalized envelope; listing and statistics operations
// degrade to well-typed fallbacks instead of surfacing transport errors.
package userservice

import (
	"context"
	"net/http"
	"net/url"

	"github.com/paylinehq/adminctl/internal/api"
	"github.com/paylinehq/adminctl/internal/httpclient"
)

// Profile is a client account as the UserService reports it.
type Profile struct {
	ID          string `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	Status      string `json:"status"`
	AccountType string `json:"accountType,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

// Balance is the current balance of a client account.
type Balance struct {
	AccountID string  `json:"accountId"`
	Amount    float64 `json:"balance"`
	Currency  string  `json:"currency"`
	UpdatedAt string  `json:"updatedAt,omitempty"`
}

// Transaction is one ledger entry.
type Transaction struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Description string  `json:"description,omitempty"`
	Status      string  `json:"status"`
	Reference   string  `json:"reference,omitempty"`
	CreatedAt   string  `json:"createdAt,omitempty"`
}

// Statistics is the aggregate client view used by the dashboard.
type Statistics struct {
	TotalClients   int64   `json:"totalClients"`
	ActiveClients  int64   `json:"activeClients"`
	BlockedClients int64   `json:"blockedClients"`
	NewThisMonth   int64   `json:"newThisMonth"`
	TotalBalance   float64 `json:"totalBalance"`
}

// RegisterRequest creates a new client account.
type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Password  string `json:"password"`
}

// MovementRequest funds or debits the caller's account.
type MovementRequest struct {
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Description string  `json:"description,omitempty"`
}

// TransferRequest moves funds to another account.
type TransferRequest struct {
	ToAccountID string  `json:"toAccountId"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Description string  `json:"description,omitempty"`
}

// Service is the UserService facade.
type Service struct {
	client *httpclient.Client
	base   string
}

// New creates the facade over the given realm base URL.
func New(client *httpclient.Client, baseURL string) *Service {
	return &Service{client: client, base: baseURL}
}

// Register creates a new client account. Registration is unauthenticated.
func (s *Service) Register(ctx context.Context, req RegisterRequest) api.Envelope[Profile] {
	return api.Exchange(ctx, s.client, &httpclient.Request{
		Method:   http.MethodPost,
		URL:      api.Endpoint(s.base, "/register", nil),
		Body:     req,
		SkipAuth: true,
	}, Profile{})
}

// Profile returns the authenticated client's own profile.
func (s *Service) Profile(ctx context.Context) api.Envelope[Profile] {
	return api.Exchange(ctx, s.client, &httpclient.Request{
		Method: http.MethodGet,
		URL:    api.Endpoint(s.base, "/profile", nil),
	}, Profile{})
}

// Balance returns the authenticated client's balance.
func (s *Service) Balance(ctx context.Context) api.Envelope[Balance] {
	return api.Exchange(ctx, s.client, &httpclient.Request{
		Method: http.MethodGet,
		URL:    api.Endpoint(s.base, "/balance", nil),
	}, Balance{})
}

// Transactions lists the authenticated client's ledger, newest first.
func (s *Service) Transactions(ctx context.Context, q api.PageQuery) api.Envelope[api.Page[Transaction]] {
	return api.Exchange(ctx, s.client, &httpclient.Request{
		Method: http.MethodGet,
		URL:    api.Endpoint(s.base, "/transactions", q.Values()),
	}, api.EmptyPage[Transaction]())
}

// Deposit credits the account.
func (s *Service) Deposit(ctx context.Context, req MovementRequest) api.Envelope[Transaction] {
	return api.Exchange(ctx, s.client, &httpclient.Request{
		Method: http.MethodPost,
		URL:    api.Endpoint(s.base, "/deposit", nil),
		Body:   req,
	}, Transaction{})
}

// Withdraw debits the account.
func (s *Service) Withdraw(ctx context.Context, req MovementRequest) api.Envelope[Transaction] {
	return api.Exchange(ctx, s.client, &httpclient.Request{
		Method: http.MethodPost,
		URL:    api.Endpoint(s.base, "/withdrawal", nil),
		Body:   req,
	}, Transaction{})
}

// Transfer moves funds to another account.
func (s *Service) Transfer(ctx context.Context, req TransferRequest) api.Envelope[Transaction] {
	return api.Exchange(ctx, s.client, &httpclient.Request{
		Method: http.MethodPost,
		URL:    api.Endpoint(s.base, "/transfer", nil),
		Body:   req,
	}, Transaction{})
}

// Search finds client accounts matching the query text.
func (s *Service) Search(ctx context.Context, text string, q api.PageQuery) api.Envelope[api.Page[Profile]] {
	values := q.Values()
	if text != "" {
		values.Set("q", text)
	}
	return api.Exchange(ctx, s.client, &httpclient.Request{
		Method: http.MethodGet,
		URL:    api.Endpoint(s.base, "/search", values),
	}, api.EmptyPage[Profile]())
}

// Statistics returns the aggregate client statistics. Degrades to zero
// counts when the backend is unreachable.
func (s *Service) Statistics(ctx context.Context) api.Envelope[Statistics] {
	return api.Exchange(ctx, s.client, &httpclient.Request{
		Method: http.MethodGet,
		URL:    api.Endpoint(s.base, "/statistics", nil),
	}, Statistics{})
}

// Unlock releases a locked client account.
func (s *Service) Unlock(ctx context.Context, id string) api.Envelope[Profile] {
	return api.Exchange(ctx, s.client, &httpclient.Request{
		Method: http.MethodPost,
		URL:    api.Endpoint(s.base, "/"+url.PathEscape(id)+"/unlock", nil),
	}, Profile{})
}
