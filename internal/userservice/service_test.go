package userservice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paylinehq/adminctl/internal/api"
	"github.com/paylinehq/adminctl/internal/httpclient"
)

func newService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := httpclient.New(httpclient.Config{MaxRetries: 1, Timeout: 5 * time.Second})
	return New(client, server.URL)
}

func TestProfileUnwrapsRawPayload(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/profile", r.URL.Path)
		json.NewEncoder(w).Encode(Profile{ID: "c-1", FirstName: "Ada", Status: "ACTIVE"})
	})

	env := svc.Profile(context.Background())
	require.True(t, env.Success)
	assert.Equal(t, "c-1", env.Data.ID)
	assert.Equal(t, "ACTIVE", env.Data.Status)
	assert.Empty(t, env.Error)
}

func TestBalancePassesThroughWrappedEnvelope(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":{"accountId":"a-1","balance":120.50,"currency":"EUR"}}`))
	})

	env := svc.Balance(context.Background())
	require.True(t, env.Success)
	assert.Equal(t, "a-1", env.Data.AccountID)
	assert.InDelta(t, 120.50, env.Data.Amount, 0.001)
}

func TestTransactionsPagingParameters(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transactions", r.URL.Path)
		require.Equal(t, "2", r.URL.Query().Get("page"))
		require.Equal(t, "50", r.URL.Query().Get("size"))
		require.Equal(t, "createdAt,desc", r.URL.Query().Get("sort"))
		json.NewEncoder(w).Encode(api.Page[Transaction]{
			Content:       []Transaction{{ID: "t-1", Type: "DEPOSIT", Amount: 10}},
			TotalElements: 1,
			TotalPages:    1,
		})
	})

	env := svc.Transactions(context.Background(), api.PageQuery{Page: 2, Size: 50, Sort: "createdAt,desc"})
	require.True(t, env.Success)
	require.Len(t, env.Data.Content, 1)
	assert.Equal(t, "t-1", env.Data.Content[0].ID)
}

func TestTransactionsDegradesToEmptyPage(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"ledger unavailable"}`, http.StatusServiceUnavailable)
	})

	env := svc.Transactions(context.Background(), api.PageQuery{})
	require.False(t, env.Success)
	assert.NotNil(t, env.Data.Content, "fallback page must be rangeable")
	assert.Empty(t, env.Data.Content)
	assert.Zero(t, env.Data.TotalElements)
	assert.Contains(t, env.Error, "ledger unavailable")
}

func TestStatisticsDegradesToZeros(t *testing.T) {
	// Unreachable host: the facade must degrade, never error out.
	client := httpclient.New(httpclient.Config{MaxRetries: 1, Timeout: time.Second})
	svc := New(client, "http://127.0.0.1:1")

	env := svc.Statistics(context.Background())
	require.False(t, env.Success)
	assert.Zero(t, env.Data.TotalClients)
	assert.Zero(t, env.Data.TotalBalance)
	assert.NotEmpty(t, env.Error)
}

func TestRegisterSkipsAuth(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/register", r.URL.Path)
		require.Empty(t, r.Header.Get("Authorization"))

		var req RegisterRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "ada@example.com", req.Email)
		json.NewEncoder(w).Encode(Profile{ID: "c-9", Email: req.Email, Status: "PENDING"})
	})

	env := svc.Register(context.Background(), RegisterRequest{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Password: "pw",
	})
	require.True(t, env.Success)
	assert.Equal(t, "c-9", env.Data.ID)
}

func TestTransferPostsBody(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transfer", r.URL.Path)
		var req TransferRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "a-2", req.ToAccountID)
		json.NewEncoder(w).Encode(Transaction{ID: "t-9", Type: "TRANSFER", Amount: req.Amount, Status: "COMPLETED"})
	})

	env := svc.Transfer(context.Background(), TransferRequest{ToAccountID: "a-2", Amount: 25, Currency: "EUR"})
	require.True(t, env.Success)
	assert.Equal(t, "COMPLETED", env.Data.Status)
}

func TestTransferBackendRejection(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"error":"insufficient funds"}`))
	})

	env := svc.Transfer(context.Background(), TransferRequest{ToAccountID: "a-2", Amount: 1e9})
	require.False(t, env.Success)
	assert.Equal(t, "insufficient funds", env.Error)
	assert.Empty(t, env.Data.ID, "fallback transaction stays zero-valued")
}

func TestSearchEncodesQuery(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		require.Equal(t, "dupont & fils", r.URL.Query().Get("q"))
		json.NewEncoder(w).Encode(api.Page[Profile]{Content: []Profile{{ID: "c-3"}}, TotalElements: 1, TotalPages: 1})
	})

	env := svc.Search(context.Background(), "dupont & fils", api.PageQuery{})
	require.True(t, env.Success)
	require.Len(t, env.Data.Content, 1)
}

func TestUnlockEscapesPathParameter(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/c%2F1/unlock", r.URL.EscapedPath())
		json.NewEncoder(w).Encode(Profile{ID: "c/1", Status: "ACTIVE"})
	})

	env := svc.Unlock(context.Background(), "c/1")
	require.True(t, env.Success)
	assert.Equal(t, "ACTIVE", env.Data.Status)
}
