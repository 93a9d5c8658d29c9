// Package agence is the typed facade over the admin-facing AgenceService
// backend: the dashboard summary, system health, recent activity, user
// administration and the document approval workflow.
package agence

import (
	"context"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/paylinehq/adminctl/internal/api"
	"github.com/paylinehq/adminctl/internal/errors"
	"github.com/paylinehq/adminctl/internal/httpclient"
)

// HealthUnknown is the health status substituted when the backend cannot be
// asked. Derived views must treat it as "no data", not as a failure state.
const HealthUnknown = "UNKNOWN"

// DashboardSummary is the admin overview the backend aggregates server-side.
type DashboardSummary struct {
	TotalUsers       int64  `json:"totalUsers"`
	ActiveSessions   int64  `json:"activeSessions"`
	PendingDocuments int64  `json:"pendingDocuments"`
	TotalAgencies    int64  `json:"totalAgencies"`
	SystemStatus     string `json:"systemStatus"`
}

// SystemHealth reports backend component health.
type SystemHealth struct {
	Status    string            `json:"status"`
	Services  map[string]string `json:"services,omitempty"`
	CheckedAt string            `json:"checkedAt,omitempty"`
}

// Activity is one entry of the recent-activity feed.
type Activity struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Actor     string `json:"actor"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// AdminUser is a system user as the admin API reports it.
type AdminUser struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	AgencyID  string `json:"agencyId,omitempty"`
	LastLogin string `json:"lastLogin,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// UserStatistics is the aggregate system-user view used by the dashboard.
type UserStatistics struct {
	TotalUsers   int64 `json:"totalUsers"`
	ActiveUsers  int64 `json:"activeUsers"`
	BlockedUsers int64 `json:"blockedUsers"`
	AdminUsers   int64 `json:"adminUsers"`
}

// Document is one entry of the approval queue.
type Document struct {
	ID          string `json:"id"`
	ClientID    string `json:"clientId"`
	ClientName  string `json:"clientName,omitempty"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	SubmittedAt string `json:"submittedAt,omitempty"`
	ReviewedBy  string `json:"reviewedBy,omitempty"`
	Comment     string `json:"comment,omitempty"`
}

// DocumentStatistics is the aggregate approval-queue view.
type DocumentStatistics struct {
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
	Total    int64 `json:"total"`
}

// ReviewRequest carries the reviewer's verdict context.
type ReviewRequest struct {
	Comment string `json:"comment,omitempty"`
}

// BulkRequest names the documents a bulk verdict applies to.
type BulkRequest struct {
	DocumentIDs []string `json:"documentIds"`
	Comment     string   `json:"comment,omitempty"`
}

// BulkResult is the per-document outcome of a bulk verdict.
type BulkResult struct {
	DocumentID string `json:"documentId"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

// Export is a binary user export ready to be written to a file.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Service is the AgenceService facade.
type Service struct {
	client *httpclient.Client
	base   string
}

// New creates the facade over the given realm base URL.
func New(client *httpclient.Client, baseURL string) *Service {
	return &Service{client: client, base: baseURL}
}

// Dashboard returns the admin overview.
func (s *Service) Dashboard(ctx context.Context) api.Envelope[DashboardSummary] {
	return api.Exchange(ctx, s.client, &httpclient.Request{
		Method: http.MethodGet,
		URL:    api.Endpoint(s.base, "/admin/dashboard", nil),
	}, DashboardSummary{SystemStatus: HealthUnknown})
}

// Health returns backend component health. Degrades to UNKNOWN, so a failed
// health probe reads as missing data rather than a hard outage claim.
func (s *Service) Health(ctx context.Context) api.Envelope[SystemHealth] {
	return api.Exchange(ctx, s.client, &httpclient.Request{
		Method: http.MethodGet,
		URL:    api.Endpoint(s.base, "/admin/dashboard/health", nil),
	}, SystemHealth{Status: HealthUnknown})
}

// RecentActivity returns the newest audit feed entries.
func (s *Service) RecentActivity(ctx context.Context, limit int) api.Envelope[[]Activity] {
	values := url.Values{}
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	return api.Exchange(ctx, s.client, &httpclient.Request{
		Method: http.MethodGet,
		URL:    api.Endpoint(s.base, "/admin/dashboard/recent-activity", values),
	}, []Activity{})
}

// Users lists system users.
func (s *Service) Users(ctx context.Context, q api.PageQuery) api.Envelope[api.Page[AdminUser]] {
	return api.Exchange(ctx, s.client, &httpclient.Request{
		Method: http.MethodGet,
		URL:    api.Endpoint(s.base, "/admin/users", q.Values()),
	}, api.EmptyPage[AdminUser]())
}

// User returns one system user.
func (s *Service) User(ctx context.Context, id string) api.Envelope[AdminUser] {
	return api.Exchange(ctx, s.client, &httpclient.Request{
		Method: http.MethodGet,
		URL:    api.Endpoint(s.base, "/admin/users/"+url.PathEscape(id), nil),
	}, AdminUser{})
}

// BlockUser suspends a system user.
func (s *Service) BlockUser(ctx context.Context, id string) api.Envelope[AdminUser] {
	return s.userAction(ctx, id, "block")
}

// UnblockUser lifts a suspension.
func (s *Service) UnblockUser(ctx context.Context, id string) api.Envelope[AdminUser] {
	return s.userAction(ctx, id, "unblock")
}

func (s *Service) userAction(ctx context.Context, id, action string) api.Envelope[AdminUser] {
	return api.Exchange(ctx, s.client, &httpclient.Request{
		Method: http.MethodPost,
		URL:    api.Endpoint(s.base, "/admin/users/"+url.PathEscape(id)+"/"+action, nil),
	}, AdminUser{})
}

// UserStatistics returns the aggregate system-user statistics.
func (s *Service) UserStatistics(ctx context.Context) api.Envelope[UserStatistics] {
	return api.Exchange(ctx, s.client, &httpclient.Request{
		Method: http.MethodGet,
		URL:    api.Endpoint(s.base, "/admin/users/statistics", nil),
	}, UserStatistics{})
}

// ExportUsers downloads the user export as a binary blob. Unlike the JSON
// operations this surfaces transport errors directly; there is no degraded
// rendering of a missing file.
func (s *Service) ExportUsers(ctx context.Context) (*Export, error) {
	resp, err := s.client.Do(ctx, &httpclient.Request{
		Method: http.MethodGet,
		URL:    api.Endpoint(s.base, "/admin/users/export", nil),
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAgenceOperation, "user export failed", err).WithKind(errors.KindOf(err))
	}

	export := &Export{
		ContentType: resp.Headers.Get("Content-Type"),
		Filename:    "users-export",
		Data:        resp.Body,
	}
	if _, params, err := mime.ParseMediaType(resp.Headers.Get("Content-Disposition")); err == nil {
		if name := params["filename"]; name != "" {
			export.Filename = name
		}
	}
	return export, nil
}

// PendingDocuments lists the approval queue.
func (s *Service) PendingDocuments(ctx context.Context, q api.PageQuery) api.Envelope[api.Page[Document]] {
	return api.Exchange(ctx, s.client, &httpclient.Request{
		Method: http.MethodGet,
		URL:    api.Endpoint(s.base, "/admin/documents/pending", q.Values()),
	}, api.EmptyPage[Document]())
}

// ReviewDocument marks a document as under review by the caller.
func (s *Service) ReviewDocument(ctx context.Context, id string, req ReviewRequest) api.Envelope[Document] {
	return s.documentAction(ctx, id, "review", req)
}

// ApproveDocument accepts a document.
func (s *Service) ApproveDocument(ctx context.Context, id string, req ReviewRequest) api.Envelope[Document] {
	return s.documentAction(ctx, id, "approve", req)
}

// RejectDocument refuses a document. The reviewer comment explains why.
func (s *Service) RejectDocument(ctx context.Context, id string, req ReviewRequest) api.Envelope[Document] {
	return s.documentAction(ctx, id, "reject", req)
}

func (s *Service) documentAction(ctx context.Context, id, action string, req ReviewRequest) api.Envelope[Document] {
	return api.Exchange(ctx, s.client, &httpclient.Request{
		Method: http.MethodPost,
		URL:    api.Endpoint(s.base, "/admin/documents/"+url.PathEscape(id)+"/"+action, nil),
		Body:   req,
	}, Document{})
}

// DocumentStatistics returns the aggregate approval-queue statistics.
func (s *Service) DocumentStatistics(ctx context.Context) api.Envelope[DocumentStatistics] {
	return api.Exchange(ctx, s.client, &httpclient.Request{
		Method: http.MethodGet,
		URL:    api.Endpoint(s.base, "/admin/documents/statistics", nil),
	}, DocumentStatistics{})
}

// BulkApprove accepts many documents in one call; the envelope carries one
// outcome per document, so a partial failure is visible item by item.
func (s *Service) BulkApprove(ctx context.Context, req BulkRequest) api.Envelope[[]BulkResult] {
	return s.bulkAction(ctx, "bulk-approve", req)
}

// BulkReject refuses many documents in one call.
func (s *Service) BulkReject(ctx context.Context, req BulkRequest) api.Envelope[[]BulkResult] {
	return s.bulkAction(ctx, "bulk-reject", req)
}

func (s *Service) bulkAction(ctx context.Context, action string, req BulkRequest) api.Envelope[[]BulkResult] {
	return api.Exchange(ctx, s.client, &httpclient.Request{
		Method: http.MethodPost,
		URL:    api.Endpoint(s.base, "/admin/documents/"+action, nil),
		Body:   req,
	}, []BulkResult{})
}
