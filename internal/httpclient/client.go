// Package httpclient is the shared HTTP transport for both backend realms.
// It attaches the bearer token, enforces per-request timeouts through context
// cancellation, retries retryable failures with exponential backoff, and runs
// ordered request/response interceptor chains. All failures surface as coded
// errors from internal/errors; callers switch on the error kind, never on raw
// status codes.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/paylinehq/adminctl/internal/errors"
	"github.com/paylinehq/adminctl/internal/log"
)

// TokenSource supplies the current bearer token. An empty token means no
// Authorization header is attached.
type TokenSource interface {
	Token() string
}

// UnauthorizedHandler attempts to recover from a 401 response, typically by
// refreshing the session. A nil return means the original request may be
// retried once with the new token.
type UnauthorizedHandler interface {
	HandleUnauthorized(ctx context.Context) error
}

// RequestInterceptor may transform a request before dispatch.
type RequestInterceptor func(*Request) error

// ResponseInterceptor may inspect or reject a response after dispatch.
type ResponseInterceptor func(*Request, *Response) error

// Request describes one HTTP call. Descriptors are built per call and never
// reused, so there is no shared mutable request state.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string

	// Body is marshaled to JSON when non-nil. A []byte body is sent verbatim
	// with whatever Content-Type the caller set (uploads, form data).
	Body any

	// Timeout overrides the client default when positive.
	Timeout time.Duration

	// MaxRetries is the total number of attempts. Zero means the client
	// default.
	MaxRetries int

	// SkipAuth suppresses the Authorization header and 401 recovery.
	// Used by the login calls themselves.
	SkipAuth bool
}

// Response is the outcome of a successful (2xx) call.
type Response struct {
	Status  int
	Headers http.Header
	Body    []byte
}

// DecodeJSON unmarshals the response body into v. A decode failure on a
// success response is a hard failure.
func (r *Response) DecodeJSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return errors.NewMalformedResponseError(err)
	}
	return nil
}

// Config tunes the client.
type Config struct {
	Timeout     time.Duration
	MaxRetries  int
	BackoffBase time.Duration
	BackoffMax  time.Duration
	Exponential bool
}

// DefaultConfig returns the client defaults used when the caller leaves
// fields unset.
func DefaultConfig() Config {
	return Config{
		Timeout:     10 * time.Second,
		MaxRetries:  3,
		BackoffBase: time.Second,
		BackoffMax:  30 * time.Second,
		Exponential: true,
	}
}

// Client is the retrying HTTP transport.
type Client struct {
	httpClient   *http.Client
	config       Config
	tokens       TokenSource
	unauthorized UnauthorizedHandler
	reqChain     []RequestInterceptor
	respChain    []ResponseInterceptor
	logger       *log.Logger

	// sleep is swapped out in tests to observe backoff without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// Option customises client construction.
type Option func(*Client)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithTokenSource sets the bearer token source.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithUnauthorizedHandler sets the 401 recovery handler.
func WithUnauthorizedHandler(h UnauthorizedHandler) Option {
	return func(c *Client) { c.unauthorized = h }
}

// WithRequestInterceptor appends a request interceptor. Interceptors run in
// the order they were added.
func WithRequestInterceptor(i RequestInterceptor) Option {
	return func(c *Client) { c.reqChain = append(c.reqChain, i) }
}

// WithResponseInterceptor appends a response interceptor.
func WithResponseInterceptor(i ResponseInterceptor) Option {
	return func(c *Client) { c.respChain = append(c.respChain, i) }
}

// WithLogger sets the structured logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client with the given configuration.
func New(cfg Config, opts ...Option) *Client {
	defaults := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = defaults.MaxRetries
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = defaults.BackoffBase
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = defaults.BackoffMax
	}

	c := &Client{
		httpClient: &http.Client{},
		config:     cfg,
		logger:     log.DefaultLogger(),
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetUnauthorizedHandler wires the 401 recovery handler after construction.
// The auth coordinator needs the client to log in, so the two are connected
// in a second step.
func (c *Client) SetUnauthorizedHandler(h UnauthorizedHandler) {
	c.unauthorized = h
}

// Do executes the request with retries and returns the response for a 2xx
// status. Every non-2xx status and transport failure is returned as a coded
// error.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	for _, interceptor := range c.reqChain {
		if err := interceptor(req); err != nil {
			return nil, err
		}
	}

	attempts := req.MaxRetries
	if attempts < 1 {
		attempts = c.config.MaxRetries
	}

	requestID := uuid.New().String()
	recovered401 := false

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			delay := c.backoffDelay(attempt - 1)
			if err := c.sleep(ctx, delay); err != nil {
				return nil, errors.NewCanceledError(err)
			}
		}

		resp, err := c.dispatch(ctx, req, requestID)
		if err == nil {
			return resp, nil
		}

		kind := errors.KindOf(err)

		// One refresh-and-retry on 401; never for the login call itself and
		// never in a loop.
		if kind == errors.KindUnauthorized && !req.SkipAuth && !recovered401 && c.unauthorized != nil {
			recovered401 = true
			if recErr := c.unauthorized.HandleUnauthorized(ctx); recErr == nil {
				attempt--
				continue
			}
			return nil, err
		}

		if !kind.Retryable() {
			return nil, err
		}

		lastErr = err
		c.logger.Debug("retryable request failure",
			"method", req.Method,
			"url", req.URL,
			"attempt", attempt,
			"of", attempts,
			"kind", kind.String(),
		)
	}

	return nil, lastErr
}

// dispatch performs a single attempt with its own timeout context.
func (c *Client) dispatch(ctx context.Context, req *Request, requestID string) (*Response, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.config.Timeout
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var bodyReader io.Reader
	switch body := req.Body.(type) {
	case nil:
	case []byte:
		bodyReader = bytes.NewReader(body)
	default:
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeHTTPBadPayload, "encode request body", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(attemptCtx, req.Method, req.URL, bodyReader)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeHTTPNetwork, "create request", err)
	}

	if req.Body != nil {
		if _, isRaw := req.Body.([]byte); !isRaw {
			httpReq.Header.Set("Content-Type", "application/json")
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	if !req.SkipAuth && c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			httpReq.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.classifyTransportError(ctx, attemptCtx, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, c.classifyTransportError(ctx, attemptCtx, err)
	}

	resp := &Response{
		Status:  httpResp.StatusCode,
		Headers: httpResp.Header,
		Body:    body,
	}

	for _, interceptor := range c.respChain {
		if err := interceptor(req, resp); err != nil {
			return nil, err
		}
	}

	if resp.Status < 200 || resp.Status >= 300 {
		// A malformed error body is tolerated; the status alone is enough.
		return nil, errors.NewStatusError(resp.Status, extractServerMessage(body))
	}

	if isJSON(httpResp.Header.Get("Content-Type")) && len(body) > 0 && !json.Valid(body) {
		return nil, errors.NewMalformedResponseError(fmt.Errorf("status %d with invalid JSON body", resp.Status))
	}

	return resp, nil
}

// classifyTransportError separates caller cancellation, attempt timeout, and
// plain network failure. Cancellation must never be retried.
func (c *Client) classifyTransportError(parent, attempt context.Context, err error) error {
	if parent.Err() != nil && stderrors.Is(parent.Err(), context.Canceled) {
		return errors.NewCanceledError(err)
	}
	if attempt.Err() != nil && stderrors.Is(attempt.Err(), context.DeadlineExceeded) {
		return errors.NewTimeoutError(err)
	}
	return errors.NewNetworkError(err)
}

// backoffDelay computes the delay before the next attempt. After attempt n
// the delay is base * 2^(n-1) when exponential backoff is enabled, else a
// constant base, capped at the configured maximum.
func (c *Client) backoffDelay(completed int) time.Duration {
	delay := c.config.BackoffBase
	if c.config.Exponential {
		delay = c.config.BackoffBase << (completed - 1)
	}
	if delay > c.config.BackoffMax {
		delay = c.config.BackoffMax
	}
	return delay
}

// extractServerMessage pulls a human-readable message out of an error body.
// Backends answer with {error: "..."} or {message: "..."}; anything else is
// ignored rather than propagated as noise.
func extractServerMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}

func isJSON(contentType string) bool {
	return strings.Contains(contentType, "application/json")
}

// sleepContext waits for the duration unless the context is cancelled first.
// The timer is released on both paths.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
