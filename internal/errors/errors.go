package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Auth errors (AUTH-001 to AUTH-099)
	ErrCodeAuthLoginFailed    ErrorCode = "AUTH-001"
	ErrCodeAuthRefreshFailed  ErrorCode = "AUTH-002"
	ErrCodeAuthSessionExpired ErrorCode = "AUTH-003"
	ErrCodeAuthNotLoggedIn    ErrorCode = "AUTH-004"
	ErrCodeAuthRealmUnknown   ErrorCode = "AUTH-005"

	// Token errors (TOKEN-001 to TOKEN-099)
	ErrCodeTokenMalformed ErrorCode = "TOKEN-001"
	ErrCodeTokenNoExpiry  ErrorCode = "TOKEN-002"
	ErrCodeTokenStorage   ErrorCode = "TOKEN-003"

	// HTTP transport errors (HTTP-001 to HTTP-099)
	ErrCodeHTTPNetwork      ErrorCode = "HTTP-001"
	ErrCodeHTTPTimeout      ErrorCode = "HTTP-002"
	ErrCodeHTTPUnauthorized ErrorCode = "HTTP-003"
	ErrCodeHTTPForbidden    ErrorCode = "HTTP-004"
	ErrCodeHTTPNotFound     ErrorCode = "HTTP-005"
	ErrCodeHTTPValidation   ErrorCode = "HTTP-006"
	ErrCodeHTTPServer       ErrorCode = "HTTP-007"
	ErrCodeHTTPBadPayload   ErrorCode = "HTTP-008"
	ErrCodeHTTPCanceled     ErrorCode = "HTTP-009"

	// UserService facade errors (USER-001 to USER-099)
	ErrCodeUserUnavailable ErrorCode = "USER-001"
	ErrCodeUserOperation   ErrorCode = "USER-002"

	// AgenceService facade errors (AGENCE-001 to AGENCE-099)
	ErrCodeAgenceUnavailable ErrorCode = "AGENCE-001"
	ErrCodeAgenceOperation   ErrorCode = "AGENCE-002"

	// Dashboard errors (DASH-001 to DASH-099)
	ErrCodeDashboardSource  ErrorCode = "DASH-001"
	ErrCodeDashboardUnknown ErrorCode = "DASH-002"

	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigInvalid ErrorCode = "CONFIG-001"
	ErrCodeConfigRead    ErrorCode = "CONFIG-002"
)

// Kind classifies an error by how the transport and the caller should react.
// Exactly one kind is assigned when the error is created; downstream code
// switches on the kind instead of re-inspecting response shapes.
type Kind int

const (
	// KindUnknown is the zero value for errors that carry no transport class.
	KindUnknown Kind = iota
	// KindNetwork means no response was received at all.
	KindNetwork
	// KindTimeout means the request was cancelled by its own deadline.
	KindTimeout
	// KindUnauthorized maps HTTP 401.
	KindUnauthorized
	// KindForbidden maps HTTP 403.
	KindForbidden
	// KindNotFound maps HTTP 404.
	KindNotFound
	// KindValidation maps HTTP 400.
	KindValidation
	// KindServer maps HTTP 5xx and 408.
	KindServer
	// KindMalformedResponse means a success status carried an unparseable body.
	KindMalformedResponse
	// KindTokenInvalid means a structurally bad bearer token.
	KindTokenInvalid
	// KindCanceled means the caller aborted the request before the deadline.
	KindCanceled
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	case KindMalformedResponse:
		return "malformed_response"
	case KindTokenInvalid:
		return "token_invalid"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Retryable reports whether the transport may retry an error of this kind.
// Only failures with no response and server-side failures qualify; client
// errors (including 401/403, which the auth layer owns) never do, and neither
// does caller cancellation.
func (k Kind) Retryable() bool {
	switch k {
	case KindNetwork, KindTimeout, KindServer:
		return true
	default:
		return false
	}
}

// AdminError is the error type used across the admin console. It carries a
// stable code, a transport kind, and the underlying cause.
type AdminError struct {
	Code    ErrorCode
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface
func (e *AdminError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *AdminError) Unwrap() error {
	return e.Cause
}

// New creates a new AdminError
func New(code ErrorCode, message string) *AdminError {
	return &AdminError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new AdminError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *AdminError {
	return &AdminError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithKind sets the transport kind on the error
func (e *AdminError) WithKind(kind Kind) *AdminError {
	e.Kind = kind
	return e
}

// KindOf extracts the transport kind from an error chain.
// Returns KindUnknown for errors that are not AdminErrors.
func KindOf(err error) Kind {
	var ae *AdminError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// CodeOf extracts the error code from an error chain.
func CodeOf(err error) ErrorCode {
	var ae *AdminError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// NewNetworkError creates an error for a request that got no response.
func NewNetworkError(cause error) *AdminError {
	return Wrap(ErrCodeHTTPNetwork, "no response from server", cause).WithKind(KindNetwork)
}

// NewTimeoutError creates an error for a request that hit its deadline.
func NewTimeoutError(cause error) *AdminError {
	return Wrap(ErrCodeHTTPTimeout, "request timed out", cause).WithKind(KindTimeout)
}

// NewCanceledError creates an error for a request aborted by its caller.
// Kept distinct from timeout so callers can tell deliberate aborts apart.
func NewCanceledError(cause error) *AdminError {
	return Wrap(ErrCodeHTTPCanceled, "request canceled", cause).WithKind(KindCanceled)
}

// NewStatusError creates an error for a non-success HTTP status.
// serverMessage is the message extracted from the response body, if any.
func NewStatusError(status int, serverMessage string) *AdminError {
	msg := serverMessage
	switch {
	case status == 401:
		if msg == "" {
			msg = "authentication required"
		}
		return New(ErrCodeHTTPUnauthorized, msg).WithKind(KindUnauthorized)
	case status == 403:
		if msg == "" {
			msg = "access denied"
		}
		return New(ErrCodeHTTPForbidden, msg).WithKind(KindForbidden)
	case status == 404:
		if msg == "" {
			msg = "resource not found"
		}
		return New(ErrCodeHTTPNotFound, msg).WithKind(KindNotFound)
	case status == 400:
		if msg == "" {
			msg = "invalid request"
		}
		return New(ErrCodeHTTPValidation, msg).WithKind(KindValidation)
	case status == 408 || status >= 500:
		if msg == "" {
			msg = fmt.Sprintf("server error (status %d)", status)
		}
		return New(ErrCodeHTTPServer, msg).WithKind(KindServer)
	default:
		if msg == "" {
			msg = fmt.Sprintf("request failed (status %d)", status)
		}
		return New(ErrCodeHTTPValidation, msg).WithKind(KindValidation)
	}
}

// NewMalformedResponseError creates an error for an unparseable success body.
func NewMalformedResponseError(cause error) *AdminError {
	return Wrap(ErrCodeHTTPBadPayload, "malformed response body", cause).WithKind(KindMalformedResponse)
}

// NewTokenInvalidError creates an error for a structurally bad bearer token.
func NewTokenInvalidError(detail string) *AdminError {
	return New(ErrCodeTokenMalformed, fmt.Sprintf("invalid bearer token: %s", detail)).WithKind(KindTokenInvalid)
}
