// Package apierror defines the business-error taxonomy of the engine and the
// standardized JSON envelope returned to clients. All errors surfaced to the
// API go through this package so that internal details (stack traces, SQL
// errors) never leak, and so that transient infrastructure failures are never
// rendered as business failures.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ── Business errors ──────────────────────────────────────────────────────────

// ValidationError reports malformed input. Never retried automatically.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (e *ValidationError) Error() string { return e.Detail }

func NewValidation(detail string) *ValidationError {
	return &ValidationError{Detail: detail}
}

func NewFieldValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation failed", Fields: fields}
}

// NotFoundError reports an operation against a terminal/session/product id
// that does not exist (including post-reset staleness).
type NotFoundError struct {
	Resource string `json:"resource"`
	ID       string `json:"id"`
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// InvalidStateError reports a session-lifecycle violation (closing a closed
// session, opening while one is open). Carries enough context for the UI to
// recover: the conflicting session id and its open time, when known.
type InvalidStateError struct {
	Detail    string     `json:"detail"`
	SessionID string     `json:"session_id,omitempty"`
	OpenedAt  *time.Time `json:"opened_at,omitempty"`
}

func (e *InvalidStateError) Error() string { return e.Detail }

// InsufficientStockError names the offending product and its true remaining
// quantity. The sale it rejects must not be considered complete.
type InsufficientStockError struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Requested   int    `json:"requested"`
	Available   int    `json:"available"`
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}

// PermissionError reports a day-level operation attempted from a terminal
// that is not flagged as main (or a role mismatch).
type PermissionError struct {
	Detail string `json:"detail"`
}

func (e *PermissionError) Error() string { return e.Detail }

// Blocker identifies one terminal/operator pair that must close first.
type Blocker struct {
	TerminalName string `json:"terminal_name"`
	StaffName    string `json:"staff_name"`
}

// BlockedError reports a day close attempted while other terminals still have
// open sessions. Carries every blocker so the UI can name them.
type BlockedError struct {
	OpenSessions []Blocker `json:"open_sessions"`
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("day close blocked: %d terminal(s) still have an open session", len(e.OpenSessions))
}

// TransientError wraps connectivity/timeout failures. Read paths should fail
// soft on it (use last-known-good values); mutating paths fail closed. It is
// rendered as a generic "try again" message, never as a business failure.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }

func NewTransient(op string, err error) *TransientError {
	return &TransientError{Op: op, Err: err}
}

// ── HTTP mapping ─────────────────────────────────────────────────────────────

// StatusCode maps a business error to its HTTP status. Unknown errors map to
// 500 — the handler layer logs them and responds with a generic envelope.
func StatusCode(err error) int {
	var (
		validation *ValidationError
		notFound   *NotFoundError
		state      *InvalidStateError
		stock      *InsufficientStockError
		permission *PermissionError
		blocked    *BlockedError
		transient  *TransientError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &state):
		return http.StatusConflict
	case errors.As(err, &stock):
		return http.StatusConflict
	case errors.As(err, &permission):
		return http.StatusForbidden
	case errors.As(err, &blocked):
		return http.StatusLocked
	case errors.As(err, &transient):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Payload returns the JSON body for a business error. Typed errors marshal
// their own structure; everything else gets the plain envelope.
func Payload(err error) any {
	var (
		validation *ValidationError
		notFound   *NotFoundError
		state      *InvalidStateError
		stock      *InsufficientStockError
		permission *PermissionError
		blocked    *BlockedError
		transient  *TransientError
	)
	switch {
	case errors.As(err, &validation):
		return validation
	case errors.As(err, &notFound):
		return New(notFound.Error())
	case errors.As(err, &state):
		return state
	case errors.As(err, &stock):
		return stock
	case errors.As(err, &permission):
		return New(permission.Detail)
	case errors.As(err, &blocked):
		return blocked
	case errors.As(err, &transient):
		return New("service temporarily unavailable, try again")
	default:
		return New("internal server error")
	}
}

// IsTransient reports whether err is (or wraps) a connectivity failure.
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}
