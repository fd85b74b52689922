// Package apierrors implements the seven error kinds from §7 of the
// specification as a single typed error with an HTTP status and a
// single-line detail, composed via errors.Is/errors.As rather than string
// matching. The constructor names and the RespondWithError call shape are
// grounded on the teacher's internal/httpserver/errors usage pattern
// (NewBadRequestError(msg, cause), NewNotFoundError(msg, cause), ...),
// generalized from a fixed HTTP-status-per-constructor scheme to the
// specification's own error-kind taxonomy.
package apierrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is one of the seven error kinds named in §7.
type Kind string

const (
	KindIdentity      Kind = "identity"
	KindConflict      Kind = "conflict"
	KindValidation    Kind = "validation"
	KindAuthentication Kind = "authentication"
	KindAvailability  Kind = "availability"
	KindCapability    Kind = "capability"
	KindIntegrity     Kind = "integrity"
)

// defaultStatus is the HTTP status a Kind maps to absent an explicit
// override (some endpoints need a more specific status for the same kind,
// e.g. 422 for an unreachable model URL vs. 503 for a database).
var defaultStatus = map[Kind]int{
	KindIdentity:       http.StatusNotFound,
	KindConflict:       http.StatusConflict,
	KindValidation:     http.StatusBadRequest,
	KindAuthentication: http.StatusUnauthorized,
	KindAvailability:   http.StatusServiceUnavailable,
	KindCapability:     http.StatusBadRequest,
	KindIntegrity:      http.StatusUnprocessableEntity,
}

// Error is the single typed error used throughout the server.
type Error struct {
	Kind   Kind
	Status int
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Detail, e.Cause)
	}
	return e.Detail
}

func (e *Error) Unwrap() error { return e.Cause }

func newErr(kind Kind, detail string, cause error) *Error {
	return &Error{Kind: kind, Status: defaultStatus[kind], Detail: detail, Cause: cause}
}

// NotFound builds an Identity error (unknown model/client/database/
// vector-store/prompt/testset).
func NotFound(detail string, cause error) *Error {
	return newErr(KindIdentity, detail, cause)
}

// Conflict builds a Conflict error (duplicate name, rename collision).
func Conflict(detail string, cause error) *Error {
	return newErr(KindConflict, detail, cause)
}

// Validation builds a Validation error (missing fields, malformed JSON,
// threshold out of range, unsupported extension).
func Validation(detail string, cause error) *Error {
	return newErr(KindValidation, detail, cause)
}

// Unauthorized builds an Authentication error (bad token, bad API key, bad
// DB credential).
func Unauthorized(detail string, cause error) *Error {
	return newErr(KindAuthentication, detail, cause)
}

// Forbidden builds an Authentication error with the 403 status reserved
// for a bad MCP API key per the status map in §6.
func Forbidden(detail string, cause error) *Error {
	e := newErr(KindAuthentication, detail, cause)
	e.Status = http.StatusForbidden
	return e
}

// Unavailable builds an Availability error (DB/LLM/URL unreachable).
func Unavailable(detail string, cause error) *Error {
	return newErr(KindAvailability, detail, cause)
}

// UpstreamError builds an Availability error with the 424 status reserved
// for upstream LLM provider failures per the status map in §6.
func UpstreamError(detail string, cause error) *Error {
	e := newErr(KindAvailability, detail, cause)
	e.Status = http.StatusFailedDependency
	return e
}

// UnprocessableModel builds an Availability error with the 422 status
// reserved for "model URL unreachable at registration" per the status map
// in §6.
func UnprocessableModel(detail string, cause error) *Error {
	e := newErr(KindAvailability, detail, cause)
	e.Status = http.StatusUnprocessableEntity
	return e
}

// Capability builds a Capability error (model lacks function-calling).
func Capability(detail string, cause error) *Error {
	return newErr(KindCapability, detail, cause)
}

// Integrity builds an Integrity error (malformed comment, unparseable
// knowledge base, non-boolean judge response).
func Integrity(detail string, cause error) *Error {
	return newErr(KindIntegrity, detail, cause)
}

// Internal builds a plain 500 with no specific Kind, for genuinely
// unexpected failures.
func Internal(detail string, cause error) *Error {
	return &Error{Status: http.StatusInternalServerError, Detail: detail, Cause: cause}
}

// StatusOf returns the HTTP status to report for err, defaulting to 500
// for errors not constructed through this package.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return http.StatusInternalServerError
}

// DetailOf returns the single-line detail string to surface to clients,
// never the underlying cause (clients never see stack traces, per §7).
func DetailOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Detail
	}
	return "internal error"
}
