package auth

import (
	"fmt"

	"tracegate/pkg/logging"
)

// Error codes carried in structured error responses. Clients dispatch on
// these to decide between re-authenticating, reinitializing a session, and
// giving up.
const (
	CodeUnauthenticated         = "unauthenticated"
	CodeInvalidCredentialFormat = "invalid_credential_format"
	CodeSessionNotFound         = "session_not_found"
	CodeSessionUnauthorized     = "session_unauthorized"
	CodeCapacityExceeded        = "capacity_exceeded"
	CodeAuthenticationFailed    = "authentication_failed"
)

// UnauthenticatedError is returned when no bearer credential is presented
// on a protected endpoint.
type UnauthenticatedError struct{}

func (e *UnauthenticatedError) Error() string {
	return "authorization required: provide your W&B API key as a Bearer token"
}

// InvalidCredentialFormatError is returned when a credential is present but
// fails the shape check. It carries only the length; never the value.
type InvalidCredentialFormatError struct {
	Length int
}

func (e *InvalidCredentialFormatError) Error() string {
	return fmt.Sprintf("invalid API key format (length %d)", e.Length)
}

// SessionNotFoundError is returned when a client references a session ID
// the registry has no record of. The client's remediation is to
// reinitialize, not to re-authenticate.
type SessionNotFoundError struct {
	SessionID string
}

func (e *SessionNotFoundError) Error() string {
	return "session not found: " + logging.TruncateSessionID(e.SessionID)
}

// SessionUnauthorizedError is returned when a session exists but the
// presented credential does not match its bound fingerprint. This can
// indicate a cross-tenant confusion attempt and is logged at elevated
// severity wherever it is raised.
type SessionUnauthorizedError struct {
	SessionID string
}

func (e *SessionUnauthorizedError) Error() string {
	return "session credential mismatch: " + logging.TruncateSessionID(e.SessionID)
}

// CapacityExceededError is returned when creating a session would exceed
// the per-fingerprint cap even after evicting idle sessions.
type CapacityExceededError struct {
	Limit int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("maximum concurrent sessions (%d) exceeded for this API key", e.Limit)
}

// AuthenticationFailedError is the catch-all for unexpected internal errors
// during the auth flow. Its message never leaks internal detail to clients;
// the wrapped error is for server-side logs only.
type AuthenticationFailedError struct {
	Err error
}

func (e *AuthenticationFailedError) Error() string {
	return "authentication failed"
}

// Unwrap exposes the internal cause for errors.Is/As on the server side.
func (e *AuthenticationFailedError) Unwrap() error {
	return e.Err
}
