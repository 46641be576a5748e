package service

import (
	"errors"
	"fmt"
)

// AuthError is a rejection with a stable machine-readable code. Every code
// maps to 401 at the HTTP layer; the codes exist so clients and telemetry
// can tell an ordinary expiry apart from a replay signal.
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Code + ": " + e.Message
}

// Token verification failures.
var (
	ErrInvalidToken      = &AuthError{Code: "invalid_token", Message: "token is malformed or its signature is invalid"}
	ErrExpiredToken      = &AuthError{Code: "expired_token", Message: "token has expired"}
	ErrInvalidAudience   = &AuthError{Code: "invalid_audience", Message: "token audience does not match"}
	ErrInvalidSubject    = &AuthError{Code: "invalid_subject", Message: "token subject is not a valid user id"}
	ErrInvalidExpiration = &AuthError{Code: "invalid_expiration", Message: "token has no expiration claim"}
	ErrInvalidJTI        = &AuthError{Code: "invalid_jti", Message: "token has no id claim"}
	ErrMissingRoles      = &AuthError{Code: "missing_roles", Message: "token has no roles claim"}
	ErrInvalidRoles      = &AuthError{Code: "invalid_roles", Message: "token roles claim is malformed or empty"}
	ErrInvalidSID        = &AuthError{Code: "invalid_sid", Message: "token session id is unknown or malformed"}
)

// Credential and session rejections.
var (
	ErrInvalidCredentials = &AuthError{Code: "invalid_credentials", Message: "email or password is incorrect"}
	ErrUserInactive       = &AuthError{Code: "user_inactive", Message: "user account is disabled"}
	ErrInvalidRefresh     = &AuthError{Code: "invalid_refresh", Message: "refresh session is no longer active"}
	ErrInvalidRefreshHash = &AuthError{Code: "invalid_refresh_hash", Message: "refresh token does not match its session"}
	ErrSIDUserMismatch    = &AuthError{Code: "sid_user_mismatch", Message: "refresh session belongs to a different user"}
	ErrExpiredRefresh     = &AuthError{Code: "expired_refresh", Message: "refresh session has expired"}
)

// Reuse signals. Same HTTP status as the rest, but logically distinct:
// repeated refresh reuse for one user is treated as possible token theft.
var (
	ErrRefreshReuseDetected = &AuthError{Code: "refresh_reuse_detected", Message: "refresh token was already consumed"}
	ErrLogoutReuseDetected  = &AuthError{Code: "logout_reuse_detected", Message: "session was already closed"}
)

// ErrInvalidArgument reports a programming error in a sign call, not a
// client-recoverable rejection.
var ErrInvalidArgument = errors.New("invalid argument")

// GatewayError wraps a transport or server-side failure of the identity
// service. Surfaces as a 5xx, never as a credential rejection.
type GatewayError struct {
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("identity gateway unavailable: %v", e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
