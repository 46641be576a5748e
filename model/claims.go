package model

import (
	"time"

	"github.com/google/uuid"
)

// AccessClaims is the verified payload of an access token. Never persisted.
type AccessClaims struct {
	UserID    uuid.UUID
	Roles     []string
	ExpiresAt time.Time
	JTI       string
}

// RefreshClaims is the verified payload of a refresh token, binding it to
// exactly one server-side session.
type RefreshClaims struct {
	UserID    uuid.UUID
	SessionID uuid.UUID
	ExpiresAt time.Time
	JTI       string
}
