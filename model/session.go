package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the lifecycle state of a refresh token session.
// Transitions are one-way: ACTIVE is the only non-terminal state, and a
// session that has left ACTIVE never comes back.
type SessionStatus string

const (
	SessionActive      SessionStatus = "ACTIVE"
	SessionAlreadyUsed SessionStatus = "ALREADY_USED"
	SessionExpired     SessionStatus = "EXPIRED"
	SessionRevoked     SessionStatus = "REVOKED"
)

// RefreshSession tracks one issued refresh token. Rows are never deleted;
// terminal rows stay behind as an audit trail.
type RefreshSession struct {
	ID        uuid.UUID     `json:"id"`
	UserID    uuid.UUID     `json:"user_id"`
	TokenHash string        `json:"-"` // The hash is not exposed in JSON responses.
	Status    SessionStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	ExpiresAt time.Time     `json:"expires_at"`
}
