package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"lms-auth-api/logger"
	"lms-auth-api/model"
	"lms-auth-api/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AuthService orchestrates the refresh session state machine across login,
// rotation, logout and logout-all.
type AuthService struct {
	sessions            repository.ISessionRepository
	tokens              *TokenService
	identity            IIdentityGateway
	monitor             IReuseMonitor
	reuseAlertThreshold int
}

// NewAuthService wires the orchestrator. The monitor may be nil, which
// disables reuse escalation but keeps the reuse error codes intact.
func NewAuthService(sessions repository.ISessionRepository, tokens *TokenService, identity IIdentityGateway, monitor IReuseMonitor, reuseAlertThreshold int) *AuthService {
	return &AuthService{
		sessions:            sessions,
		tokens:              tokens,
		identity:            identity,
		monitor:             monitor,
		reuseAlertThreshold: reuseAlertThreshold,
	}
}

// HashRefreshToken produces the stored fingerprint of a refresh token:
// SHA-256 of the compact token string, base64-encoded. Deterministic so the
// presented token can be matched against its session on every exchange.
func HashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// Login verifies credentials against the identity service and opens a new
// refresh session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	identity, err := s.identity.CheckCredentials(ctx, email, password)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !identity.Active {
		return nil, ErrUserInactive
	}

	pair, err := s.issuePair(identity.UserID, identity.Roles)
	if err != nil {
		return nil, err
	}

	logger.Log.WithField("user_id", identity.UserID).Info("User logged in")
	return pair, nil
}

// Refresh exchanges a refresh token for a fresh pair, rotating its session.
// A refresh token can be exchanged exactly once; the losing side of any race
// sees refresh_reuse_detected.
func (s *AuthService) Refresh(ctx context.Context, oldRefreshToken string) (*model.TokenPair, error) {
	claims, err := s.tokens.VerifyRefresh(oldRefreshToken)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.GetByID(claims.SessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidSID
		}
		return nil, err
	}

	// TTL expiry is independent of status and checked first: an ACTIVE but
	// overdue session must report expired_refresh, not invalid_refresh.
	if time.Now().After(session.ExpiresAt) {
		return nil, ErrExpiredRefresh
	}
	if session.Status != model.SessionActive {
		return nil, ErrInvalidRefresh
	}

	// A valid-looking token whose sid was pointed at someone else's session
	// record fails here even though the signature checked out.
	if HashRefreshToken(oldRefreshToken) != session.TokenHash {
		return nil, ErrInvalidRefreshHash
	}
	if session.UserID != claims.UserID {
		return nil, ErrSIDUserMismatch
	}

	identity, err := s.identity.LookupByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return nil, ErrUserInactive
		}
		return nil, err
	}
	if !identity.Active {
		return nil, ErrUserInactive
	}

	used, err := s.sessions.MarkUsedIfActive(claims.SessionID)
	if err != nil {
		return nil, err
	}
	if !used {
		// Another request consumed this exact token after we loaded the
		// session. That is a replay signal, not an ordinary expiry.
		s.recordReuse(ctx, claims.UserID, claims.SessionID)
		return nil, ErrRefreshReuseDetected
	}

	pair, err := s.issuePair(claims.UserID, identity.Roles)
	if err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id":     claims.UserID,
		"old_session": claims.SessionID,
	}).Info("Refresh token rotated")
	return pair, nil
}

// Logout closes the session behind a refresh token. Closing an already
// closed session is reported, never silently swallowed.
func (s *AuthService) Logout(ctx context.Context, oldRefreshToken string) error {
	claims, err := s.tokens.VerifyRefresh(oldRefreshToken)
	if err != nil {
		return err
	}

	if _, err := s.sessions.GetByID(claims.SessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInvalidSID
		}
		return err
	}

	expired, err := s.sessions.ExpireIfActive(claims.SessionID)
	if err != nil {
		return err
	}
	if !expired {
		logger.Log.WithFields(logrus.Fields{
			"user_id":        claims.UserID,
			"session_id":     claims.SessionID,
			"security_event": "logout_reuse",
		}).Warn("Logout presented an already closed session")
		return ErrLogoutReuseDetected
	}

	logger.Log.WithField("user_id", claims.UserID).Info("User logged out")
	return nil
}

// LogoutAll revokes every active session of the user. Idempotent.
func (s *AuthService) LogoutAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	revoked, err := s.sessions.RevokeAllActiveForUser(userID)
	if err != nil {
		return 0, err
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id": userID,
		"revoked": revoked,
	}).Info("Revoked all active sessions for user")
	return revoked, nil
}

func (s *AuthService) issuePair(userID uuid.UUID, roles []string) (*model.TokenPair, error) {
	sessionID := uuid.New()

	access, err := s.tokens.SignAccess(userID, roles)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.SignRefresh(userID, sessionID)
	if err != nil {
		return nil, err
	}

	session := &model.RefreshSession{
		ID:        sessionID,
		UserID:    userID,
		TokenHash: HashRefreshToken(refresh),
		Status:    model.SessionActive,
		ExpiresAt: time.Now().Add(s.tokens.RefreshTTL()),
	}
	if err := s.sessions.Create(session); err != nil {
		return nil, err
	}

	return &model.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// recordReuse feeds the reuse monitor and escalates to a full revocation
// once one user accumulates enough reuse events inside the window.
func (s *AuthService) recordReuse(ctx context.Context, userID, sessionID uuid.UUID) {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":        userID,
		"session_id":     sessionID,
		"security_event": "refresh_reuse",
	})
	log.Warn("Refresh token reuse detected")

	if s.monitor == nil {
		return
	}

	count, err := s.monitor.RecordRefreshReuse(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Failed to record reuse event")
		return
	}

	if s.reuseAlertThreshold > 0 && count >= int64(s.reuseAlertThreshold) {
		log.WithField("reuse_count", count).Warn("Reuse threshold exceeded, revoking all sessions for user")
		if _, err := s.LogoutAll(ctx, userID); err != nil {
			log.WithError(err).Error("Failed to revoke sessions after reuse escalation")
		}
	}
}
