package repository

import (
	"database/sql"
	"errors"
	"lms-auth-api/logger"
	"lms-auth-api/model"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// ErrDuplicateTokenHash is returned when a session insert collides on the
// token_hash unique index. With random session ids feeding a SHA-256 hash
// this should never happen; seeing it means something is badly wrong.
var ErrDuplicateTokenHash = errors.New("duplicate refresh token hash")

// ISessionRepository defines the contract for refresh session storage.
//
// The *IfActive methods are the concurrency-critical part of the whole
// service: each one must be a single conditional write evaluated by the
// storage engine, so that under N concurrent callers exactly one observes
// true. A read-then-write here would reopen the replay race the state
// machine exists to close.
type ISessionRepository interface {
	Create(session *model.RefreshSession) error
	GetByID(id uuid.UUID) (*model.RefreshSession, error)
	MarkUsedIfActive(id uuid.UUID) (bool, error)
	ExpireIfActive(id uuid.UUID) (bool, error)
	RevokeAllActiveForUser(userID uuid.UUID) (int64, error)
}

// SessionRepository implements ISessionRepository on PostgreSQL.
type SessionRepository struct {
	DB *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

// Create inserts a new session row in ACTIVE status.
func (r *SessionRepository) Create(session *model.RefreshSession) error {
	log := logger.Log.WithFields(logrus.Fields{
		"session_id": session.ID,
		"user_id":    session.UserID,
		"expires_at": session.ExpiresAt,
	})
	log.Info("Executing query to create a new refresh session")

	query := `INSERT INTO refresh_token_sessions (id, user_id, token_hash, status, expires_at)
	          VALUES ($1, $2, $3, $4, $5) RETURNING created_at`
	err := r.DB.QueryRow(query, session.ID, session.UserID, session.TokenHash, session.Status, session.ExpiresAt).
		Scan(&session.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			log.Error("Refresh token hash collision on insert")
			return ErrDuplicateTokenHash
		}
		log.WithError(err).Error("Failed to execute create refresh session query")
		return err
	}
	return nil
}

// GetByID retrieves a session by its identifier.
// Returns sql.ErrNoRows when the session does not exist.
func (r *SessionRepository) GetByID(id uuid.UUID) (*model.RefreshSession, error) {
	log := logger.Log.WithField("session_id", id)
	log.Info("Executing query to get refresh session by id")

	session := &model.RefreshSession{}
	query := `SELECT id, user_id, token_hash, status, created_at, expires_at
	          FROM refresh_token_sessions WHERE id = $1`
	err := r.DB.QueryRow(query, id).
		Scan(&session.ID, &session.UserID, &session.TokenHash, &session.Status, &session.CreatedAt, &session.ExpiresAt)
	if err != nil {
		if err != sql.ErrNoRows {
			log.WithError(err).Error("Failed to execute get refresh session query")
		}
		return nil, err
	}
	return session, nil
}

// MarkUsedIfActive transitions the session ACTIVE -> ALREADY_USED.
// Returns true iff this call performed the transition.
func (r *SessionRepository) MarkUsedIfActive(id uuid.UUID) (bool, error) {
	return r.transitionIfActive(id, model.SessionAlreadyUsed)
}

// ExpireIfActive transitions the session ACTIVE -> EXPIRED.
// Returns true iff this call performed the transition.
func (r *SessionRepository) ExpireIfActive(id uuid.UUID) (bool, error) {
	return r.transitionIfActive(id, model.SessionExpired)
}

func (r *SessionRepository) transitionIfActive(id uuid.UUID, target model.SessionStatus) (bool, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"session_id": id,
		"target":     target,
	})
	log.Info("Executing conditional session status transition")

	query := `UPDATE refresh_token_sessions SET status = $1 WHERE id = $2 AND status = $3`
	res, err := r.DB.Exec(query, target, id, model.SessionActive)
	if err != nil {
		log.WithError(err).Error("Failed to execute session transition query")
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		log.WithError(err).Error("Failed to read affected rows for session transition")
		return false, err
	}
	return affected == 1, nil
}

// RevokeAllActiveForUser transitions every ACTIVE session of the user to
// REVOKED and returns how many rows changed. Idempotent; zero is not an error.
func (r *SessionRepository) RevokeAllActiveForUser(userID uuid.UUID) (int64, error) {
	log := logger.Log.WithField("user_id", userID)
	log.Info("Executing query to revoke all active sessions for a user")

	query := `UPDATE refresh_token_sessions SET status = $1 WHERE user_id = $2 AND status = $3`
	res, err := r.DB.Exec(query, model.SessionRevoked, userID, model.SessionActive)
	if err != nil {
		log.WithError(err).Error("Failed to execute revoke all sessions query")
		return 0, err
	}
	return res.RowsAffected()
}
