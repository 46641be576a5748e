package repository

import (
	"database/sql"
	"sync"
	"time"

	"lms-auth-api/model"

	"github.com/google/uuid"
)

// MemorySessionRepository is an in-memory ISessionRepository. It honors the
// same contract as the SQL implementation, including atomic conditional
// transitions, and backs tests and local runs without Postgres.
type MemorySessionRepository struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*model.RefreshSession
	byHash   map[string]uuid.UUID
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[uuid.UUID]*model.RefreshSession),
		byHash:   make(map[string]uuid.UUID),
	}
}

func (r *MemorySessionRepository) Create(session *model.RefreshSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byHash[session.TokenHash]; exists {
		return ErrDuplicateTokenHash
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	copied := *session
	r.sessions[session.ID] = &copied
	r.byHash[session.TokenHash] = session.ID
	return nil
}

func (r *MemorySessionRepository) GetByID(id uuid.UUID) (*model.RefreshSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *session
	return &copied, nil
}

func (r *MemorySessionRepository) MarkUsedIfActive(id uuid.UUID) (bool, error) {
	return r.transitionIfActive(id, model.SessionAlreadyUsed)
}

func (r *MemorySessionRepository) ExpireIfActive(id uuid.UUID) (bool, error) {
	return r.transitionIfActive(id, model.SessionExpired)
}

func (r *MemorySessionRepository) transitionIfActive(id uuid.UUID, target model.SessionStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok || session.Status != model.SessionActive {
		return false, nil
	}
	session.Status = target
	return true, nil
}

func (r *MemorySessionRepository) RevokeAllActiveForUser(userID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var revoked int64
	for _, session := range r.sessions {
		if session.UserID == userID && session.Status == model.SessionActive {
			session.Status = model.SessionRevoked
			revoked++
		}
	}
	return revoked, nil
}
