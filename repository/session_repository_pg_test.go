package repository

import (
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	"lms-auth-api/model"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

// TestSessionRepository_Postgres exercises the real conditional UPDATEs
// against Postgres. Set TEST_DATABASE_URL (postgres://...) to enable it.
func TestSessionRepository_Postgres(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping Postgres integration test")
	}

	db, err := sql.Open("postgres", dsn)
	assert.NoError(t, err)
	defer db.Close()
	assert.NoError(t, db.Ping())

	mig, err := migrate.New("file://../db/migrations", dsn)
	assert.NoError(t, err)
	if err := mig.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("failed to run migrate up: %v", err)
	}

	repo := NewSessionRepository(db)
	userID := uuid.New()

	newSession := func() *model.RefreshSession {
		session := &model.RefreshSession{
			ID:        uuid.New(),
			UserID:    userID,
			TokenHash: uuid.NewString(),
			Status:    model.SessionActive,
			ExpiresAt: time.Now().Add(time.Hour),
		}
		assert.NoError(t, repo.Create(session))
		return session
	}

	t.Run("create and read back", func(t *testing.T) {
		session := newSession()

		got, err := repo.GetByID(session.ID)
		assert.NoError(t, err)
		assert.Equal(t, model.SessionActive, got.Status)
		assert.False(t, got.CreatedAt.IsZero())
	})

	t.Run("duplicate hash is a conflict", func(t *testing.T) {
		session := newSession()
		dupe := *session
		dupe.ID = uuid.New()
		assert.ErrorIs(t, repo.Create(&dupe), ErrDuplicateTokenHash)
	})

	t.Run("exactly one concurrent winner", func(t *testing.T) {
		session := newSession()

		const racers = 16
		var wg sync.WaitGroup
		results := make(chan bool, racers)
		for i := 0; i < racers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				won, err := repo.MarkUsedIfActive(session.ID)
				assert.NoError(t, err)
				results <- won
			}()
		}
		wg.Wait()
		close(results)

		winners := 0
		for won := range results {
			if won {
				winners++
			}
		}
		assert.Equal(t, 1, winners)

		got, err := repo.GetByID(session.ID)
		assert.NoError(t, err)
		assert.Equal(t, model.SessionAlreadyUsed, got.Status)
	})

	t.Run("revoke all active for user", func(t *testing.T) {
		victim := uuid.New()
		for i := 0; i < 3; i++ {
			session := newSession()
			session.UserID = victim
			// Recreate under the victim's id.
			_, err := db.Exec(`UPDATE refresh_token_sessions SET user_id = $1 WHERE id = $2`, victim, session.ID)
			assert.NoError(t, err)
		}

		revoked, err := repo.RevokeAllActiveForUser(victim)
		assert.NoError(t, err)
		assert.Equal(t, int64(3), revoked)

		revoked, err = repo.RevokeAllActiveForUser(victim)
		assert.NoError(t, err)
		assert.Equal(t, int64(0), revoked)
	})
}
