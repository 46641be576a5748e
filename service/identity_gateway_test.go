package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lms-auth-api/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

type stubUser struct {
	identity     model.Identity
	passwordHash string
}

// newIdentityStub runs a minimal user service: credentials are verified
// against stored bcrypt hashes, users are looked up by id.
func newIdentityStub(t *testing.T, users map[string]stubUser) *httptest.Server {
	t.Helper()

	byID := make(map[uuid.UUID]stubUser)
	for _, u := range users {
		byID[u.identity.UserID] = u
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/check-credentials", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		user, ok := users[req.Email]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(user.passwordHash), []byte(req.Password)) != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(user.identity)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(strings.TrimPrefix(r.URL.Path, "/"))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		user, ok := byID[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(user.identity)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func hashPasswordForTest(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	assert.NoError(t, err)
	return string(hash)
}

func TestHTTPIdentityGateway_CheckCredentials(t *testing.T) {
	ctx := context.Background()
	teacher := model.Identity{UserID: uuid.New(), Roles: []string{"TEACHER"}, Active: true}

	srv := newIdentityStub(t, map[string]stubUser{
		"teacher@lms.dev": {identity: teacher, passwordHash: hashPasswordForTest(t, "password123")},
	})
	gateway := NewHTTPIdentityGateway(srv.URL, 2*time.Second)

	t.Run("valid credentials", func(t *testing.T) {
		identity, err := gateway.CheckCredentials(ctx, "teacher@lms.dev", "password123")
		assert.NoError(t, err)
		assert.Equal(t, teacher.UserID, identity.UserID)
		assert.Equal(t, []string{"TEACHER"}, identity.Roles)
		assert.True(t, identity.Active)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := gateway.CheckCredentials(ctx, "teacher@lms.dev", "wrong")
		assert.ErrorIs(t, err, ErrIdentityNotFound)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := gateway.CheckCredentials(ctx, "ghost@lms.dev", "password123")
		assert.ErrorIs(t, err, ErrIdentityNotFound)
	})
}

func TestHTTPIdentityGateway_LookupByID(t *testing.T) {
	ctx := context.Background()
	student := model.Identity{UserID: uuid.New(), Roles: []string{"STUDENT"}, Active: false}

	srv := newIdentityStub(t, map[string]stubUser{
		"student@lms.dev": {identity: student, passwordHash: hashPasswordForTest(t, "password123")},
	})
	gateway := NewHTTPIdentityGateway(srv.URL, 2*time.Second)

	identity, err := gateway.LookupByID(ctx, student.UserID)
	assert.NoError(t, err)
	assert.False(t, identity.Active)

	_, err = gateway.LookupByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrIdentityNotFound)
}

func TestHTTPIdentityGateway_UpstreamFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		t.Cleanup(srv.Close)

		gateway := NewHTTPIdentityGateway(srv.URL, 2*time.Second)
		_, err := gateway.CheckCredentials(ctx, "teacher@lms.dev", "password123")

		var gatewayErr *GatewayError
		assert.ErrorAs(t, err, &gatewayErr)
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		gateway := NewHTTPIdentityGateway(srv.URL, time.Second)
		_, err := gateway.LookupByID(ctx, uuid.New())

		var gatewayErr *GatewayError
		assert.ErrorAs(t, err, &gatewayErr)
	})
}
