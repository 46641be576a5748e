package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"lms-auth-api/logger"
	"lms-auth-api/model"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrIdentityNotFound is returned when the user service does not know the
// identity, or rejects the presented credentials.
var ErrIdentityNotFound = errors.New("identity not found")

// IIdentityGateway is the contract with the external user service. It owns
// credential storage and verification; this service never sees password
// hashes.
type IIdentityGateway interface {
	CheckCredentials(ctx context.Context, email, password string) (*model.Identity, error)
	LookupByID(ctx context.Context, userID uuid.UUID) (*model.Identity, error)
}

// HTTPIdentityGateway implements IIdentityGateway against the user service's
// REST API.
type HTTPIdentityGateway struct {
	baseURL string
	client  *http.Client
}

func NewHTTPIdentityGateway(baseURL string, timeout time.Duration) *HTTPIdentityGateway {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPIdentityGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type checkCredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CheckCredentials asks the user service to verify the credential pair.
// A 401 or 404 means the identity is unknown or the password does not match;
// the caller cannot tell which, and must not be able to.
func (g *HTTPIdentityGateway) CheckCredentials(ctx context.Context, email, password string) (*model.Identity, error) {
	body, err := json.Marshal(checkCredentialsRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("failed to encode credentials request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/check-credentials", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build credentials request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		logger.Log.WithError(err).Error("Identity service unreachable during credential check")
		return nil, &GatewayError{Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return decodeIdentity(resp)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusNotFound:
		return nil, ErrIdentityNotFound
	default:
		logger.Log.WithField("status", resp.StatusCode).Error("Identity service returned unexpected status for credential check")
		return nil, &GatewayError{Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
}

// LookupByID fetches the current state of a user, used to re-check that an
// account is still active before rotating its tokens.
func (g *HTTPIdentityGateway) LookupByID(ctx context.Context, userID uuid.UUID) (*model.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/"+userID.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build lookup request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		logger.Log.WithError(err).Error("Identity service unreachable during user lookup")
		return nil, &GatewayError{Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return decodeIdentity(resp)
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrIdentityNotFound
	default:
		logger.Log.WithField("status", resp.StatusCode).Error("Identity service returned unexpected status for user lookup")
		return nil, &GatewayError{Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
}

func decodeIdentity(resp *http.Response) (*model.Identity, error) {
	var identity model.Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, &GatewayError{Err: fmt.Errorf("malformed identity response: %w", err)}
	}
	if identity.UserID == uuid.Nil {
		return nil, &GatewayError{Err: errors.New("identity response missing user id")}
	}
	return &identity, nil
}
