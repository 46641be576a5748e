package service

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"lms-auth-api/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// clockSkew is the leeway applied to expiry checks during verification.
const clockSkew = 60 * time.Second

// TokenService signs and verifies the access and refresh tokens. It is
// stateless apart from the immutable signing key, so it is safe to share
// across requests.
type TokenService struct {
	key        []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenService builds the codec from configuration. The secret is decoded
// as base64 first and falls back to raw bytes; anything under 32 bytes is a
// configuration error and must abort startup.
func NewTokenService(secret, issuer, audience string, accessTTL, refreshTTL time.Duration) (*TokenService, error) {
	trimmed := strings.TrimSpace(secret)

	key, err := base64.StdEncoding.DecodeString(trimmed)
	if err != nil {
		key = []byte(trimmed)
	}
	if len(key) < 32 {
		return nil, fmt.Errorf("jwt secret must decode to at least 32 bytes, got %d", len(key))
	}

	return &TokenService{
		key:        key,
		issuer:     issuer,
		audience:   audience,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// RefreshTTL exposes the configured refresh token lifetime, which also
// bounds the session rows created around each refresh token.
func (s *TokenService) RefreshTTL() time.Duration {
	return s.refreshTTL
}

type accessSignClaims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

type refreshSignClaims struct {
	SID string `json:"sid"`
	jwt.RegisteredClaims
}

// parsedClaims keeps roles and sid untyped so a malformed claim yields its
// own error code instead of a generic parse failure.
type parsedClaims struct {
	Roles interface{} `json:"roles"`
	SID   interface{} `json:"sid"`
	jwt.RegisteredClaims
}

func (s *TokenService) registeredClaims(userID uuid.UUID, ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Audience:  jwt.ClaimStrings{s.audience},
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}
}

// SignAccess issues an access token carrying the user's roles. A nil roles
// slice is signed as an empty list; verification is where non-emptiness is
// enforced.
func (s *TokenService) SignAccess(userID uuid.UUID, roles []string) (string, error) {
	if userID == uuid.Nil {
		return "", fmt.Errorf("%w: userID is required", ErrInvalidArgument)
	}
	if roles == nil {
		roles = []string{}
	}

	claims := accessSignClaims{
		Roles:            roles,
		RegisteredClaims: s.registeredClaims(userID, s.accessTTL),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// SignRefresh issues a refresh token bound to one session record.
func (s *TokenService) SignRefresh(userID, sessionID uuid.UUID) (string, error) {
	if userID == uuid.Nil {
		return "", fmt.Errorf("%w: userID is required", ErrInvalidArgument)
	}
	if sessionID == uuid.Nil {
		return "", fmt.Errorf("%w: sessionID is required", ErrInvalidArgument)
	}

	claims := refreshSignClaims{
		SID:              sessionID.String(),
		RegisteredClaims: s.registeredClaims(userID, s.refreshTTL),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return signed, nil
}

// VerifyAccess validates an access token and returns its claims.
func (s *TokenService) VerifyAccess(token string) (*model.AccessClaims, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}

	userID, err := s.validateCommon(claims)
	if err != nil {
		return nil, err
	}

	roles, err := normalizeRoles(claims.Roles)
	if err != nil {
		return nil, err
	}

	return &model.AccessClaims{
		UserID:    userID,
		Roles:     roles,
		ExpiresAt: claims.ExpiresAt.Time,
		JTI:       claims.ID,
	}, nil
}

// VerifyRefresh validates a refresh token and returns its claims, including
// the session id it is bound to.
func (s *TokenService) VerifyRefresh(token string) (*model.RefreshClaims, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}

	// aud and sub first, then sid, matching the order failures surface in.
	if err := s.checkAudience(claims); err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidSubject
	}

	sid, ok := claims.SID.(string)
	if !ok {
		return nil, ErrInvalidSID
	}
	sessionID, err := uuid.Parse(sid)
	if err != nil {
		return nil, ErrInvalidSID
	}

	if claims.ExpiresAt == nil {
		return nil, ErrInvalidExpiration
	}
	if claims.ID == "" {
		return nil, ErrInvalidJTI
	}

	return &model.RefreshClaims{
		UserID:    userID,
		SessionID: sessionID,
		ExpiresAt: claims.ExpiresAt.Time,
		JTI:       claims.ID,
	}, nil
}

func (s *TokenService) parse(token string) (*parsedClaims, error) {
	raw := strings.TrimSpace(token)
	if len(raw) >= 7 && strings.EqualFold(raw[:7], "Bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	if raw == "" {
		return nil, ErrInvalidToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithLeeway(clockSkew),
	)

	claims := &parsedClaims{}
	_, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return s.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *TokenService) validateCommon(claims *parsedClaims) (uuid.UUID, error) {
	if err := s.checkAudience(claims); err != nil {
		return uuid.Nil, err
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidSubject
	}

	if claims.ExpiresAt == nil {
		return uuid.Nil, ErrInvalidExpiration
	}
	if claims.ID == "" {
		return uuid.Nil, ErrInvalidJTI
	}
	return userID, nil
}

// checkAudience accepts the audience claim as either a single value or a
// list, and requires the configured audience to be among them.
func (s *TokenService) checkAudience(claims *parsedClaims) error {
	for _, aud := range claims.Audience {
		if aud == s.audience {
			return nil
		}
	}
	return ErrInvalidAudience
}

// normalizeRoles accepts a list of strings or a single comma-separated
// string, trims entries and drops empties. A missing claim and a claim that
// normalizes to nothing are distinct failures.
func normalizeRoles(raw interface{}) ([]string, error) {
	if raw == nil {
		return nil, ErrMissingRoles
	}

	var roles []string
	switch v := raw.(type) {
	case []interface{}:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, ErrInvalidRoles
			}
			if s = strings.TrimSpace(s); s != "" {
				roles = append(roles, s)
			}
		}
	case string:
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				roles = append(roles, part)
			}
		}
	default:
		return nil, ErrInvalidRoles
	}

	if len(roles) == 0 {
		return nil, ErrInvalidRoles
	}
	return roles, nil
}
