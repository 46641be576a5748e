package model

// LoginRequest defines the payload for authenticating with credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries the refresh token being exchanged or revoked.
type RefreshRequest struct {
	OldRefreshToken string `json:"oldRefreshToken" validate:"required"`
}

// LogoutAllRequest revokes every active session of one user.
type LogoutAllRequest struct {
	UserID string `json:"userId" validate:"required,uuid"`
}

// TokenPair is the success response of login and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
