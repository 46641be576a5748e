package app

import (
	"lms-auth-api/config"
	"lms-auth-api/handler"
	"lms-auth-api/repository"
	"lms-auth-api/router"
	"lms-auth-api/service"
	"net/http"
)

// TestApp assembles the full HTTP stack over injected collaborators so
// integration tests can run against any session store, identity gateway and
// reuse monitor. Expects config.LoadConfig to have run.
type TestApp struct {
	Router      http.Handler
	Sessions    repository.ISessionRepository
	AuthService *service.AuthService
	Tokens      *service.TokenService
}

func NewTestApp(sessions repository.ISessionRepository, gateway service.IIdentityGateway, monitor service.IReuseMonitor) (*TestApp, error) {
	cfg := config.AppConfig

	tokens, err := service.NewTokenService(
		cfg.JWT.SecretKey, cfg.JWT.Issuer, cfg.JWT.Audience, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	if err != nil {
		return nil, err
	}

	authService := service.NewAuthService(sessions, tokens, gateway, monitor, cfg.Auth.ReuseAlertThreshold)
	authHandler := handler.NewAuthHandler(authService)

	return &TestApp{
		Router:      router.NewRouter(authHandler, tokens, nil, cfg.Auth.Mode),
		Sessions:    sessions,
		AuthService: authService,
		Tokens:      tokens,
	}, nil
}
