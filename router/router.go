package router

import (
	"lms-auth-api/handler"
	"lms-auth-api/service"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// NewRouter wires the auth endpoints, the swagger UI and, when a proxy is
// given, the authenticated relay to the downstream services. The mode picks
// the edge policy for relayed traffic: "conditional" exempts GET requests,
// anything else means strict.
func NewRouter(authHandler *handler.AuthHandler, tokens *service.TokenService, proxy http.Handler, mode string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", handler.HealthCheck)
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	mux.Handle("/auth/login", handler.ErrorHandlingMiddleware(authHandler.Login))
	mux.Handle("/auth/refresh", handler.ErrorHandlingMiddleware(authHandler.Refresh))
	mux.Handle("/auth/logout", handler.ErrorHandlingMiddleware(authHandler.Logout))
	mux.Handle("/auth/logout-all",
		handler.AuthMiddleware(tokens)(handler.ErrorHandlingMiddleware(authHandler.LogoutAll)))

	if proxy != nil {
		edge := handler.AuthMiddleware(tokens)
		if mode == "conditional" {
			edge = handler.ConditionalAuthMiddleware(tokens)
		}
		mux.Handle("/api/", edge(proxy))
	}

	return mux
}
