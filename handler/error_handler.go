package handler

import (
	"errors"
	"lms-auth-api/common"
	"lms-auth-api/service"
	"net/http"
)

func ErrorHandlingMiddleware(next func(http.ResponseWriter, *http.Request) *common.AppError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := next(w, r); err != nil {
			err.Send(w)
		}
	}
}

// toAppError translates service-layer failures into the uniform envelope.
// Every auth code is a 401; only the code tells clients and telemetry apart.
func toAppError(err error) *common.AppError {
	var authErr *service.AuthError
	if errors.As(err, &authErr) {
		return common.NewAppError(http.StatusUnauthorized, authErr.Code, authErr.Message, nil)
	}

	var gatewayErr *service.GatewayError
	if errors.As(err, &gatewayErr) {
		return common.NewAppError(http.StatusBadGateway, "upstream_error", "Identity service is unavailable", err)
	}

	return common.NewAppError(http.StatusInternalServerError, "server_error", "Unexpected server error", err)
}
