package handler

import (
	"encoding/json"
	"lms-auth-api/common"
	"lms-auth-api/model"
	"lms-auth-api/service"
	"net/http"

	"github.com/google/uuid"
)

type AuthHandler struct {
	service *service.AuthService
}

func NewAuthHandler(service *service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

// Login godoc
// @Summary      Authenticate with credentials
// @Description  Verifies email and password and opens a new refresh session
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      model.LoginRequest  true  "Credentials"
// @Success      200      {object}  model.TokenPair
// @Failure      401      {object}  common.AppError
// @Router       /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.LoginRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	pair, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		return toAppError(err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(pair)
	return nil
}

// Refresh godoc
// @Summary      Rotate a refresh token
// @Description  Exchanges a refresh token for a fresh access/refresh pair; the old token is consumed
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      model.RefreshRequest  true  "Refresh token"
// @Success      200      {object}  model.TokenPair
// @Failure      401      {object}  common.AppError
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RefreshRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	pair, err := h.service.Refresh(r.Context(), req.OldRefreshToken)
	if err != nil {
		return toAppError(err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(pair)
	return nil
}

// Logout godoc
// @Summary      Close one session
// @Description  Expires the session behind the presented refresh token
// @Tags         auth
// @Accept       json
// @Param        request  body  model.RefreshRequest  true  "Refresh token"
// @Success      204
// @Failure      401  {object}  common.AppError
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RefreshRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	if err := h.service.Logout(r.Context(), req.OldRefreshToken); err != nil {
		return toAppError(err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// LogoutAll godoc
// @Summary      Revoke every active session of a user
// @Description  Callers may revoke their own sessions; ADMIN may revoke anyone's
// @Tags         auth
// @Accept       json
// @Param        request  body  model.LogoutAllRequest  true  "Target user"
// @Success      204
// @Failure      401  {object}  common.AppError
// @Failure      403  {object}  common.AppError
// @Security     BearerAuth
// @Router       /auth/logout-all [post]
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.LogoutAllRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "bad_request", "userId is not a valid UUID", nil)
	}

	if appErr := RequireSelfOrRole(r, userID, "ADMIN"); appErr != nil {
		return appErr
	}

	if _, err := h.service.LogoutAll(r.Context(), userID); err != nil {
		return toAppError(err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
