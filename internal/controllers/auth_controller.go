package controllers

import (
	"net/http"

	"github.com/storably/storage-service/internal/dtos"
	"github.com/storably/storage-service/internal/middleware"
	"github.com/storably/storage-service/internal/services"
	"github.com/storably/storage-service/internal/utils"
)

type AuthController struct {
	authService *services.AuthService
}

func NewAuthController(authService *services.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

// POST /api/auth/register
func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var req dtos.RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := c.authService.Register(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, user)
}

// POST /api/auth/login
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req dtos.LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := c.authService.Login(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// POST /api/auth/logout
//
// Revokes the presented token until its natural expiry. Requires auth,
// so the token is known valid by the time we get here.
func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	tokenStr, ok := middleware.TokenFromContext(r.Context())
	if !ok {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authentication required", nil,
		)
		return
	}

	if err := c.authService.Logout(r.Context(), tokenStr); err != nil {
		respondServiceError(w, err)
		return
	}

	email, _ := r.Context().Value(middleware.ContextKeyUserEmail).(string)
	utils.RespondWithJSON(w, http.StatusOK, dtos.LogoutResponse{
		Message: "Logged out successfully",
		Email:   email,
	})
}
