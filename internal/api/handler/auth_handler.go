package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/dto"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/service"
	"github.com/HitaloNasc/v-lab-tech-lead-test/pkg/response"
)

// AuthHandler serves sign-up, sign-in and the token lifecycle.
type AuthHandler struct {
	authSvc         service.AuthService
	registrationSvc service.RegistrationService
}

func NewAuthHandler(authSvc service.AuthService, registrationSvc service.RegistrationService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, registrationSvc: registrationSvc}
}

// Register creates a user and, for candidates, the profile in one transaction.
// Anonymous callers may register; granting sys_admin needs a sys_admin token.
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, profile, err := h.registrationSvc.Register(c.Request.Context(), &req, principalFrom(c))
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.Created(c, dto.NewUserResponse(user, profile))
}

// Login
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, result)
}

// RefreshToken rotates a refresh token into a new pair.
// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authSvc.Refresh(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, result)
}

// Logout revokes the current access token and the refresh token in the body, if any.
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req dto.LogoutRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	if err := h.authSvc.Logout(c.Request.Context(), claimsFrom(c), req.RefreshToken); err != nil {
		response.Fail(c, err)
		return
	}

	response.NoContent(c)
}

// GetCurrentUser
// GET /api/v1/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	user, profile, err := h.authSvc.Me(c.Request.Context(), p)
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, dto.NewUserResponse(user, profile))
}
