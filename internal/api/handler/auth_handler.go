package handler

import (
	"github.com/gin-gonic/gin"

	"swapslot/backend/internal/dto"
	"swapslot/backend/internal/service"
	"swapslot/backend/pkg/response"
)

// AuthHandler identity endpoints
type AuthHandler struct {
	authSvc service.AuthService
}

// NewAuthHandler creates an AuthHandler
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Register sign up and receive a token
// POST /api/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authSvc.Register(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Created(c, "user registered", result)
}

// Login exchange credentials for a token
// POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, "login successful", result)
}

// Profile current user
// GET /api/profile
func (h *AuthHandler) Profile(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.authSvc.Profile(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, "profile", gin.H{"user": user})
}

// Logout revoke the presented token
// POST /api/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	jti, exp := tokenMeta(c)
	if err := h.authSvc.Logout(c.Request.Context(), jti, exp); err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, "logged out", nil)
}
