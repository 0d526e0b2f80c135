package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lodge_backend/internal/middleware"
	"lodge_backend/internal/services"
	"lodge_backend/pkg/utils"
)

// AuthHandler holds the authentication service.
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as services.AuthService) *AuthHandler {
	return &AuthHandler{authService: as}
}

// LoginUser handles operator login.
func (h *AuthHandler) LoginUser(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err)
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		utils.LogWarn("Login rejected", map[string]interface{}{"username": req.Username, "request_id": utils.RequestID(c)})
		respondServiceError(c, err, "Failed to log in.")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetCurrentUser returns the identity carried by the access token.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"username": c.GetString(middleware.ContextUsername),
		"role":     c.GetString(middleware.ContextUserRole),
	})
}
