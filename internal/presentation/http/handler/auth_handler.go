package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/recibo-api/internal/application/service"
	"github.com/sangkips/recibo-api/internal/presentation/http/dto/request"
	"github.com/sangkips/recibo-api/internal/presentation/http/dto/response"
)

// AuthHandler handles staff authentication requests
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login handles staff login
func (h *AuthHandler) Login(c *gin.Context) {
	var req request.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	output, err := h.authService.Login(c.Request.Context(), &service.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Login successful", gin.H{
		"username":     output.Username,
		"access_token": output.AccessToken,
		"token_type":   "Bearer",
		"expires_in":   int64(output.ExpiresIn.Seconds()),
	})
}

// Me returns the authenticated staff member
func (h *AuthHandler) Me(c *gin.Context) {
	response.OK(c, "Staff retrieved successfully", gin.H{
		"username": GetStaffUsername(c),
		"role":     c.GetString("staff_role"),
	})
}
