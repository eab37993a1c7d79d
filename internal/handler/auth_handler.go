package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/gazemetrics/gazemetrics-api/internal/middleware"
	"github.com/gazemetrics/gazemetrics-api/internal/models"
	"github.com/gazemetrics/gazemetrics-api/internal/service"
	"github.com/gazemetrics/gazemetrics-api/internal/utils"
)

type AuthHandler struct {
	authService *service.AuthService
	rateLimiter *middleware.InvalidAuthRateLimiter
}

func NewAuthHandler(authService *service.AuthService, rateLimiter *middleware.InvalidAuthRateLimiter) *AuthHandler {
	return &AuthHandler{authService: authService, rateLimiter: rateLimiter}
}

// Register handles POST /v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, utils.ErrEmailTaken) {
			utils.Error(c, 409, "EMAIL_TAKEN", "Email is already registered")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to register")
		return
	}

	utils.Success(c, 201, "Registration successful", gin.H{
		"user": user,
	})
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	if h.rateLimiter != nil && !h.rateLimiter.Allow(c.ClientIP()) {
		utils.Error(c, 429, "TOO_MANY_ATTEMPTS", "Too many failed attempts, try again later")
		return
	}

	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, utils.ErrAccountInactive) {
			utils.Error(c, 403, "ACCOUNT_INACTIVE", "Account is inactive")
			return
		}
		if h.rateLimiter != nil {
			h.rateLimiter.RecordFailure(c.ClientIP())
		}
		utils.Error(c, 401, "INVALID_CREDENTIALS", "Invalid email or password")
		return
	}

	utils.Success(c, 200, "Login successful", models.LoginResponse{
		Token: token,
		User:  user,
	})
}

// Me handles GET /v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetInt("user_id")
	user, err := h.authService.GetUser(c.Request.Context(), userID)
	if err != nil {
		utils.Error(c, 404, "NOT_FOUND", "User not found")
		return
	}
	utils.Success(c, 200, "OK", gin.H{"user": user})
}
