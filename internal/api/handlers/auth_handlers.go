package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/christi903/fraudwatch-service/internal/domain/entities"
	"github.com/christi903/fraudwatch-service/internal/infrastructure/adapters"
	"github.com/christi903/fraudwatch-service/internal/infrastructure/config"
	"github.com/christi903/fraudwatch-service/internal/infrastructure/repositories"
	"github.com/christi903/fraudwatch-service/pkg/auth"
	"github.com/christi903/fraudwatch-service/pkg/logger"
)

const verificationTokenTTL = 24 * time.Hour

// AuthHandler proxies account lifecycle operations for principals
// authenticated by the external provider.
type AuthHandler struct {
	users  *repositories.UserRepository
	email  *adapters.EmailService
	config *config.Config
	logger *logger.Logger
}

func NewAuthHandler(users *repositories.UserRepository, email *adapters.EmailService, cfg *config.Config, log *logger.Logger) *AuthHandler {
	return &AuthHandler{users: users, email: email, config: cfg, logger: log}
}

// Register completes registration for an authenticated principal.
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		respondUnauthorized(c, "Authentication required")
		return
	}

	var req entities.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", nil)
		return
	}

	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if req.FirstName == "" || req.LastName == "" {
		respondBadRequest(c, "First name and last name are required", map[string]interface{}{
			"firstName": req.FirstName == "",
			"lastName":  req.LastName == "",
		})
		return
	}

	exists, err := h.users.EmailExists(c.Request.Context(), principal.Email)
	if err != nil {
		h.logger.WithError(err).Error("Failed to check existing registration")
		respondInternalError(c, "Failed to complete registration")
		return
	}
	if exists {
		c.JSON(http.StatusOK, gin.H{
			"message": "User already registered",
			"email":   principal.Email,
		})
		return
	}

	role := req.Role
	if role == "" {
		role = "analyst"
	}

	userID := uuid.New()
	if parsed, parseErr := uuid.Parse(principal.AuthProviderID); parseErr == nil {
		userID = parsed
	}

	user := &entities.User{
		ID:             userID,
		AuthProviderID: principal.AuthProviderID,
		Email:          principal.Email,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Role:           role,
		IsActive:       true,
	}

	if err := h.users.Create(c.Request.Context(), user); err != nil {
		h.logger.WithError(err).Error("Failed to create user")
		respondInternalError(c, "Failed to complete registration")
		return
	}

	// Verification email is best effort; registration already succeeded.
	token, err := auth.GenerateToken(user.ID, user.Email, "email_verification",
		h.config.JWT.Secret, h.config.JWT.Issuer, verificationTokenTTL)
	if err == nil {
		if err := h.email.SendVerification(c.Request.Context(), user.Email, token); err != nil {
			h.logger.WithError(err).Warn("Failed to send verification email")
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered",
		"user":    user,
	})
}

// VerifyEmail marks the account behind a verification token as verified.
// GET /api/auth/verify-email?token=
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		respondBadRequest(c, "Verification token is required", nil)
		return
	}

	claims, err := auth.ValidateToken(token, h.config.JWT.Secret)
	if err != nil || claims.Role != "email_verification" {
		respondBadRequest(c, "Invalid or expired verification token", nil)
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), claims.Email)
	if err != nil {
		respondBadRequest(c, "Invalid or expired verification token", nil)
		return
	}

	if !user.EmailVerified {
		user.EmailVerified = true
		if err := h.users.Update(c.Request.Context(), user); err != nil {
			h.logger.WithError(err).Error("Failed to mark email verified")
			respondBadRequest(c, "Verification could not be completed", nil)
			return
		}
	}

	c.JSON(http.StatusOK, entities.VerifyEmailResponse{
		Success: true,
		Message: "Email verified successfully",
	})
}

// ResetPassword dispatches a password-reset email.
// POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req entities.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "A valid email is required", nil)
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if isUserNotFoundError(err) {
			// Same response as success so the endpoint cannot be used to
			// enumerate accounts.
			c.JSON(http.StatusOK, gin.H{"message": "Password reset email dispatched"})
			return
		}
		respondBadRequest(c, "Password reset could not be dispatched", nil)
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Email, "password_reset",
		h.config.JWT.Secret, h.config.JWT.Issuer, time.Hour)
	if err != nil {
		respondBadRequest(c, "Password reset could not be dispatched", nil)
		return
	}

	if err := h.email.SendPasswordReset(c.Request.Context(), user.Email, token); err != nil {
		h.logger.WithError(err).Error("Failed to send password reset email")
		respondBadRequest(c, "Password reset could not be dispatched", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset email dispatched"})
}

// DeleteAccount deactivates the authenticated principal's account.
// DELETE /api/auth/delete-account
func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		respondUnauthorized(c, "Authentication required")
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), principal.Email)
	if err != nil {
		if isUserNotFoundError(err) {
			c.JSON(http.StatusOK, gin.H{"message": "Account already removed"})
			return
		}
		h.logger.WithError(err).Error("Failed to load account for deletion")
		respondInternalError(c, "Failed to delete account")
		return
	}

	if err := h.users.Deactivate(c.Request.Context(), user.ID); err != nil {
		h.logger.WithError(err).Error("Failed to deactivate account")
		respondInternalError(c, "Failed to delete account")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account deleted"})
}
