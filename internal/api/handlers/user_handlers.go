package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/christi903/fraudwatch-service/internal/domain/entities"
	"github.com/christi903/fraudwatch-service/internal/infrastructure/repositories"
	"github.com/christi903/fraudwatch-service/pkg/logger"
)

// UserHandler serves profile lookups keyed by external auth provider id.
type UserHandler struct {
	users  *repositories.UserRepository
	logger *logger.Logger
}

func NewUserHandler(users *repositories.UserRepository, log *logger.Logger) *UserHandler {
	return &UserHandler{users: users, logger: log}
}

// GetUser returns the profile for an auth provider id.
// GET /api/users/:uid
func (h *UserHandler) GetUser(c *gin.Context) {
	uid := c.Param("uid")

	user, err := h.users.GetByAuthProviderID(c.Request.Context(), uid)
	if err != nil {
		if isUserNotFoundError(err) {
			respondNotFound(c, "User not found")
			return
		}
		h.logger.WithError(err).Error("Failed to load user profile")
		respondInternalError(c, "Failed to load user")
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateUser updates mutable profile fields.
// PUT /api/users/:uid
func (h *UserHandler) UpdateUser(c *gin.Context) {
	uid := c.Param("uid")

	var req entities.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", nil)
		return
	}

	user, err := h.users.GetByAuthProviderID(c.Request.Context(), uid)
	if err != nil {
		if isUserNotFoundError(err) {
			respondNotFound(c, "User not found")
			return
		}
		respondBadRequest(c, "Failed to update user", nil)
		return
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Role != nil {
		user.Role = *req.Role
	}

	if err := h.users.Update(c.Request.Context(), user); err != nil {
		h.logger.WithError(err).Error("Failed to update user profile")
		respondBadRequest(c, "Failed to update user", nil)
		return
	}

	c.JSON(http.StatusOK, user)
}

// DeleteUser deactivates the profile for an auth provider id.
// DELETE /api/users/:uid
func (h *UserHandler) DeleteUser(c *gin.Context) {
	uid := c.Param("uid")

	user, err := h.users.GetByAuthProviderID(c.Request.Context(), uid)
	if err != nil {
		if isUserNotFoundError(err) {
			respondNotFound(c, "User not found")
			return
		}
		respondBadRequest(c, "Failed to delete user", nil)
		return
	}

	if err := h.users.Deactivate(c.Request.Context(), user.ID); err != nil {
		h.logger.WithError(err).Error("Failed to deactivate user")
		respondBadRequest(c, "Failed to delete user", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}
