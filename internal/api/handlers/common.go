package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/christi903/fraudwatch-service/internal/domain/entities"
	apperrors "github.com/christi903/fraudwatch-service/pkg/errors"
)

// getPrincipal extracts the authenticated principal from context
func getPrincipal(c *gin.Context) (entities.Principal, error) {
	val, exists := c.Get("principal")
	if !exists {
		return entities.Principal{}, fmt.Errorf("principal not found in context")
	}
	principal, ok := val.(entities.Principal)
	if !ok {
		return entities.Principal{}, fmt.Errorf("invalid principal type in context")
	}
	return principal, nil
}

// getRequestID extracts request ID from context
func getRequestID(c *gin.Context) string {
	if reqID, exists := c.Get("request_id"); exists {
		if id, ok := reqID.(string); ok {
			return id
		}
	}
	return ""
}

// respondError sends a standardized error response, tagged with the
// request id for log correlation.
func respondError(c *gin.Context, status int, code, message string, details map[string]interface{}) {
	c.JSON(status, entities.ErrorResponse{
		Code:      code,
		Message:   message,
		Details:   details,
		RequestID: getRequestID(c),
	})
}

// respondServiceError maps a typed service error onto the envelope
func respondServiceError(c *gin.Context, err error) {
	var svcErr *apperrors.ServiceError
	if errors.As(err, &svcErr) {
		respondError(c, svcErr.StatusCode, string(svcErr.Code), svcErr.Message, svcErr.Details)
		return
	}
	respondInternalError(c, "Internal server error")
}

// respondUnauthorized sends an unauthorized error
func respondUnauthorized(c *gin.Context, message string) {
	respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", message, nil)
}

// respondBadRequest sends a bad request error
func respondBadRequest(c *gin.Context, message string, details map[string]interface{}) {
	respondError(c, http.StatusBadRequest, "INVALID_REQUEST", message, details)
}

// respondInternalError sends an internal server error
func respondInternalError(c *gin.Context, message string) {
	respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", message, nil)
}

// respondNotFound sends a not found error
func respondNotFound(c *gin.Context, message string) {
	respondError(c, http.StatusNotFound, "NOT_FOUND", message, nil)
}

// isUserNotFoundError checks if error is a user not found error
func isUserNotFoundError(err error) bool {
	return apperrors.HasCode(err, apperrors.ErrCodeUserNotFound)
}
