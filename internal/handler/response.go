package handler

import (
	"errors"
	"net/http"

	"studyboard/internal/apperr"
	"studyboard/internal/middleware"
	"studyboard/internal/quota"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DeniedResponse is the body of a 402 answer to a quota-limited creation.
type DeniedResponse struct {
	Error  string       `json:"error"`
	Denied quota.Denial `json:"denied"`
}

func respondError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		if appErr.Code == apperr.CodeInternal || appErr.Code.Retryable() {
			c.Error(err)
		}
		c.JSON(appErr.HTTPStatus(), gin.H{"error": appErr.Message})
		return
	}
	c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

func respondDenied(c *gin.Context, denial *quota.Denial) {
	c.JSON(http.StatusPaymentRequired, DeniedResponse{Error: denial.Message(), Denied: *denial})
}

// ownerID reads the authenticated owner or answers 401.
func ownerID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return uuid.Nil, false
	}
	return id, true
}

// paramID parses a uuid path parameter or answers 400.
func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON binds the body or answers 400 with the first validation problem.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingMessage(err)})
		return false
	}
	return true
}
