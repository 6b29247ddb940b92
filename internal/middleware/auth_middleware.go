package middleware

import (
	"errors"
	"net/http"
	"strings"

	"studyboard/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const UserIDKey = "userID"

// TokenParser verifies a bearer token and returns the owner id it carries.
type TokenParser interface {
	ParseToken(token string) (uuid.UUID, error)
}

// JWTAuthMiddleware requires a valid bearer token and stores the owner id in
// the context under UserIDKey. Browsers cannot set headers on an
// EventSource, so an access_token query parameter is accepted instead of
// the header.
func JWTAuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c)
		if !ok {
			return
		}

		userID, err := tokens.ParseToken(tokenStr)
		if err != nil {
			msg := "Invalid or expired token"
			if errors.Is(err, auth.ErrInvalidClaims) {
				msg = "Invalid user ID in token"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if token := c.Query("access_token"); token != "" {
			return token, true
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
		return "", false
	}
	return parts[1], true
}

// UserID returns the authenticated owner id.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
