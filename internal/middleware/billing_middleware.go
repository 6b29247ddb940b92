package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

const BillingTokenHeader = "X-Billing-Token"

// BillingAuth admits only callers presenting the shared billing token. An
// empty token rejects everyone.
func BillingAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(BillingTokenHeader)
		if got == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": BillingTokenHeader + " header is required"})
			return
		}
		if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid billing token"})
			return
		}
		c.Next()
	}
}
