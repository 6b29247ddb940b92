package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"studyboard/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func billingRouter(token string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/billing", middleware.BillingAuth(token), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestBillingAuth(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		header     string
		wantStatus int
	}{
		{"valid token", "s3cret", "s3cret", http.StatusNoContent},
		{"missing header", "s3cret", "", http.StatusUnauthorized},
		{"wrong token", "s3cret", "guess", http.StatusForbidden},
		{"prefix of token", "s3cret", "s3c", http.StatusForbidden},
		{"billing disabled", "", "anything", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/billing", nil)
			if tt.header != "" {
				req.Header.Set(middleware.BillingTokenHeader, tt.header)
			}
			w := httptest.NewRecorder()

			billingRouter(tt.configured).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
