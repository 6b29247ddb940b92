package handler_test

import (
	"os"
	"testing"

	"studyboard/internal/handler"

	"github.com/gin-gonic/gin"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := handler.RegisterValidators(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}
