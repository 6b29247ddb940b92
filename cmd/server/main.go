package main

import (
	"os"
)

// @title           Studyboard API
// @version         1.0
// @description     Boards, lists and tasks for students, with plan quotas and live sync.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey BillingToken
// @in header
// @name X-Billing-Token
// @description Shared token of the billing backend.

// @schemes http
func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
