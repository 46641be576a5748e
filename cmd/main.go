package main

import (
	"lms-auth-api/app"

	_ "lms-auth-api/docs"
)

// @title           LMS Auth API
// @version         1.0
// @description     Authentication service for the LMS backend: JWT issuing, refresh token rotation and session revocation.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT

// @host      localhost:8081
// @BasePath  /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app.Run()
}
