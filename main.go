package main

import (
	"biocard-api/core/logger"
	"biocard-api/core/server"
)

// @title BioCard API
// @version 1.0
// @description Calendar integration and booking backend for BioCard link-in-bio pages

// @host localhost:7070
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token. Example: "Bearer {token}"

func main() {
	if err := server.Run(); err != nil {
		logger.Error("run server error", "error", err)
	}
}
