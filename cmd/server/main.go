package main

import (
	"log"
	"os"

	_ "planner/docs"
	"planner/internal/config"
	"planner/internal/logging"
	"planner/internal/server"
)

// @title           Content Planner API
// @version         1.0
// @description     Ideas moving through idea, scripting, filming, editing and scheduled.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @schemes http
func main() {
	cfg := config.Load()
	logging.Init(os.Stderr, cfg.LogLevel)

	s, err := server.Init(cfg)
	if err != nil {
		log.Fatalf("❌ Server initialization failed: %v", err)
	}

	s.Run()
}
