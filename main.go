package main

import (
	"context"
	"log"

	"sheetsort/internal"
	"sheetsort/internal/config"
	"sheetsort/internal/container"
	"sheetsort/ui"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	internal.DefaultLogger.SetLevel(internal.ParseLogLevel(appConfig.LogLevel))
	gin.SetMode(appConfig.Server.GinMode)

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	if err := appContainer.Init(context.Background()); err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer appContainer.Shutdown(context.Background())

	server := ui.NewServer(ui.DependenciesFrom(appContainer))

	log.Printf("Starting sheetsort server on port %s (store: %s)", appConfig.Server.Port, appConfig.Database.Driver)
	if err := server.Start(":" + appConfig.Server.Port); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
