package main

import (
	"context"
	"log"
	"os"
	"time"

	"sheetsort/internal/config"
	"sheetsort/internal/database"

	"github.com/joho/godotenv"
)

// Applies the bootstrap schema to DATABASE_URL. An optional argument
// overrides the URL.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	if len(os.Args) > 1 {
		os.Setenv("DATABASE_URL", os.Args[1])
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Database.Driver == config.DriverMemory {
		log.Fatal("Nothing to migrate for the memory driver")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	log.Printf("Migrating %s database", cfg.Database.Driver)
	db, err := database.OpenAndMigrate(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	defer db.Close()

	var version string
	if err := db.GetContext(ctx, &version, `SELECT version FROM schema_migrations ORDER BY applied_at DESC LIMIT 1`); err != nil {
		log.Printf("Schema applied (version unknown: %v)", err)
		return
	}
	log.Printf("Schema is at version %s", version)
}
