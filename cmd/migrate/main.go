package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/zfogg/snapshelf/backend/internal/config"
	"github.com/zfogg/snapshelf/backend/internal/database"
	"github.com/zfogg/snapshelf/backend/internal/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	// Parse command
	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "up":
		runMigrationsUp()
	case "down":
		runMigrationsDown()
	default:
		fmt.Println("Usage: migrate [up|down]")
		fmt.Println("  up   - Create or update every table and index")
		fmt.Println("  down - Drop every table (destroys all data)")
		os.Exit(1)
	}
}

func connect() {
	if err := logger.Initialize(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FILE")); err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}

	log.Println("🔄 Connecting to database...")
	if err := database.Initialize(config.BuildDatabaseURL(), false); err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	log.Println("✅ Database connected")
}

func runMigrationsUp() {
	connect()
	defer database.Close()

	log.Println("📈 Running migrations...")
	if err := database.Migrate(); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	log.Println("✅ All migrations completed successfully!")
}

func runMigrationsDown() {
	if os.Getenv("CONFIRM_ROLLBACK") != "yes" {
		log.Println("❌ Refusing to drop tables without CONFIRM_ROLLBACK=yes")
		os.Exit(1)
	}

	connect()
	defer database.Close()

	log.Println("📉 Dropping tables...")
	if err := database.Rollback(); err != nil {
		log.Fatalf("❌ Rollback failed: %v", err)
	}

	log.Println("✅ Rollback completed")
}
