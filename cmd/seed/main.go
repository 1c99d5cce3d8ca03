package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/zfogg/snapshelf/backend/internal/config"
	"github.com/zfogg/snapshelf/backend/internal/database"
	"github.com/zfogg/snapshelf/backend/internal/logger"
	"github.com/zfogg/snapshelf/backend/internal/search"
	"github.com/zfogg/snapshelf/backend/internal/seed"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	// Parse command
	command := "dev"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "dev":
		seedDev()
	case "test":
		seedTest()
	case "clean":
		cleanSeed()
	default:
		fmt.Println("Usage: seed [dev|test|clean]")
		fmt.Println("  dev   - Seed development database with realistic data")
		fmt.Println("  test  - Seed the fixed alice/bob/charlie/diana cast")
		fmt.Println("  clean - Remove all seed data (use with caution)")
		os.Exit(1)
	}
}

func connect() {
	if err := logger.Initialize(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FILE")); err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}
	if err := database.Initialize(config.BuildDatabaseURL(), false); err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	if err := database.Migrate(); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	log.Println("✅ Database connected")
}

func seedDev() {
	log.Println("🌱 Seeding development database...")
	connect()
	defer database.Close()

	seeder := seed.NewSeeder(database.DB)

	if esURL := os.Getenv("ELASTICSEARCH_URL"); esURL != "" {
		client, err := search.NewClient(esURL)
		if err == nil {
			err = client.InitializeIndices(context.Background())
		}
		if err != nil {
			log.Printf("⚠️  Elasticsearch unavailable, seeded posts will not be searchable: %v", err)
		} else {
			seeder.SetIndexer(client)
			log.Println("✅ Elasticsearch configured")
		}
	} else {
		log.Println("⚠️  ELASTICSEARCH_URL not set - skipping search indexing")
	}

	if err := seeder.SeedDev(context.Background(), seed.DefaultCounts); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("✅ Development database seeded successfully!")
}

func seedTest() {
	log.Println("🧪 Seeding test database...")
	connect()
	defer database.Close()

	users, err := seed.NewSeeder(database.DB).SeedTest(context.Background())
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	for _, u := range users {
		log.Printf("   %s  %s", u.ID, u.Username)
	}
	log.Println("✅ Test database seeded successfully!")
}

func cleanSeed() {
	log.Println("🧹 Cleaning seed data...")
	connect()
	defer database.Close()

	if err := seed.NewSeeder(database.DB).Clean(); err != nil {
		log.Fatalf("❌ Clean failed: %v", err)
	}

	log.Println("✅ Seed data cleaned successfully!")
}
