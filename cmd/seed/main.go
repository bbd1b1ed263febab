package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/civicpulse/backend/internal/config"
	"github.com/civicpulse/backend/internal/db"
	"github.com/civicpulse/backend/internal/logger"
	"github.com/civicpulse/backend/internal/repository/postgres"
	"github.com/civicpulse/backend/internal/seed"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	cfg := config.Load()
	logger.Initialize(cfg.LogLevel, cfg.LogDir)

	file := flag.String("file", cfg.SeedFile, "seed data file")
	flag.Parse()

	conn, err := db.Connect(&cfg)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	// Run migrations first
	log.Println("Running database migrations...")
	if err := db.AutoMigrate(conn); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	data, err := seed.Load(*file)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	log.Println("Seeding database with sample data...")
	res, err := seed.Run(context.Background(), postgres.NewStore(conn), data, time.Now())
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✅ Database seeding completed: %d users created, %d already present, %d reports created",
		res.UsersCreated, res.UsersSkipped, res.ReportsCreated)
}
