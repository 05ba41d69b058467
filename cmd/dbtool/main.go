package main

import (
	"context"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"farm-delivery-service/internal/adapters/repositories"
	"farm-delivery-service/internal/config"
	"farm-delivery-service/internal/platform/db"
)

// dbtool initializes the delivery schema and optionally seeds demo orders
// for local runs.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := config.MustGet("DATABASE_URL")

	pool, err := db.Open(context.Background(), databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	log.Println("Initializing database schema...")
	if err := repositories.InitSchema(pool); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")

	if seedPath := config.Get("SEED_PATH", ""); seedPath != "" {
		log.Println("Seeding demo orders...")
		if err := repositories.SeedOrdersFromJSON(pool, seedPath); err != nil {
			log.Fatalf("seeding failed: %v", err)
		}
		log.Println("Seeding complete.")
	}
}
