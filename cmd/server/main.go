package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"farm-delivery-service/internal/adapters/geocode"
	"farm-delivery-service/internal/adapters/notify"
	"farm-delivery-service/internal/adapters/routing"
	"farm-delivery-service/internal/api"
	"farm-delivery-service/internal/config"
	"farm-delivery-service/internal/adapters/repositories"
	"farm-delivery-service/internal/platform/db"
	"farm-delivery-service/internal/ports"
	"farm-delivery-service/internal/services"
)

// main is the application composition root.
// It wires concrete adapters (postgres, OSRM, ORS, Redis, RabbitMQ) behind
// ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := config.MustGet("DATABASE_URL")
	jwtSecret := config.MustGet("JWT_SECRET")
	port := config.Get("PORT", "8080")
	osrmURL := config.Get("OSRM_BASE_URL", "https://router.project-osrm.org")

	pool, err := db.Open(context.Background(), databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	// Geocoding chain: live provider (optional) behind a Redis cache, then
	// ZIP centroids, then the regional default. Unset ORS_API_KEY means the
	// chain starts at the centroid table.
	var provider ports.GeocodeProvider
	if orsKey := strings.TrimSpace(os.Getenv("ORS_API_KEY")); orsKey != "" {
		provider = geocode.NewORSProvider(orsKey, config.Get("ORS_BASE_URL", ""))
		if redisAddr := config.Get("REDIS_ADDR", ""); redisAddr != "" {
			rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
			provider = geocode.NewCachedProvider(provider, rdb)
		}
	} else {
		log.Println("ORS_API_KEY not set; geocoding via ZIP centroids only")
	}

	centroids := geocode.DefaultTable()
	if path := config.Get("ZIP_CENTROIDS_PATH", ""); path != "" {
		centroids, err = geocode.TableFromJSON(path)
		if err != nil {
			log.Fatal(err)
		}
	}
	resolver := geocode.NewChainResolver(provider, centroids)

	osrm := routing.NewOSRMClient(osrmURL)

	var notifier ports.Notifier = notify.NoopNotifier{}
	if amqpURL := config.Get("RABBITMQ_URL", ""); amqpURL != "" {
		notifier = notify.NewAMQPNotifier(amqpURL)
	} else {
		log.Println("RABBITMQ_URL not set; order notifications disabled")
	}

	orderRepo := repositories.NewPgOrderRepository(pool)
	batchRepo := repositories.NewPgBatchRepository(pool)

	generator := &services.BatchGenerator{
		Orders:   orderRepo,
		Batches:  batchRepo,
		Resolver: resolver,
		Matrix:   osrm,
		Router:   osrm,
		Notifier: notifier,
	}
	claims := services.NewClaimService(batchRepo)

	router := api.NewRouter(generator, claims, batchRepo, jwtSecret)

	// Write timeout is sized for a full generation run with cold external
	// caches, not a single quick query.
	log.Printf("Server listening addr=:%s", port)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      180 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}
