package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/etheron-labs/etheron-backend/internal/adapter/appraisal"
	"github.com/etheron-labs/etheron-backend/internal/adapter/docstore/memory"
	"github.com/etheron-labs/etheron-backend/internal/adapter/docstore/postgres"
	redisstore "github.com/etheron-labs/etheron-backend/internal/adapter/docstore/redis"
	"github.com/etheron-labs/etheron-backend/internal/adapter/events/rabbitmq"
	"github.com/etheron-labs/etheron-backend/internal/adapter/httpapi"
	"github.com/etheron-labs/etheron-backend/internal/domain"
	"github.com/etheron-labs/etheron-backend/internal/state"
	"github.com/etheron-labs/etheron-backend/internal/usecase/listing"
	"github.com/etheron-labs/etheron-backend/internal/usecase/profile"
	"github.com/etheron-labs/etheron-backend/internal/usecase/settlement"
)

const (
	defaultAPIToken = "dev-token"
	defaultHTTPAddr = ":8080"

	defaultTreasuryAddress = "0xE7E0000000000000000000000000000000000001"
	defaultSettleDelayMS   = 4500
)

func main() {
	ctx := context.Background()

	// 1. Setup Document Store
	docs, cleanup, err := setupDocumentStore(ctx)
	if err != nil {
		log.Fatalf("Failed to setup document store: %v", err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	store := state.NewStore(docs)
	if err := store.Load(ctx); err != nil {
		log.Fatalf("Failed to load marketplace state: %v", err)
	}
	log.Println("Marketplace state loaded")

	// 2. Settlement event publisher (optional)
	var publisher domain.SettlementPublisher
	if amqpURL := os.Getenv("AMQP_URL"); amqpURL != "" {
		conn, ch, err := rabbitmq.SetupConn(amqpURL)
		if err != nil {
			log.Fatalf("Failed to setup RabbitMQ: %v", err)
		}
		defer conn.Close()
		publisher = rabbitmq.NewPublisher(ch)
		log.Println("Settlement events publishing to RabbitMQ")
	}

	// 3. Initialize Services (Use Cases)
	engine := settlement.NewEngine(store, publisher, settlement.Config{
		TreasuryAddress: getenv("TREASURY_ADDRESS", defaultTreasuryAddress),
		SettleDelay:     time.Duration(getenvInt("SETTLE_DELAY_MS", defaultSettleDelayMS)) * time.Millisecond,
		SellerPayout:    getenv("SELLER_PAYOUT", "true") == "true",
	})

	appraiser := appraisal.NewGeminiClient(os.Getenv("GEMINI_API_KEY"))
	listingService := listing.NewService(store, appraiser)
	profileService := profile.NewService(store)

	// 4. Start HTTP Server
	apiToken := getenv("API_TOKEN", defaultAPIToken)
	httpAddr := getenv("HTTP_ADDR", defaultHTTPAddr)

	apiServer := httpapi.NewServer(engine, listingService, profileService, store)
	server := &http.Server{
		Addr:    httpAddr,
		Handler: apiServer.Router(apiToken),
	}

	go func() {
		log.Printf("HTTP server listening on %s", httpAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to serve HTTP server: %v", err)
		}
	}()

	waitForShutdown(server)
}

// setupDocumentStore selects the persistence backend from STORE_BACKEND:
// postgres (default), redis, or memory.
func setupDocumentStore(ctx context.Context) (domain.DocumentStore, func(), error) {
	switch backend := getenv("STORE_BACKEND", "postgres"); backend {
	case "postgres":
		dbConnStr := os.Getenv("DB_CONN_STR")
		if dbConnStr == "" {
			// If explicit string is missing, build it from individual vars (Docker friendly)
			host := getenv("DB_HOST", "localhost")
			port := getenv("DB_PORT", "5432")
			user := getenv("DB_USER", "postgres")
			password := getenv("DB_PASSWORD", "postgres")
			dbname := getenv("DB_NAME", "etheron")

			dbConnStr = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
				host, port, user, password, dbname)
		}

		// Add 2-second delay to ensure Postgres is up (Simple retry)
		time.Sleep(2 * time.Second)

		db, err := postgres.NewDB(dbConnStr)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		docs, err := postgres.NewStore(ctx, db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return docs, func() { db.Close() }, nil

	case "redis":
		client := goredis.NewClient(&goredis.Options{
			Addr: getenv("REDIS_ADDR", "localhost:6379"),
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		return redisstore.NewStore(client), func() { client.Close() }, nil

	case "memory":
		return memory.NewStore(), nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown STORE_BACKEND %q", backend)
	}
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the server
func waitForShutdown(server *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Printf("Received signal: %v. Shutting down gracefully...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	log.Println("HTTP server stopped")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Invalid %s value %q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}
