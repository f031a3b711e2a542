package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/leoviajar/wc-upsell/internal/cache"
	h "github.com/leoviajar/wc-upsell/internal/http"
	"github.com/leoviajar/wc-upsell/internal/kit"
	"github.com/leoviajar/wc-upsell/internal/poller"
	"github.com/leoviajar/wc-upsell/internal/repository"
	s "github.com/leoviajar/wc-upsell/internal/service"
)

type Config struct {
	HTTPPort        string
	MongoURI        string
	MongoDBName     string
	RedisAddr       string
	RedisPassword   string
	KafkaBrokers    []string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:     getEnv("MONGO_DB_NAME", "upselldb"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		KafkaBrokers:    strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()

	// Set up MongoDB connection
	ctx := context.Background()
	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	log.Printf("Connected to MongoDB at %s", cfg.MongoURI)

	kitSetRepo := repository.NewMongoKitSetRepository(mongoDB)
	cartRepo := repository.NewMongoCartRepository(mongoDB)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()

	tierCache := cache.NewRedisCache(redisClient)

	catalogService := s.NewCatalogService(kitSetRepo, tierCache)
	consolidator := kit.NewConsolidator(catalogService)
	cartService := s.NewCartService(cartRepo, catalogService, consolidator)

	kitHandler := h.NewKitHandler(catalogService, cfg.RequestTimeout)
	cartHandler := h.NewCartHandler(cartService, cfg.RequestTimeout)
	checkoutHandler := h.NewCheckoutHandler(cartService, cfg.RequestTimeout)

	// Consume order-completed events and empty the originating carts
	pollerCtx, stopPoller := context.WithCancel(ctx)
	cartPoller := poller.NewPoller(cartRepo, cfg.KafkaBrokers...)
	go cartPoller.Run(pollerCtx)

	// Setup router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(h.RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(h.SessionMiddleware)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/admin/products/{productID}/tiers", func(r chi.Router) {
			r.Get("/", kitHandler.ListTiers)
			r.Post("/", kitHandler.SaveTier)
			r.Delete("/{quantity}", kitHandler.DeleteTier)
		})

		r.Route("/products/{productID}/tiers", func(r chi.Router) {
			r.Get("/", kitHandler.ListEnabled)
			r.Get("/{quantity}/pricing", kitHandler.TierPricing)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Put("/", cartHandler.ReplaceCart)
			r.Post("/kits", cartHandler.AddKit)
			r.Put("/lines/{lineKey}", cartHandler.UpdateQuantity)
			r.Delete("/lines/{lineKey}", cartHandler.RemoveLine)
		})

		r.Post("/checkout/validate", checkoutHandler.Validate)
	})

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: r,
	}

	go func() {
		log.Printf("HTTP server listening on :%s", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	stopPoller()
	cartPoller.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
}
