package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/customer-insights/internal/api"
	"github.com/ignite/customer-insights/internal/config"
	"github.com/ignite/customer-insights/internal/customer"
	"github.com/ignite/customer-insights/internal/export"
	"github.com/ignite/customer-insights/internal/pkg/distlock"
	"github.com/ignite/customer-insights/internal/segment"

	_ "github.com/lib/pq" // PostgreSQL driver
)

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL (or database.url) is required")
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(ctx); err != nil {
		cancel()
		log.Fatalf("Database unreachable: %v", err)
	}
	cancel()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Printf("[server] Redis unavailable, count cache disabled: %v", err)
			redisClient = nil
		}
	}

	source := customer.NewPostgresSource(db)
	store := segment.NewStore(db)
	resolver := segment.NewResolver(source)
	analyzer := segment.NewAnalyzer(
		segment.WithActiveWindow(time.Duration(cfg.Engagement.ActiveWindowDays) * 24 * time.Hour),
	)

	var counts *segment.CountCache
	if redisClient != nil {
		counts = segment.NewCountCache(redisClient, time.Duration(cfg.Redis.CountTTLMinutes)*time.Minute)
	}

	service := segment.NewService(store, resolver, analyzer, counts)
	syncer := segment.NewSyncer(store, resolver, counts, cfg.Sync.Workers)

	var uploader api.Uploader
	if cfg.Export.Enabled && cfg.Export.S3Bucket != "" {
		up, err := export.NewS3Uploader(context.Background(), cfg.Export.S3Bucket, cfg.Export.S3Region, cfg.Export.AWSProfile)
		if err != nil {
			log.Printf("[server] S3 export disabled: %v", err)
		} else {
			uploader = up
		}
	}

	newLock := func(key string, ttl time.Duration) distlock.DistLock {
		return distlock.NewLock(redisClient, db, key, ttl)
	}
	segmentSvc := api.NewSegmentService(service, syncer, uploader, newLock)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Route("/api", segmentSvc.RegisterRoutes)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	go func() {
		log.Printf("[server] Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("[server] Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[server] Shutdown error: %v", err)
	}
}
