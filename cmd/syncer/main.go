// One-shot count reconciliation: re-resolves every stored segment and
// writes back the counts that drifted. Meant to be invoked by an
// operator or an external scheduler; it never loops on its own.
package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/customer-insights/internal/config"
	"github.com/ignite/customer-insights/internal/customer"
	"github.com/ignite/customer-insights/internal/segment"

	_ "github.com/lib/pq" // PostgreSQL driver
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	workers := flag.Int("workers", 0, "override sync worker count")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL (or database.url) is required")
	}
	if *workers > 0 {
		cfg.Sync.Workers = *workers
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	var counts *segment.CountCache
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err == nil {
			counts = segment.NewCountCache(redisClient, time.Duration(cfg.Redis.CountTTLMinutes)*time.Minute)
		}
	}

	store := segment.NewStore(db)
	resolver := segment.NewResolver(customer.NewPostgresSource(db))
	syncer := segment.NewSyncer(store, resolver, counts, cfg.Sync.Workers)

	report, err := syncer.SyncAll(context.Background())
	if err != nil {
		log.Fatalf("Sync failed: %v", err)
	}

	log.Printf("Sync finished in %s: %d updated, %d unchanged, %d failed",
		report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond),
		len(report.Updated), len(report.Unchanged), len(report.Failures))
	for _, f := range report.Failures {
		log.Printf("  failed: %s (%s): %s", f.Name, f.SegmentID, f.Error)
	}
}
