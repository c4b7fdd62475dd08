// +build ignore

package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// Seeds a local database with the schema and a small synthetic customer
// population so the API has something to segment. Run with:
//
//	DATABASE_URL=postgres://... go run scripts/seed_customers.go
const schema = `
CREATE TABLE IF NOT EXISTS customers (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	last_active_at TIMESTAMPTZ,
	address JSONB,
	lifetime_value DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS orders (
	id UUID PRIMARY KEY,
	customer_id UUID NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
	total_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
	payment_status TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS customer_segments (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	conditions JSONB NOT NULL,
	cached_count INTEGER NOT NULL DEFAULT 0,
	last_calculated_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS customer_segment_snapshots (
	id UUID PRIMARY KEY,
	segment_id UUID NOT NULL,
	captured_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	customer_count INTEGER NOT NULL,
	average_value DOUBLE PRECISION NOT NULL,
	top_location TEXT NOT NULL,
	top_location_share INTEGER NOT NULL,
	engagement_tier TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders(customer_id);
CREATE INDEX IF NOT EXISTS idx_snapshots_segment ON customer_segment_snapshots(segment_id);
`

var cities = []struct {
	city, country string
}{
	{"Lagos", "Nigeria"},
	{"Accra", "Ghana"},
	{"Nairobi", "Kenya"},
	{"Cape Town", "South Africa"},
	{"", "Nigeria"},
	{"", ""},
}

var roles = []string{"owner", "manager", "member", "member", "member"}
var statuses = []string{"paid", "paid", "paid", "pending", "refunded", "PAID"}

func main() {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, schema); err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}
	log.Println("Schema ready")

	rng := rand.New(rand.NewSource(42))
	now := time.Now()
	total := 200

	for i := 0; i < total; i++ {
		custID := uuid.New()
		loc := cities[rng.Intn(len(cities))]

		var address interface{}
		if loc.city != "" || loc.country != "" {
			address = fmt.Sprintf(`{"city":%q,"country":%q}`, loc.city, loc.country)
		}

		var lastActive interface{}
		if rng.Float64() < 0.6 {
			lastActive = now.AddDate(0, 0, -rng.Intn(90))
		}

		_, err := db.ExecContext(ctx, `
			INSERT INTO customers (id, name, email, role, created_at, last_active_at, address, lifetime_value)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			custID,
			fmt.Sprintf("Customer %03d", i),
			fmt.Sprintf("customer%03d@example.com", i),
			roles[rng.Intn(len(roles))],
			now.AddDate(0, 0, -rng.Intn(730)),
			lastActive,
			address,
			0.0,
		)
		if err != nil {
			log.Fatalf("Failed to insert customer: %v", err)
		}

		for j := 0; j < rng.Intn(6); j++ {
			_, err := db.ExecContext(ctx, `
				INSERT INTO orders (id, customer_id, total_amount, payment_status, created_at)
				VALUES ($1, $2, $3, $4, $5)`,
				uuid.New(),
				custID,
				10+rng.Float64()*490,
				statuses[rng.Intn(len(statuses))],
				now.AddDate(0, 0, -rng.Intn(365)),
			)
			if err != nil {
				log.Fatalf("Failed to insert order: %v", err)
			}
		}
	}

	log.Printf("Seeded %d customers", total)
}
