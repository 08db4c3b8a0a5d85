package main

import (
	"context"
	"log"
	"os"
	"time"

	"bookingcrm/internal/config"
	"bookingcrm/internal/database"
	"bookingcrm/internal/repository"
)

const defaultRetention = 30 * 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	retention := defaultRetention
	if v := os.Getenv("TRASH_RETENTION"); v != "" {
		if retention, err = time.ParseDuration(v); err != nil || retention <= 0 {
			log.Fatalf("invalid TRASH_RETENTION %q", v)
		}
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cutoff := time.Now().UTC().Add(-retention)
	n, err := repository.NewBookingRepository(db).PurgeTrashedBefore(ctx, cutoff)
	if err != nil {
		log.Fatalf("cleanup trashed bookings failed: %v", err)
	}

	log.Printf("trash cleanup completed: purged=%d cutoff=%s", n, cutoff.Format(time.RFC3339))
}
