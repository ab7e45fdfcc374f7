package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"fopsmart-server/src/config"
	"fopsmart-server/src/db"
	dbsql "fopsmart-server/src/db/sql"
	"fopsmart-server/src/monobank"
	"fopsmart-server/src/notify"
	syncsvc "fopsmart-server/src/sync"
	"fopsmart-server/src/vault"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("DB connection failed: %v", err)
	}
	defer pool.Close()

	store := dbsql.NewStore(pool)
	tokenVault := vault.New(cfg.EncryptionSecret)
	bank := monobank.NewClient(cfg.MonobankBaseURL, cfg.HTTPTimeout)

	// Push is optional; without Firebase credentials notifications stay in-app.
	var pusher notify.Pusher
	if cfg.FirebaseCredFile != "" {
		fcm, err := notify.NewFCMPusher(ctx, cfg.FirebaseCredFile)
		if err != nil {
			log.Fatalf("Firebase init failed: %v", err)
		}
		pusher = fcm
	} else {
		log.Printf("INFO: FIREBASE_CREDENTIALS_FILE not set, push notifications disabled")
	}
	fanout := notify.NewFanout(store, pusher)

	cache, err := db.NewClientInfoCache()
	if err != nil {
		log.Fatalf("Cache init failed: %v", err)
	}

	svc := syncsvc.New(store, bank, tokenVault, fanout, cache, cfg.SyncOverlapDays)

	log.Printf("INFO: Sync scheduler running every %s", cfg.SyncInterval)
	runSweep(ctx, svc)

	ticker := time.NewTicker(cfg.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Shutting down")
			return
		case <-ticker.C:
			runSweep(ctx, svc)
		}
	}
}

func runSweep(ctx context.Context, svc *syncsvc.Service) {
	start := time.Now()
	synced, failed := svc.SyncAll(ctx)
	log.Printf("INFO: Sweep done in %s: %d users synced, %d failed", time.Since(start).Round(time.Millisecond), synced, failed)

	if err := svc.RecomputeAllIncomes(ctx); err != nil {
		log.Printf("ERROR: Income recompute sweep failed: %v", err)
	}
}
