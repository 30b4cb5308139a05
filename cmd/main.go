// internmatch-listing-service
//
// Ingestion-and-ranking core for the internship portal:
//   - cron-driven ingestion: fetch → normalize → reconcile → soft-delete sync
//   - deterministic location-first ranking of the reconciled corpus
//   - audited admin verification workflow over listing trust state
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"internmatch/listing-service/internal/config"
	"internmatch/listing-service/internal/db"
	"internmatch/listing-service/internal/ingest"
	"internmatch/listing-service/internal/rank"
	"internmatch/listing-service/internal/scheduler"
	"internmatch/listing-service/internal/source"
	"internmatch/listing-service/internal/store"
	"internmatch/listing-service/internal/verify"
	"internmatch/listing-service/internal/web"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[listing-service] Config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	log.Println("[listing-service] Connecting to PostgreSQL…")
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[listing-service] PostgreSQL: %v", err)
	}
	defer pool.Close()
	log.Println("[listing-service] PostgreSQL connected ✓")

	// ── Redis ────────────────────────────────────────────────────────────────
	log.Println("[listing-service] Connecting to Redis…")
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("[listing-service] Redis: %v", err)
	}
	defer rdb.Close()
	log.Println("[listing-service] Redis connected ✓")

	// ── Core wiring ──────────────────────────────────────────────────────────
	rules, err := rank.LoadRules(cfg.MatchRulesPath)
	if err != nil {
		log.Fatalf("[listing-service] Match rules: %v", err)
	}
	engine := rank.NewEngine(rules)

	pg := store.NewPostgres(pool)
	reconciler := ingest.NewReconciler(pg)
	verifySvc := verify.NewService(pg, rdb)

	client := source.NewHTTPClient(time.Duration(cfg.FetchTimeoutSeconds) * time.Second)
	adapters := []source.Adapter{
		source.NewGovPortal(cfg.GovPortalURL, client),
		source.NewPartnerAPI(cfg.PartnerAPIURL, client),
		source.NewTalentBoard(cfg.TalentBoardURL, client),
	}

	sched := scheduler.New(adapters, reconciler, pg, pg, rdb, cfg.SyncIntervalHours, time.Duration(cfg.FetchTimeoutSeconds)*time.Second)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("[listing-service] Scheduler: %v", err)
	}
	defer sched.Stop()

	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)

	h := web.NewHandler(pg, pg, engine, verifySvc, rdb)
	h.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Printf("[listing-service] v%s listening on :%s", version, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[listing-service] HTTP server error: %v", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[listing-service] Shutting down…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[listing-service] Shutdown error: %v", err)
	}
	log.Println("[listing-service] Stopped.")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "listing-service",
		"version": version,
	})
}
