// Package scheduler wires up the cron job that periodically ingests every
// configured source: fetch → normalize → reconcile → soft-delete sync, one
// goroutine per source, followed by the deadline sweep and a SYNC audit
// entry once all sources have joined.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"internmatch/listing-service/internal/ingest"
	"internmatch/listing-service/internal/model"
	"internmatch/listing-service/internal/ports"
	"internmatch/listing-service/internal/source"
)

const syncStatsKey = "listing:sync:last"

// Scheduler wraps robfig/cron and manages the ingestion loop.
type Scheduler struct {
	cron       *cron.Cron
	adapters   []source.Adapter
	reconciler *ingest.Reconciler
	store      ports.ListingStore
	audit      ports.AuditStore
	rdb        *redis.Client
	spec       string // cron spec, e.g. "@every 6h"
	timeout    time.Duration

	mu      sync.Mutex // serialises runs; overlapping same-source batches race
	running bool
}

// New creates a Scheduler that fires every intervalHours hours.
func New(adapters []source.Adapter, reconciler *ingest.Reconciler, store ports.ListingStore, audit ports.AuditStore, rdb *redis.Client, intervalHours int, fetchTimeout time.Duration) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithLogger(cron.DefaultLogger)),
		adapters:   adapters,
		reconciler: reconciler,
		store:      store,
		audit:      audit,
		rdb:        rdb,
		spec:       fmt.Sprintf("@every %dh", intervalHours),
		timeout:    fetchTimeout,
	}
}

// Start registers the job and starts the scheduler. Also runs one ingestion
// immediately so the corpus is populated without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	log.Printf("[scheduler] Cron started — spec: %s", s.spec)

	// Run immediately on startup (non-blocking)
	go s.RunOnce(ctx)

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[scheduler] Cron stopped")
}

// RunOnce executes one full ingestion run. Sources run in parallel and fail
// independently; the run is skipped entirely if a previous run is still in
// flight, so two batches for the same source never overlap.
func (s *Scheduler) RunOnce(ctx context.Context) model.SyncStats {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		log.Println("[scheduler] Previous ingestion run still in flight — skipping")
		return model.SyncStats{}
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	stats := model.SyncStats{
		RunID:   uuid.NewString(),
		Sources: len(s.adapters),
		RanAt:   time.Now().UTC(),
	}
	log.Printf("[scheduler] Ingestion run %s started — %d source(s)", stats.RunID, len(s.adapters))

	type outcome struct {
		source  string
		stats   ingest.Stats
		deleted int64
		err     error
	}

	results := make([]outcome, len(s.adapters))
	var wg sync.WaitGroup
	wg.Add(len(s.adapters))
	for i, adapter := range s.adapters {
		go func(i int, a source.Adapter) {
			defer wg.Done()
			st, deleted, err := s.runSource(ctx, a)
			results[i] = outcome{source: a.Name(), stats: st, deleted: deleted, err: err}
		}(i, adapter)
	}
	wg.Wait() // sync must see each source's complete batch before anything cross-source

	for _, r := range results {
		if r.err != nil {
			log.Printf("[scheduler] Source %s failed: %v — siblings unaffected", r.source, r.err)
			stats.Errors++
			continue
		}
		stats.Merge(r.stats.Inserted, r.stats.Updated, r.stats.Failed, r.deleted)
	}

	expired, err := s.store.ExpirePastDeadline(ctx, time.Now().UTC())
	if err != nil {
		log.Printf("[scheduler] Deadline sweep failed: %v", err)
	} else {
		stats.Expired = expired
	}

	s.recordRun(ctx, stats)
	log.Printf("[scheduler] Run %s complete — inserted=%d updated=%d failed=%d deleted=%d expired=%d errors=%d",
		stats.RunID, stats.Inserted, stats.Updated, stats.Failed, stats.Deleted, stats.Expired, stats.Errors)
	return stats
}

// runSource performs fetch → reconcile → sync-deletions for one source.
func (s *Scheduler) runSource(ctx context.Context, a source.Adapter) (ingest.Stats, int64, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	drafts, err := a.Fetch(fetchCtx)
	if err != nil {
		return ingest.Stats{}, 0, fmt.Errorf("fetch: %w", err)
	}
	log.Printf("[scheduler] %s: received %d record(s)", a.Name(), len(drafts))

	st, activeIDs := s.reconciler.Reconcile(ctx, a.Name(), drafts)

	deleted, err := s.reconciler.SyncDeletions(ctx, a.Name(), activeIDs)
	if err != nil {
		// Upserts already landed; report the sync failure without discarding them.
		log.Printf("[scheduler] %s: soft-delete sync failed: %v", a.Name(), err)
	}

	return st, deleted, nil
}

// recordRun persists the run outcome: one SYNC audit entry plus a cached
// stats snapshot for the admin dashboard. Both are non-fatal.
func (s *Scheduler) recordRun(ctx context.Context, stats model.SyncStats) {
	payload, _ := json.Marshal(stats)

	if s.audit != nil {
		entry := model.AuditLogEntry{
			Action:     model.ActionSync,
			EntityType: "INGESTION_RUN",
			EntityID:   stats.RunID,
			Details:    payload,
		}
		if err := s.audit.AppendAudit(ctx, entry); err != nil {
			slog.Warn("append SYNC audit entry failed", "runId", stats.RunID, "err", err)
		}
	}

	if s.rdb == nil {
		return
	}
	if err := s.rdb.Set(ctx, syncStatsKey, payload, 0).Err(); err != nil {
		slog.Warn("cache sync stats failed", "err", err)
	}
	if err := s.rdb.Publish(ctx, "EVENT_SYNC_COMPLETE", payload).Err(); err != nil {
		slog.Warn("publish EVENT_SYNC_COMPLETE failed", "err", err)
	}
}

// LastRunStats reads the cached outcome of the most recent ingestion run.
func LastRunStats(ctx context.Context, rdb *redis.Client) (*model.SyncStats, error) {
	raw, err := rdb.Get(ctx, syncStatsKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("read sync stats: %w", err)
	}

	var stats model.SyncStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, fmt.Errorf("decode sync stats: %w", err)
	}
	return &stats, nil
}
