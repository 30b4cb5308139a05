package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"internmatch/listing-service/internal/model"
	"internmatch/listing-service/internal/ports"
)

// Stats counts the outcome of one reconciliation batch.
type Stats struct {
	Inserted int
	Updated  int
	Failed   int
}

// Reconciler merges normalised batches into the store: upsert by
// (source_name, source_id), then soft-delete sync for IDs that vanished
// upstream.
//
// Concurrent batches for the same source must not overlap; the scheduler
// serialises runs per source.
type Reconciler struct {
	store ports.ListingStore
	now   func() time.Time
}

// NewReconciler wires a Reconciler onto a listing store.
func NewReconciler(store ports.ListingStore) *Reconciler {
	return &Reconciler{store: store, now: time.Now}
}

type upsertOp int

const (
	opInserted upsertOp = iota
	opUpdated
)

// Reconcile upserts every draft of one source's batch. A draft that fails to
// persist is counted and skipped — one bad record never aborts the batch.
// Returns the batch stats and the set of source IDs seen, for SyncDeletions.
func (r *Reconciler) Reconcile(ctx context.Context, sourceName string, drafts []model.ListingDraft) (Stats, []string) {
	var stats Stats
	activeIDs := make([]string, 0, len(drafts))

	for _, draft := range drafts {
		if draft.SourceID == "" {
			log.Printf("[reconcile] %s: draft for %q has no source id — skipping", sourceName, draft.Company)
			stats.Failed++
			continue
		}
		activeIDs = append(activeIDs, draft.SourceID)

		op, err := r.upsert(ctx, sourceName, draft)
		if err != nil {
			log.Printf("[reconcile] %s: upsert %s failed: %v — continuing", sourceName, draft.SourceID, err)
			stats.Failed++
			continue
		}
		if op == opInserted {
			stats.Inserted++
		} else {
			stats.Updated++
		}
	}

	return stats, activeIDs
}

func (r *Reconciler) upsert(ctx context.Context, sourceName string, draft model.ListingDraft) (upsertOp, error) {
	existing, err := r.store.FindBySourceID(ctx, sourceName, draft.SourceID)
	switch {
	case errors.Is(err, ports.ErrNotFound):
		if _, err := r.store.Insert(ctx, draft); err != nil {
			return opInserted, fmt.Errorf("insert: %w", err)
		}
		return opInserted, nil
	case err != nil:
		return opInserted, fmt.Errorf("lookup: %w", err)
	}

	// Content refresh. The admin's prior verification decision survives.
	if err := r.store.UpdateContent(ctx, existing.ID, draft); err != nil {
		return opUpdated, fmt.Errorf("update: %w", err)
	}
	return opUpdated, nil
}

// SyncDeletions expires every listing of sourceName whose source_id was not
// observed in the batch. An empty active set is refused: a transient fetch
// failure must never read as "everything was deleted upstream".
func (r *Reconciler) SyncDeletions(ctx context.Context, sourceName string, activeIDs []string) (int64, error) {
	if len(activeIDs) == 0 {
		log.Printf("[reconcile] %s: empty active-id set — refusing soft-delete sync", sourceName)
		return 0, nil
	}

	deleted, err := r.store.ExpireMissing(ctx, sourceName, activeIDs, r.now())
	if err != nil {
		return 0, fmt.Errorf("sync deletions for %s: %w", sourceName, err)
	}
	if deleted > 0 {
		log.Printf("[reconcile] %s: soft-deleted %d listings no longer present upstream", sourceName, deleted)
	}
	return deleted, nil
}
