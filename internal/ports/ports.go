// Package ports declares the persistence interfaces consumed by the
// ingestion, verification and web layers. The Postgres implementations live
// in internal/store; tests substitute in-memory fakes.
package ports

import (
	"context"
	"errors"
	"time"

	"internmatch/listing-service/internal/model"
)

// ErrNotFound is returned when a listing is missing.
var ErrNotFound = errors.New("listing not found")

// ListingStore covers the reconciliation and read paths.
type ListingStore interface {
	// FindBySourceID looks a listing up by its (source_name, source_id)
	// identity. Returns ErrNotFound when absent.
	FindBySourceID(ctx context.Context, sourceName, sourceID string) (*model.Listing, error)

	// Insert stores a freshly normalised draft and returns the new ID.
	Insert(ctx context.Context, draft model.ListingDraft) (int64, error)

	// UpdateContent refreshes the content fields, last_fetched_at and
	// raw_data of an existing listing. Verification state is untouched.
	UpdateContent(ctx context.Context, id int64, draft model.ListingDraft) error

	// ExpireMissing marks every non-expired listing of sourceName whose
	// source_id is not in activeIDs as expired/deleted. Returns the number
	// of rows changed. Callers must never pass an empty activeIDs set.
	ExpireMissing(ctx context.Context, sourceName string, activeIDs []string, now time.Time) (int64, error)

	// ExpirePastDeadline expires listings whose deadline has passed.
	ExpirePastDeadline(ctx context.Context, now time.Time) (int64, error)

	// ListByStatus returns all non-deleted listings with the given status,
	// or all non-deleted listings when status is empty.
	ListByStatus(ctx context.Context, status model.VerificationStatus) ([]model.Listing, error)
}

// AuditStore appends to and reads the append-only audit log.
type AuditStore interface {
	AppendAudit(ctx context.Context, entry model.AuditLogEntry) error
	RecentAuditLogs(ctx context.Context, limit int) ([]model.AuditLogEntry, error)
}

// TxStore is the slice of the store available inside a transaction. Both
// writes commit or roll back together.
type TxStore interface {
	GetListing(ctx context.Context, id int64) (*model.Listing, error)
	SetStatus(ctx context.Context, id int64, status model.VerificationStatus, deletedAt *time.Time) error
	AppendAudit(ctx context.Context, entry model.AuditLogEntry) error
}

// UnitOfWork runs fn inside one transaction: returning an error rolls back,
// returning nil commits.
type UnitOfWork interface {
	WithTx(ctx context.Context, fn func(tx TxStore) error) error
}
