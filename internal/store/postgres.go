// Package store implements the persistence ports on PostgreSQL.
//
// SQL is built with squirrel ($n placeholders) and executed on pgx. All
// reconciliation writes are single statements; verification transitions run
// inside pgx transactions exposed through the UnitOfWork port.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"internmatch/listing-service/internal/model"
	"internmatch/listing-service/internal/ports"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const listingColumns = `id, company, role, location, sector, duration, stipend,
	requirements, skills, description, deadline, verification_status,
	source_type, COALESCE(source_name, ''), COALESCE(source_id, ''),
	external_link, raw_data, last_fetched_at, deleted_at, created_at`

// execer is the write surface shared by *pgxpool.Pool and pgx.Tx.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Postgres implements ports.ListingStore, ports.AuditStore and
// ports.UnitOfWork on a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an existing pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

var (
	_ ports.ListingStore = (*Postgres)(nil)
	_ ports.AuditStore   = (*Postgres)(nil)
	_ ports.UnitOfWork   = (*Postgres)(nil)
)

// ─── ListingStore ────────────────────────────────────────────────────────────

// FindBySourceID looks up a listing by its upstream identity.
func (p *Postgres) FindBySourceID(ctx context.Context, sourceName, sourceID string) (*model.Listing, error) {
	query, args, err := psql.
		Select(listingColumns).
		From("listings").
		Where(sq.Eq{"source_name": sourceName, "source_id": sourceID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find query: %w", err)
	}
	return scanListingRow(p.pool.QueryRow(ctx, query, args...))
}

// Insert stores a fresh draft as an unverified listing.
func (p *Postgres) Insert(ctx context.Context, d model.ListingDraft) (int64, error) {
	query, args, err := psql.
		Insert("listings").
		Columns("company", "role", "location", "sector", "duration", "stipend",
			"skills", "description", "deadline", "verification_status",
			"source_type", "source_name", "source_id", "external_link",
			"raw_data", "last_fetched_at").
		Values(d.Company, d.Role, d.Location, d.Sector, d.Duration, d.Stipend,
			d.Skills, d.Description, d.Deadline, model.StatusUnverified,
			d.SourceType, d.SourceName, d.SourceID, d.ExternalLink,
			[]byte(d.RawData), d.LastFetchedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert query: %w", err)
	}

	var id int64
	if err := p.pool.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert listing: %w", err)
	}
	return id, nil
}

// UpdateContent refreshes the content fields of an existing listing without
// touching its verification state.
func (p *Postgres) UpdateContent(ctx context.Context, id int64, d model.ListingDraft) error {
	query, args, err := psql.
		Update("listings").
		SetMap(map[string]any{
			"company":         d.Company,
			"role":            d.Role,
			"location":        d.Location,
			"sector":          d.Sector,
			"duration":        d.Duration,
			"stipend":         d.Stipend,
			"skills":          d.Skills,
			"description":     d.Description,
			"deadline":        d.Deadline,
			"external_link":   d.ExternalLink,
			"raw_data":        []byte(d.RawData),
			"last_fetched_at": d.LastFetchedAt,
		}).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update query: %w", err)
	}

	tag, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update listing %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// ExpireMissing soft-deletes every non-expired listing of sourceName whose
// source_id is absent from activeIDs. Callers guarantee activeIDs is
// non-empty; the reconciler's sync guard enforces it.
func (p *Postgres) ExpireMissing(ctx context.Context, sourceName string, activeIDs []string, now time.Time) (int64, error) {
	query, args, err := psql.
		Update("listings").
		Set("verification_status", model.StatusExpired).
		Set("deleted_at", now).
		Where(sq.Eq{"source_name": sourceName}).
		Where(sq.NotEq{"source_id": activeIDs}).
		Where(sq.NotEq{"verification_status": model.StatusExpired}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build expire query: %w", err)
	}

	tag, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("expire missing for %s: %w", sourceName, err)
	}
	return tag.RowsAffected(), nil
}

// ExpirePastDeadline expires listings whose application deadline has passed.
func (p *Postgres) ExpirePastDeadline(ctx context.Context, now time.Time) (int64, error) {
	query, args, err := psql.
		Update("listings").
		Set("verification_status", model.StatusExpired).
		Where(sq.Lt{"deadline": now}).
		Where(sq.NotEq{"verification_status": model.StatusExpired}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build deadline sweep query: %w", err)
	}

	tag, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("deadline sweep: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListByStatus returns non-deleted listings, optionally filtered by status,
// most recently fetched first.
func (p *Postgres) ListByStatus(ctx context.Context, status model.VerificationStatus) ([]model.Listing, error) {
	builder := psql.
		Select(listingColumns).
		From("listings").
		Where("deleted_at IS NULL").
		OrderBy("last_fetched_at DESC")
	if status != "" {
		builder = builder.Where(sq.Eq{"verification_status": status})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()

	listings := make([]model.Listing, 0)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, *l)
	}
	return listings, rows.Err()
}

// ─── AuditStore ──────────────────────────────────────────────────────────────

// AppendAudit writes one immutable audit entry on the pool (non-transactional
// path, used for SYNC entries).
func (p *Postgres) AppendAudit(ctx context.Context, entry model.AuditLogEntry) error {
	return appendAudit(ctx, p.pool, entry)
}

// RecentAuditLogs returns the newest audit entries, newest first.
func (p *Postgres) RecentAuditLogs(ctx context.Context, limit int) ([]model.AuditLogEntry, error) {
	query, args, err := psql.
		Select("id", "COALESCE(admin_id, '')", "action", "entity_type", "entity_id", "details", "created_at").
		From("audit_logs").
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build audit query: %w", err)
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit logs: %w", err)
	}
	defer rows.Close()

	entries := make([]model.AuditLogEntry, 0, limit)
	for rows.Next() {
		var e model.AuditLogEntry
		if err := rows.Scan(&e.ID, &e.AdminID, &e.Action, &e.EntityType, &e.EntityID, &e.Details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ─── UnitOfWork ──────────────────────────────────────────────────────────────

// WithTx runs fn inside one transaction. An error from fn rolls everything
// back; nil commits.
func (p *Postgres) WithTx(ctx context.Context, fn func(tx ports.TxStore) error) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := fn(&txStore{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// txStore implements ports.TxStore over one pgx transaction.
type txStore struct {
	tx pgx.Tx
}

func (t *txStore) GetListing(ctx context.Context, id int64) (*model.Listing, error) {
	query, args, err := psql.
		Select(listingColumns).
		From("listings").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get query: %w", err)
	}
	return scanListingRow(t.tx.QueryRow(ctx, query, args...))
}

func (t *txStore) SetStatus(ctx context.Context, id int64, status model.VerificationStatus, deletedAt *time.Time) error {
	builder := psql.
		Update("listings").
		Set("verification_status", status).
		Where(sq.Eq{"id": id})
	if deletedAt != nil {
		builder = builder.Set("deleted_at", *deletedAt)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build status update: %w", err)
	}

	tag, err := t.tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (t *txStore) AppendAudit(ctx context.Context, entry model.AuditLogEntry) error {
	return appendAudit(ctx, t.tx, entry)
}

// ─── Shared helpers ──────────────────────────────────────────────────────────

func appendAudit(ctx context.Context, q execer, entry model.AuditLogEntry) error {
	var adminID *string
	if entry.AdminID != "" {
		adminID = &entry.AdminID
	}

	query, args, err := psql.
		Insert("audit_logs").
		Columns("admin_id", "action", "entity_type", "entity_id", "details").
		Values(adminID, entry.Action, entry.EntityType, entry.EntityID, []byte(entry.Details)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build audit insert: %w", err)
	}

	if _, err := q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// scanListingRow adapts QueryRow results, mapping pgx.ErrNoRows to the
// port-level not-found error.
func scanListingRow(row pgx.Row) (*model.Listing, error) {
	l, err := scanListing(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ports.ErrNotFound
	}
	return l, err
}

func scanListing(row pgx.Row) (*model.Listing, error) {
	var l model.Listing
	err := row.Scan(
		&l.ID, &l.Company, &l.Role, &l.Location, &l.Sector, &l.Duration,
		&l.Stipend, &l.Requirements, &l.Skills, &l.Description, &l.Deadline,
		&l.Status, &l.SourceType, &l.SourceName, &l.SourceID,
		&l.ExternalLink, &l.RawData, &l.LastFetchedAt, &l.DeletedAt,
		&l.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan listing: %w", err)
	}
	return &l, nil
}
