package ingest_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"internmatch/listing-service/internal/ingest"
	"internmatch/listing-service/internal/model"
	"internmatch/listing-service/internal/ports"
)

// fakeStore is an in-memory ListingStore mirroring the upsert and soft-delete
// semantics of the Postgres implementation.
type fakeStore struct {
	nextID   int64
	byID     map[int64]*model.Listing
	failOn   map[string]bool // source IDs whose writes must error
	expireAt []time.Time     // recorded ExpireMissing cutoffs
}

func newFakeStore() *fakeStore {
	return &fakeStore{byID: map[int64]*model.Listing{}, failOn: map[string]bool{}}
}

func (f *fakeStore) FindBySourceID(_ context.Context, sourceName, sourceID string) (*model.Listing, error) {
	for _, l := range f.byID {
		if l.SourceName == sourceName && l.SourceID == sourceID {
			copied := *l
			return &copied, nil
		}
	}
	return nil, ports.ErrNotFound
}

func (f *fakeStore) Insert(_ context.Context, draft model.ListingDraft) (int64, error) {
	if f.failOn[draft.SourceID] {
		return 0, errors.New("simulated insert failure")
	}
	f.nextID++
	f.byID[f.nextID] = &model.Listing{
		ID:            f.nextID,
		Company:       draft.Company,
		Role:          draft.Role,
		Location:      draft.Location,
		Stipend:       draft.Stipend,
		Skills:        draft.Skills,
		Status:        model.StatusUnverified,
		SourceType:    draft.SourceType,
		SourceName:    draft.SourceName,
		SourceID:      draft.SourceID,
		LastFetchedAt: draft.LastFetchedAt,
	}
	return f.nextID, nil
}

func (f *fakeStore) UpdateContent(_ context.Context, id int64, draft model.ListingDraft) error {
	if f.failOn[draft.SourceID] {
		return errors.New("simulated update failure")
	}
	l, ok := f.byID[id]
	if !ok {
		return ports.ErrNotFound
	}
	l.Company = draft.Company
	l.Role = draft.Role
	l.Location = draft.Location
	l.Stipend = draft.Stipend
	l.Skills = draft.Skills
	l.LastFetchedAt = draft.LastFetchedAt
	// Status and DeletedAt deliberately untouched.
	return nil
}

func (f *fakeStore) ExpireMissing(_ context.Context, sourceName string, activeIDs []string, now time.Time) (int64, error) {
	f.expireAt = append(f.expireAt, now)
	active := map[string]bool{}
	for _, id := range activeIDs {
		active[id] = true
	}
	var n int64
	for _, l := range f.byID {
		if l.SourceName != sourceName || l.Status == model.StatusExpired || active[l.SourceID] {
			continue
		}
		l.Status = model.StatusExpired
		l.DeletedAt = &now
		n++
	}
	return n, nil
}

func (f *fakeStore) ExpirePastDeadline(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for _, l := range f.byID {
		if l.Deadline != nil && l.Deadline.Before(now) && l.Status != model.StatusExpired {
			l.Status = model.StatusExpired
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) ListByStatus(_ context.Context, status model.VerificationStatus) ([]model.Listing, error) {
	var out []model.Listing
	for _, l := range f.byID {
		if l.DeletedAt == nil && (status == "" || l.Status == status) {
			out = append(out, *l)
		}
	}
	return out, nil
}

func draftFor(source, sourceID, company string) model.ListingDraft {
	return model.ListingDraft{
		SourceName: source,
		SourceID:   sourceID,
		SourceType: model.SourceAPI,
		Company:    company,
		Role:       "Intern",
		Location:   "Chennai",
	}
}

func batch(source string, n int) []model.ListingDraft {
	drafts := make([]model.ListingDraft, 0, n)
	for i := 1; i <= n; i++ {
		drafts = append(drafts, draftFor(source, fmt.Sprintf("%s-%d", source, i), fmt.Sprintf("Company %d", i)))
	}
	return drafts
}

func TestReconcile_InsertThenUpdate(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	r := ingest.NewReconciler(store)

	stats, active := r.Reconcile(ctx, "PARTNER_API", batch("PARTNER_API", 3))
	if stats.Inserted != 3 || stats.Updated != 0 || stats.Failed != 0 {
		t.Fatalf("first pass stats = %+v", stats)
	}
	if len(active) != 3 {
		t.Fatalf("active IDs = %v", active)
	}

	// Same batch again: pure refresh, nothing duplicated.
	stats, _ = r.Reconcile(ctx, "PARTNER_API", batch("PARTNER_API", 3))
	if stats.Inserted != 0 || stats.Updated != 3 {
		t.Errorf("second pass stats = %+v", stats)
	}
	if len(store.byID) != 3 {
		t.Errorf("store holds %d listings, want 3", len(store.byID))
	}
}

// A content refresh must not clobber an admin's verification decision.
func TestReconcile_RefreshPreservesVerification(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	r := ingest.NewReconciler(store)

	r.Reconcile(ctx, "GOV_PORTAL", []model.ListingDraft{draftFor("GOV_PORTAL", "g-1", "NITI Aayog")})
	store.byID[1].Status = model.StatusVerified

	refreshed := draftFor("GOV_PORTAL", "g-1", "NITI Aayog")
	refreshed.Stipend = 12000
	r.Reconcile(ctx, "GOV_PORTAL", []model.ListingDraft{refreshed})

	got := store.byID[1]
	if got.Stipend != 12000 {
		t.Errorf("Stipend = %d, want refreshed 12000", got.Stipend)
	}
	if got.Status != model.StatusVerified {
		t.Errorf("Status = %s, refresh must preserve verification", got.Status)
	}
}

// One failing record is counted and skipped; the rest of the batch lands.
func TestReconcile_FaultIsolation(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.failOn["PARTNER_API-2"] = true
	r := ingest.NewReconciler(store)

	stats, active := r.Reconcile(ctx, "PARTNER_API", batch("PARTNER_API", 3))
	if stats.Inserted != 2 || stats.Failed != 1 {
		t.Errorf("stats = %+v, want 2 inserted / 1 failed", stats)
	}
	// The failed ID was still observed upstream, so it stays in the active set.
	if len(active) != 3 {
		t.Errorf("active = %v, want all 3 observed IDs", active)
	}
}

func TestReconcile_DraftWithoutSourceID(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	r := ingest.NewReconciler(store)

	drafts := []model.ListingDraft{
		draftFor("GOV_PORTAL", "", "No Identity Corp"),
		draftFor("GOV_PORTAL", "g-1", "Fine Corp"),
	}
	stats, active := r.Reconcile(ctx, "GOV_PORTAL", drafts)
	if stats.Inserted != 1 || stats.Failed != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if len(active) != 1 || active[0] != "g-1" {
		t.Errorf("active = %v, want [g-1]", active)
	}
}

// Full replacement: a source that drops its old batch and publishes a new one
// ends with the old listings expired and only the new ones active.
func TestReconcile_BatchReplacementSync(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	r := ingest.NewReconciler(store)

	_, active := r.Reconcile(ctx, "TALENT_BOARD", batch("TALENT_BOARD", 3))
	if _, err := r.SyncDeletions(ctx, "TALENT_BOARD", active); err != nil {
		t.Fatal(err)
	}

	replacement := []model.ListingDraft{
		draftFor("TALENT_BOARD", "TALENT_BOARD-4", "New A"),
		draftFor("TALENT_BOARD", "TALENT_BOARD-5", "New B"),
		draftFor("TALENT_BOARD", "TALENT_BOARD-6", "New C"),
	}
	_, active = r.Reconcile(ctx, "TALENT_BOARD", replacement)
	deleted, err := r.SyncDeletions(ctx, "TALENT_BOARD", active)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 3 {
		t.Errorf("deleted = %d, want 3", deleted)
	}

	var expired, liveNew int
	for _, l := range store.byID {
		switch {
		case l.Status == model.StatusExpired && l.DeletedAt != nil:
			expired++
		case l.Status == model.StatusUnverified && l.DeletedAt == nil:
			liveNew++
		default:
			t.Errorf("listing %d in unexpected state %s/%v", l.ID, l.Status, l.DeletedAt)
		}
	}
	if expired != 3 || liveNew != 3 {
		t.Errorf("expired = %d live = %d, want 3/3", expired, liveNew)
	}

	// Running the same sync again changes nothing.
	deleted, err = r.SyncDeletions(ctx, "TALENT_BOARD", active)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 0 {
		t.Errorf("repeat sync deleted %d, want 0", deleted)
	}
}

// An empty active set never triggers mass deletion: a failed fetch must not
// read as "everything vanished upstream".
func TestSyncDeletions_RefusesEmptyActiveSet(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	r := ingest.NewReconciler(store)

	r.Reconcile(ctx, "GOV_PORTAL", batch("GOV_PORTAL", 2))

	deleted, err := r.SyncDeletions(ctx, "GOV_PORTAL", nil)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 0 {
		t.Errorf("deleted = %d, want 0", deleted)
	}
	for _, l := range store.byID {
		if l.Status == model.StatusExpired {
			t.Errorf("listing %d expired by an empty-set sync", l.ID)
		}
	}
	if len(store.expireAt) != 0 {
		t.Errorf("ExpireMissing was called %d times, want 0", len(store.expireAt))
	}
}

// Deletion sync is scoped per source: another source's listings are never
// touched.
func TestSyncDeletions_SourceScoped(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	r := ingest.NewReconciler(store)

	r.Reconcile(ctx, "GOV_PORTAL", batch("GOV_PORTAL", 2))
	_, active := r.Reconcile(ctx, "PARTNER_API", batch("PARTNER_API", 1))

	deleted, err := r.SyncDeletions(ctx, "PARTNER_API", active)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 0 {
		t.Errorf("deleted = %d, want 0", deleted)
	}
	for _, l := range store.byID {
		if l.SourceName == "GOV_PORTAL" && l.Status != model.StatusUnverified {
			t.Errorf("gov listing %d was touched by partner sync", l.ID)
		}
	}
}
