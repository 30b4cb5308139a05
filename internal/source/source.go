// Package source implements the upstream listing adapters.
//
// Each adapter owns its wire schema, fetches with a bounded timeout, and
// hands back canonical drafts via the per-source mapping in internal/ingest.
// A fetch failure is returned as an error and isolated to that source; it
// never aborts siblings or the scheduler run.
package source

import (
	"context"
	"net/http"
	"time"

	"internmatch/listing-service/internal/model"
)

// Adapter is the uniform boundary the scheduler drives.
type Adapter interface {
	// Name returns the canonical source_name tag (e.g. "GOV_PORTAL").
	Name() string

	// Fetch pulls the source's current listings as normalised drafts.
	// Returns (nil, nil) when the adapter is unconfigured.
	Fetch(ctx context.Context) ([]model.ListingDraft, error)
}

// NewHTTPClient builds the shared client used by all adapters.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
